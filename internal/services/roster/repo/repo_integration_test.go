//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"guildaudit/internal/core/identity"
	"guildaudit/internal/core/progress"
	perr "guildaudit/internal/platform/errors"
	"guildaudit/internal/platform/store"
	"guildaudit/internal/services/roster/domain"
)

func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mapped.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func TestRepo_RoundTrip_Integration(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{Enabled: true, URL: dsn, MaxConns: 2},
	})
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	defer func() { _ = st.Close(context.Background()) }()

	r := NewPG().Bind(st.PG)
	if err := r.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	// idempotent
	if err := r.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema second run failed: %v", err)
	}

	agnes := identity.Character{Name: "Ágnes", Realm: "Twisting Nether"}
	bror := identity.Character{Name: "Bror", Realm: "Kazzak"}

	sc, err := r.Upsert(ctx, agnes, "main")
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if sc.Key != "twisting-nether/agnes" || sc.Note != "main" {
		t.Fatalf("unexpected stored character: %+v", sc)
	}
	if _, err := r.Upsert(ctx, bror, ""); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// re-adding refreshes the note without erroring
	if sc, err = r.Upsert(ctx, agnes, "officer alt"); err != nil || sc.Note != "officer alt" {
		t.Fatalf("re-add failed: %v %+v", err, sc)
	}

	// both never synced, both due
	due, err := r.ListDue(ctx, time.Now().UTC(), 0)
	if err != nil {
		t.Fatalf("ListDue failed: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due, got %d", len(due))
	}

	ilvl := 489.0
	base := &progress.Baseline{
		ResetAt: time.Date(2024, 3, 6, 7, 0, 0, 0, time.UTC),
		Bosses:  progress.Counters{"Fyrakk": {Mythic: 3}},
	}
	enr := &domain.Enriched{
		ItemLevel:       &ilvl,
		WeeklyKillCount: 1,
		WeeklyKills: []progress.KillDetail{
			{Boss: "Fyrakk", Difficulty: progress.DifficultyMythic, DifficultyID: progress.DifficultyMythicID},
		},
		Sources:  []string{"armory"},
		SyncedAt: time.Now().UTC(),
	}
	if err := r.SaveEnrichment(ctx, sc.Key, enr, base, time.Now().UTC()); err != nil {
		t.Fatalf("SaveEnrichment failed: %v", err)
	}

	got, err := r.Get(ctx, sc.Key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Enriched == nil || got.Enriched.ItemLevel == nil || *got.Enriched.ItemLevel != 489 {
		t.Fatalf("enrichment did not round trip: %+v", got.Enriched)
	}
	if got.Baseline == nil || got.Baseline.Bosses["Fyrakk"].Mythic != 3 {
		t.Fatalf("baseline did not round trip: %+v", got.Baseline)
	}
	if got.LastSyncedAt == nil {
		t.Fatalf("expected a sync stamp")
	}

	// only the unsynced character remains due against a past cutoff
	due, err = r.ListDue(ctx, time.Now().UTC().Add(-time.Minute), 0)
	if err != nil {
		t.Fatalf("ListDue failed: %v", err)
	}
	if len(due) != 1 || due[0].Key != "kazzak/bror" {
		t.Fatalf("expected only the never-synced character, got %+v", due)
	}

	// nil jsonb must keep the previous value
	if err := r.SaveEnrichment(ctx, sc.Key, nil, nil, time.Now().UTC()); err != nil {
		t.Fatalf("SaveEnrichment with nils failed: %v", err)
	}
	if got, err = r.Get(ctx, sc.Key); err != nil || got.Enriched == nil {
		t.Fatalf("nil save must not clear enrichment: %v %+v", err, got.Enriched)
	}

	if err := r.Delete(ctx, sc.Key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := r.Get(ctx, sc.Key); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := r.Delete(ctx, sc.Key); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("expected not found on double delete, got %v", err)
	}
}
