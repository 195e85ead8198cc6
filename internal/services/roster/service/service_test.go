package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"guildaudit/internal/core/identity"
	"guildaudit/internal/core/merge"
	"guildaudit/internal/core/progress"
	"guildaudit/internal/core/reset"
	"guildaudit/internal/modkit"
	"guildaudit/internal/modkit/repokit"
	perr "guildaudit/internal/platform/errors"
	"guildaudit/internal/platform/logger"
	"guildaudit/internal/services/roster/domain"
	"guildaudit/internal/services/roster/repo"
)

var passNow = time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)

type savedRec struct {
	Enriched *domain.Enriched
	Baseline *progress.Baseline
}

type fakeRepo struct {
	mu        sync.Mutex
	due       []domain.StoredCharacter
	gotCutoff time.Time
	gotLimit  int
	saved     map[string]savedRec
	saveErr   error
}

func (f *fakeRepo) EnsureSchema(context.Context) error { return nil }

func (f *fakeRepo) Upsert(_ context.Context, ch identity.Character, note string) (domain.StoredCharacter, error) {
	return domain.StoredCharacter{Character: ch, Key: ch.Key(), Note: note}, nil
}

func (f *fakeRepo) Get(_ context.Context, key string) (domain.StoredCharacter, error) {
	for _, sc := range f.due {
		if sc.Key == key {
			return sc, nil
		}
	}
	return domain.StoredCharacter{}, perr.NotFoundf("character %s not tracked", key)
}

func (f *fakeRepo) List(context.Context) ([]domain.StoredCharacter, error) { return f.due, nil }

func (f *fakeRepo) Delete(context.Context, string) error { return nil }

func (f *fakeRepo) ListDue(_ context.Context, cutoff time.Time, limit int) ([]domain.StoredCharacter, error) {
	f.gotCutoff, f.gotLimit = cutoff, limit
	if limit > 0 && limit < len(f.due) {
		return f.due[:limit], nil
	}
	return f.due, nil
}

func (f *fakeRepo) SaveEnrichment(
	_ context.Context,
	key string,
	enr *domain.Enriched,
	base *progress.Baseline,
	_ time.Time,
) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[string]savedRec{}
	}
	f.saved[key] = savedRec{Enriched: enr, Baseline: base}
	return nil
}

type profileFunc func(ctx context.Context, ch identity.Character, token string) *merge.Partial

func (f profileFunc) Fetch(ctx context.Context, ch identity.Character, token string) *merge.Partial {
	return f(ctx, ch, token)
}

type aggFunc func(ctx context.Context, ch identity.Character) *merge.Partial

func (f aggFunc) Fetch(ctx context.Context, ch identity.Character) *merge.Partial { return f(ctx, ch) }

type staticTokens struct {
	tok string
	err error
}

func (s staticTokens) Configured() bool                       { return true }
func (s staticTokens) Exchange(context.Context) (string, error) { return s.tok, s.err }

func roster(n int) []domain.StoredCharacter {
	out := make([]domain.StoredCharacter, 0, n)
	for i := range n {
		ch := identity.Character{Name: fmt.Sprintf("Char%d", i), Realm: "Kazzak"}
		out = append(out, domain.StoredCharacter{Character: ch, Key: ch.Key()})
	}
	return out
}

func ilvl(v float64) *merge.Partial {
	return &merge.Partial{Source: merge.SourceArmory, ItemLevel: &v}
}

type fakeTx struct{ repokit.Queryer }

func (fakeTx) Tx(_ context.Context, fn func(q repokit.Queryer) error) error { return fn(nil) }

func newTestSvc(fr *fakeRepo, cfg Config) *Svc {
	return &Svc{
		Repo:         fr,
		binder:       repokit.BindFunc[repo.Storage](func(repokit.Queryer) repo.Storage { return fr }),
		db:           fakeTx{},
		deps:         modkit.Deps{Log: *logger.Get()},
		config:       withDefaults(cfg),
		armory:       profileFunc(func(_ context.Context, _ identity.Character, _ string) *merge.Partial { return ilvl(480) }),
		aggregator:   aggFunc(func(_ context.Context, _ identity.Character) *merge.Partial { return nil }),
		logs:         profileFunc(func(_ context.Context, _ identity.Character, _ string) *merge.Partial { return nil }),
		armoryTokens: staticTokens{tok: "a-tok"},
		logsTokens:   staticTokens{tok: "l-tok"},
		now:          func() time.Time { return passNow },
	}
}

func TestRunPass_CountsAndIsolation(t *testing.T) {
	fr := &fakeRepo{due: roster(12)}
	svc := newTestSvc(fr, Config{Concurrency: 5})

	// three characters panic inside their source fetch
	throwing := map[string]bool{
		identity.Character{Name: "Char2", Realm: "Kazzak"}.Key():  true,
		identity.Character{Name: "Char7", Realm: "Kazzak"}.Key():  true,
		identity.Character{Name: "Char11", Realm: "Kazzak"}.Key(): true,
	}
	svc.armory = profileFunc(func(_ context.Context, ch identity.Character, _ string) *merge.Partial {
		if throwing[ch.Key()] {
			panic("provider returned nonsense")
		}
		return ilvl(480)
	})

	sum, err := svc.RunPass(context.Background(), domain.PassOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Total != 12 || sum.Synced != 9 || sum.Failed != 3 {
		t.Fatalf("expected 9/3 of 12, got %+v", sum)
	}
	if len(fr.saved) != 9 {
		t.Fatalf("expected 9 persisted records, got %d", len(fr.saved))
	}
	if sum.RunID == "" {
		t.Fatalf("expected a run id")
	}
}

func TestRunPass_AllSourcesEmptyStillSyncs(t *testing.T) {
	fr := &fakeRepo{due: roster(1)}
	svc := newTestSvc(fr, Config{})
	svc.armory = profileFunc(func(_ context.Context, _ identity.Character, _ string) *merge.Partial { return nil })

	sum, err := svc.RunPass(context.Background(), domain.PassOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Synced != 1 || sum.Failed != 0 {
		t.Fatalf("a dark pass must still produce a record, got %+v", sum)
	}
	if len(fr.saved) != 1 {
		t.Fatalf("expected the fallback record persisted, got %d", len(fr.saved))
	}
}

func TestEnrichOne_TotalFailureFallsBackToPrior(t *testing.T) {
	spec := "Devastation"
	ilv := 480.0
	sc := domain.StoredCharacter{
		Character: identity.Character{Name: "Agnes", Realm: "Kazzak"},
		Key:       "kazzak/agnes",
		Enriched:  &domain.Enriched{Spec: &spec, ItemLevel: &ilv},
	}

	fr := &fakeRepo{}
	svc := newTestSvc(fr, Config{})
	svc.armory = profileFunc(func(_ context.Context, _ identity.Character, _ string) *merge.Partial { return nil })

	out := svc.enrichOne(context.Background(), sc, tokenSet{}, reset.Default().Boundary(passNow))
	if out.Err != nil {
		t.Fatalf("total source failure must not surface an error, got %v", out.Err)
	}
	if out.Enriched == nil || out.Enriched.Spec == nil || *out.Enriched.Spec != "Devastation" {
		t.Fatalf("prior state must carry the record, got %+v", out.Enriched)
	}
	if out.Enriched.ItemLevel == nil || *out.Enriched.ItemLevel != 480 {
		t.Fatalf("prior item level must survive, got %v", out.Enriched.ItemLevel)
	}
	if len(out.Enriched.Sources) != 0 || out.Enriched.WeeklyKillCount != 0 {
		t.Fatalf("a dark pass contributes no sources or kills, got %+v", out.Enriched)
	}
	if out.Baseline != nil {
		t.Fatalf("no counters seen, baseline must stay untouched, got %+v", out.Baseline)
	}
}

func TestRunPass_DryRunSkipsPersistence(t *testing.T) {
	fr := &fakeRepo{due: roster(3)}
	svc := newTestSvc(fr, Config{})

	sum, err := svc.RunPass(context.Background(), domain.PassOptions{DryRun: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Synced != 3 {
		t.Fatalf("expected 3 synced, got %+v", sum)
	}
	if len(fr.saved) != 0 {
		t.Fatalf("dry run must not persist, got %d records", len(fr.saved))
	}
}

func TestWithDefaults_WindowSharedWithLogClient(t *testing.T) {
	cfg := withDefaults(Config{})
	if cfg.WCLogs.Window != cfg.Window {
		t.Fatalf("defaulted window must reach the log client, got %+v vs %+v", cfg.WCLogs.Window, cfg.Window)
	}

	custom := reset.Window{Weekday: time.Tuesday, Hour: 15}
	cfg = withDefaults(Config{Window: custom})
	if cfg.WCLogs.Window != custom {
		t.Fatalf("custom window must reach the log client, got %+v", cfg.WCLogs.Window)
	}
}

func TestRunPass_StalenessCutoff(t *testing.T) {
	fr := &fakeRepo{due: roster(1)}
	svc := newTestSvc(fr, Config{StaleAfter: 2 * time.Hour})

	if _, err := svc.RunPass(context.Background(), domain.PassOptions{Limit: 25}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := passNow.Add(-2 * time.Hour); !fr.gotCutoff.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, fr.gotCutoff)
	}
	if fr.gotLimit != 25 {
		t.Fatalf("expected limit 25, got %d", fr.gotLimit)
	}
}

func TestRunPass_ForceSelectsEverything(t *testing.T) {
	fr := &fakeRepo{due: roster(1)}
	svc := newTestSvc(fr, Config{})

	if _, err := svc.RunPass(context.Background(), domain.PassOptions{Force: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fr.gotCutoff.IsZero() {
		t.Fatalf("force must select with a zero cutoff, got %v", fr.gotCutoff)
	}
}

func TestRunPass_SaveFailureCountsAsFailed(t *testing.T) {
	fr := &fakeRepo{due: roster(2), saveErr: perr.DBf("connection reset")}
	svc := newTestSvc(fr, Config{})

	sum, err := svc.RunPass(context.Background(), domain.PassOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Failed != 2 {
		t.Fatalf("persistence failures must count, got %+v", sum)
	}
}

func TestEnrichOne_WeeklyDerivationPrefersLonger(t *testing.T) {
	boundary := reset.Default().Boundary(passNow)
	sc := domain.StoredCharacter{
		Character: identity.Character{Name: "Agnes", Realm: "Kazzak"},
		Key:       "kazzak/agnes",
		Baseline: &progress.Baseline{
			ResetAt: boundary,
			Bosses:  progress.Counters{"Fyrakk": {Mythic: 2}},
		},
	}

	fr := &fakeRepo{}
	svc := newTestSvc(fr, Config{})
	// counters say one new mythic kill, logs saw two distinct bosses
	svc.armory = profileFunc(func(_ context.Context, _ identity.Character, _ string) *merge.Partial {
		return &merge.Partial{
			Source: merge.SourceArmory,
			Kills:  progress.Counters{"Fyrakk": {Mythic: 3}},
		}
	})
	svc.logs = profileFunc(func(_ context.Context, _ identity.Character, _ string) *merge.Partial {
		return &merge.Partial{
			Source: merge.SourceWCLogs,
			WeeklyKills: []progress.KillDetail{
				{Boss: "Fyrakk", Difficulty: progress.DifficultyMythic, DifficultyID: progress.DifficultyMythicID},
				{Boss: "Smolderon", Difficulty: progress.DifficultyHeroic, DifficultyID: progress.DifficultyHeroicID},
			},
		}
	})

	out := svc.enrichOne(context.Background(), sc, tokenSet{Armory: "a", WCLogs: "l"}, boundary)
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if out.Enriched.WeeklyKillCount != 2 {
		t.Fatalf("log derivation saw more, expected 2, got %+v", out.Enriched.WeeklyKills)
	}
	if out.Baseline == nil || out.Baseline.Bosses["Fyrakk"].Mythic != 3 {
		t.Fatalf("baseline must advance to current counters, got %+v", out.Baseline)
	}
}

func TestEnrichOne_PriorBackstop(t *testing.T) {
	spec := "Devastation"
	sc := domain.StoredCharacter{
		Character: identity.Character{Name: "Agnes", Realm: "Kazzak"},
		Key:       "kazzak/agnes",
		Enriched:  &domain.Enriched{Spec: &spec},
	}

	fr := &fakeRepo{}
	svc := newTestSvc(fr, Config{})
	// armory is the only live source and reports no spec this pass
	out := svc.enrichOne(context.Background(), sc, tokenSet{Armory: "a"}, reset.Default().Boundary(passNow))
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if out.Enriched.Spec == nil || *out.Enriched.Spec != "Devastation" {
		t.Fatalf("persisted facts must survive an absent pass, got %v", out.Enriched.Spec)
	}
	if out.Enriched.ItemLevel == nil || *out.Enriched.ItemLevel != 480 {
		t.Fatalf("live facts must land, got %v", out.Enriched.ItemLevel)
	}
}
