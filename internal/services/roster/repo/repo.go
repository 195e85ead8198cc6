// Package repo provides the roster repository implementation
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"guildaudit/internal/core/identity"
	"guildaudit/internal/core/progress"
	"guildaudit/internal/modkit/repokit"
	perr "guildaudit/internal/platform/errors"
	str "guildaudit/internal/platform/strings"
	"guildaudit/internal/services/roster/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the roster repository
type Storage interface {
	// EnsureSchema creates the characters table when absent
	EnsureSchema(ctx context.Context) error

	Upsert(ctx context.Context, ch identity.Character, note string) (domain.StoredCharacter, error)
	Get(ctx context.Context, key string) (domain.StoredCharacter, error)
	List(ctx context.Context) ([]domain.StoredCharacter, error)
	Delete(ctx context.Context, key string) error

	// ListDue returns characters whose last sync predates cutoff (or that have
	// never synced), oldest first. A zero cutoff selects everything
	ListDue(ctx context.Context, cutoff time.Time, limit int) ([]domain.StoredCharacter, error)

	// SaveEnrichment persists the merged view, the counter baseline, and the
	// sync stamp for one character
	SaveEnrichment(
		ctx context.Context,
		key string,
		enr *domain.Enriched,
		base *progress.Baseline,
		at time.Time,
	) error
}

const characterCols = `key, name, realm, note, added_at, last_synced_at, enriched, baseline`

// EnsureSchema implements Storage
func (s *pg) EnsureSchema(ctx context.Context) error {
	_, err := s.q.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS characters (
			key            text PRIMARY KEY,
			name           text NOT NULL,
			realm          text NOT NULL,
			note           text,
			added_at       timestamptz NOT NULL DEFAULT now(),
			last_synced_at timestamptz,
			enriched       jsonb,
			baseline       jsonb
		)`)
	if err != nil {
		return perr.FromPostgres(err, "ensure characters schema")
	}
	_, err = s.q.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS characters_due_idx
		ON characters (last_synced_at ASC NULLS FIRST)`)
	if err != nil {
		return perr.FromPostgres(err, "ensure characters index")
	}
	return nil
}

// Upsert inserts or refreshes a tracked character; enrichment state survives
// re-adding an existing character
func (s *pg) Upsert(ctx context.Context, ch identity.Character, note string) (domain.StoredCharacter, error) {
	row := s.q.QueryRow(ctx, `
		INSERT INTO characters (key, name, realm, note, added_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (key) DO UPDATE SET
			name = EXCLUDED.name,
			realm = EXCLUDED.realm,
			note = EXCLUDED.note
		RETURNING `+characterCols,
		ch.Key(), ch.Name, ch.Realm, str.SQLNull(note),
	)
	return scanCharacter(row)
}

// Get implements Storage
func (s *pg) Get(ctx context.Context, key string) (domain.StoredCharacter, error) {
	row := s.q.QueryRow(ctx, `SELECT `+characterCols+` FROM characters WHERE key = $1`, key)
	sc, err := scanCharacter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StoredCharacter{}, perr.NotFoundf("character %s not tracked", key)
	}
	return sc, err
}

// List implements Storage
func (s *pg) List(ctx context.Context) ([]domain.StoredCharacter, error) {
	rows, err := s.q.Query(ctx, `SELECT `+characterCols+` FROM characters ORDER BY realm, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCharacters(rows)
}

// Delete implements Storage
func (s *pg) Delete(ctx context.Context, key string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM characters WHERE key = $1`, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("character %s not tracked", key)
	}
	return nil
}

// ListDue implements Storage
func (s *pg) ListDue(ctx context.Context, cutoff time.Time, limit int) ([]domain.StoredCharacter, error) {
	sql := `
		SELECT ` + characterCols + `
		FROM characters
		WHERE last_synced_at IS NULL OR last_synced_at < $1
		ORDER BY last_synced_at ASC NULLS FIRST, key ASC`
	args := []any{cutoff}
	if cutoff.IsZero() {
		sql = `SELECT ` + characterCols + `
		FROM characters
		ORDER BY last_synced_at ASC NULLS FIRST, key ASC`
		args = nil
	}
	if limit > 0 {
		args = append(args, limit)
		if cutoff.IsZero() {
			sql += ` LIMIT $1`
		} else {
			sql += ` LIMIT $2`
		}
	}

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCharacters(rows)
}

// SaveEnrichment implements Storage
func (s *pg) SaveEnrichment(
	ctx context.Context,
	key string,
	enr *domain.Enriched,
	base *progress.Baseline,
	at time.Time,
) error {
	enrJSON, err := marshalNullable(enr)
	if err != nil {
		return perr.JSONErrf("encode enrichment for %s: %v", key, err)
	}
	baseJSON, err := marshalNullable(base)
	if err != nil {
		return perr.JSONErrf("encode baseline for %s: %v", key, err)
	}

	tag, err := s.q.Exec(ctx, `
		UPDATE characters SET
			enriched = COALESCE($2, enriched),
			baseline = COALESCE($3, baseline),
			last_synced_at = $4
		WHERE key = $1`,
		key, enrJSON, baseJSON, at,
	)
	if err != nil {
		return perr.FromPostgres(err, "save enrichment")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("character %s not tracked", key)
	}
	return nil
}

// marshalNullable encodes v to jsonb bytes, nil pointer stays SQL NULL
func marshalNullable(v any) ([]byte, error) {
	switch t := v.(type) {
	case *domain.Enriched:
		if t == nil {
			return nil, nil
		}
	case *progress.Baseline:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func scanCharacter(row repokit.Row) (domain.StoredCharacter, error) {
	var (
		sc       domain.StoredCharacter
		note     *string
		synced   *time.Time
		enrJSON  []byte
		baseJSON []byte
	)
	if err := row.Scan(&sc.Key, &sc.Name, &sc.Realm, &note, &sc.AddedAt, &synced, &enrJSON, &baseJSON); err != nil {
		return domain.StoredCharacter{}, err
	}
	if note != nil {
		sc.Note = *note
	}
	sc.LastSyncedAt = synced
	if len(enrJSON) > 0 {
		var e domain.Enriched
		if err := json.Unmarshal(enrJSON, &e); err != nil {
			return domain.StoredCharacter{}, perr.JSONErrf("decode enrichment for %s: %v", sc.Key, err)
		}
		sc.Enriched = &e
	}
	if len(baseJSON) > 0 {
		var b progress.Baseline
		if err := json.Unmarshal(baseJSON, &b); err != nil {
			return domain.StoredCharacter{}, perr.JSONErrf("decode baseline for %s: %v", sc.Key, err)
		}
		sc.Baseline = &b
	}
	return sc, nil
}

func scanCharacters(rows repokit.Rows) ([]domain.StoredCharacter, error) {
	var out []domain.StoredCharacter
	for rows.Next() {
		sc, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
