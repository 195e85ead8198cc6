// Package service contains the roster audit workflows
package service

import (
	"context"
	"time"

	"guildaudit/internal/adapters/sources/armory"
	"guildaudit/internal/adapters/sources/oauth"
	"guildaudit/internal/adapters/sources/raiderio"
	"guildaudit/internal/adapters/sources/wclogs"
	"guildaudit/internal/core/identity"
	"guildaudit/internal/core/merge"
	"guildaudit/internal/core/reset"
	"guildaudit/internal/modkit"
	"guildaudit/internal/modkit/repokit"
	perr "guildaudit/internal/platform/errors"
	"guildaudit/internal/services/roster/domain"
	"guildaudit/internal/services/roster/repo"
)

// Service defines the roster service contract
type Service interface {
	domain.RosterPort
	domain.SyncerPort
}

// profileSource is the authenticated profile provider seam
type profileSource interface {
	Fetch(ctx context.Context, ch identity.Character, token string) *merge.Partial
}

// aggregatorSource is the unauthenticated aggregator seam
type aggregatorSource interface {
	Fetch(ctx context.Context, ch identity.Character) *merge.Partial
}

// tokenSource is the client-credentials seam
type tokenSource interface {
	Configured() bool
	Exchange(ctx context.Context) (string, error)
}

// Config carries runtime knobs for the audit pass
type Config struct {
	Concurrency int
	StaleAfter  time.Duration
	DryRun      bool
	Window      reset.Window

	Armory      armory.Options
	ArmoryAuth  oauth.Config
	RaiderIO    raiderio.Options
	WCLogs      wclogs.Options
	WCLogsAuth  oauth.Config
}

// Svc implements the roster service
type Svc struct {
	Repo   repo.Storage
	binder repokit.Binder[repo.Storage]
	db     repokit.TxRunner
	deps   modkit.Deps
	config Config

	armory     profileSource
	aggregator aggregatorSource
	logs       profileSource

	armoryTokens tokenSource
	logsTokens   tokenSource

	now func() time.Time
}

// New constructs a roster service
func New(deps modkit.Deps, cfg Config) *Svc {
	if deps.PG == nil {
		panic("roster.Service requires a non nil TxRunner")
	}
	cfg = withDefaults(cfg)

	b := repo.NewPG()
	return &Svc{
		Repo:         repokit.MustBind(b, deps.PG),
		binder:       b,
		db:           deps.PG,
		deps:         deps,
		config:       cfg,
		armory:       armory.New(cfg.Armory),
		aggregator:   raiderio.New(cfg.RaiderIO),
		logs:         wclogs.New(cfg.WCLogs),
		armoryTokens: oauth.New(cfg.ArmoryAuth),
		logsTokens:   oauth.New(cfg.WCLogsAuth),
		now:          time.Now,
	}
}

func withDefaults(cfg Config) Config {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = time.Hour
	}
	if cfg.Window == (reset.Window{}) {
		cfg.Window = reset.Default()
	}
	// the log client must agree with the diff engine on the reset boundary
	if cfg.WCLogs.Window == (reset.Window{}) {
		cfg.WCLogs.Window = cfg.Window
	}
	return cfg
}

// Add implements domain.RosterPort
func (s *Svc) Add(ctx context.Context, ch identity.Character, note string) (domain.StoredCharacter, error) {
	if !ch.Valid() {
		return domain.StoredCharacter{}, perr.InvalidArgf("character needs a name and a realm")
	}
	return s.Repo.Upsert(ctx, ch, note)
}

// Get implements domain.RosterPort
func (s *Svc) Get(ctx context.Context, ch identity.Character) (domain.StoredCharacter, error) {
	if !ch.Valid() {
		return domain.StoredCharacter{}, perr.InvalidArgf("character needs a name and a realm")
	}
	return s.Repo.Get(ctx, ch.Key())
}

// List implements domain.RosterPort
func (s *Svc) List(ctx context.Context) ([]domain.StoredCharacter, error) {
	return s.Repo.List(ctx)
}

// Remove implements domain.RosterPort
func (s *Svc) Remove(ctx context.Context, ch identity.Character) error {
	if !ch.Valid() {
		return perr.InvalidArgf("character needs a name and a realm")
	}
	return s.Repo.Delete(ctx, ch.Key())
}
