package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guildaudit/internal/modkit"
	"guildaudit/internal/platform/config"
	"guildaudit/internal/platform/logger"
	"guildaudit/internal/platform/store"

	rosterdom "guildaudit/internal/services/roster/domain"
	rostermod "guildaudit/internal/services/roster/module"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	root := config.New()
	dbCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         dbCfg.MustString("DBURL"),
			MaxConns:    int32(dbCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: dbCfg.MayInt("SLOW_MS", 500),
			LogSQL:      dbCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// Flags
	var (
		fMode     = flag.String("mode", "once", "sync mode: once | loop")
		fInterval = flag.Duration("interval", 15*time.Minute, "pass interval in loop mode")
		fLimit    = flag.Int("limit", 0, "max characters per pass (0 = unlimited)")
		fConc     = flag.Int("concurrency", 0, "fetch concurrency (0 = SYNC_CONCURRENCY or default)")
		fForce    = flag.Bool("force", false, "ignore staleness and sync the whole roster")
		fDryRun   = flag.Bool("dryrun", false, "fetch and merge but do not persist")
	)
	flag.Parse()

	// Export flag overrides so the module reads them via FromConfig
	if *fConc > 0 {
		mustSetEnv("SYNC_CONCURRENCY", fmt.Sprintf("%d", *fConc))
	}
	mustSetEnv("SYNC_DRY_RUN", map[bool]string{true: "1", false: ""}[*fDryRun])

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		Log: *l,
	}

	rm := rostermod.New(deps)
	svc := rm.Service()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Repo.EnsureSchema(ctx); err != nil {
		l.Panic().Err(err).Msg("schema setup failed")
	}

	opts := rosterdom.PassOptions{
		Limit:  *fLimit,
		Force:  *fForce,
		DryRun: *fDryRun,
	}

	switch *fMode {
	case "once":
		if _, err := svc.RunPass(ctx, opts); err != nil {
			l.Fatal().Err(err).Msg("audit pass failed")
		}

	case "loop":
		t := time.NewTicker(*fInterval)
		defer t.Stop()
		for {
			if _, err := svc.RunPass(ctx, opts); err != nil && ctx.Err() == nil {
				l.Error().Err(err).Msg("audit pass failed")
			}
			select {
			case <-ctx.Done():
				l.Info().Msg("shutting down")
				return
			case <-t.C:
			}
		}

	default:
		l.Panic().Str("mode", *fMode).Msg("unknown -mode (expected: once | loop)")
	}
}
