package main

import (
	"context"
	"net/http"

	"guildaudit/internal/modkit"
	"guildaudit/internal/modkit/httpkit"
	"guildaudit/internal/platform/config"
	perr "guildaudit/internal/platform/errors"
	"guildaudit/internal/platform/logger"
	phttp "guildaudit/internal/platform/net/http"
	"guildaudit/internal/platform/store"

	rostermod "guildaudit/internal/services/roster/module"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")

	// bring up logging early
	l := logger.Get()

	st, err := store.Open(
		context.Background(),
		store.Config{
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", true),
			},
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		Log: *l,
	}

	rm := rostermod.New(deps)

	// http server (reads API_PORT)
	srv := phttp.NewServer(apiCfg)

	httpkit.MountAPIV1(srv.Router(), httpkit.CommonStack(), func(api httpkit.Router) {
		httpkit.Get(api, "/healthz", func(r *http.Request) (any, error) {
			if err := st.Guard(r.Context()); err != nil {
				return nil, perr.Unavailablef("store not ready: %v", err)
			}
			return map[string]string{"status": "ok"}, nil
		})
		rm.MountRoutes(api)
	})

	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
