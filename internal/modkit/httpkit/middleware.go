package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"guildaudit/internal/platform/net/middleware"
)

// CommonStack returns the baseline middleware slice for API routers
// compose with auth or tenancy middleware as needed in main
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
		middleware.RequestLogContext(),
		middleware.RealIP(),

		// safety
		middleware.RecoverJSON,

		// LB liveness probe, answered before logging so it stays out of the access log
		middleware.Heartbeat("/ping"),

		// cache / freshness
		middleware.NoCache(),

		// observability
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 500 * time.Millisecond}),

		// cross-origin (tweak config in main if needed)
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.Timeout(30 * time.Second),
	}
}
