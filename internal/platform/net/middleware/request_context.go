package middleware

import (
	"net/http"

	"guildaudit/internal/platform/logger"
	pnet "guildaudit/internal/platform/net"
)

// RequestLogContext copies the request id onto the logger context so every
// downstream log line carries request_id. Mount after RequestID
func RequestLogContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.WithRequest(r.Context(), pnet.RequestID(r.Context()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
