package middleware

import (
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/checklist-api/internal/api/shared"
	"github.com/phrazzld/checklist-api/internal/platform/logger"
)

// TraceMiddleware adds a trace ID to the request context and a request-scoped
// logger carrying it. It reuses chi's request ID when RequestID runs first.
func TraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.WithLogger(r.Context(), base)
			ctx = shared.SetTraceID(ctx, chimiddleware.GetReqID(r.Context()))

			logger.FromContext(ctx).Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
