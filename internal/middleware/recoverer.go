// AngelaMos | 2026
// recoverer.go

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/schooltino/api/internal/core"
)

// Recoverer converts panics into opaque INTERNAL responses. The stack is
// logged with the request correlation id and never reaches the client.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered",
					"panic", rec,
					"request_id", GetRequestID(r.Context()),
					"stack", string(debug.Stack()),
				)
				core.JSONError(w, core.NewAppError(
					nil,
					"internal server error",
					http.StatusInternalServerError,
					core.TagInternal,
				))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
