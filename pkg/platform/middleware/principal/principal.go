// Package principal resolves the authenticated caller.
//
// Cryptographic identity is out of scope for this core: the outer system
// authenticates the caller and supplies the principal as an opaque header.
package principal

import (
	"log/slog"
	"net/http"

	id "carefund/pkg/domain"
	"carefund/pkg/requestcontext"
)

const Header = "X-Principal"

// Middleware parses the caller principal into the request context. Requests
// without a valid principal are rejected; read-only routes that tolerate
// anonymous callers should be mounted outside this middleware.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := id.ParsePrincipal(r.Header.Get(Header))
			if err != nil {
				logger.WarnContext(r.Context(), "request without valid principal",
					"request_id", requestcontext.RequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"principal header required"}`))
				return
			}
			ctx := requestcontext.WithCaller(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
