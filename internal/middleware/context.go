package middleware

import (
	"net/http"

	"github.com/boibazar/boibazar/internal/config"
	"github.com/boibazar/boibazar/internal/ctxkeys"
)

// Config adds the sanitized configuration to the request context. Secrets
// (JWT secret, database connection, API keys) are not part of it.
func Config(cfg *config.Config) func(http.Handler) http.Handler {
	public := cfg.Sanitized()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ctxkeys.WithConfig(r.Context(), public)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithURLPath adds the current URL's path to the context
func WithURLPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxkeys.WithURLPath(r.Context(), r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
