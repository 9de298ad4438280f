package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/boibazar/boibazar/internal/ctxkeys"
	"github.com/boibazar/boibazar/internal/ui"
)

const (
	csrfCookieName = "csrf_token"
	csrfFormField  = "csrf_token"
	csrfHeader     = "X-CSRF-Token"
	csrfTokenBytes = 32
	csrfMaxAge     = 7 * 24 * 60 * 60
)

var csrfEncoding = base64.RawURLEncoding

// CSRFProtection is a double-submit check: unsafe requests must echo the
// csrf_token cookie in the X-CSRF-Token header (relay script, admin API
// calls) or in the csrf_token form field (every form, multipart included).
func CSRFProtection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := csrfToken(w, r)
		if err != nil {
			slog.Error("failed to generate csrf token", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		r = r.WithContext(ctxkeys.WithCSRFToken(r.Context(), token))

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		submitted := r.Header.Get(csrfHeader)
		if submitted == "" {
			submitted = r.PostFormValue(csrfFormField)
		}
		if submitted == "" || subtle.ConstantTimeCompare([]byte(token), []byte(submitted)) != 1 {
			slog.Warn("csrf validation failed", "path", r.URL.Path, "method", r.Method, "ip", getClientIP(r))
			if wantsJSON(r) {
				ui.JSONError(w, http.StatusForbidden, "invalid csrf token")
				return
			}
			http.Error(w, "Invalid CSRF token", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// csrfToken returns the request's token, issuing a new cookie when the
// current one is missing or malformed.
func csrfToken(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(csrfCookieName); err == nil && len(c.Value) == csrfEncoding.EncodedLen(csrfTokenBytes) {
		return c.Value, nil
	}

	token, err := randomToken(csrfTokenBytes, csrfEncoding)
	if err != nil {
		return "", err
	}

	cfg := ctxkeys.Config(r.Context())
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg != nil && cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   csrfMaxAge,
	})
	return token, nil
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/admin/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
