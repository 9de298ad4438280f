package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/boibazar/boibazar/internal/ctxkeys"
	"github.com/boibazar/boibazar/internal/model"
	"github.com/boibazar/boibazar/internal/repository"
	"github.com/boibazar/boibazar/internal/service"
	"github.com/boibazar/boibazar/internal/ui"
)

// Sessions reads the JWT cookie and puts the account and its profile into the
// request context. Profile stays nil for accounts that have none yet.
type Sessions interface {
	UserFromSession(ctx context.Context, token string) (*model.User, error)
	ClearJWTCookie(w http.ResponseWriter)
}

type Profiles interface {
	ByUserID(ctx context.Context, userID string) (*model.Profile, error)
}

func AuthMiddleware(sessions Sessions, profiles Profiles) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(service.SessionCookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := sessions.UserFromSession(r.Context(), cookie.Value)
			if err != nil {
				slog.Debug("session rejected", "error", err)
				sessions.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			// Never keep the hash around in the request.
			user.PasswordHash = nil
			ctx := ctxkeys.WithUser(r.Context(), user)

			profile, err := profiles.ByUserID(r.Context(), user.ID)
			switch {
			case err == nil:
				ctx = ctxkeys.WithProfile(ctx, profile)
			case !errors.Is(err, repository.ErrProfileNotFound):
				slog.Error("failed to load profile", "user_id", user.ID, "error", err)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

const profilePath = "/app/profile"

// RequireAuth ensures the user is signed in and has a complete profile.
// Accounts without one (first google sign-in) are sent to the profile form.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if user == nil {
			redirect(w, r, "/auth/login")
			return
		}

		profile := ctxkeys.Profile(r.Context())
		if (profile == nil || !profile.IsComplete()) && r.URL.Path != profilePath {
			redirect(w, r, profilePath)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// RequireGuest ensures the user is not authenticated
func RequireGuest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) != nil {
			redirect(w, r, profilePath)
			return
		}
		next.ServeHTTP(w, r)
	}
}

type BanChecker interface {
	Status(ctx context.Context, userID string) (*model.BanStatus, error)
}

// Paths a banned account can still reach.
var banExemptPrefixes = []string{
	"/banned",
	"/auth/logout",
	"/legal/",
	"/assets/",
}

// BanGate re-checks the ban status of the signed-in account on every request
// and sends banned accounts to /banned. The status is kept in the context for
// the ban page.
func BanGate(bans BanChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := ctxkeys.User(r.Context())
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			status, err := bans.Status(r.Context(), user.ID)
			if err != nil {
				slog.Error("ban check failed", "user_id", user.ID, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !status.Active(time.Now()) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithBan(r.Context(), status)
			for _, prefix := range banExemptPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			redirect(w, r, "/banned")
		})
	}
}

type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// RequireAdmin answers 403 for signed-in accounts that are not admins.
func RequireAdmin(admins AdminChecker) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := ctxkeys.User(r.Context())
			if user == nil {
				ui.JSONError(w, http.StatusUnauthorized, "not signed in")
				return
			}

			ok, err := admins.IsAdmin(r.Context(), user.ID)
			if err != nil {
				slog.Error("admin check failed", "user_id", user.ID, "error", err)
				ui.JSONError(w, http.StatusInternalServerError, "admin check failed")
				return
			}
			if !ok {
				slog.Warn("admin access denied", "user_id", user.ID, "path", r.URL.Path)
				ui.JSONError(w, http.StatusForbidden, service.ErrNotAdmin.Error())
				return
			}

			next.ServeHTTP(w, r)
		}
	}
}

// redirect uses HX-Redirect for HTMX requests so the whole page navigates.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
