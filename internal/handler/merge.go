package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/boibazar/boibazar/internal/ctxkeys"
	"github.com/boibazar/boibazar/internal/service"
	"github.com/boibazar/boibazar/internal/ui"
	"github.com/boibazar/boibazar/internal/ui/pages"
)

func (h *AuthHandler) MergePage(w http.ResponseWriter, r *http.Request) {
	data := pages.MergeData{}
	if user := ctxkeys.User(r.Context()); user != nil {
		data.Email = user.Email
	}
	ui.Render(w, r, pages.AccountMerge(data))
}

// BeginMerge re-checks the old password account, stores a merge ticket in an
// HttpOnly cookie and sends the user to Google. The current session is
// dropped so the callback signs in fresh.
func (h *AuthHandler) BeginMerge(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	data := pages.MergeData{Email: email}

	ticket, err := h.mergeService.Begin(r.Context(), email, r.FormValue("password"))
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			data.Error = "Invalid email or password"
			status = http.StatusUnauthorized
		case errors.Is(err, service.ErrMergeSourceMissing):
			data.Error = "That account has no profile to bring over."
		case errors.Is(err, service.ErrAccountMerged):
			data.Error = "That account is already linked to a Google sign-in."
		default:
			slog.Error("failed to begin merge", "error", err, "email", email)
			data.Error = "An error occurred. Please try again."
			status = http.StatusInternalServerError
		}
		ui.RenderStatus(w, r, status, pages.AccountMerge(data))
		return
	}

	h.authService.ClearJWTCookie(w)
	setCookie(w, r, service.MergeTicketCookieName, ticket.ID, h.mergeTicketMaxAge)

	slog.Info("account merge started", "old_account_id", ticket.OldAccountID)
	http.Redirect(w, r, "/auth/google", http.StatusSeeOther)
}

func (h *AuthHandler) completeMerge(w http.ResponseWriter, r *http.Request, ticketID, email string) {
	clearCookie(w, service.MergeTicketCookieName)

	result, err := h.mergeService.Complete(r.Context(), ticketID, email)
	if err != nil {
		var mismatch *service.EmailMismatchError
		msg := "We could not link your accounts. Please try again."
		switch {
		case errors.As(err, &mismatch):
			msg = fmt.Sprintf("The Google account %s does not match %s. Sign in with the same email to link your accounts.",
				mismatch.NewEmail, mismatch.OldEmail)
			slog.Warn("merge refused on email mismatch", "old_email", mismatch.OldEmail, "new_email", mismatch.NewEmail)
		case errors.Is(err, service.ErrMergeTicketInvalid):
			msg = "Your linking session expired. Start again from the link page."
			slog.Warn("merge ticket invalid", "error", err)
		default:
			slog.Error("account merge failed", "error", err)
		}

		mergeResult(w, r, http.StatusBadRequest, pages.MergeResultData{
			Message:  msg,
			Redirect: "/auth/login",
			Delay:    5,
		})
		return
	}

	if err := h.authService.SignIn(w, result.User); err != nil {
		slog.Error("failed to sign in after merge", "error", err, "user_id", result.User.ID)
	}

	slog.Info("account merge completed", "user_id", result.User.ID, "moved", result.Moved)
	mergeResult(w, r, http.StatusOK, pages.MergeResultData{
		Success:  true,
		Message:  "Your accounts are linked. Everything from your old account is now here.",
		Redirect: "/",
		Delay:    3,
	})
}

func mergeResult(w http.ResponseWriter, r *http.Request, status int, data pages.MergeResultData) {
	w.Header().Set("Refresh", fmt.Sprintf("%d; url=%s", data.Delay, data.Redirect))
	ui.RenderStatus(w, r, status, pages.MergeResult(data))
}
