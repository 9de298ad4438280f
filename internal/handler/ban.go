package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/boibazar/boibazar/internal/ctxkeys"
	"github.com/boibazar/boibazar/internal/service"
	"github.com/boibazar/boibazar/internal/ui"
	"github.com/boibazar/boibazar/internal/ui/pages"
)

type BanHandler struct {
	banService *service.BanService
}

func NewBanHandler(banService *service.BanService) *BanHandler {
	return &BanHandler{banService: banService}
}

// BannedPage explains an active ban. Anyone without one is sent home.
func (h *BanHandler) BannedPage(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if user == nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	now := time.Now()
	status := ctxkeys.Ban(r.Context())
	if status == nil {
		var err error
		status, err = h.banService.Status(r.Context(), user.ID)
		if err != nil {
			slog.Error("failed to read ban status", "error", err, "user_id", user.ID)
			renderError(w, r, http.StatusInternalServerError, "Something went wrong", "Please try again.")
			return
		}
	}

	if !status.Active(now) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ui.RenderStatus(w, r, http.StatusForbidden, pages.Banned(pages.BannedData{
		Status:    status,
		Remaining: status.Remaining(now),
	}))
}
