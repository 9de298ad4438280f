package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/boibazar/boibazar/internal/ctxkeys"
	"github.com/boibazar/boibazar/internal/model"
	"github.com/boibazar/boibazar/internal/repository"
	"github.com/boibazar/boibazar/internal/service"
	"github.com/boibazar/boibazar/internal/ui"
)

// AdminHandler serves the JSON API behind the admin dashboard. Every route is
// wrapped in RequireAdmin.
type AdminHandler struct {
	userService         *service.UserService
	verificationService *service.VerificationService
	banService          *service.BanService
	adminService        *service.AdminService
}

func NewAdminHandler(
	userService *service.UserService,
	verificationService *service.VerificationService,
	banService *service.BanService,
	adminService *service.AdminService,
) *AdminHandler {
	return &AdminHandler{
		userService:         userService,
		verificationService: verificationService,
		banService:          banService,
		adminService:        adminService,
	}
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.userService.Overview(r.Context(), limit, offset)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		ui.JSONError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	ui.JSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *AdminHandler) Verifications(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "":
		status = model.VerificationPending
	case model.VerificationPending, model.VerificationApproved, model.VerificationRejected:
	default:
		ui.JSONError(w, http.StatusBadRequest, "unknown status")
		return
	}

	records, err := h.verificationService.Queue(r.Context(), status)
	if err != nil {
		slog.Error("failed to list verifications", "error", err, "status", status)
		ui.JSONError(w, http.StatusInternalServerError, "failed to list verifications")
		return
	}

	ui.JSON(w, http.StatusOK, map[string]any{"verifications": records})
}

func (h *AdminHandler) Verification(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if !h.userExists(w, r, userID) {
		return
	}

	record, err := h.verificationService.Combined(r.Context(), userID)
	if err != nil {
		slog.Error("failed to load verification", "error", err, "user_id", userID)
		ui.JSONError(w, http.StatusInternalServerError, "failed to load verification")
		return
	}

	ui.JSON(w, http.StatusOK, record)
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	admin := ctxkeys.User(r.Context())
	userID := r.PathValue("id")

	h.decided(w, userID, h.verificationService.Approve(r.Context(), userID, admin.ID))
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	admin := ctxkeys.User(r.Context())
	userID := r.PathValue("id")

	var body struct {
		Feedback string `json:"feedback"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	h.decided(w, userID, h.verificationService.Reject(r.Context(), userID, admin.ID, body.Feedback))
}

func (h *AdminHandler) decided(w http.ResponseWriter, userID string, err error) {
	switch {
	case err == nil:
		ui.JSON(w, http.StatusOK, map[string]bool{"ok": true})
	case errors.Is(err, service.ErrNotSubmitted):
		ui.JSONError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("failed to record verification decision", "error", err, "user_id", userID)
		ui.JSONError(w, http.StatusInternalServerError, "failed to update verification")
	}
}

// Ban accepts {"reason": "...", "days": 7}. Zero or missing days bans
// permanently.
func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
	admin := ctxkeys.User(r.Context())
	userID := r.PathValue("id")

	var body struct {
		Reason string `json:"reason"`
		Days   int    `json:"days"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Days < 0 {
		ui.JSONError(w, http.StatusBadRequest, "days must not be negative")
		return
	}
	if userID == admin.ID {
		ui.JSONError(w, http.StatusBadRequest, "cannot ban yourself")
		return
	}
	if !h.userExists(w, r, userID) {
		return
	}

	var expiresAt *time.Time
	if body.Days > 0 {
		t := time.Now().UTC().AddDate(0, 0, body.Days)
		expiresAt = &t
	}

	if err := h.banService.Ban(r.Context(), userID, body.Reason, expiresAt, admin.ID); err != nil {
		if errors.Is(err, service.ErrInvalidField) {
			ui.JSONError(w, http.StatusBadRequest, fieldMessage(err))
			return
		}
		slog.Error("failed to ban user", "error", err, "user_id", userID)
		ui.JSONError(w, http.StatusInternalServerError, "failed to ban user")
		return
	}

	h.status(w, r, userID)
}

func (h *AdminHandler) Unban(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if !h.userExists(w, r, userID) {
		return
	}

	if err := h.banService.Unban(r.Context(), userID); err != nil {
		slog.Error("failed to unban user", "error", err, "user_id", userID)
		ui.JSONError(w, http.StatusInternalServerError, "failed to unban user")
		return
	}

	h.status(w, r, userID)
}

func (h *AdminHandler) GrantAdmin(w http.ResponseWriter, r *http.Request) {
	admin := ctxkeys.User(r.Context())
	userID := r.PathValue("id")
	if !h.userExists(w, r, userID) {
		return
	}

	if err := h.adminService.Grant(r.Context(), userID, admin.ID); err != nil {
		slog.Error("failed to grant admin", "error", err, "user_id", userID)
		ui.JSONError(w, http.StatusInternalServerError, "failed to grant admin")
		return
	}
	ui.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AdminHandler) RevokeAdmin(w http.ResponseWriter, r *http.Request) {
	admin := ctxkeys.User(r.Context())
	userID := r.PathValue("id")
	if userID == admin.ID {
		ui.JSONError(w, http.StatusBadRequest, "cannot revoke your own access")
		return
	}

	if err := h.adminService.Revoke(r.Context(), userID); err != nil {
		slog.Error("failed to revoke admin", "error", err, "user_id", userID)
		ui.JSONError(w, http.StatusInternalServerError, "failed to revoke admin")
		return
	}
	ui.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AdminHandler) status(w http.ResponseWriter, r *http.Request, userID string) {
	status, err := h.banService.Status(r.Context(), userID)
	if err != nil {
		slog.Error("failed to read ban status", "error", err, "user_id", userID)
		ui.JSONError(w, http.StatusInternalServerError, "failed to read ban status")
		return
	}
	ui.JSON(w, http.StatusOK, status)
}

func (h *AdminHandler) userExists(w http.ResponseWriter, r *http.Request, userID string) bool {
	_, err := h.userService.ByID(r.Context(), userID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, repository.ErrUserNotFound):
		ui.JSONError(w, http.StatusNotFound, "user not found")
	default:
		slog.Error("failed to get user", "error", err, "user_id", userID)
		ui.JSONError(w, http.StatusInternalServerError, "failed to get user")
	}
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v); err != nil {
		ui.JSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
