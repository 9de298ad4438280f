package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/boibazar/boibazar/internal/ctxkeys"
	"github.com/boibazar/boibazar/internal/service"
	"github.com/boibazar/boibazar/internal/validation"
)

// maxUploadSize bounds multipart bodies before ParseMultipartForm.
const maxUploadSize = 12 << 20

type AccountHandler struct {
	userService *service.UserService
	fileService *service.FileService
}

func NewAccountHandler(userService *service.UserService, fileService *service.FileService) *AccountHandler {
	return &AccountHandler{
		userService: userService,
		fileService: fileService,
	}
}

func (h *AccountHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		backToProfile(w, r, "error", "avatar_invalid")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		backToProfile(w, r, "error", "avatar_invalid")
		return
	}
	defer func() { _ = file.Close() }()

	if _, err := validation.ValidateFile(header, validation.ImageConstraints); err != nil {
		slog.Warn("avatar rejected", "user_id", user.ID, "error", err)
		backToProfile(w, r, "error", "avatar_invalid")
		return
	}

	if _, err := h.fileService.ReplaceAvatar(r.Context(), user.ID, file, header); err != nil {
		slog.Error("failed to upload avatar", "error", err, "user_id", user.ID)
		backToProfile(w, r, "error", "avatar_failed")
		return
	}

	backToProfile(w, r, "notice", "avatar_updated")
}

func (h *AccountHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	if err := h.fileService.DeleteUserAvatar(r.Context(), user.ID); err != nil {
		slog.Error("failed to delete avatar", "error", err, "user_id", user.ID)
		backToProfile(w, r, "error", "avatar_failed")
		return
	}

	backToProfile(w, r, "notice", "avatar_removed")
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.userService.UpdatePassword(r.Context(), user.ID, r.FormValue("current_password"), r.FormValue("new_password"))
	switch {
	case err == nil:
		backToProfile(w, r, "notice", "password_changed")
	case errors.Is(err, service.ErrWrongPassword):
		backToProfile(w, r, "error", "password_wrong")
	default:
		if !errors.Is(err, service.ErrInvalidField) {
			slog.Error("failed to change password", "error", err, "user_id", user.ID)
		}
		backToProfile(w, r, "error", "password_failed")
	}
}

func backToProfile(w http.ResponseWriter, r *http.Request, kind, code string) {
	http.Redirect(w, r, "/app/profile?"+kind+"="+code, http.StatusSeeOther)
}
