package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/boibazar/boibazar/internal/ctxkeys"
	"github.com/boibazar/boibazar/internal/service"
	"github.com/boibazar/boibazar/internal/ui"
	"github.com/boibazar/boibazar/internal/ui/pages"
	"github.com/boibazar/boibazar/internal/validation"
)

type VerificationHandler struct {
	verificationService *service.VerificationService
}

func NewVerificationHandler(verificationService *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verificationService: verificationService}
}

func (h *VerificationHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pages.Flash{})
}

func (h *VerificationHandler) SubmitDocument(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	file, header, ok := h.upload(w, r, "document", validation.ImageConstraints, validation.DocumentConstraints)
	if !ok {
		return
	}
	defer func() { _ = file.Close() }()

	_, err := h.verificationService.SubmitDocument(r.Context(), user.ID, r.FormValue("roll_no"), r.FormValue("reg_no"), file, header)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidField):
			h.render(w, r, http.StatusBadRequest, pages.Flash{Error: fieldMessage(err)})
		case errors.Is(err, service.ErrRollNumberTaken):
			h.render(w, r, http.StatusConflict, pages.Flash{Error: "This roll number is already verified on another account. Contact support if it is yours."})
		default:
			slog.Error("failed to submit verification document", "error", err, "user_id", user.ID)
			h.render(w, r, http.StatusInternalServerError, pages.Flash{Error: "We could not save your document. Please try again."})
		}
		return
	}

	h.render(w, r, http.StatusOK, pages.Flash{Notice: "Document submitted. We will review it shortly."})
}

func (h *VerificationHandler) SubmitFace(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	file, header, ok := h.upload(w, r, "photo", validation.ImageConstraints)
	if !ok {
		return
	}
	defer func() { _ = file.Close() }()

	if _, err := h.verificationService.SubmitFacePhoto(r.Context(), user.ID, file, header); err != nil {
		slog.Error("failed to submit face photo", "error", err, "user_id", user.ID)
		h.render(w, r, http.StatusInternalServerError, pages.Flash{Error: "We could not save your photo. Please try again."})
		return
	}

	h.render(w, r, http.StatusOK, pages.Flash{Notice: "Photo submitted. We will review it shortly."})
}

// upload reads and validates the file in field. On failure it has already
// written the response.
func (h *VerificationHandler) upload(w http.ResponseWriter, r *http.Request, field string, constraints ...validation.FileConstraints) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.render(w, r, http.StatusBadRequest, pages.Flash{Error: "The upload is too large"})
		return nil, nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		h.render(w, r, http.StatusBadRequest, pages.Flash{Error: "Please choose a file to upload"})
		return nil, nil, false
	}

	if _, err := validation.ValidateFile(header, constraints...); err != nil {
		_ = file.Close()
		h.render(w, r, http.StatusBadRequest, pages.Flash{Error: err.Error()})
		return nil, nil, false
	}

	return file, header, true
}

func (h *VerificationHandler) render(w http.ResponseWriter, r *http.Request, status int, flash pages.Flash) {
	user := ctxkeys.User(r.Context())

	record, err := h.verificationService.Combined(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to load verification", "error", err, "user_id", user.ID)
		renderError(w, r, http.StatusInternalServerError, "Something went wrong", "Please try again.")
		return
	}

	ui.RenderStatus(w, r, status, pages.Verification(pages.VerificationData{Flash: flash, Record: record}))
}
