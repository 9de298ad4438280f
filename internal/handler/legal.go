package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/boibazar/boibazar/internal/service"
	"github.com/boibazar/boibazar/internal/ui"
	"github.com/boibazar/boibazar/internal/ui/pages"
)

type LegalHandler struct {
	legalService *service.LegalService
}

func NewLegalHandler(legalService *service.LegalService) *LegalHandler {
	handler := &LegalHandler{
		legalService: legalService,
	}

	// A missing content dir leaves every page not found.
	if err := handler.legalService.LoadPages(); err != nil {
		slog.Warn("failed to load legal pages", "error", err)
	}

	return handler
}

func (h *LegalHandler) ShowPage(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("page")

	page, err := h.legalService.Page(slug)
	if err != nil {
		if !errors.Is(err, service.ErrPageNotFound) {
			slog.Error("failed to load legal page", "error", err, "slug", slug)
		}
		notFound(w, r)
		return
	}

	ui.Render(w, r, pages.Legal(pages.LegalData{
		Title:       page.Title,
		Content:     page.Content,
		LastUpdated: page.LastUpdated,
	}))
}
