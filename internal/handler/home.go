package handler

import (
	"net/http"

	"github.com/boibazar/boibazar/internal/ui"
	"github.com/boibazar/boibazar/internal/ui/pages"
)

type HomeHandler struct{}

func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

func (h *HomeHandler) HomePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		notFound(w, r)
		return
	}
	ui.Render(w, r, pages.Home())
}

func (h *HomeHandler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	notFound(w, r)
}

func (h *HomeHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ui.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, http.StatusNotFound, "Page not found", "The page you are looking for does not exist.")
}
