package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/boibazar/boibazar/internal/ctxkeys"
	"github.com/boibazar/boibazar/internal/service"
	"github.com/boibazar/boibazar/internal/ui"
	"github.com/boibazar/boibazar/internal/ui/pages"
)

// fieldMessage returns the user-facing part of a validation error.
func fieldMessage(err error) string {
	if errors.Is(err, service.ErrInvalidField) {
		return strings.TrimPrefix(err.Error(), service.ErrInvalidField.Error()+": ")
	}
	return err.Error()
}

func setCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	cfg := ctxkeys.Config(r.Context())
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg != nil && cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

func renderError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	ui.RenderStatus(w, r, status, pages.Error(pages.ErrorData{
		Status:  status,
		Title:   title,
		Message: message,
	}))
}
