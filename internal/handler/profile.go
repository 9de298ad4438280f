package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/boibazar/boibazar/internal/catalog"
	"github.com/boibazar/boibazar/internal/ctxkeys"
	"github.com/boibazar/boibazar/internal/model"
	"github.com/boibazar/boibazar/internal/repository"
	"github.com/boibazar/boibazar/internal/service"
	"github.com/boibazar/boibazar/internal/ui"
	"github.com/boibazar/boibazar/internal/ui/pages"
)

type ProfileHandler struct {
	profileService *service.ProfileService
	authService    *service.AuthService
	catalog        *catalog.Catalog
}

func NewProfileHandler(profileService *service.ProfileService, authService *service.AuthService, catalog *catalog.Catalog) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		authService:    authService,
		catalog:        catalog,
	}
}

// Fixed query-string messages set by the account handlers after a redirect.
var profileNotices = map[string]string{
	"avatar_updated":   "Profile picture updated",
	"avatar_removed":   "Profile picture removed",
	"password_changed": "Password changed",
	"saved":            "Profile saved",
}

var profileErrors = map[string]string{
	"avatar_invalid":  "Please upload a JPG, PNG or WebP image up to 5 MB",
	"avatar_failed":   "We could not update your profile picture",
	"password_wrong":  "Current password is incorrect",
	"password_failed": "We could not change your password",
}

func (h *ProfileHandler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.render(w, r, http.StatusOK, ctxkeys.Profile(r.Context()), pages.Flash{
		Notice: profileNotices[q.Get("notice")],
		Error:  profileErrors[q.Get("error")],
	})
}

// UpdateProfile saves the profile form. It also creates the profile for a
// google account signing in for the first time.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	in := service.ProfileInput{
		Name:          r.FormValue("name"),
		RollNumber:    r.FormValue("roll_number"),
		Semester:      r.FormValue("semester"),
		Department:    r.FormValue("department"),
		InstituteName: r.FormValue("institute_name"),
		Phone:         r.FormValue("phone"),
	}

	profile, err := h.profileService.Save(r.Context(), user.ID, in)
	if err != nil {
		current := ctxkeys.Profile(r.Context())
		if errors.Is(err, service.ErrInvalidField) {
			h.render(w, r, http.StatusBadRequest, formProfile(current, user.ID, in), pages.Flash{Error: fieldMessage(err)})
			return
		}
		slog.Error("failed to save profile", "error", err, "user_id", user.ID)
		h.render(w, r, http.StatusInternalServerError, current, pages.Flash{Error: "We could not save your profile. Please try again."})
		return
	}

	slog.Info("profile saved", "user_id", user.ID)
	h.render(w, r, http.StatusOK, profile, pages.Flash{Notice: profileNotices["saved"]})
}

// formProfile keeps the submitted values on a failed save. Fixed fields stay as stored.
func formProfile(current *model.Profile, userID string, in service.ProfileInput) *model.Profile {
	p := &model.Profile{UserID: userID}
	if current != nil {
		*p = *current
	}
	p.Name = in.Name
	p.Semester = in.Semester
	p.Department = in.Department
	p.Phone = in.Phone
	if p.RollNumber == "" {
		p.RollNumber = in.RollNumber
	}
	if p.InstituteName == "" {
		p.InstituteName = in.InstituteName
	}
	return p
}

func (h *ProfileHandler) render(w http.ResponseWriter, r *http.Request, status int, profile *model.Profile, flash pages.Flash) {
	user := ctxkeys.User(r.Context())
	data := pages.ProfileData{
		Flash:       flash,
		Email:       user.Email,
		HasPassword: user.Provider == model.ProviderPassword,
		Profile:     profile,
		Catalog:     h.catalog,
	}

	if user.Provider == model.ProviderGoogle {
		suggested, err := h.authService.HasUnmergedPasswordAccount(r.Context(), user.Email)
		if err != nil {
			slog.Warn("failed to check for mergeable account", "error", err, "user_id", user.ID)
		}
		data.MergeSuggested = suggested
	}

	ui.RenderStatus(w, r, status, pages.Profile(data))
}

// StudentPage shows another student's profile to classmates of the same institute.
func (h *ProfileHandler) StudentPage(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	profile, err := h.profileService.SameInstitute(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotSameInstitute):
			renderError(w, r, http.StatusForbidden, "Not available", "You can only view students from your own institute.")
		case errors.Is(err, repository.ErrProfileNotFound):
			renderError(w, r, http.StatusNotFound, "Page not found", "This student does not exist.")
		default:
			slog.Error("failed to load student profile", "error", err, "user_id", user.ID)
			renderError(w, r, http.StatusInternalServerError, "Something went wrong", "Please try again.")
		}
		return
	}

	ui.Render(w, r, pages.Student(profile))
}

func (h *ProfileHandler) NotificationsPage(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	list, err := h.profileService.Notifications(r.Context(), user.ID, 50)
	if err != nil {
		slog.Error("failed to list notifications", "error", err, "user_id", user.ID)
		renderError(w, r, http.StatusInternalServerError, "Something went wrong", "Please try again.")
		return
	}

	ui.Render(w, r, pages.Notifications(list))
}

func (h *ProfileHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	if err := h.profileService.MarkNotificationRead(r.Context(), user.ID, r.PathValue("id")); err != nil {
		slog.Warn("failed to mark notification read", "error", err, "user_id", user.ID)
	}
	http.Redirect(w, r, "/app/notifications", http.StatusSeeOther)
}
