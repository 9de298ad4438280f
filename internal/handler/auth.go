package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/boibazar/boibazar/internal/catalog"
	"github.com/boibazar/boibazar/internal/config"
	"github.com/boibazar/boibazar/internal/ctxkeys"
	"github.com/boibazar/boibazar/internal/service"
	"github.com/boibazar/boibazar/internal/ui"
	"github.com/boibazar/boibazar/internal/ui/pages"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie = "oauth_state"
	googleUserInfo   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type AuthHandler struct {
	authService       *service.AuthService
	mergeService      *service.MergeService
	adminService      *service.AdminService
	catalog           *catalog.Catalog
	googleOAuthConfig *oauth2.Config
	userInfoURL       string
	mergeTicketMaxAge int
}

func NewAuthHandler(
	authService *service.AuthService,
	mergeService *service.MergeService,
	adminService *service.AdminService,
	catalog *catalog.Catalog,
	cfg *config.Config,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		mergeService: mergeService,
		adminService: adminService,
		catalog:      catalog,
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/google/callback",
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL:       googleUserInfo,
		mergeTicketMaxAge: int(cfg.MergeTicketExpiry.Seconds()),
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := pages.LoginData{Email: q.Get("email")}

	if code := q.Get("verify_error"); code != "" {
		data.Error = service.CallbackErrorMessage(code)
		data.ShowResend = data.Email != ""
	}
	if q.Get("reset") == "1" {
		data.Notice = "Your password was changed. Log in with the new one."
	}

	ui.Render(w, r, pages.Login(data))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	data := pages.LoginData{Email: email}

	if email == "" || password == "" {
		data.Error = "Email and password are required"
		ui.RenderStatus(w, r, http.StatusBadRequest, pages.Login(data))
		return
	}

	result, err := h.authService.Login(r.Context(), email, password)

	var banned *service.BannedError
	switch {
	case err == nil:
		if err := h.authService.SignIn(w, result.User); err != nil {
			slog.Error("failed to sign in", "error", err, "user_id", result.User.ID)
			data.Error = "An error occurred. Please try again."
			ui.RenderStatus(w, r, http.StatusInternalServerError, pages.Login(data))
			return
		}
		http.Redirect(w, r, "/app/profile", http.StatusSeeOther)

	case errors.As(err, &banned):
		// The ban page needs a session to show the details.
		if err := h.authService.SignIn(w, result.User); err != nil {
			slog.Error("failed to sign in banned user", "error", err, "user_id", result.User.ID)
		}
		slog.Info("banned user stopped at login", "user_id", result.User.ID)
		http.Redirect(w, r, "/banned", http.StatusSeeOther)

	case errors.Is(err, service.ErrEmailNotVerified):
		h.authService.ClearJWTCookie(w)
		data.Error = "Please confirm your email before logging in. Check your inbox for the link."
		data.ShowResend = true
		ui.RenderStatus(w, r, http.StatusUnauthorized, pages.Login(data))

	case errors.Is(err, service.ErrInvalidCredentials):
		slog.Warn("password login failed", "email", email)
		data.Error = "Invalid email or password"
		ui.RenderStatus(w, r, http.StatusUnauthorized, pages.Login(data))

	case errors.Is(err, service.ErrAccountMerged):
		data.Error = "This account was linked to your Google sign-in. Continue with Google."
		ui.RenderStatus(w, r, http.StatusUnauthorized, pages.Login(data))

	default:
		slog.Error("login failed", "error", err, "email", email)
		data.Error = "An error occurred. Please try again."
		ui.RenderStatus(w, r, http.StatusInternalServerError, pages.Login(data))
	}
}

func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.Register(pages.RegisterData{Catalog: h.catalog}))
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	in := service.RegisterInput{
		Email:         strings.TrimSpace(r.FormValue("email")),
		Password:      r.FormValue("password"),
		Name:          r.FormValue("name"),
		RollNumber:    r.FormValue("roll_number"),
		Semester:      r.FormValue("semester"),
		Department:    r.FormValue("department"),
		InstituteName: r.FormValue("institute_name"),
	}
	data := pages.RegisterData{
		Email:         in.Email,
		Name:          in.Name,
		RollNumber:    in.RollNumber,
		Semester:      in.Semester,
		Department:    in.Department,
		InstituteName: in.InstituteName,
		Catalog:       h.catalog,
	}

	user, err := h.authService.Register(r.Context(), in)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, service.ErrEmailAlreadyExists):
			data.Error = "An account with this email already exists. Log in instead."
			status = http.StatusConflict
		case errors.Is(err, service.ErrInvalidEmail):
			data.Error = "Please provide a valid email address"
		case errors.Is(err, service.ErrInvalidField):
			data.Error = fieldMessage(err)
		default:
			slog.Error("registration failed", "error", err, "email", in.Email)
			data.Error = "An error occurred. Please try again."
			status = http.StatusInternalServerError
		}
		ui.RenderStatus(w, r, status, pages.Register(data))
		return
	}

	http.Redirect(w, r, "/auth/verify-email?email="+url.QueryEscape(user.Email), http.StatusSeeOther)
}

func (h *AuthHandler) VerifyEmailPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.VerifyEmail(pages.VerifyEmailData{Email: r.URL.Query().Get("email")}))
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	data := pages.VerifyEmailData{Email: email}

	err := h.authService.ResendVerification(r.Context(), email)

	var cooldown *service.CooldownError
	switch {
	case err == nil:
		data.Notice = "A new confirmation email is on its way."
		ui.Render(w, r, pages.VerifyEmail(data))

	case errors.As(err, &cooldown):
		w.Header().Set("Retry-After", strconv.Itoa(cooldown.Seconds()))
		data.Error = fmt.Sprintf("Please wait %d seconds before requesting another email.", cooldown.Seconds())
		data.RetryAfter = cooldown.Seconds()
		ui.RenderStatus(w, r, http.StatusTooManyRequests, pages.VerifyEmail(data))

	case errors.Is(err, service.ErrAlreadyVerified):
		ui.Render(w, r, pages.Login(pages.LoginData{
			Email: email,
			Flash: pages.Flash{Notice: "Your email is already confirmed. Log in to continue."},
		}))

	case errors.Is(err, service.ErrInvalidEmail):
		data.Error = "Please provide a valid email address"
		ui.RenderStatus(w, r, http.StatusBadRequest, pages.VerifyEmail(data))

	default:
		slog.Error("resend verification failed", "error", err, "email", email)
		data.Error = "We could not send the email. Please try again."
		ui.RenderStatus(w, r, http.StatusInternalServerError, pages.VerifyEmail(data))
	}
}

// Callback handles the link from the confirmation email. Tokens in the query
// string are handled right away; otherwise the relay page posts the fragment.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := service.ProviderError(q); err != nil {
		h.callbackFailed(w, r, err, q.Get("email"))
		return
	}

	if q.Get("token") == "" && q.Get("token_hash") == "" && q.Get("access_token") == "" {
		ui.Render(w, r, pages.CallbackRelay())
		return
	}

	h.completeCallback(w, r, service.CallbackParams{Query: q})
}

func (h *AuthHandler) CallbackFragment(w http.ResponseWriter, r *http.Request) {
	fragment := strings.TrimPrefix(r.PostFormValue("fragment"), "#")

	if values, err := url.ParseQuery(fragment); err == nil {
		if err := service.ProviderError(values); err != nil {
			h.callbackFailed(w, r, err, "")
			return
		}
	}

	params := service.CallbackParams{Fragment: fragment}
	if cookie, err := r.Cookie(service.SessionCookieName); err == nil {
		params.Session = cookie.Value
	}
	h.completeCallback(w, r, params)
}

func (h *AuthHandler) completeCallback(w http.ResponseWriter, r *http.Request, params service.CallbackParams) {
	tok, err := service.ExtractVerificationToken(params)
	if err != nil {
		h.callbackFailed(w, r, err, "")
		return
	}

	if tok.Type == service.TypeRecovery && tok.Kind == service.TokenKindOTP {
		http.Redirect(w, r, "/auth/reset-password/"+url.PathEscape(tok.Token), http.StatusSeeOther)
		return
	}

	user, err := h.authService.VerifyCallback(r.Context(), tok)
	if err != nil {
		h.callbackFailed(w, r, err, "")
		return
	}

	slog.Info("email confirmed from callback", "user_id", user.ID, "source", tok.Source)
	ui.Render(w, r, pages.EmailConfirmed())
}

func (h *AuthHandler) callbackFailed(w http.ResponseWriter, r *http.Request, err error, email string) {
	code := service.CallbackErrorCode(err)
	slog.Warn("email verification callback failed", "code", code, "error", err)

	target := "/auth/login?verify_error=" + code
	if email != "" {
		target += "&email=" + url.QueryEscape(email)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *AuthHandler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.ForgotPassword(pages.Flash{}))
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	if email == "" {
		ui.RenderStatus(w, r, http.StatusBadRequest, pages.ForgotPassword(pages.Flash{Error: "Email is required"}))
		return
	}

	if err := h.authService.SendPasswordReset(r.Context(), email); err != nil {
		// Don't reveal specific errors to user
		slog.Warn("password reset send failed", "error", err, "email", email)
	}

	// Same answer for every address to prevent enumeration.
	ui.Render(w, r, pages.ForgotPassword(pages.Flash{
		Notice: "If an account exists for " + email + ", a reset link is on its way.",
	}))
}

func (h *AuthHandler) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.ResetPassword(pages.ResetPasswordData{Token: r.PathValue("token")}))
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	user, err := h.authService.ResetPassword(r.Context(), token, r.FormValue("password"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidField):
			ui.RenderStatus(w, r, http.StatusBadRequest, pages.ResetPassword(pages.ResetPasswordData{
				Token: token,
				Flash: pages.Flash{Error: fieldMessage(err)},
			}))
		case errors.Is(err, service.ErrTokenInvalid), errors.Is(err, service.ErrTokenExpired):
			ui.RenderStatus(w, r, http.StatusBadRequest, pages.ForgotPassword(pages.Flash{
				Error: "This reset link is invalid or has expired. Request a new one.",
			}))
		default:
			slog.Error("password reset failed", "error", err)
			renderError(w, r, http.StatusInternalServerError, "Something went wrong", "We could not reset your password. Please try again.")
		}
		return
	}

	slog.Info("password reset", "user_id", user.ID)
	http.Redirect(w, r, "/auth/login?reset=1&email="+url.QueryEscape(user.Email), http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if user := ctxkeys.User(r.Context()); user != nil {
		h.adminService.Invalidate(r.Context(), user.ID)
		slog.Info("user logged out", "user_id", user.ID)
	}
	h.authService.ClearJWTCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// GoogleAuth redirects user to Google OAuth consent screen
func (h *AuthHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	state := generateOAuthState()
	setCookie(w, r, oauthStateCookie, state, 600)

	url := h.googleOAuthConfig.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback signs the google account in, or finishes a merge when a
// merge ticket cookie is present.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("google oauth state validation failed", "error", err)
		h.oauthFailed(w, r)
		return
	}
	clearCookie(w, oauthStateCookie)

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("google oauth callback missing code", "error", r.URL.Query().Get("error"))
		h.oauthFailed(w, r)
		return
	}

	email, err := h.googleEmail(r, code)
	if err != nil {
		slog.Error("google oauth failed", "error", err)
		h.oauthFailed(w, r)
		return
	}

	if ticket, err := r.Cookie(service.MergeTicketCookieName); err == nil && ticket.Value != "" {
		h.completeMerge(w, r, ticket.Value, email)
		return
	}

	user, err := h.authService.AuthenticateOAuth(r.Context(), email)
	if err != nil {
		slog.Error("oauth authentication failed", "error", err, "email", email)
		h.oauthFailed(w, r)
		return
	}

	if err := h.authService.SignIn(w, user); err != nil {
		slog.Error("failed to sign in", "error", err, "user_id", user.ID)
		h.oauthFailed(w, r)
		return
	}

	slog.Info("user logged in with google oauth", "user_id", user.ID)
	http.Redirect(w, r, "/app/profile", http.StatusSeeOther)
}

func (h *AuthHandler) googleEmail(r *http.Request, code string) (string, error) {
	token, err := h.googleOAuthConfig.Exchange(r.Context(), code)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}

	client := h.googleOAuthConfig.Client(r.Context(), token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return "", fmt.Errorf("user info: %w", err)
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("user info: status %d", resp.StatusCode)
	}

	var userInfo struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return "", fmt.Errorf("decode user info: %w", err)
	}
	if userInfo.Email == "" || !userInfo.VerifiedEmail {
		return "", errors.New("google account has no verified email")
	}
	return userInfo.Email, nil
}

// oauthFailed ends a failed google sign-in. A pending account link is
// abandoned with its ticket cookie and reported on the merge result page.
func (h *AuthHandler) oauthFailed(w http.ResponseWriter, r *http.Request) {
	if ticket, err := r.Cookie(service.MergeTicketCookieName); err == nil && ticket.Value != "" {
		clearCookie(w, service.MergeTicketCookieName)
		mergeResult(w, r, http.StatusBadRequest, pages.MergeResultData{
			Message:  "Google sign-in failed, so your accounts were not linked. Please try again.",
			Redirect: "/auth/login",
			Delay:    5,
		})
		return
	}

	ui.RenderStatus(w, r, http.StatusBadRequest, pages.Login(pages.LoginData{
		Flash: pages.Flash{Error: "Google sign-in failed. Please try again."},
	}))
}

// generateOAuthState creates a random state token for OAuth CSRF protection
func generateOAuthState() string {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
