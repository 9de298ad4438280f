package routes

import (
	"io/fs"
	"net/http"

	"github.com/boibazar/boibazar/assets"
	"github.com/boibazar/boibazar/internal/app"
	"github.com/boibazar/boibazar/internal/handler"
	"github.com/boibazar/boibazar/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler()
	legal := handler.NewLegalHandler(app.LegalService)
	auth := handler.NewAuthHandler(app.AuthService, app.MergeService, app.AdminService, app.Catalog, app.Cfg)
	account := handler.NewAccountHandler(app.UserService, app.FileService)
	profile := handler.NewProfileHandler(app.ProfileService, app.AuthService, app.Catalog)
	verification := handler.NewVerificationHandler(app.VerificationService)
	ban := handler.NewBanHandler(app.BanService)
	admin := handler.NewAdminHandler(app.UserService, app.VerificationService, app.BanService, app.AdminService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Static files
	sub, _ := fs.Sub(assets.AssetsFS, ".")
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(sub))))
	mux.HandleFunc("GET /healthz", home.Healthz)

	// Home
	mux.HandleFunc("GET /{$}", home.HomePage)

	// Content
	mux.HandleFunc("GET /legal/{page}", legal.ShowPage)

	// Ban notice (exempt from the ban gate)
	mux.HandleFunc("GET /banned", ban.BannedPage)

	// Auth - Authentication flow (rate limited)
	rateLimiter := middleware.RateLimitAuth(app.RateLimiter)

	// Auth Pages
	mux.HandleFunc("GET /auth/login", middleware.RequireGuest(auth.LoginPage))
	mux.HandleFunc("GET /auth/register", middleware.RequireGuest(auth.RegisterPage))
	mux.HandleFunc("GET /auth/verify-email", auth.VerifyEmailPage)
	mux.HandleFunc("GET /auth/forgot-password", middleware.RequireGuest(auth.ForgotPasswordPage))
	mux.HandleFunc("GET /auth/reset-password/{token}", auth.ResetPasswordPage)
	mux.HandleFunc("GET /auth/account-merge", auth.MergePage)

	// OAuth
	mux.HandleFunc("GET /auth/google", rateLimiter(auth.GoogleAuth))
	mux.HandleFunc("GET /auth/google/callback", rateLimiter(auth.GoogleCallback))

	// Token Verifications
	mux.HandleFunc("GET /auth/callback", auth.Callback)
	mux.HandleFunc("POST /auth/callback", auth.CallbackFragment)

	// Auth Actions
	mux.HandleFunc("POST /auth/login", rateLimiter(middleware.RequireGuest(auth.Login)))
	mux.HandleFunc("POST /auth/register", rateLimiter(middleware.RequireGuest(auth.Register)))
	mux.HandleFunc("POST /auth/verify-email/resend", rateLimiter(auth.ResendVerification))
	mux.HandleFunc("POST /auth/forgot-password", rateLimiter(middleware.RequireGuest(auth.ForgotPassword)))
	mux.HandleFunc("POST /auth/reset-password/{token}", rateLimiter(auth.ResetPassword))
	mux.HandleFunc("POST /auth/account-merge", rateLimiter(auth.BeginMerge))
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// ============================================================================
	// PROTECTED ROUTES (/app/*)
	// ============================================================================

	// Profile
	mux.HandleFunc("GET /app/profile", middleware.RequireAuth(profile.ProfilePage))
	mux.HandleFunc("POST /app/profile", middleware.RequireAuth(profile.UpdateProfile))
	mux.HandleFunc("PATCH /app/profile", middleware.RequireAuth(profile.UpdateProfile))
	mux.HandleFunc("GET /app/students/{id}", middleware.RequireAuth(profile.StudentPage))
	mux.HandleFunc("GET /app/notifications", middleware.RequireAuth(profile.NotificationsPage))
	mux.HandleFunc("POST /app/notifications/{id}/read", middleware.RequireAuth(profile.MarkNotificationRead))

	// Account (Security & Identity)
	mux.HandleFunc("POST /app/account/password", middleware.RequireAuth(account.ChangePassword))
	mux.HandleFunc("POST /app/account/avatar", middleware.RequireAuth(account.UploadAvatar))
	mux.HandleFunc("POST /app/account/avatar/delete", middleware.RequireAuth(account.DeleteAvatar))
	mux.HandleFunc("DELETE /app/account/avatar", middleware.RequireAuth(account.DeleteAvatar))

	// Verification
	mux.HandleFunc("GET /app/verification", middleware.RequireAuth(verification.Page))
	mux.HandleFunc("POST /app/verification/document", middleware.RequireAuth(verification.SubmitDocument))
	mux.HandleFunc("POST /app/verification/face", middleware.RequireAuth(verification.SubmitFace))

	// ============================================================================
	// ADMIN API (/admin/api/*)
	// ============================================================================

	requireAdmin := middleware.RequireAdmin(app.AdminService)

	mux.HandleFunc("GET /admin/api/users", requireAdmin(admin.Users))
	mux.HandleFunc("GET /admin/api/verifications", requireAdmin(admin.Verifications))
	mux.HandleFunc("GET /admin/api/verifications/{id}", requireAdmin(admin.Verification))
	mux.HandleFunc("POST /admin/api/verifications/{id}/approve", requireAdmin(admin.Approve))
	mux.HandleFunc("POST /admin/api/verifications/{id}/reject", requireAdmin(admin.Reject))
	mux.HandleFunc("POST /admin/api/users/{id}/ban", requireAdmin(admin.Ban))
	mux.HandleFunc("DELETE /admin/api/users/{id}/ban", requireAdmin(admin.Unban))
	mux.HandleFunc("POST /admin/api/users/{id}/admin", requireAdmin(admin.GrantAdmin))
	mux.HandleFunc("DELETE /admin/api/users/{id}/admin", requireAdmin(admin.RevokeAdmin))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	// 404
	mux.HandleFunc("/{path...}", home.NotFoundPage)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (needed by SecurityHeaders for S3 endpoint)
		middleware.NonceMiddleware, // CSP nonce, before SecurityHeaders
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.CSRFProtection,
		middleware.AuthMiddleware(app.AuthService, app.ProfileService),
		middleware.BanGate(app.BanService),
		middleware.WithURLPath,
	)

	return handler
}
