package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boibazar/boibazar/internal/cache"
	"github.com/boibazar/boibazar/internal/catalog"
	"github.com/boibazar/boibazar/internal/config"
	"github.com/boibazar/boibazar/internal/db/dbtest"
	"github.com/boibazar/boibazar/internal/middleware"
	"github.com/boibazar/boibazar/internal/model"
	"github.com/boibazar/boibazar/internal/repository"
	"github.com/boibazar/boibazar/internal/service"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const testInstitute = "ঢাকা পলিটেকনিক ইনস্টিটিউট"

var rollSeq atomic.Int64

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memStorage) Save(_ context.Context, path, _ string, file io.Reader) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = data
	return nil
}

func (m *memStorage) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

func (m *memStorage) URL(_ context.Context, path string, public bool) (string, error) {
	return "https://files.test/" + path, nil
}

type testServer struct {
	db      *sqlx.DB
	store   *repository.Store
	auth    *service.AuthService
	authH   *AuthHandler
	handler http.Handler
	// googleEmail is what the fake Google userinfo endpoint reports.
	googleEmail string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	database := dbtest.New(t)
	store := repository.NewStore(database)

	mem := cache.NewMemory(0)
	t.Cleanup(func() { _ = mem.Close() })

	cfg := &config.Config{
		AppName:           "Boibazar",
		AppEnv:            "development",
		AppURL:            "http://localhost:8090",
		SupportEmail:      "help@test",
		MergeTicketExpiry: 15 * time.Minute,
	}

	email := service.NewEmailService("", "noreply@test", cfg.AppURL, cfg.AppName, true)
	files := service.NewFileService(store.Files, &memStorage{objects: make(map[string][]byte)})
	bans := service.NewBanService(store)
	admins := service.NewAdminService(store.Admins, mem, time.Minute, false)
	auth := service.NewAuthService(store, bans, email, mem, catalog.Default, service.AuthOptions{
		JWTSecret:           "test-secret",
		JWTExpiry:           time.Hour,
		EmailVerifyExpiry:   24 * time.Hour,
		PasswordResetExpiry: time.Hour,
		ResendCooldown:      time.Minute,
	})
	merge := service.NewMergeService(store, auth, admins, email, cfg.MergeTicketExpiry)
	users := service.NewUserService(store.Users, files)
	profiles := service.NewProfileService(store.Profiles, store.Notifications, files, catalog.Default)
	verification := service.NewVerificationService(store, files)

	ts := &testServer{db: database, store: store, auth: auth}

	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token":
			_, _ = io.WriteString(w, `{"access_token":"google-access","token_type":"Bearer","expires_in":3600}`)
		case "/userinfo":
			_, _ = fmt.Fprintf(w, `{"email":%q,"verified_email":true}`, ts.googleEmail)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(google.Close)

	authH := NewAuthHandler(auth, merge, admins, catalog.Default, cfg)
	authH.googleOAuthConfig.Endpoint.AuthURL = google.URL + "/auth"
	authH.googleOAuthConfig.Endpoint.TokenURL = google.URL + "/token"
	authH.userInfoURL = google.URL + "/userinfo"
	ts.authH = authH

	profile := NewProfileHandler(profiles, auth, catalog.Default)
	ban := NewBanHandler(bans)
	admin := NewAdminHandler(users, verification, bans, admins)
	account := NewAccountHandler(users, files)
	requireAdmin := middleware.RequireAdmin(admins)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/login", middleware.RequireGuest(authH.LoginPage))
	mux.HandleFunc("POST /auth/login", middleware.RequireGuest(authH.Login))
	mux.HandleFunc("POST /auth/register", middleware.RequireGuest(authH.Register))
	mux.HandleFunc("POST /auth/verify-email/resend", authH.ResendVerification)
	mux.HandleFunc("GET /auth/callback", authH.Callback)
	mux.HandleFunc("POST /auth/callback", authH.CallbackFragment)
	mux.HandleFunc("POST /auth/forgot-password", authH.ForgotPassword)
	mux.HandleFunc("POST /auth/reset-password/{token}", authH.ResetPassword)
	mux.HandleFunc("POST /auth/account-merge", authH.BeginMerge)
	mux.HandleFunc("GET /auth/google", authH.GoogleAuth)
	mux.HandleFunc("GET /auth/google/callback", authH.GoogleCallback)
	mux.HandleFunc("POST /auth/logout", authH.Logout)
	mux.HandleFunc("GET /banned", ban.BannedPage)
	mux.HandleFunc("GET /app/profile", middleware.RequireAuth(profile.ProfilePage))
	mux.HandleFunc("POST /app/profile", middleware.RequireAuth(profile.UpdateProfile))
	mux.HandleFunc("GET /app/students/{id}", middleware.RequireAuth(profile.StudentPage))
	mux.HandleFunc("POST /app/account/password", middleware.RequireAuth(account.ChangePassword))
	mux.HandleFunc("POST /app/account/avatar", middleware.RequireAuth(account.UploadAvatar))
	mux.HandleFunc("GET /admin/api/users", requireAdmin(admin.Users))
	mux.HandleFunc("POST /admin/api/users/{id}/ban", requireAdmin(admin.Ban))
	mux.HandleFunc("DELETE /admin/api/users/{id}/ban", requireAdmin(admin.Unban))
	mux.HandleFunc("POST /admin/api/verifications/{id}/approve", requireAdmin(admin.Approve))

	ts.handler = middleware.Chain(
		mux,
		middleware.Config(cfg),
		middleware.AuthMiddleware(auth, profiles),
		middleware.BanGate(bans),
		middleware.WithURLPath,
	)
	return ts
}

func (ts *testServer) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.do(req, cookies...)
}

func (ts *testServer) postJSON(path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return ts.do(req, cookies...)
}

func (ts *testServer) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return ts.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

// seedUser creates a confirmed password account with a complete profile.
func (ts *testServer) seedUser(t *testing.T, email, password string) *model.User {
	t.Helper()
	ctx := context.Background()

	hash, err := ts.auth.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	user := &model.User{ID: uuid.New().String(), Email: email, Provider: model.ProviderPassword, PasswordHash: &hash, EmailVerifiedAt: &now}
	require.NoError(t, ts.store.Users.Create(ctx, user))
	require.NoError(t, ts.store.Profiles.Create(ctx, &model.Profile{
		UserID:        user.ID,
		Name:          "Student " + email,
		RollNumber:    fmt.Sprint(100000 + rollSeq.Add(1)),
		Semester:      catalog.Default.Semesters[0],
		Department:    catalog.Default.Departments[0],
		InstituteName: testInstitute,
	}))
	return user
}

// session signs user in and returns the session cookie.
func (ts *testServer) session(t *testing.T, user *model.User) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, ts.auth.SignIn(rec, user))
	return cookieNamed(t, rec, service.SessionCookieName)
}

func cookieNamed(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func (ts *testServer) latestToken(t *testing.T, userID, tokenType string) string {
	t.Helper()
	var token string
	require.NoError(t, ts.db.Get(&token, `SELECT token FROM tokens WHERE user_id = $1 AND type = $2 ORDER BY created_at DESC LIMIT 1`, userID, tokenType))
	return token
}
