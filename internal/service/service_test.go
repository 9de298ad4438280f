package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/boibazar/boibazar/internal/cache"
	"github.com/boibazar/boibazar/internal/catalog"
	"github.com/boibazar/boibazar/internal/db/dbtest"
	"github.com/boibazar/boibazar/internal/model"
	"github.com/boibazar/boibazar/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const testInstitute = "ঢাকা পলিটেকনিক ইনস্টিটিউট"

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
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
	return fmt.Sprintf("https://files.test/%s?public=%t", path, public), nil
}

func (m *memStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type testEnv struct {
	db      *sqlx.DB
	store   *repository.Store
	cache   *cache.Memory
	storage *memStorage

	auth         *AuthService
	bans         *BanService
	admin        *AdminService
	merge        *MergeService
	files        *FileService
	profiles     *ProfileService
	users        *UserService
	verification *VerificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := dbtest.New(t)
	return newEnvWithDB(t, database, repository.NewStore(database))
}

func newEnvWithDB(t *testing.T, database *sqlx.DB, store *repository.Store) *testEnv {
	t.Helper()

	mem := cache.NewMemory(0)
	t.Cleanup(func() { _ = mem.Close() })

	objects := newMemStorage()
	email := NewEmailService("", "noreply@test", "http://localhost:8090", "Boibazar", true)
	bans := NewBanService(store)
	admin := NewAdminService(store.Admins, mem, time.Minute, false)
	files := NewFileService(store.Files, objects)

	auth := NewAuthService(store, bans, email, mem, catalog.Default, AuthOptions{
		JWTSecret:           "test-secret",
		JWTExpiry:           time.Hour,
		EmailVerifyExpiry:   24 * time.Hour,
		PasswordResetExpiry: time.Hour,
		ResendCooldown:      60 * time.Second,
	})

	return &testEnv{
		db:           database,
		store:        store,
		cache:        mem,
		storage:      objects,
		auth:         auth,
		bans:         bans,
		admin:        admin,
		merge:        NewMergeService(store, auth, admin, email, 15*time.Minute),
		files:        files,
		profiles:     NewProfileService(store.Profiles, store.Notifications, files, catalog.Default),
		users:        NewUserService(store.Users, files),
		verification: NewVerificationService(store, files),
	}
}

func testProfile(name, roll string) *model.Profile {
	return &model.Profile{
		Name:          name,
		RollNumber:    roll,
		Semester:      catalog.Default.Semesters[0],
		Department:    catalog.Default.Departments[0],
		InstituteName: testInstitute,
	}
}

// seedPasswordUser creates a password account directly, skipping validation,
// optionally confirmed and with a profile.
func (e *testEnv) seedPasswordUser(t *testing.T, email, password string, verified bool, profile *model.Profile) *model.User {
	t.Helper()
	ctx := context.Background()

	hash, err := e.auth.HashPassword(password)
	require.NoError(t, err)

	user := &model.User{ID: uuid.New().String(), Email: email, Provider: model.ProviderPassword, PasswordHash: &hash}
	if verified {
		now := time.Now().UTC()
		user.EmailVerifiedAt = &now
	}
	require.NoError(t, e.store.Users.Create(ctx, user))

	if profile != nil {
		profile.UserID = user.ID
		require.NoError(t, e.store.Profiles.Create(ctx, profile))
	}
	return user
}

func (e *testEnv) latestToken(t *testing.T, userID, tokenType string) string {
	t.Helper()
	var token string
	require.NoError(t, e.db.Get(&token, `SELECT token FROM tokens WHERE user_id = $1 AND type = $2 ORDER BY created_at DESC LIMIT 1`, userID, tokenType))
	return token
}

func upload(name, contentType, body string) (io.Reader, *multipart.FileHeader) {
	header := &multipart.FileHeader{
		Filename: name,
		Size:     int64(len(body)),
		Header:   textproto.MIMEHeader{"Content-Type": {contentType}},
	}
	return bytes.NewReader([]byte(body)), header
}
