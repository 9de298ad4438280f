package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/boibazar/boibazar/internal/cache"
	"github.com/boibazar/boibazar/internal/catalog"
	"github.com/boibazar/boibazar/internal/model"
	"github.com/boibazar/boibazar/internal/repository"
	"github.com/boibazar/boibazar/internal/validation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const SessionCookieName = "auth_token"

type AuthOptions struct {
	JWTSecret           string
	IsProduction        bool
	JWTExpiry           time.Duration
	EmailVerifyExpiry   time.Duration
	PasswordResetExpiry time.Duration
	ResendCooldown      time.Duration
}

type AuthService struct {
	store        *repository.Store
	banService   *BanService
	emailService *EmailService
	cache        cache.Store
	catalog      *catalog.Catalog
	opts         AuthOptions
}

func NewAuthService(
	store *repository.Store,
	banService *BanService,
	emailService *EmailService,
	cache cache.Store,
	catalog *catalog.Catalog,
	opts AuthOptions,
) *AuthService {
	return &AuthService{
		store:        store,
		banService:   banService,
		emailService: emailService,
		cache:        cache,
		catalog:      catalog,
		opts:         opts,
	}
}

type RegisterInput struct {
	Email         string
	Password      string
	Name          string
	RollNumber    string
	Semester      string
	Department    string
	InstituteName string
}

// Register creates an unconfirmed password account with its profile and
// sends the confirmation email.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := normalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, fieldError(err.Error())
	}

	profile := &model.Profile{
		Name:          strings.TrimSpace(in.Name),
		RollNumber:    strings.TrimSpace(in.RollNumber),
		Semester:      in.Semester,
		Department:    in.Department,
		InstituteName: in.InstituteName,
	}
	if err := s.validateProfile(profile); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Provider:     model.ProviderPassword,
		PasswordHash: &hash,
	}
	profile.UserID = user.ID

	err = s.store.InTx(ctx, func(ctx context.Context, r *repository.Repositories) error {
		if err := r.Users.Create(ctx, user); err != nil {
			return err
		}
		return r.Profiles.Create(ctx, profile)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "email", email)

	// The user can resend from the login page if this fails.
	if err := s.issueVerification(ctx, user, profile.Name); err != nil {
		slog.Warn("failed to send verification email", "user_id", user.ID, "error", err)
	}

	return user, nil
}

func (s *AuthService) validateProfile(p *model.Profile) error {
	if err := validation.ValidateName(p.Name); err != nil {
		return fieldError(err.Error())
	}
	if err := validation.ValidateRollNumber(p.RollNumber); err != nil {
		return fieldError(err.Error())
	}
	if !s.catalog.HasSemester(p.Semester) {
		return fieldError("unknown semester")
	}
	if !s.catalog.HasDepartment(p.Department) {
		return fieldError("unknown department")
	}
	if !s.catalog.HasInstitute(p.InstituteName) {
		return fieldError("unknown institute")
	}
	return nil
}

// Login states.
const (
	LoginAuthenticated = "authenticated"
	LoginRejected      = "rejected"
	LoginBanned        = "banned"
)

// Reject reasons.
const (
	RejectInvalidCredentials = "invalid_credentials"
	RejectEmailUnconfirmed   = "email_unconfirmed"
	RejectOther              = "other"
)

type LoginResult struct {
	State  string
	Reason string
	User   *model.User
	Ban    *model.BanStatus
}

// Login checks credentials, then email confirmation, then the ban gate, in
// that order. Rejections and bans return both a result and an error
// (ErrInvalidCredentials, ErrAccountMerged, ErrEmailNotVerified, *BannedError).
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)

	user, err := s.store.Users.ByEmail(ctx, email, model.ProviderPassword)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return rejected(nil, RejectInvalidCredentials), ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() || s.ComparePassword(password, *user.PasswordHash) != nil {
		return rejected(nil, RejectInvalidCredentials), ErrInvalidCredentials
	}

	if user.IsMerged() {
		return rejected(user, RejectOther), ErrAccountMerged
	}

	if !user.IsEmailVerified() {
		return rejected(user, RejectEmailUnconfirmed), ErrEmailNotVerified
	}

	status, err := s.banService.Status(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if status.Active(time.Now()) {
		return &LoginResult{State: LoginBanned, User: user, Ban: status}, &BannedError{Status: status}
	}

	slog.Info("user logged in", "user_id", user.ID)
	return &LoginResult{State: LoginAuthenticated, User: user}, nil
}

func rejected(user *model.User, reason string) *LoginResult {
	return &LoginResult{State: LoginRejected, Reason: reason, User: user}
}

// VerifyEmail consumes an email confirmation token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	t, err := s.consume(ctx, token, model.TokenTypeEmailVerify)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users.ByID(ctx, t.UserID)
	if err != nil {
		return nil, errors.Join(ErrUserFetch, err)
	}

	if user.IsEmailVerified() {
		return user, nil
	}

	now := time.Now().UTC()
	user.EmailVerifiedAt = &now
	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to confirm email: %w", err)
	}

	slog.Info("email verified", "user_id", user.ID)

	name := ""
	if profile, err := s.store.Profiles.ByUserID(ctx, user.ID); err == nil {
		name = profile.Name
	}
	if err := s.emailService.SendWelcomeEmail(ctx, user.Email, name); err != nil {
		slog.Warn("failed to send welcome email", "user_id", user.ID, "error", err)
	}

	return user, nil
}

// VerifyCallback completes email confirmation from an extracted callback token.
func (s *AuthService) VerifyCallback(ctx context.Context, tok *CallbackToken) (*model.User, error) {
	if tok == nil || tok.Token == "" {
		return nil, ErrTokenMissing
	}

	if tok.Kind == TokenKindOTP {
		return s.VerifyEmail(ctx, tok.Token)
	}

	claims, err := s.VerifyJWT(tok.Token)
	if err != nil {
		return nil, errors.Join(ErrSessionExchange, err)
	}
	userID, _ := claims["user_id"].(string)

	user, err := s.store.Users.ByID(ctx, userID)
	if err != nil {
		return nil, errors.Join(ErrUserFetch, err)
	}
	if !user.IsEmailVerified() {
		return nil, ErrEmailNotVerified
	}
	return user, nil
}

func resendCooldownKey(email string) string {
	return "cooldown:resend:" + email
}

// ResendVerification sends a new confirmation email, at most once per
// cooldown window per address. Unknown addresses succeed silently.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return ErrInvalidEmail
	}

	user, err := s.store.Users.ByEmail(ctx, email, model.ProviderPassword)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user != nil && user.IsEmailVerified() {
		return ErrAlreadyVerified
	}

	key := resendCooldownKey(email)
	ok, err := s.cache.SetNX(ctx, key, "1", s.opts.ResendCooldown)
	if err != nil {
		return fmt.Errorf("failed to check resend cooldown: %w", err)
	}
	if !ok {
		left, err := s.cache.TTL(ctx, key)
		if err != nil || left <= 0 {
			left = s.opts.ResendCooldown
		}
		return &CooldownError{RetryAfter: left}
	}

	if user == nil {
		slog.Info("verification resend requested for unknown email", "email", email)
		return nil
	}

	name := ""
	if profile, err := s.store.Profiles.ByUserID(ctx, user.ID); err == nil {
		name = profile.Name
	}

	if err := s.issueVerification(ctx, user, name); err != nil {
		// Let the user retry right away.
		if delErr := s.cache.Delete(ctx, key); delErr != nil {
			slog.Warn("failed to clear resend cooldown", "email", email, "error", delErr)
		}
		return err
	}

	slog.Info("verification email resent", "user_id", user.ID)
	return nil
}

func (s *AuthService) issueVerification(ctx context.Context, user *model.User, name string) error {
	if err := s.store.Tokens.DeleteByUserAndType(ctx, user.ID, model.TokenTypeEmailVerify); err != nil {
		slog.Warn("failed to delete old verification tokens", "user_id", user.ID, "error", err)
	}

	token, err := s.newToken(ctx, user.ID, model.TokenTypeEmailVerify, s.opts.EmailVerifyExpiry)
	if err != nil {
		return err
	}

	return s.emailService.SendVerificationEmail(ctx, user.Email, token, name)
}

// SendPasswordReset emails a reset link. Unknown or federated addresses
// succeed silently.
func (s *AuthService) SendPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return ErrInvalidEmail
	}

	user, err := s.store.Users.ByEmail(ctx, email, model.ProviderPassword)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			slog.Info("password reset requested for unknown email", "email", email)
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsMerged() {
		slog.Info("password reset requested for merged account", "user_id", user.ID)
		return nil
	}

	if err := s.store.Tokens.DeleteByUserAndType(ctx, user.ID, model.TokenTypePasswordReset); err != nil {
		slog.Warn("failed to delete old reset tokens", "user_id", user.ID, "error", err)
	}

	token, err := s.newToken(ctx, user.ID, model.TokenTypePasswordReset, s.opts.PasswordResetExpiry)
	if err != nil {
		return err
	}

	if err := s.emailService.SendPasswordResetEmail(ctx, user.Email, token); err != nil {
		return err
	}

	slog.Info("password reset link sent", "user_id", user.ID)
	return nil
}

// ResetPassword sets a new password from a reset token. Opening the link
// proves ownership of the address, so it also confirms the email.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (*model.User, error) {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return nil, fieldError(err.Error())
	}

	t, err := s.consume(ctx, token, model.TokenTypePasswordReset)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users.ByID(ctx, t.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = &hash
	if !user.IsEmailVerified() {
		now := time.Now().UTC()
		user.EmailVerifiedAt = &now
	}

	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password reset", "user_id", user.ID)
	return user, nil
}

// consume uses a single-use token, telling expired tokens from unknown ones.
func (s *AuthService) consume(ctx context.Context, token, tokenType string) (*model.Token, error) {
	if token == "" {
		return nil, ErrTokenMissing
	}

	t, err := s.store.Tokens.ConsumeToken(ctx, token, tokenType)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, repository.ErrTokenNotFound) {
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}

	stored, lookupErr := s.store.Tokens.ByToken(ctx, token)
	if lookupErr == nil && stored.Type == tokenType && stored.ExpiredAt(time.Now()) {
		return nil, ErrTokenExpired
	}
	return nil, ErrTokenInvalid
}

func (s *AuthService) newToken(ctx context.Context, userID, tokenType string, ttl time.Duration) (string, error) {
	value, err := s.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	err = s.store.Tokens.Create(ctx, &model.Token{
		UserID:    userID,
		Type:      tokenType,
		Token:     value,
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}
	return value, nil
}

// AuthenticateOAuth resolves or creates the google account for email. The
// provider has confirmed the address.
func (s *AuthService) AuthenticateOAuth(ctx context.Context, email string) (*model.User, error) {
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, ErrInvalidEmail
	}

	user, err := s.store.Users.ByEmail(ctx, email, model.ProviderGoogle)
	if err == nil {
		slog.Info("user authenticated via OAuth", "user_id", user.ID, "provider", model.ProviderGoogle)
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to lookup user: %w", err)
	}

	now := time.Now().UTC()
	user = &model.User{
		ID:              uuid.New().String(),
		Email:           email,
		Provider:        model.ProviderGoogle,
		EmailVerifiedAt: &now,
		CreatedAt:       now,
	}

	err = s.store.Users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		// Lost a race with a concurrent first sign-in.
		return s.store.Users.ByEmail(ctx, email, model.ProviderGoogle)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new OAuth user created", "user_id", user.ID, "provider", model.ProviderGoogle)
	return user, nil
}

// HasUnmergedPasswordAccount reports whether a live password account shares
// email, which makes the account a merge candidate.
func (s *AuthService) HasUnmergedPasswordAccount(ctx context.Context, email string) (bool, error) {
	user, err := s.store.Users.ByEmail(ctx, normalizeEmail(email), model.ProviderPassword)
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !user.IsMerged(), nil
}

// UserFromSession returns the live account behind a session token.
func (s *AuthService) UserFromSession(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.VerifyJWT(token)
	if err != nil {
		return nil, err
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	user, err := s.store.Users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsMerged() {
		return nil, ErrAccountMerged
	}
	return user, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.opts.JWTExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.opts.JWTSecret))
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.opts.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// SignIn issues a session for user and sets the cookie.
func (s *AuthService) SignIn(w http.ResponseWriter, user *model.User) error {
	token, err := s.GenerateJWT(user)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	s.SetJWTCookie(w, token, time.Now().Add(s.opts.JWTExpiry))
	return nil
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.IsProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.IsProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func normalizeEmail(email string) string {
	return validation.NormalizeEmail(email)
}
