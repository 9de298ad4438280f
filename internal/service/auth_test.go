package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boibazar/boibazar/internal/catalog"
	"github.com/boibazar/boibazar/internal/db/dbtest"
	"github.com/boibazar/boibazar/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerInput(email string) RegisterInput {
	return RegisterInput{
		Email:         email,
		Password:      "correct horse",
		Name:          "Rahim",
		RollNumber:    "12",
		Semester:      catalog.Default.Semesters[0],
		Department:    catalog.Default.Departments[0],
		InstituteName: testInstitute,
	}
}

func TestRegisterCreatesUnconfirmedAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.auth.Register(ctx, registerInput("  New@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.False(t, user.IsEmailVerified())

	profile, err := env.store.Profiles.ByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "12", profile.RollNumber)

	assert.Equal(t, 1, dbtest.Count(t, env.db, "tokens", "user_id = $1 AND type = $2", user.ID, model.TokenTypeEmailVerify))

	_, err = env.auth.Register(ctx, registerInput("new@example.com"))
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	in := registerInput("x@example.com")
	in.InstituteName = "Hogwarts"
	_, err := env.auth.Register(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidField)

	in = registerInput("bad-email")
	_, err = env.auth.Register(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	in = registerInput("y@example.com")
	in.Password = "short"
	_, err = env.auth.Register(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidField)

	assert.Equal(t, 0, dbtest.Count(t, env.db, "users", ""))
}

func TestLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedPasswordUser(t, "user@x.com", "pw", true, testProfile("Rahim", "12"))

	res, err := env.auth.Login(ctx, "user@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, LoginRejected, res.State)
	assert.Equal(t, RejectInvalidCredentials, res.Reason)

	res, err = env.auth.Login(ctx, "nobody@x.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, LoginRejected, res.State)
}

func TestLoginUnconfirmedIsRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedPasswordUser(t, "user@x.com", "pw", false, testProfile("Rahim", "12"))

	res, err := env.auth.Login(ctx, "user@x.com", "pw")
	assert.ErrorIs(t, err, ErrEmailNotVerified)
	assert.Equal(t, LoginRejected, res.State)
	assert.Equal(t, RejectEmailUnconfirmed, res.Reason)
}

// user@x.com / pw / roll_number=12, banned for a week: credentials pass,
// confirmation passes, the ban gate stops the login.
func TestLoginBannedEndsAtBanGate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedPasswordUser(t, "user@x.com", "pw", true, testProfile("Rahim", "12"))

	expires := time.Now().Add(7 * 24 * time.Hour)
	require.NoError(t, env.bans.Ban(ctx, user.ID, "spam listings", &expires, "admin"))

	res, err := env.auth.Login(ctx, "USER@x.com", "pw")
	var banned *BannedError
	require.True(t, errors.As(err, &banned))
	assert.Equal(t, "spam listings", banned.Status.BanReason)
	assert.Equal(t, LoginBanned, res.State)
	assert.Equal(t, user.ID, res.User.ID)
	assert.Equal(t, 7, res.Ban.Remaining(time.Now()).Days)
}

func TestLoginAuthenticated(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedPasswordUser(t, "user@x.com", "pw", true, testProfile("Rahim", "12"))

	res, err := env.auth.Login(ctx, "user@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, LoginAuthenticated, res.State)

	token, err := env.auth.GenerateJWT(res.User)
	require.NoError(t, err)
	got, err := env.auth.UserFromSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestLoginMergedAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	old := env.seedPasswordUser(t, "user@x.com", "pw", true, nil)
	google, err := env.auth.AuthenticateOAuth(ctx, "user@x.com")
	require.NoError(t, err)
	require.NoError(t, env.store.Users.MarkMerged(ctx, old.ID, google.ID))

	res, err := env.auth.Login(ctx, "user@x.com", "pw")
	assert.ErrorIs(t, err, ErrAccountMerged)
	assert.Equal(t, RejectOther, res.Reason)
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.auth.Register(ctx, registerInput("v@example.com"))
	require.NoError(t, err)
	token := env.latestToken(t, user.ID, model.TokenTypeEmailVerify)

	tok, err := ExtractVerificationToken(CallbackParams{Fragment: "token=" + token + "&type=signup"})
	require.NoError(t, err)

	verified, err := env.auth.VerifyCallback(ctx, tok)
	require.NoError(t, err)
	assert.True(t, verified.IsEmailVerified())

	_, err = env.auth.VerifyEmail(ctx, token)
	assert.ErrorIs(t, err, ErrTokenInvalid, "tokens are single use")

	res, err := env.auth.Login(ctx, "v@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, LoginAuthenticated, res.State)
}

func TestVerifyEmailExpired(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedPasswordUser(t, "e@example.com", "pw", false, nil)

	require.NoError(t, env.store.Tokens.Create(ctx, &model.Token{
		UserID: user.ID, Type: model.TokenTypeEmailVerify, Token: "stale", ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err := env.auth.VerifyEmail(ctx, "stale")
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, CodeOTPExpired, CallbackErrorCode(err))

	_, err = env.auth.VerifyEmail(ctx, "unknown")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyCallbackSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedPasswordUser(t, "s@example.com", "pw", true, nil)

	_, err := env.auth.VerifyCallback(ctx, &CallbackToken{Kind: TokenKindSession, Token: "garbage"})
	assert.Equal(t, CodeSessionError, CallbackErrorCode(err))

	token, err := env.auth.GenerateJWT(user)
	require.NoError(t, err)
	got, err := env.auth.VerifyCallback(ctx, &CallbackToken{Kind: TokenKindSession, Token: token})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	ghost := &model.User{ID: "ghost", Email: "ghost@example.com"}
	token, err = env.auth.GenerateJWT(ghost)
	require.NoError(t, err)
	_, err = env.auth.VerifyCallback(ctx, &CallbackToken{Kind: TokenKindSession, Token: token})
	assert.Equal(t, CodeUserError, CallbackErrorCode(err))
}

func TestResendCooldown(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedPasswordUser(t, "r@example.com", "pw", false, nil)

	require.NoError(t, env.auth.ResendVerification(ctx, "r@example.com"))
	assert.Equal(t, 1, dbtest.Count(t, env.db, "tokens", "user_id = $1", user.ID))

	err := env.auth.ResendVerification(ctx, "R@example.com")
	var cooldown *CooldownError
	require.True(t, errors.As(err, &cooldown))
	assert.Greater(t, cooldown.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, cooldown.RetryAfter, 60*time.Second)
	assert.LessOrEqual(t, cooldown.Seconds(), 60)

	assert.Equal(t, 1, dbtest.Count(t, env.db, "tokens", "user_id = $1", user.ID), "no second email inside the window")
}

func TestResendAlreadyVerifiedAndUnknown(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedPasswordUser(t, "done@example.com", "pw", true, nil)

	assert.ErrorIs(t, env.auth.ResendVerification(ctx, "done@example.com"), ErrAlreadyVerified)
	assert.NoError(t, env.auth.ResendVerification(ctx, "ghost@example.com"))
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedPasswordUser(t, "p@example.com", "old-password", false, nil)

	require.NoError(t, env.auth.SendPasswordReset(ctx, "p@example.com"))
	require.NoError(t, env.auth.SendPasswordReset(ctx, "ghost@example.com"))

	token := env.latestToken(t, user.ID, model.TokenTypePasswordReset)

	_, err := env.auth.ResetPassword(ctx, token, "short")
	assert.ErrorIs(t, err, ErrInvalidField)

	reset, err := env.auth.ResetPassword(ctx, token, "brand new secret")
	require.NoError(t, err)
	assert.True(t, reset.IsEmailVerified())

	_, err = env.auth.ResetPassword(ctx, token, "another secret 1")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	res, err := env.auth.Login(ctx, "p@example.com", "brand new secret")
	require.NoError(t, err)
	assert.Equal(t, LoginAuthenticated, res.State)
}

func TestAuthenticateOAuthReusesAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedPasswordUser(t, "g@example.com", "pw", true, nil)

	first, err := env.auth.AuthenticateOAuth(ctx, "G@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.ProviderGoogle, first.Provider)
	assert.True(t, first.IsEmailVerified())

	second, err := env.auth.AuthenticateOAuth(ctx, "g@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	candidate, err := env.auth.HasUnmergedPasswordAccount(ctx, "g@example.com")
	require.NoError(t, err)
	assert.True(t, candidate)
}
