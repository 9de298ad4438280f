package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanMirrorsProfileFlag(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedPasswordUser(t, "b@x.com", "pw", true, testProfile("B", "3"))

	require.NoError(t, env.bans.Ban(ctx, user.ID, "spam listings", nil, "admin-1"))

	status, err := env.bans.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, status.IsBanned)
	assert.Equal(t, "spam listings", status.BanReason)
	assert.True(t, status.Remaining(time.Now()).Permanent)

	profile, err := env.store.Profiles.ByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsBanned)

	banned, err := env.bans.Banned(ctx)
	require.NoError(t, err)
	require.Len(t, banned, 1)

	require.NoError(t, env.bans.Unban(ctx, user.ID))
	profile, err = env.store.Profiles.ByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, profile.IsBanned)

	status, err = env.bans.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, status.IsBanned)
	assert.Equal(t, "spam listings", status.BanReason, "history is kept")
}

func TestExpiredBanClearsOnRead(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedPasswordUser(t, "e@x.com", "pw", true, testProfile("E", "4"))

	expires := time.Now().UTC().Add(2 * time.Hour)
	require.NoError(t, env.bans.Ban(ctx, user.ID, "rude", &expires, "admin-1"))

	status, err := env.bans.Status(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, status.IsBanned)
	assert.Equal(t, 1, status.Remaining(time.Now()).Days)

	env.bans.now = func() time.Time { return expires.Add(time.Minute) }

	status, err = env.bans.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, status.IsBanned)

	profile, err := env.store.Profiles.ByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, profile.IsBanned)

	stored, err := env.store.Bans.ByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsBanned, "the lift is persisted")
}

func TestBanValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedPasswordUser(t, "v@x.com", "pw", true, nil)

	assert.ErrorIs(t, env.bans.Ban(ctx, user.ID, "  ", nil, ""), ErrInvalidField)

	past := time.Now().Add(-time.Hour)
	assert.ErrorIs(t, env.bans.Ban(ctx, user.ID, "reason", &past, ""), ErrInvalidField)

	assert.Error(t, env.bans.Ban(ctx, "missing", "reason", nil, ""))

	status, err := env.bans.Status(ctx, "never-banned")
	require.NoError(t, err)
	assert.False(t, status.IsBanned)
}
