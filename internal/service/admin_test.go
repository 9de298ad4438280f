package service

import (
	"context"
	"testing"
	"time"

	"github.com/boibazar/boibazar/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminDevBypass(t *testing.T) {
	env := newTestEnv(t)
	admin := NewAdminService(env.store.Admins, env.cache, time.Minute, true)

	ok, err := admin.IsAdmin(context.Background(), "anyone")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = admin.IsAdmin(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminCachedUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedPasswordUser(t, "a@x.com", "pw", true, nil)

	ok, err := env.admin.IsAdmin(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	cached, err := env.cache.Get(ctx, adminCacheKey(user.ID))
	require.NoError(t, err)
	assert.Equal(t, "0", cached)

	// Written behind the service's back, so the cached answer still stands.
	require.NoError(t, env.store.Admins.Grant(ctx, user.ID, "cli"))
	ok, err = env.admin.IsAdmin(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	env.admin.Invalidate(ctx, user.ID)
	ok, err = env.admin.IsAdmin(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, env.admin.Revoke(ctx, user.ID))
	_, err = env.cache.Get(ctx, adminCacheKey(user.ID))
	assert.ErrorIs(t, err, cache.ErrMiss)

	ok, err = env.admin.IsAdmin(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
