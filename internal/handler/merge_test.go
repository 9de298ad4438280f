package handler

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/boibazar/boibazar/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// googleRoundTrip walks the browser through /auth/google and back, carrying
// extra cookies such as the merge ticket.
func (ts *testServer) googleRoundTrip(t *testing.T, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	rec := ts.get("/auth/google")
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	state := cookieNamed(t, rec, oauthStateCookie)

	back := ts.get("/auth/google/callback?code=abc&state="+url.QueryEscape(state.Value), append(cookies, state)...)
	return back.Result()
}

func TestMergeMovesPasswordAccountIntoGoogle(t *testing.T) {
	ts := newTestServer(t)
	old := ts.seedUser(t, "merge@x.com", "correct-horse-battery")

	rec := ts.postForm("/auth/account-merge", url.Values{"email": {"merge@x.com"}, "password": {"wrong-password-1"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.postForm("/auth/account-merge", url.Values{"email": {"merge@x.com"}, "password": {"correct-horse-battery"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/google", rec.Header().Get("Location"))
	ticket := cookieNamed(t, rec, service.MergeTicketCookieName)
	assert.True(t, ticket.HttpOnly)

	ts.googleEmail = "merge@x.com"
	resp := ts.googleRoundTrip(t, ticket)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "3; url=/", resp.Header.Get("Refresh"))

	ctx := context.Background()
	merged, err := ts.store.Users.ByID(ctx, old.ID)
	require.NoError(t, err)
	assert.True(t, merged.IsMerged())

	google, err := ts.store.Users.ByEmail(ctx, "merge@x.com", model.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, google.ID, *merged.MergedInto)

	profile, err := ts.store.Profiles.ByUserID(ctx, google.ID)
	require.NoError(t, err)
	assert.Equal(t, "Student merge@x.com", profile.Name)

	rec = ts.postForm("/auth/login", url.Values{"email": {"merge@x.com"}, "password": {"correct-horse-battery"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Continue with Google")

	// The ticket is single use.
	resp = ts.googleRoundTrip(t, ticket)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "5; url=/auth/login", resp.Header.Get("Refresh"))
}

func TestMergeRefusesDifferentGoogleEmail(t *testing.T) {
	ts := newTestServer(t)
	old := ts.seedUser(t, "mine@x.com", "correct-horse-battery")

	rec := ts.postForm("/auth/account-merge", url.Values{"email": {"mine@x.com"}, "password": {"correct-horse-battery"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	ticket := cookieNamed(t, rec, service.MergeTicketCookieName)

	ts.googleEmail = "someone-else@gmail.com"
	resp := ts.googleRoundTrip(t, ticket)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "5; url=/auth/login", resp.Header.Get("Refresh"))

	user, err := ts.store.Users.ByID(context.Background(), old.ID)
	require.NoError(t, err)
	assert.False(t, user.IsMerged())
}

func TestMergeAbandonedWhenGoogleSignInFails(t *testing.T) {
	ts := newTestServer(t)
	old := ts.seedUser(t, "abandon@x.com", "correct-horse-battery")

	rec := ts.postForm("/auth/account-merge", url.Values{"email": {"abandon@x.com"}, "password": {"correct-horse-battery"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	ticket := cookieNamed(t, rec, service.MergeTicketCookieName)

	tests := []struct {
		name  string
		query func(state string) string
	}{
		{"state mismatch", func(string) string { return "code=abc&state=forged" }},
		{"consent denied", func(state string) string { return "error=access_denied&state=" + url.QueryEscape(state) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.get("/auth/google")
			require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
			state := cookieNamed(t, rec, oauthStateCookie)

			rec = ts.get("/auth/google/callback?"+tt.query(state.Value), ticket, state)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "5; url=/auth/login", rec.Header().Get("Refresh"))
			assert.Contains(t, rec.Body.String(), "not linked")

			cleared := cookieNamed(t, rec, service.MergeTicketCookieName)
			assert.Empty(t, cleared.Value)
			assert.Less(t, cleared.MaxAge, 0)
		})
	}

	user, err := ts.store.Users.ByID(context.Background(), old.ID)
	require.NoError(t, err)
	assert.False(t, user.IsMerged())
}
