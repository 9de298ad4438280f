package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangePassword(t *testing.T) {
	ts := newTestServer(t)
	user := ts.seedUser(t, "pw@x.com", "correct-horse-battery")
	session := ts.session(t, user)

	tests := []struct {
		name     string
		current  string
		next     string
		location string
	}{
		{"wrong current", "not-my-password", "brand-new-secret-9", "/app/profile?error=password_wrong"},
		{"weak new", "correct-horse-battery", "short", "/app/profile?error=password_failed"},
		{"ok", "correct-horse-battery", "brand-new-secret-9", "/app/profile?notice=password_changed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.postForm("/app/account/password", url.Values{"current_password": {tt.current}, "new_password": {tt.next}}, session)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}

	rec := ts.postForm("/auth/login", url.Values{"email": {"pw@x.com"}, "password": {"brand-new-secret-9"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/app/profile", rec.Header().Get("Location"))
}

func avatarRequest(t *testing.T, filename string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/app/account/avatar", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadAvatar(t *testing.T) {
	ts := newTestServer(t)
	user := ts.seedUser(t, "pic@x.com", "correct-horse-battery")
	session := ts.session(t, user)

	rec := ts.do(avatarRequest(t, "notes.txt", []byte("just text")), session)
	assert.Equal(t, "/app/profile?error=avatar_invalid", rec.Header().Get("Location"))

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")
	rec = ts.do(avatarRequest(t, "me.png", png), session)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/app/profile?notice=avatar_updated", rec.Header().Get("Location"))

	avatar, err := ts.store.Files.FileByType(context.Background(), model.FileOwnerUser, user.ID, model.FileTypeAvatar)
	require.NoError(t, err)
	assert.Equal(t, "image/png", avatar.MimeType)
	assert.Equal(t, "me.png", avatar.OriginalName)
}
