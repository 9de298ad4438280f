package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLegal(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "legal"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legal", name), []byte(body), 0o644))
}

func TestLegalPages(t *testing.T) {
	dir := t.TempDir()
	writeLegal(t, dir, "terms.md", "---\ntitle: Terms of Use\nlastUpdated: 2025-01-15\n---\n# Terms\n\nBe kind.\n")
	writeLegal(t, dir, "privacy-policy.md", "We store your email.\n")

	svc := NewLegalService(dir, false)
	require.NoError(t, svc.LoadPages())

	page, err := svc.Page("terms")
	require.NoError(t, err)
	assert.Equal(t, "Terms of Use", page.Title)
	assert.Equal(t, "January 15, 2025", page.LastUpdated)
	assert.Contains(t, page.Content, "Be kind.")

	page, err = svc.Page("privacy-policy")
	require.NoError(t, err)
	assert.Equal(t, "Privacy Policy", page.Title)

	_, err = svc.Page("../etc/passwd")
	assert.ErrorIs(t, err, ErrPageNotFound)
	_, err = svc.Page("cookies")
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestLegalReload(t *testing.T) {
	dir := t.TempDir()
	svc := NewLegalService(dir, true)
	require.NoError(t, svc.LoadPages(), "missing directory is not an error")

	_, err := svc.Page("cookies")
	assert.ErrorIs(t, err, ErrPageNotFound)

	writeLegal(t, dir, "cookies.md", "We use one cookie.\n")
	page, err := svc.Page("cookies")
	require.NoError(t, err)
	assert.Contains(t, page.Content, "one cookie")
}
