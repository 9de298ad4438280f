package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("BAZAR_TEST_BOOL", "true")
	t.Setenv("BAZAR_TEST_BAD_BOOL", "maybe")
	t.Setenv("BAZAR_TEST_INT", "7")
	t.Setenv("BAZAR_TEST_BAD_INT", "-1")
	t.Setenv("BAZAR_TEST_DURATION", "90s")
	t.Setenv("BAZAR_TEST_BAD_DURATION", "soon")

	assert.True(t, envBool("BAZAR_TEST_BOOL", false))
	assert.False(t, envBool("BAZAR_TEST_BAD_BOOL", false))
	assert.True(t, envBool("BAZAR_TEST_UNSET", true))

	assert.Equal(t, 7, envInt("BAZAR_TEST_INT", 5))
	assert.Equal(t, 5, envInt("BAZAR_TEST_BAD_INT", 5))

	assert.Equal(t, 90*time.Second, envDuration("BAZAR_TEST_DURATION", time.Minute))
	assert.Equal(t, time.Minute, envDuration("BAZAR_TEST_BAD_DURATION", time.Minute))

	assert.Equal(t, "fallback", envString("BAZAR_TEST_UNSET", "fallback"))
}

func TestLoad(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_URL", "http://localhost:8090")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("S3_REGION", "us-east-1")
	t.Setenv("S3_BUCKET", "boibazar")
	t.Setenv("S3_ACCESS_KEY", "key")
	t.Setenv("S3_SECRET_KEY", "secret")
	t.Setenv("ADMIN_DEV_BYPASS", "true")

	cfg := Load()
	require.NotNil(t, cfg)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 60*time.Second, cfg.ResendCooldown)
	assert.Equal(t, 15*time.Minute, cfg.MergeTicketExpiry)
	assert.True(t, cfg.AdminBypassEnabled())
}

func TestAdminBypassIgnoredInProduction(t *testing.T) {
	cfg := &Config{AppEnv: "production", AdminDevBypass: true}
	assert.False(t, cfg.AdminBypassEnabled())
}

func TestSanitizedDropsSecrets(t *testing.T) {
	cfg := &Config{
		AppName:            "Boibazar",
		JWTSecret:          "secret",
		GoogleClientSecret: "google-secret",
		ResendAPIKey:       "re_123",
		S3SecretKey:        "s3",
		RedisURL:           "redis://:pw@localhost:6379/0",
	}

	s := cfg.Sanitized()
	assert.Equal(t, "Boibazar", s.AppName)
	assert.Empty(t, s.JWTSecret)
	assert.Empty(t, s.GoogleClientSecret)
	assert.Empty(t, s.ResendAPIKey)
	assert.Empty(t, s.S3SecretKey)
	assert.Empty(t, s.RedisURL)
}
