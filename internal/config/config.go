package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName      string
	AppEnv       string
	AppURL       string
	Port         string
	SupportEmail string
	ContentPath  string

	// Database (sqlite or pgx)
	DBDriver     string
	DBConnection string

	// Sessions and single-use tokens
	JWTSecret                string
	JWTExpiry                time.Duration
	TokenEmailVerifyExpiry   time.Duration
	TokenPasswordResetExpiry time.Duration
	MergeTicketExpiry        time.Duration
	ResendCooldown           time.Duration

	// Authorization
	AuthzCacheTTL  time.Duration
	AdminDevBypass bool // Only honored when AppEnv is development

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Cache (optional, in-process when empty)
	RedisURL string

	// Rate limiting for auth endpoints
	RateLimitAuth       int
	RateLimitAuthWindow time.Duration

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region               string
	S3Bucket               string
	S3AccessKey            string
	S3SecretKey            string
	S3Endpoint             string
	S3PresignExpiryPublic  time.Duration // avatars
	S3PresignExpiryPrivate time.Duration // verification documents and face photos
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName:      envString("APP_NAME", "Boibazar"),
		AppEnv:       envRequired("APP_ENV"), // 'development' or 'production'
		AppURL:       envRequired("APP_URL"), // base URL for email links and OAuth redirects
		Port:         envString("PORT", "8090"),
		SupportEmail: envString("SUPPORT_EMAIL", "support@example.com"),
		ContentPath:  envString("CONTENT_PATH", "content"),

		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/boibazar.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),

		JWTSecret:                envRequired("JWT_SECRET"),
		JWTExpiry:                envDuration("JWT_EXPIRY", 168*time.Hour),
		TokenEmailVerifyExpiry:   envDuration("TOKEN_EMAIL_VERIFY_EXPIRY", 24*time.Hour),
		TokenPasswordResetExpiry: envDuration("TOKEN_PASSWORD_RESET_EXPIRY", 1*time.Hour),
		MergeTicketExpiry:        envDuration("MERGE_TICKET_EXPIRY", 15*time.Minute),
		ResendCooldown:           envDuration("RESEND_COOLDOWN", 60*time.Second),

		AuthzCacheTTL:  envDuration("AUTHZ_CACHE_TTL", 5*time.Minute),
		AdminDevBypass: envBool("ADMIN_DEV_BYPASS", false),

		GoogleClientID:     envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envString("GOOGLE_CLIENT_SECRET", ""),

		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		RedisURL: envString("REDIS_URL", ""),

		RateLimitAuth:       envInt("RATE_LIMIT_AUTH", 5),
		RateLimitAuthWindow: envDuration("RATE_LIMIT_AUTH_WINDOW", 15*time.Minute),

		SentryDSN: envString("SENTRY_DSN", ""),

		S3Region:               envRequired("S3_REGION"),
		S3Bucket:               envRequired("S3_BUCKET"),
		S3AccessKey:            envRequired("S3_ACCESS_KEY"),
		S3SecretKey:            envRequired("S3_SECRET_KEY"),
		S3Endpoint:             envString("S3_ENDPOINT", ""),
		S3PresignExpiryPublic:  envDuration("S3_PRESIGN_EXPIRY_PUBLIC", 168*time.Hour),
		S3PresignExpiryPrivate: envDuration("S3_PRESIGN_EXPIRY_PRIVATE", 1*time.Hour),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction stops the process when a production deployment is missing
// services that development replaces with log-only fallbacks.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if cfg.AdminDevBypass {
		slog.Warn("ADMIN_DEV_BYPASS is ignored outside development")
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// AdminBypassEnabled reports whether every signed-in account is treated as an
// admin. Development only.
func (c *Config) AdminBypassEnabled() bool {
	return c.IsDevelopment() && c.AdminDevBypass
}

// Sanitized returns a copy of the config with only public fields.
// Safe to expose in ctx and pages.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:      c.AppName,
		AppEnv:       c.AppEnv,
		AppURL:       c.AppURL,
		Port:         c.Port,
		SupportEmail: c.SupportEmail,

		EmailFrom: c.EmailFrom,

		GoogleClientID: c.GoogleClientID,

		ResendCooldown: c.ResendCooldown,

		S3Endpoint: c.S3Endpoint, // CSP img-src
	}
}
