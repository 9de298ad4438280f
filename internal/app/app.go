package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/boibazar/boibazar/internal/cache"
	"github.com/boibazar/boibazar/internal/catalog"
	"github.com/boibazar/boibazar/internal/config"
	"github.com/boibazar/boibazar/internal/db"
	"github.com/boibazar/boibazar/internal/middleware"
	"github.com/boibazar/boibazar/internal/repository"
	"github.com/boibazar/boibazar/internal/service"
	"github.com/boibazar/boibazar/internal/storage"
	"github.com/jmoiron/sqlx"
)

type App struct {
	Cfg                 *config.Config
	DB                  *sqlx.DB
	Store               *repository.Store
	Cache               cache.Store
	Catalog             *catalog.Catalog
	RateLimiter         *middleware.RateLimiter
	AuthService         *service.AuthService
	MergeService        *service.MergeService
	AdminService        *service.AdminService
	BanService          *service.BanService
	UserService         *service.UserService
	ProfileService      *service.ProfileService
	EmailService        *service.EmailService
	FileService         *service.FileService
	VerificationService *service.VerificationService
	LegalService        *service.LegalService
}

// Options tune New for callers that are not the web server.
type Options struct {
	// SkipMigrations leaves the schema untouched (used by the migrate command).
	SkipMigrations bool
	// SkipStorage leaves FileService without object storage access.
	SkipStorage bool
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if !opts.SkipMigrations {
		err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	store := repository.NewStore(database)

	// Cache: redis when configured, otherwise per-process
	var keys cache.Store
	if cfg.RedisURL != "" {
		keys, err = cache.NewRedis(ctx, cfg.RedisURL, "boibazar:")
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
		slog.Info("using redis cache")
	} else {
		keys = cache.NewMemory(time.Minute)
		slog.Info("using in-process cache")
	}

	// Storage
	var fileStorage storage.Storage
	if !opts.SkipStorage {
		s3, err := storage.New(ctx, cfg)
		if err != nil {
			_ = keys.Close()
			_ = database.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		fileStorage = s3
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	fileService := service.NewFileService(store.Files, fileStorage)
	banService := service.NewBanService(store)
	adminService := service.NewAdminService(store.Admins, keys, cfg.AuthzCacheTTL, cfg.AdminBypassEnabled())
	authService := service.NewAuthService(store, banService, emailService, keys, catalog.Default, service.AuthOptions{
		JWTSecret:           cfg.JWTSecret,
		IsProduction:        cfg.IsProduction(),
		JWTExpiry:           cfg.JWTExpiry,
		EmailVerifyExpiry:   cfg.TokenEmailVerifyExpiry,
		PasswordResetExpiry: cfg.TokenPasswordResetExpiry,
		ResendCooldown:      cfg.ResendCooldown,
	})
	mergeService := service.NewMergeService(store, authService, adminService, emailService, cfg.MergeTicketExpiry)
	userService := service.NewUserService(store.Users, fileService)
	profileService := service.NewProfileService(store.Profiles, store.Notifications, fileService, catalog.Default)
	verificationService := service.NewVerificationService(store, fileService)
	legalService := service.NewLegalService(cfg.ContentPath, cfg.IsDevelopment())

	return &App{
		Cfg:                 cfg,
		DB:                  database,
		Store:               store,
		Cache:               keys,
		Catalog:             catalog.Default,
		RateLimiter:         middleware.NewRateLimiter(cfg.RateLimitAuth, cfg.RateLimitAuthWindow),
		AuthService:         authService,
		MergeService:        mergeService,
		AdminService:        adminService,
		BanService:          banService,
		UserService:         userService,
		ProfileService:      profileService,
		EmailService:        emailService,
		FileService:         fileService,
		VerificationService: verificationService,
		LegalService:        legalService,
	}, nil
}

func (a *App) Close() error {
	var errs []error
	if a.RateLimiter != nil {
		a.RateLimiter.Close()
	}
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
