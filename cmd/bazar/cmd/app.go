package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/boibazar/boibazar/internal/app"
	"github.com/boibazar/boibazar/internal/config"
	"github.com/boibazar/boibazar/internal/logger"
	"github.com/boibazar/boibazar/internal/model"
	"github.com/boibazar/boibazar/internal/repository"
)

// openApp builds the app without object storage. Commands that only touch
// the database never need S3.
func openApp(ctx context.Context, skipMigrations bool) (*app.App, error) {
	cfg := config.Load()
	logger.Init(logger.Options{Development: cfg.IsDevelopment(), Environment: cfg.AppEnv})

	return app.New(ctx, cfg, app.Options{
		SkipMigrations: skipMigrations,
		SkipStorage:    true,
	})
}

// findUser resolves email to an account. provider may be empty when only one
// account uses the address.
func findUser(ctx context.Context, a *app.App, email, provider string) (*model.User, error) {
	if provider != "" {
		return a.UserService.ByEmail(ctx, email, provider)
	}

	var found []*model.User
	for _, p := range []string{model.ProviderPassword, model.ProviderGoogle} {
		user, err := a.UserService.ByEmail(ctx, email, p)
		switch {
		case err == nil:
			found = append(found, user)
		case !errors.Is(err, repository.ErrUserNotFound):
			return nil, err
		}
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("no account for %s", email)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%s has a password and a google account, pass --provider", email)
	}
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		fmt.Println("close failed:", err)
	}
}
