package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/notas/internal/account"
	"github.com/starford/notas/internal/mcpserver"
	"github.com/starford/notas/internal/models"
)

// withServices runs fn against a freshly opened service graph.
func withServices(ctx context.Context, opts []Option, fn func(*services, *slog.Logger) error) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.closer.Close()

	svc, err := newServices(ctx, rt.app.config, rt.logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	return fn(svc, rt.logger)
}

// Migrate applies pending database migrations, regardless of auto_migrate.
func Migrate(ctx context.Context, opts ...Option) error {
	return withServices(ctx, opts, func(svc *services, logger *slog.Logger) error {
		if err := svc.store.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("migrations up to date", slog.String("driver", svc.store.Driver()))
		return nil
	})
}

// Seed creates a demo user owning a few sample notes.
func Seed(ctx context.Context, email, password string, opts ...Option) (SeedResult, error) {
	var res SeedResult
	err := withServices(ctx, opts, func(svc *services, logger *slog.Logger) error {
		var err error
		res, err = seedDemo(ctx, svc, email, password, logger)
		return err
	})
	return res, err
}

// AddUser registers a user with the same rules as the API.
func AddUser(ctx context.Context, email, password string, opts ...Option) (models.User, error) {
	var user models.User
	err := withServices(ctx, opts, func(svc *services, logger *slog.Logger) error {
		var err error
		user, err = svc.accounts.Create(ctx, account.Credentials{Email: email, Password: password})
		if err != nil {
			return err
		}
		logger.Info("user created", slog.Int64("user_id", user.ID), slog.String("email", user.Email))
		return nil
	})
	return user, err
}

// DeleteUser removes a user and, through the schema, all of their notes.
func DeleteUser(ctx context.Context, email string, opts ...Option) error {
	return withServices(ctx, opts, func(svc *services, logger *slog.Logger) error {
		if err := svc.accounts.Delete(ctx, email); err != nil {
			return err
		}
		logger.Info("user deleted", slog.String("email", account.NormalizeEmail(email)))
		return nil
	})
}

// ServeMCP serves the token holder's notes over stdio until stdin closes.
func ServeMCP(ctx context.Context, token string, opts ...Option) error {
	return withServices(ctx, opts, func(svc *services, logger *slog.Logger) error {
		userID, err := svc.tokens.Verify(token)
		if err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
		user, err := svc.accounts.Verify(ctx, userID)
		if err != nil {
			return fmt.Errorf("mcp: %w", err)
		}

		logger.Info("MCP server starting", slog.String("email", user.Email))
		return mcpserver.New(svc.notes, user.ID).ServeStdio()
	})
}
