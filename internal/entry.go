// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/notas/internal/confwatch"
	pkgconfig "github.com/starford/notas/pkg/config"
)

const shutdownTimeout = 10 * time.Second

// runtime carries what every command needs once options are applied.
type runtime struct {
	app    *application
	logger *slog.Logger
	level  *slog.LevelVar
	closer io.Closer
}

func setup(opts []Option) (*runtime, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger, level, closer := newLogger(app.config.App, app.logOutput)
	slog.SetDefault(logger)

	return &runtime{app: app, logger: logger, level: level, closer: closer}, nil
}

// Run starts the HTTP server with the given options and blocks until ctx is
// cancelled, a shutdown signal arrives or the server fails.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.closer.Close()

	cfg := rt.app.config
	logger := rt.logger

	logger.Info("Configuration loaded",
		slog.String("env", cfg.App.Env),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("db_driver", cfg.Database.Driver),
		slog.String("log_level", cfg.App.LogLevel.String()),
		slog.Bool("strict_identity", cfg.Auth.StrictIdentity))

	svc, err := newServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHTTPHandler(cfg, svc),
		ReadTimeout:       cfg.App.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.App.HTTP.ReadTimeout,
		WriteTimeout:      cfg.App.HTTP.WriteTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Hot-reload the log level from the config file.
	if path := rt.app.configPath; path != "" {
		g.Go(func() error {
			err := confwatch.Watch(gCtx, path, logger, reloadFunc(path, cfg, rt.level, logger))
			if err != nil {
				logger.Warn("config watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the config watcher stops with the server.
var errShutdown = errors.New("shutdown")

// reloadFunc re-reads the config file. Only the log level is applied live;
// other differences are reported as needing a restart.
func reloadFunc(path string, current *Config, level *slog.LevelVar, logger *slog.Logger) confwatch.ReloadFunc {
	return func() error {
		next := NewDefaultConfig()
		if err := pkgconfig.Load(path, next); err != nil {
			return err
		}

		if prev := level.Level(); prev != next.App.LogLevel {
			level.Set(next.App.LogLevel)
			logger.Info("log level changed",
				slog.String("from", prev.String()),
				slog.String("to", next.App.LogLevel.String()))
		}

		a, b := *current, *next
		a.App.LogLevel, b.App.LogLevel = 0, 0
		if !reflect.DeepEqual(a, b) {
			logger.Warn("config changed; restart to apply settings other than log_level")
		}
		return nil
	}
}
