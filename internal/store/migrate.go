package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

// goose keeps its base FS, dialect and logger in package globals.
var gooseMu sync.Mutex

// Migrate applies pending migrations for the store's dialect.
func (s *Store) Migrate(ctx context.Context) error {
	root := "migrations/" + s.driver
	if _, err := fs.Stat(migrations, root); err != nil {
		return fmt.Errorf("store: no migrations for %s: %w", s.driver, err)
	}
	dir, err := fs.Sub(migrations, root)
	if err != nil {
		return fmt.Errorf("store: migrations for %s: %w", s.driver, err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(dir)
	goose.SetLogger(gooseLogger{logger: slog.Default().With(slog.String("component", "migrate"))})
	if err := goose.SetDialect(s.driver); err != nil {
		return fmt.Errorf("store: goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("store: migrate: %w", translate(err))
	}
	return nil
}

type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
