package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/notas/internal/account"
	"github.com/starford/notas/internal/api"
	"github.com/starford/notas/internal/auth"
	"github.com/starford/notas/internal/noteservice"
	"github.com/starford/notas/internal/store"
)

// services is the dependency graph shared by every command.
type services struct {
	store    *store.Store
	tokens   *auth.TokenService
	accounts *account.Service
	notes    *noteservice.Service
}

func newServices(ctx context.Context, cfg *Config, logger *slog.Logger) (*services, error) {
	tokens, err := auth.NewTokenService([]byte(cfg.Auth.Secret), cfg.Auth.ExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("init tokens: %w", err)
	}

	st, err := store.Open(ctx, cfg.Database.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		logger.Debug("migrations applied", slog.String("driver", st.Driver()))
	}

	return &services{
		store:    st,
		tokens:   tokens,
		accounts: account.NewService(st, auth.NewPasswords(cfg.Auth.BcryptCost), tokens),
		notes:    noteservice.NewService(st),
	}, nil
}

func (s *services) Close() error {
	return s.store.Close()
}

// newHTTPHandler assembles the top-level router: shared middlewares, health
// probes and the API under /api.
func newHTTPHandler(cfg *Config, svc *services) http.Handler {
	opts := []api.RouterOption{
		api.WithDebugErrors(cfg.App.Debug()),
		api.WithCORS(cfg.App.CORS.AllowedOrigins),
	}
	if cfg.Auth.StrictIdentity {
		opts = append(opts, api.WithIdentityCheck(svc.accounts))
	}
	apiRouter := api.NewRouter(svc.accounts, svc.notes, svc.tokens, opts...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.NotFound(api.NotFound)
	r.MethodNotAllowed(api.MethodNotAllowed)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.store.Ping(r.Context()); err != nil {
			slog.Warn("readiness check failed", slog.String("error", err.Error()))
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	r.Mount("/api", apiRouter)
	return r
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
