package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/starford/notas/internal/account"
	"github.com/starford/notas/internal/apperr"
	"github.com/starford/notas/internal/noteservice"
)

// RouterOption configures NewRouter.
type RouterOption func(*routerConfig)

type routerConfig struct {
	debug       bool
	checker     IdentityChecker
	corsOrigins []string
}

// WithDebugErrors adds the error chain to failure responses.
func WithDebugErrors(debug bool) RouterOption {
	return func(c *routerConfig) {
		c.debug = debug
	}
}

// WithIdentityCheck makes authenticated routes confirm that the token's
// identity still exists.
func WithIdentityCheck(checker IdentityChecker) RouterOption {
	return func(c *routerConfig) {
		c.checker = checker
	}
}

// WithCORS allows cross-origin requests from origins.
func WithCORS(origins []string) RouterOption {
	return func(c *routerConfig) {
		c.corsOrigins = origins
	}
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(accounts *account.Service, notes *noteservice.Service, tokens TokenVerifier, opts ...RouterOption) chi.Router {
	cfg := &routerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	h := NewHandler(accounts, notes, cfg.debug)
	required := RequireAuth(tokens, cfg.checker)
	optional := OptionalAuth(tokens)

	r := chi.NewRouter()
	if len(cfg.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/", h.Index)

	// Authentication.
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.wrap(h.Register))
		r.Post("/login", h.wrap(h.Login))
		r.With(required).Get("/verify", h.wrap(h.Verify))
		r.With(required).Get("/me", h.wrap(h.Verify))
	})

	// Categories (counts depend on the viewer).
	r.With(optional).Get("/categories", h.wrap(h.Categories))

	// Notes.
	r.Route("/notes", func(r chi.Router) {
		r.With(optional).Get("/public/{id}", h.wrap(h.GetPublicNote))

		r.Group(func(r chi.Router) {
			r.Use(required)
			r.Get("/", h.wrap(h.ListNotes))
			r.Post("/", h.wrap(h.CreateNote))
			r.Get("/{id}", h.wrap(h.GetNote))
			r.Put("/{id}", h.wrap(h.UpdateNote))
			r.Delete("/{id}", h.wrap(h.DeleteNote))
			r.Patch("/{id}/toggle-public", h.wrap(h.ToggleVisibility))
			r.Put("/{id}/visibility", h.wrap(h.SetVisibility))
		})
	})

	return r
}

// NotFound answers unknown routes with the failure envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apperr.NotFound("route "+r.Method+" "+r.URL.Path), false)
}

// MethodNotAllowed answers known routes called with the wrong method. The
// failure is about routing, not the request data, so it carries no kind.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errResponse{
		Message: "method not allowed",
	})
}
