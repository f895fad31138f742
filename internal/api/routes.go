// Package api wires the HTTP surface of the question answering service.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/avelasco/docqa/internal/api/handlers"
	apmiddleware "github.com/avelasco/docqa/internal/api/middleware"
	"github.com/avelasco/docqa/internal/domain/convo"
	"github.com/avelasco/docqa/internal/domain/index"
	"github.com/avelasco/docqa/internal/infra/eventbus"
	"github.com/avelasco/docqa/internal/infra/llm"
	pkgauth "github.com/avelasco/docqa/pkg/auth"
)

// Deps carries everything the router mounts. Authn is optional: when nil
// the API runs unauthenticated, which is the default for local use.
type Deps struct {
	Engine          handlers.Asker
	Sessions        *convo.Store
	Store           index.Store
	Ingestor        handlers.Reindexer
	Registry        *llm.Registry
	Specs           map[string]llm.ModelSpec
	DefaultProvider string
	DocsRoot        string
	Bus             eventbus.EventBus

	Authn        *pkgauth.Authenticator
	PasswordHash string

	Log *slog.Logger
}

// NewRouter creates the chi router with all routes.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apmiddleware.AccessLog(deps.Log))

	// ===== PUBLIC ROUTES =====

	// Health check, used by load balancers and probes.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	if deps.Authn != nil && deps.PasswordHash != "" {
		tokenHandler := handlers.NewTokenHandler(deps.Authn, deps.PasswordHash)
		r.Post("/auth/token", tokenHandler.Issue)
	}

	// ===== API ROUTES (bearer token required when auth is configured) =====

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Authn != nil {
			r.Use(apmiddleware.RequireAuth(deps.Authn))
		}

		askHandler := handlers.NewAskHandler(deps.Engine, deps.Specs, deps.DefaultProvider)
		sessionHandler := handlers.NewSessionHandler(deps.Sessions)
		modelsHandler := handlers.NewModelsHandler(deps.Registry, deps.Specs)
		indexHandler := handlers.NewIndexHandler(deps.Store, deps.Ingestor, deps.DocsRoot, deps.Bus, deps.Log)

		r.Post("/ask", askHandler.Ask) // POST /api/v1/ask

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)          // POST /api/v1/sessions
			r.Post("/{id}/clear", sessionHandler.Clear) // POST /api/v1/sessions/{id}/clear
			r.Delete("/{id}", sessionHandler.Delete)    // DELETE /api/v1/sessions/{id}
		})

		r.Get("/models", modelsHandler.List) // GET /api/v1/models

		r.Route("/index", func(r chi.Router) {
			r.Get("/status", indexHandler.Status)    // GET /api/v1/index/status
			r.Post("/reindex", indexHandler.Reindex) // POST /api/v1/index/reindex
		})
	})

	return r
}
