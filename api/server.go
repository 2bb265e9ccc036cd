/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/health         Liveness check
  /api/groups/*       Groups, rosters, items, statements, valuations
  /api/catalog        Depreciation categories
  /api/scenarios/*    Demo scenarios
  /*                  API index page

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		// Group routes
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.ListGroups)
			r.Post("/", h.CreateGroup)
			r.Get("/{id}", h.GetGroup)
			r.Put("/{id}", h.ReplaceGroup)
			r.Delete("/{id}", h.DeleteGroup)

			// Statements
			r.Get("/{id}/statement", h.GetStatement)
			r.Get("/{id}/balances", h.GetBalances)
			r.Get("/{id}/projection", h.GetProjection)

			// Roster
			r.Get("/{id}/members", h.ListMembers)
			r.Post("/{id}/members", h.AddMember)
			r.Post("/{id}/members/{memberID}/leave", h.RecordLeave)
			r.Get("/{id}/members/{memberID}/statement", h.GetMemberStatement)

			// Inventory
			r.Get("/{id}/items", h.ListItems)
			r.Post("/{id}/items", h.AddItem)
			r.Delete("/{id}/items/{itemID}", h.RemoveItem)
			r.Get("/{id}/items/{itemID}/breakdown", h.GetItemBreakdown)

			// Valuations
			r.Get("/{id}/valuations", h.ListValuations)
			r.Post("/{id}/valuations", h.RunValuation)
		})

		// Catalog routes
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", h.ListCatalog)
			r.Post("/", h.RegisterCategory)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	// API index page
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Asset Ledger</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Asset Ledger API</h1>
<p>Shared-asset cost splitting with day-weighted proration.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/groups">/api/groups</a> - List groups</li>
<li><a href="/api/catalog">/api/catalog</a> - Depreciation categories</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
