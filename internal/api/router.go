package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health check and activity trail (local diagnostics, no auth required)
	r.Get("/api/v1/health", s.handleHealth)
	r.Get("/api/v1/audit", s.handleAuditList)

	// Account-linking redirect (no auth; it issues the credentials)
	r.Get("/api/google_assistant/auth", s.handleAuthRedirect)

	// Fulfillment endpoint, bearer-gated
	r.Group(func(r chi.Router) {
		r.Use(s.bearerAuthMiddleware)
		r.Post("/api/google_assistant", s.handleFulfillment)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
