package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Account endpoints (no auth required)
		r.Post("/register", s.handleRegister)
		r.Post("/username-check", s.handleUsernameCheck)

		// Session endpoints. GET resolves the current user from cookies
		// (with transparent refresh), POST logs in, DELETE logs out.
		r.Get("/auth", s.handleCurrentUser)
		r.Post("/auth", s.handleLogin)
		r.Delete("/auth", s.handleLogout)

		// Room endpoints — reads are public, writes require a session.
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", s.handleListRooms)
			r.Get("/{id}", s.handleGetRoom)

			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware)

				r.Post("/", s.handleCreateRoom)
				r.Put("/{id}", s.handleUpdateRoom)
				r.Patch("/{id}", s.handleUpdateRoom)
				r.Delete("/{id}", s.handleDeleteRoom)
			})
		})
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
