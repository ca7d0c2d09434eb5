package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/tmorgan-dev/authgate/internal/auth"
	"github.com/tmorgan-dev/authgate/internal/handlers"
)

// Register wires the admin authentication surface. chi answers 405 for
// known paths hit with the wrong method.
func Register(router chi.Router, authHandler *handlers.AuthHandler, sessions *auth.SessionManager) {
	router.Route("/admin/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)

		// Protected routes - a valid session cookie required
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(sessions))
			r.Get("/session", authHandler.Session)
			r.Post("/logout", authHandler.Logout)
		})
	})
}
