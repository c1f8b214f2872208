package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/tunequiz/admind/internal/http/middlewares"
)

// registerAdminRoutes registra las cuatro operaciones administrativas.
//
// Sólo grant/revoke llevan rate limit: son las mutantes y las únicas que un
// cliente no debería pegar en loop. status se consulta desde la app en cada
// arranque, limitarlo rompería el login.
func registerAdminRoutes(r chi.Router, deps Deps) {
	c := deps.Controllers

	r.Route("/v1/admin", func(r chi.Router) {
		r.Get("/status", c.Status.Status)
		r.Get("/stats", c.Stats.Stats)
		r.Get("/logs", c.Stats.Logs)

		r.Group(func(r chi.Router) {
			if deps.ClaimsLimiter != nil {
				r.Use(middlewares.WithRateLimit(deps.ClaimsLimiter))
			}
			r.Post("/claims/grant", c.Claims.Grant)
			r.Post("/claims/revoke", c.Claims.Revoke)
		})
	})
}
