// Package router arma el árbol de rutas del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httpx "github.com/tunequiz/admind/internal/http"
	ctrl "github.com/tunequiz/admind/internal/http/controllers/admin"
	"github.com/tunequiz/admind/internal/http/middlewares"
	"github.com/tunequiz/admind/internal/identity"
	"github.com/tunequiz/admind/internal/rate"
	"github.com/tunequiz/admind/internal/store/core"
)

// Deps contiene todo lo que el router necesita para armarse.
type Deps struct {
	Repo     core.Repository
	Verifier *identity.TokenVerifier
	Provider identity.Provider

	Controllers *ctrl.Controllers

	CORSAllowedOrigins []string
	// ClaimsLimiter limita los endpoints mutantes. Opcional (nil = sin límite).
	ClaimsLimiter rate.Limiter
	// Metrics es el handler de /metrics (opcional).
	Metrics http.Handler
}

// New construye el router con la cadena de middlewares estándar.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middlewares.WithRequestID(),
		middlewares.WithRecover(),
		middlewares.WithSecurityHeaders(),
		middlewares.WithCORS(deps.CORSAllowedOrigins),
		httpx.WithMetrics,
		middlewares.WithLogging(),
		middlewares.WithIdentity(deps.Verifier, deps.Provider),
	)

	registerHealthRoutes(r, deps.Repo)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	registerAdminRoutes(r, deps)

	return r
}
