package router

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/tunequiz/admind/internal/http/errors"
	"github.com/tunequiz/admind/internal/observability/logger"
	"github.com/tunequiz/admind/internal/store/core"
)

func registerHealthRoutes(r chi.Router, repo core.Repository) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if v := os.Getenv("SERVICE_VERSION"); v != "" {
			w.Header().Set("X-Service-Version", v)
		}
		if err := repo.Ping(req.Context()); err != nil {
			logger.From(req.Context()).Error("db unavailable", logger.Err(err))
			httperrors.WriteError(w, httperrors.New(http.StatusServiceUnavailable, "DB_UNAVAILABLE", "database unavailable"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
