package admin

import (
	"net/http"
	"strconv"

	httpx "github.com/tunequiz/admind/internal/http"
	httperrors "github.com/tunequiz/admind/internal/http/errors"
	mw "github.com/tunequiz/admind/internal/http/middlewares"
	svc "github.com/tunequiz/admind/internal/http/services/admin"
	"github.com/tunequiz/admind/internal/observability/logger"
)

// StatsController maneja GET /v1/admin/stats y GET /v1/admin/logs.
type StatsController struct {
	stats  *svc.StatsService
	claims *svc.ClaimsService
}

func NewStatsController(stats *svc.StatsService, claims *svc.ClaimsService) *StatsController {
	return &StatsController{stats: stats, claims: claims}
}

// Stats maneja GET /v1/admin/stats
func (c *StatsController) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("StatsController.Stats"))

	if appErr := hydrateError(r); appErr != nil {
		httpx.ObserveAdminOp("stats", appErr.Code)
		httperrors.WriteError(w, appErr)
		return
	}

	snap, err := c.stats.Aggregate(ctx, mw.GetCaller(ctx))
	if err != nil {
		log.Warn("stats rejected", logger.Err(err))
		httpx.ObserveAdminOp("stats", httperrors.FromError(err).Code)
		httperrors.WriteError(w, err)
		return
	}
	httpx.ObserveAdminOp("stats", "ok")
	writeJSON(w, http.StatusOK, snap)
}

// Logs maneja GET /v1/admin/logs?limit=N
func (c *StatsController) Logs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("StatsController.Logs"))

	if appErr := hydrateError(r); appErr != nil {
		httperrors.WriteError(w, appErr)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			httperrors.WriteError(w, httperrors.ErrInvalidArgument.WithDetail("limit debe ser un entero entre 1 y 500"))
			return
		}
		limit = n
	}

	resp, err := c.claims.Logs(ctx, mw.GetCaller(ctx), limit)
	if err != nil {
		log.Warn("logs rejected", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
