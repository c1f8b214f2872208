package admin

import (
	"net/http"

	httpx "github.com/tunequiz/admind/internal/http"
	dto "github.com/tunequiz/admind/internal/http/dto/admin"
	httperrors "github.com/tunequiz/admind/internal/http/errors"
	mw "github.com/tunequiz/admind/internal/http/middlewares"
	svc "github.com/tunequiz/admind/internal/http/services/admin"
	"github.com/tunequiz/admind/internal/observability/logger"
)

// ClaimsController maneja POST /v1/admin/claims/{grant,revoke}.
type ClaimsController struct {
	service *svc.ClaimsService
}

func NewClaimsController(service *svc.ClaimsService) *ClaimsController {
	return &ClaimsController{service: service}
}

// Grant maneja POST /v1/admin/claims/grant
func (c *ClaimsController) Grant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ClaimsController.Grant"))

	if appErr := hydrateError(r); appErr != nil {
		httpx.ObserveAdminOp("grant", appErr.Code)
		httperrors.WriteError(w, appErr)
		return
	}

	var req dto.ClaimRequest
	if appErr := readJSON(r, &req); appErr != nil {
		httperrors.WriteError(w, appErr)
		return
	}

	resp, err := c.service.Grant(ctx, mw.GetCaller(ctx), req.Email)
	if err != nil {
		log.Warn("grant rejected", logger.Err(err))
		httpx.ObserveAdminOp("grant", httperrors.FromError(err).Code)
		httperrors.WriteError(w, err)
		return
	}
	httpx.ObserveAdminOp("grant", "ok")
	writeJSON(w, http.StatusOK, resp)
}

// Revoke maneja POST /v1/admin/claims/revoke
func (c *ClaimsController) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ClaimsController.Revoke"))

	if appErr := hydrateError(r); appErr != nil {
		httpx.ObserveAdminOp("revoke", appErr.Code)
		httperrors.WriteError(w, appErr)
		return
	}

	var req dto.ClaimRequest
	if appErr := readJSON(r, &req); appErr != nil {
		httperrors.WriteError(w, appErr)
		return
	}

	resp, err := c.service.Revoke(ctx, mw.GetCaller(ctx), req.Email)
	if err != nil {
		log.Warn("revoke rejected", logger.Err(err))
		httpx.ObserveAdminOp("revoke", httperrors.FromError(err).Code)
		httperrors.WriteError(w, err)
		return
	}
	httpx.ObserveAdminOp("revoke", "ok")
	writeJSON(w, http.StatusOK, resp)
}
