package admin

import (
	"net/http"

	mw "github.com/tunequiz/admind/internal/http/middlewares"
	svc "github.com/tunequiz/admind/internal/http/services/admin"
)

// StatusController maneja GET /v1/admin/status.
type StatusController struct {
	service *svc.ClaimsService
}

func NewStatusController(service *svc.ClaimsService) *StatusController {
	return &StatusController{service: service}
}

// Status reporta el estado admin del propio caller.
// Siempre 200: un caller anónimo es un resultado normal, no un error.
func (c *StatusController) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, c.service.Status(ctx, mw.GetCaller(ctx)))
}
