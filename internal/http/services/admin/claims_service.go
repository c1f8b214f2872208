package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tunequiz/admind/internal/audit"
	dto "github.com/tunequiz/admind/internal/http/dto/admin"
	httperrors "github.com/tunequiz/admind/internal/http/errors"
	"github.com/tunequiz/admind/internal/identity"
	"github.com/tunequiz/admind/internal/observability/logger"
	"github.com/tunequiz/admind/internal/store/core"
)

// ClaimsService implementa las mutaciones del claim admin y el reporte de
// estado del propio caller.
type ClaimsService struct {
	provider identity.Provider
	repo     core.Repository
	auth     *Authorizer
}

func NewClaimsService(provider identity.Provider, repo core.Repository, auth *Authorizer) *ClaimsService {
	return &ClaimsService{provider: provider, repo: repo, auth: auth}
}

// Grant otorga el claim admin a la identidad con el email dado.
//
// Precondiciones, en orden: caller autenticado → caller autorizado → email
// presente. Recién después se toca el proveedor de identidades, así una
// validación fallida no deja efectos parciales.
func (s *ClaimsService) Grant(ctx context.Context, caller *core.Identity, email string) (*dto.ClaimResponse, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(email) == "" {
		return nil, httperrors.ErrInvalidArgument
	}

	if err := s.mutateClaim(ctx, caller, email, true); err != nil {
		return nil, err
	}

	return &dto.ClaimResponse{
		Success: true,
		// el mensaje conserva el email tal como lo mandó el caller
		Message: fmt.Sprintf("%s ahora es administrador.", email),
	}, nil
}

// Revoke quita el claim admin. Misma cadena que Grant más una precondición:
// un admin no puede revocarse a sí mismo por esta vía.
func (s *ClaimsService) Revoke(ctx context.Context, caller *core.Identity, email string) (*dto.ClaimResponse, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(email) == "" {
		return nil, httperrors.ErrInvalidArgument
	}
	if strings.EqualFold(strings.TrimSpace(email), caller.Email) {
		return nil, httperrors.ErrFailedPrecondition.WithDetail("no puede revocar sus propios permisos de administrador")
	}

	if err := s.mutateClaim(ctx, caller, email, false); err != nil {
		return nil, err
	}

	return &dto.ClaimResponse{
		Success: true,
		Message: fmt.Sprintf("Se revocaron los permisos de administrador de %s.", email),
	}, nil
}

// Status reporta el estado admin efectivo del caller. Nunca devuelve error:
// hasta la falla del auto-grant se traga (se loguea y se sigue).
func (s *ClaimsService) Status(ctx context.Context, caller *core.Identity) *dto.StatusResponse {
	if caller == nil {
		return &dto.StatusResponse{IsAdmin: false, Reason: dto.ReasonNotAuthenticated}
	}

	hasClaim := caller.AdminClaim()
	whitelisted := s.auth.IsAllowlisted(caller.Email)

	// Allowlisted sin claim persistido: auto-grant best-effort.
	if whitelisted && !hasClaim {
		if err := s.provider.SetAdminClaim(ctx, caller.UID, true); err != nil {
			logger.From(ctx).Error("auto-grant failed",
				logger.Layer("service"), logger.Op("Status"),
				logger.UID(caller.UID), logger.Err(err))
		} else {
			audit.Log(ctx, "admin_claim_auto_granted", map[string]any{
				"uid": caller.UID, "email": strings.ToLower(caller.Email),
			})
			return &dto.StatusResponse{IsAdmin: true, Reason: dto.ReasonAutoGranted}
		}
	}

	reason := dto.ReasonNotAdmin
	switch {
	case hasClaim:
		reason = dto.ReasonCustomClaim
	case whitelisted:
		reason = dto.ReasonWhitelisted
	}
	return &dto.StatusResponse{IsAdmin: hasClaim || whitelisted, Reason: reason}
}

// Logs devuelve las entradas más recientes del log administrativo.
func (s *ClaimsService) Logs(ctx context.Context, caller *core.Identity, limit int) (*dto.LogsResponse, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}

	entries, err := s.repo.ListAdminLogs(ctx, limit)
	if err != nil {
		logger.From(ctx).Error("list admin logs failed",
			logger.Layer("service"), logger.Op("Logs"), logger.Err(err))
		return nil, httperrors.ErrInternal.WithDetail(err.Error()).WithCause(err)
	}

	out := &dto.LogsResponse{Entries: make([]dto.LogEntry, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, dto.LogEntry{
			ID:          e.ID,
			Action:      e.Action,
			TargetEmail: e.TargetEmail,
			PerformedBy: e.PerformedBy,
			Timestamp:   e.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

func (s *ClaimsService) authorize(caller *core.Identity) error {
	if caller == nil {
		return httperrors.ErrUnauthenticated
	}
	if !s.auth.IsAdmin(caller) {
		return httperrors.ErrPermissionDenied
	}
	return nil
}

// mutateClaim resuelve el target, escribe el claim y registra la entrada de
// auditoría. El write del claim sucede-antes del append al log.
func (s *ClaimsService) mutateClaim(ctx context.Context, caller *core.Identity, email string, value bool) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.TargetEmail(strings.ToLower(email)))

	target, err := s.provider.GetByEmail(ctx, email)
	if err != nil {
		log.Error("identity lookup failed", logger.Err(err))
		return httperrors.ErrInternal.WithDetail(err.Error()).WithCause(err)
	}

	if err := s.provider.SetAdminClaim(ctx, target.UID, value); err != nil {
		log.Error("set admin claim failed", logger.UID(target.UID), logger.Err(err))
		return httperrors.ErrInternal.WithDetail(err.Error()).WithCause(err)
	}

	action := core.ActionSetAdminClaim
	if !value {
		action = core.ActionRemoveAdminClaim
	}
	entry := &core.AdminLogEntry{
		Action:      action,
		TargetEmail: strings.ToLower(strings.TrimSpace(email)),
		PerformedBy: strings.ToLower(caller.Email),
	}
	if err := s.repo.AppendAdminLog(ctx, entry); err != nil {
		log.Error("append admin log failed", logger.Err(err))
		return httperrors.ErrInternal.WithDetail(err.Error()).WithCause(err)
	}

	audit.Log(ctx, action, map[string]any{
		"target_email": entry.TargetEmail,
		"performed_by": entry.PerformedBy,
		"admin":        value,
	})
	return nil
}
