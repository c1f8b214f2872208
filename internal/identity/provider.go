// Package identity conecta con el proveedor de identidades: resolución por
// email, lectura de claims persistidos y escritura del claim admin.
package identity

import (
	"context"
	"strings"

	"github.com/tunequiz/admind/internal/store/core"
)

// AdminClaimKey es el claim booleano que gobierna el privilegio administrativo.
const AdminClaimKey = "admin"

// Provider es el contrato contra el directorio de identidades.
type Provider interface {
	// GetByEmail resuelve una identidad por email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*core.Identity, error)
	// GetByID resuelve una identidad por uid.
	GetByID(ctx context.Context, uid string) (*core.Identity, error)
	// SetAdminClaim persiste el claim admin de la identidad.
	SetAdminClaim(ctx context.Context, uid string, admin bool) error
}

// Directory implementa Provider sobre el document store (colección identities).
type Directory struct {
	repo core.Repository
}

func NewDirectory(repo core.Repository) *Directory {
	return &Directory{repo: repo}
}

func (d *Directory) GetByEmail(ctx context.Context, email string) (*core.Identity, error) {
	return d.repo.GetIdentityByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (d *Directory) GetByID(ctx context.Context, uid string) (*core.Identity, error) {
	return d.repo.GetIdentityByID(ctx, uid)
}

func (d *Directory) SetAdminClaim(ctx context.Context, uid string, admin bool) error {
	return d.repo.SetIdentityClaim(ctx, uid, AdminClaimKey, admin)
}
