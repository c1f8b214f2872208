package admin

import (
	"strings"

	"github.com/tunequiz/admind/internal/store/core"
)

// Authorizer decide si un caller puede ejecutar operaciones administrativas.
// Es una función pura de (claims, email) más la allowlist estática: no hay
// estado de sesión compartido y cada operación la evalúa por su cuenta.
type Authorizer struct {
	allowlist map[string]struct{}
}

// NewAuthorizer construye el authorizer con la allowlist de deploy.
// Los emails se normalizan a minúsculas; la membresía es case-insensitive.
func NewAuthorizer(emails []string) *Authorizer {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if s := strings.ToLower(strings.TrimSpace(e)); s != "" {
			set[s] = struct{}{}
		}
	}
	return &Authorizer{allowlist: set}
}

// IsAllowlisted chequea membresía del email (case-insensitive).
func (a *Authorizer) IsAllowlisted(email string) bool {
	if email == "" {
		return false
	}
	_, ok := a.allowlist[strings.ToLower(email)]
	return ok
}

// IsAdmin: el caller está autorizado sii su claim admin es exactamente true
// O su email está en la allowlist. Caller ausente nunca está autorizado.
func (a *Authorizer) IsAdmin(caller *core.Identity) bool {
	if caller == nil {
		return false
	}
	return caller.AdminClaim() || a.IsAllowlisted(caller.Email)
}
