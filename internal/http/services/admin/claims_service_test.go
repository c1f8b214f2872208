package admin_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	dto "github.com/tunequiz/admind/internal/http/dto/admin"
	httperrors "github.com/tunequiz/admind/internal/http/errors"
	svc "github.com/tunequiz/admind/internal/http/services/admin"
	"github.com/tunequiz/admind/internal/identity"
	"github.com/tunequiz/admind/internal/store/core"
	"github.com/tunequiz/admind/internal/store/memory"
)

// newClaimsFixture arma un servicio sobre el store en memoria con dos
// identidades: un admin por claim y un target sin privilegios.
func newClaimsFixture(t *testing.T, allowlist ...string) (*svc.ClaimsService, *memory.Store) {
	t.Helper()
	repo := memory.New()
	repo.PutIdentity(core.Identity{UID: "u-admin", Email: "Admin@Example.com", Claims: map[string]any{"admin": true}})
	repo.PutIdentity(core.Identity{UID: "u-target", Email: "Target@Example.com"})

	auth := svc.NewAuthorizer(allowlist)
	return svc.NewClaimsService(identity.NewDirectory(repo), repo, auth), repo
}

func adminCaller() *core.Identity {
	return &core.Identity{UID: "u-admin", Email: "Admin@Example.com", Claims: map[string]any{"admin": true}}
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("esperaba error")
	}
	return httperrors.FromError(err).Code
}

func mustCountLogs(t *testing.T, repo *memory.Store) int {
	t.Helper()
	logs, err := repo.ListAdminLogs(context.Background(), 500)
	if err != nil {
		t.Fatalf("ListAdminLogs: %v", err)
	}
	return len(logs)
}

func TestGrant_PersistsClaimAndAuditEntry(t *testing.T) {
	service, repo := newClaimsFixture(t)
	ctx := context.Background()

	resp, err := service.Grant(ctx, adminCaller(), "Target@Example.com")
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if !resp.Success {
		t.Fatal("esperaba success=true")
	}
	// el mensaje conserva el email tal como vino
	if !strings.Contains(resp.Message, "Target@Example.com") {
		t.Fatalf("mensaje inesperado: %q", resp.Message)
	}

	id, err := repo.GetIdentityByID(ctx, "u-target")
	if err != nil {
		t.Fatalf("GetIdentityByID: %v", err)
	}
	if !id.AdminClaim() {
		t.Fatal("el claim admin debería haberse persistido")
	}

	logs, _ := repo.ListAdminLogs(ctx, 10)
	if len(logs) != 1 {
		t.Fatalf("esperaba 1 entrada de log, hay %d", len(logs))
	}
	e := logs[0]
	if e.Action != core.ActionSetAdminClaim {
		t.Fatalf("action = %q", e.Action)
	}
	// el log guarda emails normalizados
	if e.TargetEmail != "target@example.com" {
		t.Fatalf("target_email = %q", e.TargetEmail)
	}
	if e.PerformedBy != "admin@example.com" {
		t.Fatalf("performed_by = %q", e.PerformedBy)
	}
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Fatal("el store debe asignar id y timestamp")
	}
}

func TestGrant_RejectsBeforeAnySideEffect(t *testing.T) {
	cases := []struct {
		name     string
		caller   *core.Identity
		email    string
		wantCode string
	}{
		{"sin caller", nil, "target@example.com", "UNAUTHENTICATED"},
		{"caller sin privilegio", &core.Identity{UID: "u-x", Email: "x@x.com"}, "target@example.com", "PERMISSION_DENIED"},
		{"email vacío", adminCaller(), "", "INVALID_ARGUMENT"},
		{"email en blanco", adminCaller(), "   ", "INVALID_ARGUMENT"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service, repo := newClaimsFixture(t)
			_, err := service.Grant(context.Background(), tc.caller, tc.email)
			if got := appCode(t, err); got != tc.wantCode {
				t.Fatalf("code = %q, esperaba %q", got, tc.wantCode)
			}
			// ningún rechazo de validación deja rastro en el log
			if n := mustCountLogs(t, repo); n != 0 {
				t.Fatalf("el log debería estar vacío, tiene %d entradas", n)
			}
		})
	}
}

func TestGrant_AllowlistedCallerWithoutClaim(t *testing.T) {
	service, _ := newClaimsFixture(t, "boss@example.com")
	caller := &core.Identity{UID: "u-boss", Email: "BOSS@EXAMPLE.COM"}

	if _, err := service.Grant(context.Background(), caller, "target@example.com"); err != nil {
		t.Fatalf("un caller allowlisted debería poder otorgar: %v", err)
	}
}

func TestGrant_UnknownTargetIsInternal(t *testing.T) {
	service, repo := newClaimsFixture(t)

	_, err := service.Grant(context.Background(), adminCaller(), "nadie@example.com")
	if got := appCode(t, err); got != "INTERNAL" {
		t.Fatalf("code = %q, esperaba INTERNAL", got)
	}
	if n := mustCountLogs(t, repo); n != 0 {
		t.Fatalf("una mutación fallida no debe loguearse, hay %d entradas", n)
	}
}

func TestRevoke_RemovesClaimAndLogs(t *testing.T) {
	service, repo := newClaimsFixture(t)
	ctx := context.Background()
	repo.PutIdentity(core.Identity{UID: "u-target", Email: "Target@Example.com", Claims: map[string]any{"admin": true}})

	resp, err := service.Revoke(ctx, adminCaller(), "target@example.com")
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if !resp.Success {
		t.Fatal("esperaba success=true")
	}

	id, _ := repo.GetIdentityByID(ctx, "u-target")
	if id.AdminClaim() {
		t.Fatal("el claim admin debería haberse revocado")
	}

	logs, _ := repo.ListAdminLogs(ctx, 10)
	if len(logs) != 1 || logs[0].Action != core.ActionRemoveAdminClaim {
		t.Fatalf("esperaba una entrada removeAdminClaim, logs = %+v", logs)
	}
}

func TestRevoke_SelfIsFailedPrecondition(t *testing.T) {
	// la comparación con el propio email es case-insensitive
	for _, email := range []string{"admin@example.com", "Admin@Example.com", "ADMIN@EXAMPLE.COM"} {
		service, repo := newClaimsFixture(t)

		_, err := service.Revoke(context.Background(), adminCaller(), email)
		if got := appCode(t, err); got != "FAILED_PRECONDITION" {
			t.Fatalf("revoke self (%s): code = %q, esperaba FAILED_PRECONDITION", email, got)
		}
		if n := mustCountLogs(t, repo); n != 0 {
			t.Fatalf("revoke self no debe dejar rastro, hay %d entradas", n)
		}

		// el claim del caller sigue intacto
		id, _ := repo.GetIdentityByID(context.Background(), "u-admin")
		if !id.AdminClaim() {
			t.Fatal("el claim del caller no debe tocarse")
		}
	}
}

func TestStatus_Anonymous(t *testing.T) {
	service, _ := newClaimsFixture(t)

	got := service.Status(context.Background(), nil)
	if got.IsAdmin || got.Reason != dto.ReasonNotAuthenticated {
		t.Fatalf("Status(nil) = %+v", got)
	}
}

func TestStatus_NotAdmin(t *testing.T) {
	service, _ := newClaimsFixture(t)

	got := service.Status(context.Background(), &core.Identity{UID: "u-x", Email: "x@x.com"})
	if got.IsAdmin || got.Reason != dto.ReasonNotAdmin {
		t.Fatalf("Status = %+v", got)
	}
}

func TestStatus_CustomClaim(t *testing.T) {
	service, _ := newClaimsFixture(t)

	got := service.Status(context.Background(), adminCaller())
	if !got.IsAdmin || got.Reason != dto.ReasonCustomClaim {
		t.Fatalf("Status = %+v", got)
	}
}

func TestStatus_AutoGrantThenCustomClaim(t *testing.T) {
	service, repo := newClaimsFixture(t, "target@example.com")
	ctx := context.Background()

	caller, _ := repo.GetIdentityByID(ctx, "u-target")
	got := service.Status(ctx, caller)
	if !got.IsAdmin || got.Reason != dto.ReasonAutoGranted {
		t.Fatalf("primera llamada = %+v", got)
	}

	// el auto-grant persiste: re-hidratando la identidad, la segunda llamada
	// ya ve el claim
	caller, _ = repo.GetIdentityByID(ctx, "u-target")
	got = service.Status(ctx, caller)
	if !got.IsAdmin || got.Reason != dto.ReasonCustomClaim {
		t.Fatalf("segunda llamada = %+v", got)
	}
}

// failingProvider deja pasar las lecturas pero rompe la escritura del claim.
type failingProvider struct {
	identity.Provider
}

func (f *failingProvider) SetAdminClaim(ctx context.Context, uid string, admin bool) error {
	return errors.New("directorio caído")
}

func TestStatus_AutoGrantFailureDegradesToWhitelisted(t *testing.T) {
	repo := memory.New()
	repo.PutIdentity(core.Identity{UID: "u-boss", Email: "boss@example.com"})
	auth := svc.NewAuthorizer([]string{"boss@example.com"})
	service := svc.NewClaimsService(&failingProvider{identity.NewDirectory(repo)}, repo, auth)

	// Status nunca falla: si el auto-grant no se puede persistir, el caller
	// sigue siendo admin por allowlist.
	got := service.Status(context.Background(), &core.Identity{UID: "u-boss", Email: "boss@example.com"})
	if !got.IsAdmin || got.Reason != dto.ReasonWhitelisted {
		t.Fatalf("Status = %+v", got)
	}
}

func TestLogs_ReturnsNewestFirst(t *testing.T) {
	service, repo := newClaimsFixture(t)
	ctx := context.Background()
	repo.PutIdentity(core.Identity{UID: "u-2", Email: "otro@example.com"})

	if _, err := service.Grant(ctx, adminCaller(), "target@example.com"); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if _, err := service.Revoke(ctx, adminCaller(), "otro@example.com"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	resp, err := service.Logs(ctx, adminCaller(), 10)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(resp.Entries) != 2 {
		t.Fatalf("esperaba 2 entradas, hay %d", len(resp.Entries))
	}

	resp, err = service.Logs(ctx, adminCaller(), 1)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("limit=1 debería devolver 1 entrada, hay %d", len(resp.Entries))
	}
}

func TestLogs_RequiresPrivilege(t *testing.T) {
	service, _ := newClaimsFixture(t)

	_, err := service.Logs(context.Background(), &core.Identity{UID: "u-x", Email: "x@x.com"}, 10)
	if got := appCode(t, err); got != "PERMISSION_DENIED" {
		t.Fatalf("code = %q", got)
	}
}
