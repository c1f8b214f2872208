package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	mw "github.com/tunequiz/admind/internal/http/middlewares"
	"github.com/tunequiz/admind/internal/identity"
	"github.com/tunequiz/admind/internal/store/core"
	"github.com/tunequiz/admind/internal/store/memory"
)

const testSecret = "un-secreto-de-al-menos-treinta-y-dos-bytes"

func signToken(t *testing.T, sub, email string) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return raw
}

// callWithIdentity corre el middleware y captura el caller que vio el handler.
func callWithIdentity(t *testing.T, repo core.Repository, authHeader string) *core.Identity {
	t.Helper()
	verifier := identity.NewTokenVerifier(testSecret, "")
	provider := identity.NewDirectory(repo)

	var got *core.Identity
	h := mw.WithIdentity(verifier, provider)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = mw.GetCaller(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/status", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestWithIdentity_AnonymousPassesThrough(t *testing.T) {
	repo := memory.New()

	if got := callWithIdentity(t, repo, ""); got != nil {
		t.Fatalf("sin header esperaba caller nil, got %+v", got)
	}
	if got := callWithIdentity(t, repo, "Bearer basura"); got != nil {
		t.Fatalf("token inválido debería pasar sin identidad, got %+v", got)
	}
	if got := callWithIdentity(t, repo, "Basic abc"); got != nil {
		t.Fatalf("scheme no Bearer debería ignorarse, got %+v", got)
	}
}

func TestWithIdentity_HydratesClaimsFromDirectory(t *testing.T) {
	repo := memory.New()
	repo.PutIdentity(core.Identity{
		UID:    "u-1",
		Email:  "admin@example.com",
		Claims: map[string]any{"admin": true},
	})

	// el token NO trae el claim admin; tiene que venir del directorio
	got := callWithIdentity(t, repo, "Bearer "+signToken(t, "u-1", "admin@example.com"))
	if got == nil {
		t.Fatal("esperaba caller hidratado")
	}
	if !got.AdminClaim() {
		t.Fatal("los claims persistidos deben hidratarse por request")
	}
}

func TestWithIdentity_UnknownUIDYieldsClaimlessCaller(t *testing.T) {
	repo := memory.New()

	got := callWithIdentity(t, repo, "Bearer "+signToken(t, "u-nuevo", "nuevo@example.com"))
	if got == nil {
		t.Fatal("un token válido sin fila en el directorio sigue siendo un caller")
	}
	if got.UID != "u-nuevo" || got.Email != "nuevo@example.com" {
		t.Fatalf("caller = %+v", got)
	}
	if got.AdminClaim() {
		t.Fatal("sin fila en el directorio no hay claims")
	}
}

// brokenDirectory simula un directorio caído en la lectura por uid.
type brokenDirectory struct {
	core.Repository
}

func (b *brokenDirectory) GetIdentityByID(ctx context.Context, uid string) (*core.Identity, error) {
	return nil, errors.New("directorio caído")
}

func TestWithIdentity_DirectoryFailureLeavesNoCallerAndMarksError(t *testing.T) {
	repo := &brokenDirectory{Repository: memory.New()}
	verifier := identity.NewTokenVerifier(testSecret, "")
	provider := identity.NewDirectory(repo)

	var gotCaller *core.Identity
	var gotErr error
	h := mw.WithIdentity(verifier, provider)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCaller = mw.GetCaller(r.Context())
		gotErr = mw.GetIdentityError(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/status", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u-1", "admin@example.com"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	// con el directorio caído no se fabrica una identidad sin claims: el
	// caller queda ausente y la falla viaja marcada en el contexto
	if gotCaller != nil {
		t.Fatalf("esperaba caller nil, got %+v", gotCaller)
	}
	if gotErr == nil {
		t.Fatal("la falla de hidratación debería quedar en el contexto")
	}
}

func TestWithIdentity_TokenEmailFillsMissingDirectoryEmail(t *testing.T) {
	repo := memory.New()
	repo.PutIdentity(core.Identity{UID: "u-1"})

	got := callWithIdentity(t, repo, "Bearer "+signToken(t, "u-1", "jugador@example.com"))
	if got == nil || got.Email != "jugador@example.com" {
		t.Fatalf("caller = %+v", got)
	}
}
