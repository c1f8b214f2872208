package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/tunequiz/admind/internal/cache"
	ctrl "github.com/tunequiz/admind/internal/http/controllers/admin"
	"github.com/tunequiz/admind/internal/http/router"
	svc "github.com/tunequiz/admind/internal/http/services/admin"
	"github.com/tunequiz/admind/internal/identity"
	"github.com/tunequiz/admind/internal/rate"
	"github.com/tunequiz/admind/internal/store/core"
	"github.com/tunequiz/admind/internal/store/memory"
)

const testSecret = "un-secreto-de-al-menos-treinta-y-dos-bytes"

type env struct {
	handler http.Handler
	repo    *memory.Store
}

func newEnv(t *testing.T, allowlist []string, limiter rate.Limiter) *env {
	t.Helper()

	repo := memory.New()
	repo.PutIdentity(core.Identity{UID: "u-admin", Email: "admin@example.com", Claims: map[string]any{"admin": true}})
	repo.PutIdentity(core.Identity{UID: "u-player", Email: "player@example.com"})

	provider := identity.NewDirectory(repo)
	verifier := identity.NewTokenVerifier(testSecret, "")
	auth := svc.NewAuthorizer(allowlist)

	claims := svc.NewClaimsService(provider, repo, auth)
	stats := svc.NewStatsService(repo, auth, time.UTC, nil, 0)

	h := router.New(router.Deps{
		Repo:     repo,
		Verifier: verifier,
		Provider: provider,
		Controllers: &ctrl.Controllers{
			Claims: ctrl.NewClaimsController(claims),
			Status: ctrl.NewStatusController(claims),
			Stats:  ctrl.NewStatsController(stats, claims),
		},
		ClaimsLimiter: limiter,
	})
	return &env{handler: h, repo: repo}
}

func token(t *testing.T, sub, email string) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func (e *env) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthEndpoints(t *testing.T) {
	e := newEnv(t, nil, nil)

	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodGet, "/healthz", "", nil).Code)
	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodGet, "/readyz", "", nil).Code)
}

func TestStatus_AnonymousIs200(t *testing.T) {
	e := newEnv(t, nil, nil)

	rec := e.do(t, http.MethodGet, "/v1/admin/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	require.Equal(t, false, body["is_admin"])
	require.Equal(t, "not_authenticated", body["reason"])
}

func TestGrantFlow_EndToEnd(t *testing.T) {
	e := newEnv(t, nil, nil)
	adminTok := token(t, "u-admin", "admin@example.com")
	playerTok := token(t, "u-player", "player@example.com")

	// antes: el jugador no es admin
	body := decode[map[string]any](t, e.do(t, http.MethodGet, "/v1/admin/status", playerTok, nil))
	require.Equal(t, false, body["is_admin"])

	// grant
	rec := e.do(t, http.MethodPost, "/v1/admin/claims/grant", adminTok, map[string]string{"email": "player@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	grant := decode[map[string]any](t, rec)
	require.Equal(t, true, grant["success"])

	// después: el claim se persiste y status lo ve sin token nuevo
	body = decode[map[string]any](t, e.do(t, http.MethodGet, "/v1/admin/status", playerTok, nil))
	require.Equal(t, true, body["is_admin"])
	require.Equal(t, "custom_claim", body["reason"])

	// y queda auditado
	rec = e.do(t, http.MethodGet, "/v1/admin/logs?limit=10", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decode[map[string][]map[string]any](t, rec)
	require.Len(t, logs["entries"], 1)
	require.Equal(t, "setAdminClaim", logs["entries"][0]["action"])
	require.Equal(t, "player@example.com", logs["entries"][0]["target_email"])
}

func TestGrant_ErrorStatuses(t *testing.T) {
	e := newEnv(t, nil, nil)
	adminTok := token(t, "u-admin", "admin@example.com")
	playerTok := token(t, "u-player", "player@example.com")

	cases := []struct {
		name       string
		bearer     string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"sin token", "", map[string]string{"email": "player@example.com"}, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"caller sin privilegio", playerTok, map[string]string{"email": "admin@example.com"}, http.StatusForbidden, "PERMISSION_DENIED"},
		{"email faltante", adminTok, map[string]string{}, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"email no string", adminTok, map[string]any{"email": 42}, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"target inexistente", adminTok, map[string]string{"email": "nadie@example.com"}, http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/v1/admin/claims/grant", tc.bearer, tc.body)
			require.Equal(t, tc.wantStatus, rec.Code)
			require.Equal(t, tc.wantCode, decode[map[string]any](t, rec)["code"])
		})
	}
}

func TestGrant_MalformedJSON(t *testing.T) {
	e := newEnv(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/claims/grant", bytes.NewBufferString("{no es json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token(t, "u-admin", "admin@example.com"))
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_JSON", decode[map[string]any](t, rec)["code"])
}

func TestRevoke_SelfIs412(t *testing.T) {
	e := newEnv(t, nil, nil)
	adminTok := token(t, "u-admin", "admin@example.com")

	rec := e.do(t, http.MethodPost, "/v1/admin/claims/revoke", adminTok, map[string]string{"email": "ADMIN@example.com"})
	require.Equal(t, http.StatusPreconditionFailed, rec.Code)
	require.Equal(t, "FAILED_PRECONDITION", decode[map[string]any](t, rec)["code"])
}

func TestStats_RequiresPrivilege(t *testing.T) {
	e := newEnv(t, nil, nil)
	e.repo.PutUserRecord(core.UserRecord{UID: "u-admin"})
	e.repo.PutUserRecord(core.UserRecord{UID: "u-player"})
	e.repo.SetCount(core.CollectionSongs, 5)

	rec := e.do(t, http.MethodGet, "/v1/admin/stats", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodGet, "/v1/admin/stats", token(t, "u-admin", "admin@example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	snap := decode[map[string]map[string]any](t, rec)
	require.EqualValues(t, 2, snap["user_metrics"]["total_users"])
	require.EqualValues(t, 5, snap["content_metrics"]["songs"])
}

func TestClaimsEndpoints_RateLimited(t *testing.T) {
	c, err := cache.Open(cache.Config{Kind: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	e := newEnv(t, nil, rate.NewFixedWindow(c, "rl:test:", 2, time.Minute))
	adminTok := token(t, "u-admin", "admin@example.com")

	for i := 0; i < 2; i++ {
		rec := e.do(t, http.MethodPost, "/v1/admin/claims/grant", adminTok, map[string]string{"email": "player@example.com"})
		require.Equal(t, http.StatusOK, rec.Code, "hit %d", i+1)
	}

	rec := e.do(t, http.MethodPost, "/v1/admin/claims/grant", adminTok, map[string]string{"email": "player@example.com"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "RATE_LIMITED", decode[map[string]any](t, rec)["code"])
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	// status no pasa por el limiter
	rec = e.do(t, http.MethodGet, "/v1/admin/status", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

// hydrateBrokenRepo corta la lectura por uid, como un store caído a mitad
// de un request autenticado.
type hydrateBrokenRepo struct {
	core.Repository
}

func (h *hydrateBrokenRepo) GetIdentityByID(ctx context.Context, uid string) (*core.Identity, error) {
	return nil, errors.New("store caído")
}

func TestDirectoryOutage_IsInternalNotPermissionDenied(t *testing.T) {
	seed := memory.New()
	seed.PutIdentity(core.Identity{UID: "u-admin", Email: "admin@example.com", Claims: map[string]any{"admin": true}})
	repo := &hydrateBrokenRepo{Repository: seed}

	provider := identity.NewDirectory(repo)
	verifier := identity.NewTokenVerifier(testSecret, "")
	auth := svc.NewAuthorizer(nil)
	claims := svc.NewClaimsService(provider, repo, auth)
	stats := svc.NewStatsService(repo, auth, time.UTC, nil, 0)

	e := &env{handler: router.New(router.Deps{
		Repo:     repo,
		Verifier: verifier,
		Provider: provider,
		Controllers: &ctrl.Controllers{
			Claims: ctrl.NewClaimsController(claims),
			Status: ctrl.NewStatusController(claims),
			Stats:  ctrl.NewStatsController(stats, claims),
		},
	})}
	adminTok := token(t, "u-admin", "admin@example.com")

	// un admin real con el claim persistido no se degrada a 403: la caída
	// del directorio es una falla de dependencia externa
	rec := e.do(t, http.MethodPost, "/v1/admin/claims/grant", adminTok, map[string]string{"email": "player@example.com"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "INTERNAL", decode[map[string]any](t, rec)["code"])

	rec = e.do(t, http.MethodGet, "/v1/admin/stats", adminTok, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "INTERNAL", decode[map[string]any](t, rec)["code"])

	// status mantiene su contrato de nunca fallar: caller ausente
	rec = e.do(t, http.MethodGet, "/v1/admin/status", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	require.Equal(t, false, body["is_admin"])
	require.Equal(t, "not_authenticated", body["reason"])
}

func TestStats_UserTotalsOnlyForAdmins(t *testing.T) {
	e := newEnv(t, []string{"boss@example.com"}, nil)
	e.repo.PutIdentity(core.Identity{UID: "u-boss", Email: "boss@example.com"})

	// allowlisted sin claim: stats pasa y status auto-otorga
	rec := e.do(t, http.MethodGet, "/v1/admin/stats", token(t, "u-boss", "boss@example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/v1/admin/status", token(t, "u-boss", "boss@example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	require.Equal(t, true, body["is_admin"])
	require.Equal(t, "whitelisted_auto_granted", body["reason"])
}
