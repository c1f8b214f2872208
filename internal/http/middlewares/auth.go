package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tunequiz/admind/internal/identity"
	"github.com/tunequiz/admind/internal/observability/logger"
	"github.com/tunequiz/admind/internal/store/core"
)

// WithIdentity verifica el Bearer token y, si es válido, hidrata la identidad
// del caller desde el directorio y la inyecta en el contexto.
//
// Un request sin token (o con token inválido) sigue su curso SIN identidad:
// cada operación decide qué hacer con un caller ausente. checkAdminStatus lo
// trata como resultado normal; el resto falla UNAUTHENTICATED.
//
// Los claims se leen del directorio en cada request, no del token: el claim
// admin tiene que reflejar el estado persistido aunque el token sea viejo.
func WithIdentity(verifier *identity.TokenVerifier, provider identity.Provider) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			caller, err := verifier.Verify(raw)
			if err != nil {
				logger.From(r.Context()).Debug("token rechazado", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			id, err := provider.GetByID(r.Context(), caller.UID)
			switch {
			case err == nil:
				// el email del token manda si el directorio no tiene uno
				if id.Email == "" {
					id.Email = caller.Email
				}
			case errors.Is(err, core.ErrNotFound):
				// identidad sin fila en el directorio: caller válido sin claims
				id = &core.Identity{UID: caller.UID, Email: caller.Email}
			default:
				// Directorio caído: no se puede saber si el caller tiene el
				// claim admin persistido. Fabricarle una identidad sin claims
				// degradaría a un admin real a PERMISSION_DENIED, así que el
				// request sigue SIN identidad y con la falla marcada; las
				// operaciones que autorizan responden INTERNAL y status lo
				// trata como caller ausente.
				logger.From(r.Context()).Error("identity hydrate failed",
					logger.UID(caller.UID), logger.Err(err))
				next.ServeHTTP(w, r.WithContext(WithIdentityError(r.Context(), err)))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
