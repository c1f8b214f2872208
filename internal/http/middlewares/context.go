package middlewares

import (
	"context"

	"github.com/tunequiz/admind/internal/store/core"
)

type ctxKey string

const (
	// ctxCallerKey guarda la identidad verificada del caller
	ctxCallerKey ctxKey = "caller"
	// ctxIdentityErrKey guarda la falla de hidratación del directorio
	ctxIdentityErrKey ctxKey = "identity_err"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// WithCaller inyecta la identidad verificada en el contexto.
func WithCaller(ctx context.Context, id *core.Identity) context.Context {
	return context.WithValue(ctx, ctxCallerKey, id)
}

// GetCaller obtiene la identidad verificada del contexto.
// Retorna nil si el request es anónimo (sin token o token inválido).
func GetCaller(ctx context.Context) *core.Identity {
	if v := ctx.Value(ctxCallerKey); v != nil {
		if id, ok := v.(*core.Identity); ok {
			return id
		}
	}
	return nil
}

// WithIdentityError marca que el token era válido pero el directorio no pudo
// hidratar la identidad.
func WithIdentityError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, ctxIdentityErrKey, err)
}

// GetIdentityError devuelve la falla de hidratación del request, si hubo.
// Las operaciones que autorizan por claims persistidos no pueden decidir con
// una identidad a medias: con esto responden INTERNAL en vez de degradar a
// PERMISSION_DENIED.
func GetIdentityError(ctx context.Context) error {
	if v := ctx.Value(ctxIdentityErrKey); v != nil {
		if err, ok := v.(error); ok {
			return err
		}
	}
	return nil
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
