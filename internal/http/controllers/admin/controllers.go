// Package admin expone los adaptadores HTTP de las operaciones administrativas.
package admin

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	httperrors "github.com/tunequiz/admind/internal/http/errors"
	mw "github.com/tunequiz/admind/internal/http/middlewares"
)

// Controllers agrupa los controllers del dominio admin para el wiring.
type Controllers struct {
	Claims *ClaimsController
	Status *StatusController
	Stats  *StatsController
}

// hydrateError corta el request si el directorio de identidades falló al
// hidratar al caller: sin claims frescos no hay decisión de autorización
// posible, la dependencia externa caída es INTERNAL.
func hydrateError(r *http.Request) *httperrors.AppError {
	if err := mw.GetIdentityError(r.Context()); err != nil {
		return httperrors.ErrInternal.WithDetail("no se pudo resolver la identidad del caller").WithCause(err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readJSON decodifica el body de forma tolerante (no falla por campos extra),
// con límite de 1MB. Devuelve el AppError a escribir si el body no sirve.
func readJSON(r *http.Request, v any) *httperrors.AppError {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		return httperrors.ErrInvalidJSON.WithDetail("Content-Type debe ser application/json")
	}

	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && err != io.EOF {
		// campo presente pero de tipo equivocado: es un argumento inválido,
		// no un JSON roto
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return httperrors.ErrInvalidArgument.WithDetail("campo " + typeErr.Field + " inválido")
		}
		return httperrors.ErrInvalidJSON
	}
	return nil
}
