package errors

import (
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores de la aplicación.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Causa original, útil para logs, no se expone al cliente
}

// Error implementa la interfaz error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError.
func New(status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// Wrap crea un AppError envolviendo un error existente.
func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		Err:        err,
	}
}

// FromError convierte un error genérico en AppError.
// Si no lo es, devuelve un error interno genérico conservando la causa.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

// WithDetail agrega detalle al error.
// Devuelve una COPIA para no mutar las variables globales base.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause agrega la causa original. Devuelve una COPIA.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// Taxonomía del servicio. Cada operación falla con exactamente una de estas
// categorías (más las genéricas de transporte de abajo).
var (
	// ErrUnauthenticated: no hay caller verificado.
	ErrUnauthenticated = &AppError{
		Code:       "UNAUTHENTICATED",
		Message:    "Se requiere iniciar sesión.",
		HTTPStatus: http.StatusUnauthorized,
	}

	// ErrPermissionDenied: caller verificado pero sin privilegio admin.
	ErrPermissionDenied = &AppError{
		Code:       "PERMISSION_DENIED",
		Message:    "No tiene permisos para realizar esta acción.",
		HTTPStatus: http.StatusForbidden,
	}

	// ErrInvalidArgument: input malformado o faltante.
	ErrInvalidArgument = &AppError{
		Code:       "INVALID_ARGUMENT",
		Message:    "Se requiere un email válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrFailedPrecondition: input bien formado que viola una regla de negocio.
	ErrFailedPrecondition = &AppError{
		Code:       "FAILED_PRECONDITION",
		Message:    "La operación viola una precondición.",
		HTTPStatus: http.StatusPreconditionFailed,
	}

	// ErrInternal: falla inesperada de una dependencia externa.
	ErrInternal = &AppError{
		Code:       "INTERNAL",
		Message:    "Error interno.",
		HTTPStatus: http.StatusInternalServerError,
	}
)

// Errores genéricos de transporte.
var (
	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "El cuerpo de la solicitud no es un JSON válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Recurso no encontrado.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrTooManyRequests = &AppError{
		Code:       "RATE_LIMITED",
		Message:    "Demasiadas solicitudes, intente más tarde.",
		HTTPStatus: http.StatusTooManyRequests,
	}
)
