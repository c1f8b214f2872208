package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar — HTTP.

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field { return zap.String("request_id", v) }

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field { return zap.String("method", v) }

// Path crea un campo para el path del request.
func Path(v string) zap.Field { return zap.String("path", v) }

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field { return zap.Int("status", v) }

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// Campos estándar — negocio.

// UID crea un campo para el ID de una identidad.
func UID(v string) zap.Field { return zap.String("uid", v) }

// Email crea un campo para el email (usar con cuidado en prod).
func Email(v string) zap.Field { return zap.String("email", v) }

// TargetEmail crea un campo para el email objetivo de una operación admin.
func TargetEmail(v string) zap.Field { return zap.String("target_email", v) }

// Collection crea un campo para una colección del store.
func Collection(v string) zap.Field { return zap.String("collection", v) }

// Campos estándar — sistema.

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field { return zap.String("component", v) }

// Op crea un campo para la operación actual.
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer crea un campo para la capa (controller, service, store).
func Layer(v string) zap.Field { return zap.String("layer", v) }

// Err crea un campo para un error.
func Err(err error) zap.Field { return zap.Error(err) }

// Campos genéricos.

// Count crea un campo para un conteo.
func Count(v int) zap.Field { return zap.Int("count", v) }

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field { return zap.Any(key, v) }

// String crea un campo string genérico.
func String(key, v string) zap.Field { return zap.String(key, v) }

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field { return zap.Int(key, v) }

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
