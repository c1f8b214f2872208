package core

import "context"

// Repository es el contrato contra el document store.
// Todas las operaciones bloqueantes reciben context; el store es el único
// recurso compartido entre requests y maneja su propia concurrencia.
type Repository interface {
	Ping(ctx context.Context) error

	// User records (solo lectura acá; los escribe el backend de gameplay).
	// ListUserRecords carga la colección completa como snapshot en memoria.
	// Sin paginación: techo de escalabilidad asumido mientras la colección
	// sea chica (ver stats service).
	ListUserRecords(ctx context.Context) ([]UserRecord, error)

	// CountCollection cuenta documentos server-side (no full scan).
	CountCollection(ctx context.Context, name string) (int64, error)

	// Directorio de identidades.
	GetIdentityByEmail(ctx context.Context, email string) (*Identity, error)
	GetIdentityByID(ctx context.Context, uid string) (*Identity, error)
	// SetIdentityClaim escribe un claim booleano. Upsert sobre el mapa de claims.
	SetIdentityClaim(ctx context.Context, uid, claim string, value bool) error

	// Log administrativo append-only. El store asigna Timestamp (e ID si falta).
	AppendAdminLog(ctx context.Context, entry *AdminLogEntry) error
	// ListAdminLogs devuelve las entradas más recientes primero.
	ListAdminLogs(ctx context.Context, limit int) ([]AdminLogEntry, error)

	Close()
}
