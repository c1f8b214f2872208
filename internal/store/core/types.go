package core

import "time"

// Colecciones de contenido cuyo único dato consumido acá es la cardinalidad.
const (
	CollectionCategories = "categories"
	CollectionChallenges = "challenges"
	CollectionSongs      = "songs"
)

// Acciones registradas en el log administrativo.
const (
	ActionSetAdminClaim    = "setAdminClaim"
	ActionRemoveAdminClaim = "removeAdminClaim"
)

// UserRecord es el registro de juego de un usuario, uno por identidad.
// Lo escribe el backend de gameplay; este servicio solo lo lee.
// Un timestamp en cero significa "nunca": queda fuera de cualquier ventana.
type UserRecord struct {
	UID         string    `json:"uid"`
	IsPremium   bool      `json:"is_premium"`
	LastLoginAt time.Time `json:"last_login_at"`
	CreatedAt   time.Time `json:"created_at"`
	GamesPlayed int64     `json:"games_played"`
	SongsFound  int64     `json:"songs_found"`
	TimePlayed  int64     `json:"time_played"` // segundos
}

// Identity es la fila del directorio de identidades que este servicio consume:
// uid, email verificado y claims custom (incluye "admin" booleano).
type Identity struct {
	UID    string         `json:"uid"`
	Email  string         `json:"email"`
	Claims map[string]any `json:"claims"`
}

// AdminClaim devuelve true sólo si el claim "admin" es exactamente true.
func (i *Identity) AdminClaim() bool {
	if i == nil || i.Claims == nil {
		return false
	}
	v, ok := i.Claims["admin"].(bool)
	return ok && v
}

// AdminLogEntry es un registro append-only del log de auditoría administrativo.
// Timestamp lo asigna el store, no el caller.
type AdminLogEntry struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	TargetEmail string    `json:"target_email"`
	PerformedBy string    `json:"performed_by"`
	Timestamp   time.Time `json:"timestamp"`
}
