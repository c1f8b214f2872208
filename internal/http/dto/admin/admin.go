// Package admin contiene los DTOs de las operaciones administrativas.
package admin

// ClaimRequest es el body de grant/revoke.
type ClaimRequest struct {
	Email string `json:"email"`
}

// ClaimResponse confirma una mutación de claim.
type ClaimResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StatusResponse reporta el estado admin efectivo del caller.
// Nunca es un error: un caller anónimo recibe {false, "not_authenticated"}.
type StatusResponse struct {
	IsAdmin bool   `json:"is_admin"`
	Reason  string `json:"reason"`
}

// Razones posibles de StatusResponse, en orden de prioridad.
const (
	ReasonNotAuthenticated = "not_authenticated"
	ReasonAutoGranted      = "whitelisted_auto_granted"
	ReasonCustomClaim      = "custom_claim"
	ReasonWhitelisted      = "whitelisted"
	ReasonNotAdmin         = "not_admin"
)

// UserMetrics agrupa los conteos sobre la colección de user records.
type UserMetrics struct {
	TotalUsers         int64 `json:"total_users"`
	PremiumUsers       int64 `json:"premium_users"`
	DAUUsers           int64 `json:"dau_users"`
	WAUUsers           int64 `json:"wau_users"`
	TodayRegistrations int64 `json:"today_registrations"`
}

// GameMetrics agrupa los totales de gameplay.
type GameMetrics struct {
	TotalGamesPlayed int64 `json:"total_games_played"`
	TotalSongsFound  int64 `json:"total_songs_found"`
	TotalTimePlayed  int64 `json:"total_time_played"` // segundos
	AvgGameTime      int64 `json:"avg_game_time"`     // segundos, 0 si no hay partidas
}

// ContentMetrics agrupa las cardinalidades de contenido.
type ContentMetrics struct {
	Categories int64 `json:"categories"`
	Challenges int64 `json:"challenges"`
	Songs      int64 `json:"songs"`
}

// StatsResponse es el snapshot devuelto por getAdminStats.
type StatsResponse struct {
	UserMetrics    UserMetrics    `json:"user_metrics"`
	GameMetrics    GameMetrics    `json:"game_metrics"`
	ContentMetrics ContentMetrics `json:"content_metrics"`
	// Timestamp de generación de la respuesta (RFC3339, UTC).
	Timestamp string `json:"timestamp"`
}

// LogEntry es una entrada del log administrativo.
type LogEntry struct {
	ID          string `json:"id"`
	Action      string `json:"action"`
	TargetEmail string `json:"target_email"`
	PerformedBy string `json:"performed_by"`
	Timestamp   string `json:"timestamp"`
}

// LogsResponse lista entradas recientes del log administrativo.
type LogsResponse struct {
	Entries []LogEntry `json:"entries"`
}
