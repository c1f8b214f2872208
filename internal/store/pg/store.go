package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tunequiz/admind/internal/observability/logger"
	"github.com/tunequiz/admind/internal/store/core"
)

// Store implementa core.Repository sobre Postgres (pgxpool).
type Store struct{ pool *pgxpool.Pool }

// Cfg es el tuning opcional del pool.
type Cfg struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

func New(ctx context.Context, dsn string, cfg Cfg) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	// MaxIdleConns → MinConns (pgxpool)
	if cfg.MaxIdleConns > 0 {
		pcfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
			pcfg.MaxConnLifetime = d
			pcfg.MaxConnIdleTime = d
		}
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 8
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	// Arranque no bloqueante: si la DB está caída igual levantamos,
	// readyz lo va a reportar.
	if err := pool.Ping(ctx); err != nil {
		logger.Named("pg").Warn("startup ping failed", logger.Err(err))
	} else {
		logger.Named("pg").Info("pool ready", logger.Int("max_conns", int(pcfg.MaxConns)))
	}

	return &Store{pool: pool}, nil
}

// Pool expone el pool interno (métricas/migraciones).
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

// Close cierra el pool subyacente (idempotente).
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ─── User records ───

const userRecordCols = `uid, is_premium, coalesce(last_login_at, 'epoch'::timestamptz), coalesce(created_at, 'epoch'::timestamptz), games_played, songs_found, time_played`

func scanUserRecord(row pgx.Row, u *core.UserRecord) error {
	var lastLogin, created time.Time
	if err := row.Scan(&u.UID, &u.IsPremium, &lastLogin, &created, &u.GamesPlayed, &u.SongsFound, &u.TimePlayed); err != nil {
		return err
	}
	// epoch sentinel → zero value ("nunca")
	if lastLogin.Unix() > 0 {
		u.LastLoginAt = lastLogin
	}
	if created.Unix() > 0 {
		u.CreatedAt = created
	}
	return nil
}

func (s *Store) ListUserRecords(ctx context.Context) ([]core.UserRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userRecordCols+` FROM user_records`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.UserRecord
	for rows.Next() {
		var u core.UserRecord
		if err := scanUserRecord(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ─── Content collections ───

// countable limita CountCollection a tablas conocidas: el nombre viene de
// constantes internas, pero no interpolamos nada que no esté acá.
var countable = map[string]string{
	core.CollectionCategories: "categories",
	core.CollectionChallenges: "challenges",
	core.CollectionSongs:      "songs",
}

func (s *Store) CountCollection(ctx context.Context, name string) (int64, error) {
	table, ok := countable[name]
	if !ok {
		return 0, fmt.Errorf("count %q: %w", name, core.ErrInvalid)
	}
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM `+table).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ─── Identidades ───

func scanIdentity(row pgx.Row) (*core.Identity, error) {
	var id core.Identity
	var claims []byte
	if err := row.Scan(&id.UID, &id.Email, &claims); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	if len(claims) > 0 {
		if err := json.Unmarshal(claims, &id.Claims); err != nil {
			return nil, fmt.Errorf("identity claims: %w", err)
		}
	}
	return &id, nil
}

func (s *Store) GetIdentityByEmail(ctx context.Context, email string) (*core.Identity, error) {
	return scanIdentity(s.pool.QueryRow(ctx,
		`SELECT uid, email, claims FROM identities WHERE lower(email) = lower($1)`, email))
}

func (s *Store) GetIdentityByID(ctx context.Context, uid string) (*core.Identity, error) {
	return scanIdentity(s.pool.QueryRow(ctx,
		`SELECT uid, email, claims FROM identities WHERE uid = $1`, uid))
}

func (s *Store) SetIdentityClaim(ctx context.Context, uid, claim string, value bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE identities
		    SET claims = jsonb_set(coalesce(claims, '{}'::jsonb), ARRAY[$2], to_jsonb($3::boolean), true)
		  WHERE uid = $1`,
		uid, claim, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ─── Admin log ───

func (s *Store) AppendAdminLog(ctx context.Context, entry *core.AdminLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	// Timestamp lo asigna el server de DB (now()), no el proceso.
	return s.pool.QueryRow(ctx,
		`INSERT INTO admin_logs (id, action, target_email, performed_by, ts)
		 VALUES ($1, $2, $3, $4, now())
		 RETURNING ts`,
		entry.ID, entry.Action, entry.TargetEmail, entry.PerformedBy,
	).Scan(&entry.Timestamp)
}

func (s *Store) ListAdminLogs(ctx context.Context, limit int) ([]core.AdminLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, action, target_email, performed_by, ts
		   FROM admin_logs ORDER BY ts DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.AdminLogEntry
	for rows.Next() {
		var e core.AdminLogEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.TargetEmail, &e.PerformedBy, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
