package admin

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tunequiz/admind/internal/cache"
	dto "github.com/tunequiz/admind/internal/http/dto/admin"
	httperrors "github.com/tunequiz/admind/internal/http/errors"
	"github.com/tunequiz/admind/internal/observability/logger"
	"github.com/tunequiz/admind/internal/store/core"
)

const statsCacheKey = "stats:snapshot"

// StatsService computa el snapshot de métricas del dashboard.
//
// El scan completo de user_records en memoria es un techo de escalabilidad
// conocido y aceptado mientras la colección sea chica; si eso cambia, hay que
// mover la agregación server-side conservando las definiciones de métricas.
type StatsService struct {
	repo core.Repository
	auth *Authorizer

	// loc fija el timezone del inicio del día calendario (default UTC).
	loc *time.Location
	// now es inyectable para tests de ventanas.
	now func() time.Time

	// cache opcional del snapshot serializado; ttl 0 = deshabilitado.
	cache cache.Client
	ttl   time.Duration
}

func NewStatsService(repo core.Repository, auth *Authorizer, loc *time.Location, c cache.Client, ttl time.Duration) *StatsService {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsService{
		repo:  repo,
		auth:  auth,
		loc:   loc,
		now:   time.Now,
		cache: c,
		ttl:   ttl,
	}
}

// SetNow fija el reloj del servicio (tests).
func (s *StatsService) SetNow(now func() time.Time) { s.now = now }

// Aggregate computa el snapshot completo. Solo lectura, sin efectos.
// La agregación es atómica desde el punto de vista del caller: cualquier
// falla de lectura descarta todo y devuelve INTERNAL, nunca parciales.
func (s *StatsService) Aggregate(ctx context.Context, caller *core.Identity) (*dto.StatsResponse, error) {
	// Autorización antes de cualquier lectura del store.
	if caller == nil {
		return nil, httperrors.ErrUnauthenticated
	}
	if !s.auth.IsAdmin(caller) {
		return nil, httperrors.ErrPermissionDenied
	}

	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Aggregate"))

	if snap := s.cached(ctx); snap != nil {
		return snap, nil
	}

	now := s.now()
	oneDayAgo := now.Add(-24 * time.Hour)
	oneWeekAgo := now.Add(-7 * 24 * time.Hour)
	// Medianoche del día calendario actual en el timezone pineado del servicio.
	local := now.In(s.loc)
	todayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)

	users, err := s.repo.ListUserRecords(ctx)
	if err != nil {
		log.Error("load user records failed", logger.Err(err))
		return nil, httperrors.ErrInternal.WithDetail(err.Error()).WithCause(err)
	}

	var um dto.UserMetrics
	var gm dto.GameMetrics
	um.TotalUsers = int64(len(users))
	for _, u := range users {
		if u.IsPremium {
			um.PremiumUsers++
		}
		// un LastLoginAt en cero queda fuera de cualquier ventana
		if !u.LastLoginAt.Before(oneDayAgo) && !u.LastLoginAt.IsZero() {
			um.DAUUsers++
		}
		if !u.LastLoginAt.Before(oneWeekAgo) && !u.LastLoginAt.IsZero() {
			um.WAUUsers++
		}
		if !u.CreatedAt.Before(todayStart) && !u.CreatedAt.IsZero() {
			um.TodayRegistrations++
		}
		gm.TotalGamesPlayed += u.GamesPlayed
		gm.TotalSongsFound += u.SongsFound
		gm.TotalTimePlayed += u.TimePlayed
	}
	if gm.TotalGamesPlayed > 0 {
		gm.AvgGameTime = int64(math.Round(float64(gm.TotalTimePlayed) / float64(gm.TotalGamesPlayed)))
	}

	// Los tres counts de contenido son independientes entre sí y del scan de
	// usuarios: van en paralelo. Cualquier falla aborta todo.
	var cm dto.ContentMetrics
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.CountCollection(gctx, core.CollectionCategories)
		cm.Categories = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountCollection(gctx, core.CollectionChallenges)
		cm.Challenges = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountCollection(gctx, core.CollectionSongs)
		cm.Songs = n
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("content counts failed", logger.Err(err))
		return nil, httperrors.ErrInternal.WithDetail(err.Error()).WithCause(err)
	}

	snap := &dto.StatsResponse{
		UserMetrics:    um,
		GameMetrics:    gm,
		ContentMetrics: cm,
		Timestamp:      s.now().UTC().Format(time.RFC3339),
	}
	s.store(ctx, snap)
	return snap, nil
}

// cached intenta servir el snapshot desde cache. Best-effort.
func (s *StatsService) cached(ctx context.Context) *dto.StatsResponse {
	if s.cache == nil || s.ttl <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, statsCacheKey)
	if err != nil {
		return nil
	}
	var snap dto.StatsResponse
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil
	}
	return &snap
}

func (s *StatsService) store(ctx context.Context, snap *dto.StatsResponse) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statsCacheKey, string(b), s.ttl); err != nil {
		logger.From(ctx).Warn("stats cache set failed", logger.Err(err))
	}
}
