// Package rate implementa rate limiting de ventana fija.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tunequiz/admind/internal/cache"
)

// Result contiene el veredicto de una consulta al limiter.
type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

// Limiter decide si una key puede seguir pegando.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// FixedWindow: ventana fija sencilla (INCR + EXPIRE) sobre cache.Client,
// así el backend (memoria o Redis) lo decide la config.
type FixedWindow struct {
	Cache  cache.Client
	Prefix string
	Max    int64
	Window time.Duration
}

func NewFixedWindow(c cache.Client, prefix string, max int, window time.Duration) *FixedWindow {
	if prefix == "" {
		prefix = "rl:"
	}
	return &FixedWindow{Cache: c, Prefix: prefix, Max: int64(max), Window: window}
}

func (l *FixedWindow) Allow(ctx context.Context, key string) (Result, error) {
	winStart := time.Now().UTC().Truncate(l.Window)
	k := fmt.Sprintf("%s%s:%d", l.Prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	hits, err := l.Cache.Incr(ctx, k, l.Window)
	if err != nil {
		return Result{}, err
	}

	allowed := hits <= l.Max
	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: hits,
	}
	if !allowed {
		// retry after: resto de la ventana
		res.RetryAfter = l.Window - time.Since(winStart)
		if res.RetryAfter < 0 {
			res.RetryAfter = l.Window
		}
	}
	return res, nil
}
