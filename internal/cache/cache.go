// Package cache provee una abstracción de cache con backends memoria y Redis.
// Lo consumen el rate limiter (ventanas) y el snapshot de stats.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound indica que la key no existe o expiró.
var ErrNotFound = errors.New("cache: not found")

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor con TTL. Si ttl es 0, no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete elimina una key.
	Delete(ctx context.Context, key string) error

	// Incr incrementa un contador y devuelve el nuevo valor.
	// Si la key no existe la crea en 1 con el TTL dado.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close cierra la conexión.
	Close() error
}

// Config para crear un cliente por kind.
type Config struct {
	// memory | redis
	Kind  string
	Redis struct {
		Addr   string
		DB     int
		Prefix string
	}
	Memory struct {
		DefaultTTL time.Duration
	}
}

// Open crea el Client según configuración.
func Open(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", "memory", "mem":
		return newMemory(cfg.Memory.DefaultTTL), nil
	case "redis":
		return newRedis(cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.Prefix), nil
	default:
		return nil, fmt.Errorf("cache: kind desconocido: %q", cfg.Kind)
	}
}
