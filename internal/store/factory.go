package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/tunequiz/admind/internal/store/core"
	"github.com/tunequiz/admind/internal/store/memory"
	"github.com/tunequiz/admind/internal/store/pg"
)

// Config selecciona e inicializa el driver del document store.
type Config struct {
	Driver   string
	DSN      string
	Postgres pg.Cfg
}

// Open devuelve el core.Repository según el driver configurado.
func Open(ctx context.Context, cfg Config) (core.Repository, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres", "pg", "postgresql":
		return pg.New(ctx, cfg.DSN, cfg.Postgres)
	case "memory", "mem":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}
