package migrations

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tunequiz/admind/internal/observability/logger"
)

// Apply ejecuta las migraciones embebidas en orden ascendente de nombre.
// Los archivos son idempotentes (IF NOT EXISTS), así que re-aplicar es seguro.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	entries, err := FS.ReadDir(".")
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	log := logger.Named("migrate")
	for _, name := range names {
		sql, err := FS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("migrations: leer %s: %w", name, err)
		}
		start := time.Now()
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("migrations: %s: %w", name, err)
		}
		log.Info("applied", logger.String("file", name), logger.Duration(time.Since(start)))
	}
	return nil
}
