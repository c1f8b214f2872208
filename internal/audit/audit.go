// Package audit emite eventos de auditoría al log estructurado.
// El registro persistente (admin_logs) vive en el store; esto es la copia
// operacional para correlación rápida sin pegarle a la DB.
package audit

import (
	"context"

	"github.com/tunequiz/admind/internal/observability/logger"
	"go.uber.org/zap"
)

// Log escribe un evento de auditoría con campos arbitrarios.
func Log(ctx context.Context, event string, fields map[string]any) {
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	logger.From(ctx).Named("audit").Info(event, zf...)
}
