// Package logger envuelve zap con una configuración única para el servicio.
//
// Uso típico:
//
//	logger.Init(logger.Config{Env: "prod", Level: "info", ServiceName: "admind"})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Grant"))
//	log.Info("claim granted", logger.Email(email))
package logger
