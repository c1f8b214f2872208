package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tunequiz/admind/internal/cache"
	"github.com/tunequiz/admind/internal/config"
	httpx "github.com/tunequiz/admind/internal/http"
	ctrl "github.com/tunequiz/admind/internal/http/controllers/admin"
	"github.com/tunequiz/admind/internal/http/router"
	svc "github.com/tunequiz/admind/internal/http/services/admin"
	"github.com/tunequiz/admind/internal/identity"
	"github.com/tunequiz/admind/internal/observability/logger"
	"github.com/tunequiz/admind/internal/rate"
	"github.com/tunequiz/admind/internal/store"
	"github.com/tunequiz/admind/internal/store/pg"
	migrations "github.com/tunequiz/admind/migrations/postgres"
)

var version = "dev"

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:   "admind",
		Short: "Servicio de administración del backend de TuneQuiz",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", envOr("ADMIND_CONFIG", ""), "ruta al YAML de configuración (env ADMIND_CONFIG)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfgPath)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas sobre Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), cfgPath)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Imprime la versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	root.AddCommand(serveCmd, migrateCmd, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cfgPath string) error {
	// .env si existe; las env del sistema ganan igual
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "admind",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Document store
	repo, err := store.Open(ctx, store.Config{
		Driver:   cfg.Storage.Driver,
		DSN:      cfg.Storage.DSN,
		Postgres: pg.Cfg(cfg.Storage.Postgres),
	})
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer repo.Close()

	// Cache compartido (rate limiting + snapshot de stats)
	cacheCfg := cache.Config{Kind: cfg.Cache.Kind}
	cacheCfg.Redis.Addr = cfg.Cache.Redis.Addr
	cacheCfg.Redis.DB = cfg.Cache.Redis.DB
	cacheCfg.Redis.Prefix = cfg.Cache.Redis.Prefix
	cacheCfg.Memory.DefaultTTL = cfg.Cache.Memory.DefaultTTL
	cacheClient, err := cache.Open(cacheCfg)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer func() { _ = cacheClient.Close() }()

	// Identidad
	provider := identity.NewDirectory(repo)
	verifier := identity.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	// Timezone para el inicio del día calendario de stats
	loc, err := time.LoadLocation(cfg.Stats.Timezone)
	if err != nil {
		return fmt.Errorf("stats.timezone %q: %w", cfg.Stats.Timezone, err)
	}

	// Servicios y controllers
	authorizer := svc.NewAuthorizer(cfg.Admin.Allowlist)
	claimsSvc := svc.NewClaimsService(provider, repo, authorizer)
	statsSvc := svc.NewStatsService(repo, authorizer, loc, cacheClient, cfg.Stats.CacheTTL)

	controllers := &ctrl.Controllers{
		Claims: ctrl.NewClaimsController(claimsSvc),
		Status: ctrl.NewStatusController(claimsSvc),
		Stats:  ctrl.NewStatsController(statsSvc, claimsSvc),
	}

	var claimsLimiter rate.Limiter
	if cfg.Rate.Enabled {
		claimsLimiter = rate.NewFixedWindow(cacheClient, "rl:claims:", cfg.Rate.Claims.Limit, cfg.Rate.Claims.Window)
	}

	handler := router.New(router.Deps{
		Repo:               repo,
		Verifier:           verifier,
		Provider:           provider,
		Controllers:        controllers,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		ClaimsLimiter:      claimsLimiter,
		Metrics:            httpx.RegisterMetrics(prometheus.DefaultRegisterer),
	})

	srv := httpx.NewServer(cfg.Server.Addr, handler)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	log.Info("listening",
		logger.String("addr", cfg.Server.Addr),
		logger.String("driver", cfg.Storage.Driver),
		logger.Int("allowlist", len(cfg.Admin.Allowlist)),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func migrate(ctx context.Context, cfgPath string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cfg.Storage.DSN == "" {
		return fmt.Errorf("migrate: requiere storage.dsn (o DATABASE_URL)")
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "admind", Version: version})
	defer func() { _ = logger.Sync() }()

	pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		return err
	}
	logger.Named("main").Info("migrations up to date")
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
