package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config agrupa toda la configuración del servicio.
// Se carga una sola vez al arranque (YAML + overrides por env) y después es
// inmutable: nadie muta la allowlist ni los TTLs en runtime.
type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL time.Duration `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Auth struct {
		// Secreto HS256 compartido con el emisor de tokens del juego.
		JWTSecret string `yaml:"jwt_secret"`
		Issuer    string `yaml:"issuer"`
	} `yaml:"auth"`

	Admin struct {
		// Allowlist de emails con privilegio admin implícito.
		// Se normaliza a minúsculas al cargar; la membresía es case-insensitive.
		Allowlist []string `yaml:"allowlist"`
	} `yaml:"admin"`

	Stats struct {
		// Timezone IANA para calcular el inicio del día calendario.
		// Default: UTC.
		Timezone string `yaml:"timezone"`
		// TTL del snapshot cacheado. 0 = sin cache (cada llamada recalcula).
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"stats"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		// Límites para los endpoints mutantes (grant/revoke).
		Claims struct {
			Limit  int           `yaml:"limit"`
			Window time.Duration `yaml:"window"`
		} `yaml:"claims"`
	} `yaml:"rate"`
}

// Load lee el YAML (si path no está vacío), aplica overrides por variables de
// entorno y defaults, y valida.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: leer %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parsear %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv aplica overrides por env. Env gana sobre YAML (12-factor).
func applyEnv(cfg *Config) {
	if v := envStr("ADMIND_ENV"); v != "" {
		cfg.App.Env = v
	}
	if v := envStr("ADMIND_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := envStr("ADMIND_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := envStr("DATABASE_URL"); v != "" {
		cfg.Storage.DSN = v
		if cfg.Storage.Driver == "" {
			cfg.Storage.Driver = "postgres"
		}
	}
	if v := envStr("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := envStr("REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
		if cfg.Cache.Kind == "" {
			cfg.Cache.Kind = "redis"
		}
	}
	if v := envStr("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := envStr("JWT_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	// CSV: ADMIN_ALLOWLIST="a@x.com,b@y.com"
	if csv := envStr("ADMIN_ALLOWLIST"); csv != "" {
		var list []string
		for _, p := range strings.Split(csv, ",") {
			if s := strings.TrimSpace(p); s != "" {
				list = append(list, s)
			}
		}
		cfg.Admin.Allowlist = list
	}
	if v := envStr("STATS_TIMEZONE"); v != "" {
		cfg.Stats.Timezone = v
	}
	if v := envStr("STATS_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Stats.CacheTTL = d
		}
	}
	if v := envStr("RATE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Rate.Enabled = b
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Env == "" {
		cfg.App.Env = "dev"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.Cache.Kind == "" {
		cfg.Cache.Kind = "memory"
	}
	if cfg.Cache.Memory.DefaultTTL == 0 {
		cfg.Cache.Memory.DefaultTTL = 5 * time.Minute
	}
	if cfg.Stats.Timezone == "" {
		cfg.Stats.Timezone = "UTC"
	}
	if cfg.Rate.Claims.Limit == 0 {
		cfg.Rate.Claims.Limit = 30
	}
	if cfg.Rate.Claims.Window == 0 {
		cfg.Rate.Claims.Window = time.Minute
	}

	// Allowlist normalizada una sola vez acá; el resto del código asume lowercase.
	for i, e := range cfg.Admin.Allowlist {
		cfg.Admin.Allowlist[i] = strings.ToLower(strings.TrimSpace(e))
	}
}

// Validate chequea invariantes mínimos para arrancar.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case "postgres", "pg", "postgresql":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("config: storage.dsn requerido para driver postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("config: storage.driver desconocido: %q", c.Storage.Driver)
	}

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("config: auth.jwt_secret requerido")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("config: auth.jwt_secret debe tener al menos 32 bytes")
	}

	if _, err := time.ParseDuration(zeroAsEmpty(c.Storage.Postgres.ConnMaxLifetime)); c.Storage.Postgres.ConnMaxLifetime != "" && err != nil {
		return fmt.Errorf("config: storage.postgres.conn_max_lifetime inválido: %w", err)
	}
	return nil
}

func zeroAsEmpty(s string) string {
	if s == "" {
		return "0s"
	}
	return s
}

func envStr(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
