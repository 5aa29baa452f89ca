// Package config carga la configuración del portal desde YAML + entorno.
// Se lee una vez al arranque y no muta después.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Secretos de desarrollo. Debilidad conocida y deliberada: si en prod no se
// setean las variables de entorno correspondientes, Validate() corta el
// arranque en lugar de firmar con un secreto adivinable.
const (
	FallbackAccessSecret  = "dev-access-secret-change-me"
	FallbackRefreshSecret = "dev-refresh-secret-change-me"
)

// Variables de entorno reconocidas.
const (
	EnvAccessSecret  = "PORTAL_JWT_ACCESS_SECRET"
	EnvRefreshSecret = "PORTAL_JWT_REFRESH_SECRET"
	EnvAppEnv        = "PORTAL_ENV"
	EnvAddr          = "PORTAL_ADDR"
	EnvDSN           = "PORTAL_DSN"
	EnvRedisAddr     = "PORTAL_REDIS_ADDR"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MinIdleConns    int    `yaml:"min_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	JWT struct {
		Issuer     string `yaml:"issuer"`
		Audience   string `yaml:"audience"`
		AccessTTL  string `yaml:"access_ttl"`  // default 24h
		RefreshTTL string `yaml:"refresh_ttl"` // default 168h
		// Secretos: SOLO por entorno, nunca en YAML.
		AccessSecret  string `yaml:"-"`
		RefreshSecret string `yaml:"-"`
	} `yaml:"jwt"`

	Auth struct {
		Cookie struct {
			Domain string `yaml:"domain"`
			Secure bool   `yaml:"secure"`
		} `yaml:"cookie"`
	} `yaml:"auth"`

	CSRF struct {
		TTL string `yaml:"ttl"` // default 1h
	} `yaml:"csrf"`

	// Edge define el ruteo del guard pre-render.
	Edge struct {
		ProtectedPrefixes []string `yaml:"protected_prefixes"`
		AdminPrefix       string   `yaml:"admin_prefix"`
		LoginPath         string   `yaml:"login_path"`
		AdminLoginPath    string   `yaml:"admin_login_path"`
		EntryPaths        []string `yaml:"entry_paths"`
		LandingPath       string   `yaml:"landing_path"`
	} `yaml:"edge"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Login   struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`
	} `yaml:"rate"`
}

// Load lee el YAML (si existe), aplica overrides de entorno y defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := getenv(EnvAppEnv); v != "" {
		c.App.Env = v
	}
	if v := getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := getenv(EnvDSN); v != "" {
		c.Storage.DSN = v
		if c.Storage.Driver == "" {
			c.Storage.Driver = "postgres"
		}
	}
	if v := getenv(EnvRedisAddr); v != "" {
		c.Cache.Redis.Addr = v
		if c.Cache.Kind == "" {
			c.Cache.Kind = "redis"
		}
	}
	c.JWT.AccessSecret = getenvOr(EnvAccessSecret, FallbackAccessSecret)
	c.JWT.RefreshSecret = getenvOr(EnvRefreshSecret, FallbackRefreshSecret)
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "24h"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "168h"
	}
	if c.CSRF.TTL == "" {
		c.CSRF.TTL = "1h"
	}
	if len(c.Edge.ProtectedPrefixes) == 0 {
		c.Edge.ProtectedPrefixes = []string{"/panel"}
	}
	if c.Edge.AdminPrefix == "" {
		c.Edge.AdminPrefix = "/admin"
	}
	if c.Edge.LoginPath == "" {
		c.Edge.LoginPath = "/login"
	}
	if c.Edge.AdminLoginPath == "" {
		c.Edge.AdminLoginPath = "/admin/login"
	}
	if len(c.Edge.EntryPaths) == 0 {
		c.Edge.EntryPaths = []string{"/login", "/registro"}
	}
	if c.Edge.LandingPath == "" {
		c.Edge.LandingPath = "/panel"
	}
	if c.Rate.Login.Limit <= 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
}

func (c *Config) IsProd() bool {
	return strings.EqualFold(strings.TrimSpace(c.App.Env), "prod")
}

// Validate chequea invariantes operativas. Fatal para el arranque que lo
// intenta, no para el proceso que ya corre.
func (c *Config) Validate() error {
	if c.IsProd() {
		if c.JWT.AccessSecret == FallbackAccessSecret {
			return fmt.Errorf("config: %s must be set in prod (fallback secret detected)", EnvAccessSecret)
		}
		if c.JWT.RefreshSecret == FallbackRefreshSecret {
			return fmt.Errorf("config: %s must be set in prod (fallback secret detected)", EnvRefreshSecret)
		}
	}
	if c.Storage.Driver == "postgres" && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("config: storage.dsn is required for the postgres driver")
	}
	return nil
}

// AccessTTL parsea la vida del access token (default 24h).
func (c *Config) AccessTTL() time.Duration { return parseDur(c.JWT.AccessTTL, 24*time.Hour) }

// RefreshTTL parsea la vida del refresh token (default 7d).
func (c *Config) RefreshTTL() time.Duration { return parseDur(c.JWT.RefreshTTL, 7*24*time.Hour) }

// CSRFTTL parsea la vida del token CSRF (default 1h).
func (c *Config) CSRFTTL() time.Duration { return parseDur(c.CSRF.TTL, time.Hour) }

// LoginRateWindow parsea la ventana del rate limit de login.
func (c *Config) LoginRateWindow() time.Duration { return parseDur(c.Rate.Login.Window, time.Minute) }

func parseDur(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil && d > 0 {
		return d
	}
	return def
}

func getenv(key string) string { return strings.TrimSpace(os.Getenv(key)) }

func getenvOr(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}
