// -----------------------------------------------------------------------------
// Config Package
// -----------------------------------------------------------------------------
// Central configuration. Values are layered with koanf, later layers winning:
//
//  1. built-in defaults (defaultConfig)
//  2. an optional YAML file (CONFIG_PATH, or ./config.yaml)
//  3. environment variables (see envMappings)
//
// The result is validated before it is returned; a production config with a
// weak JWT secret never reaches the server.
// -----------------------------------------------------------------------------

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the variable pointing at a YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are tried in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

const insecureDefaultSecret = "development-secret-change-me-in-production"

// Config is the application configuration.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	DB        DBConfig        `koanf:"db"`
	JWT       JWTConfig       `koanf:"jwt"`
	Security  SecurityConfig  `koanf:"security"`
	Redis     RedisConfig     `koanf:"redis"`
	Cache     CacheConfig     `koanf:"cache"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

type AppConfig struct {
	Name string `koanf:"name"`
	// Env: development, production or test.
	Env string `koanf:"env"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// TrustedProxies are addresses or CIDR ranges whose X-Forwarded-For
	// and X-Real-IP headers are believed. Empty trusts no one.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

type DBConfig struct {
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	// AutoMigrate applies pending migrations at startup.
	AutoMigrate bool `koanf:"auto_migrate"`
	// CheckSchema verifies filter, alias and patch columns against the live
	// schema at startup.
	CheckSchema bool `koanf:"check_schema"`
}

type JWTConfig struct {
	Secret     string        `koanf:"secret"`
	Issuer     string        `koanf:"issuer"`
	Expiration time.Duration `koanf:"expiration"`
}

type SecurityConfig struct {
	BcryptCost  int      `koanf:"bcrypt_cost"`
	CORSOrigins []string `koanf:"cors_origins"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	PoolSize int    `koanf:"pool_size"`
}

type CacheConfig struct {
	// Driver: memory, redis or none.
	Driver string        `koanf:"driver"`
	Prefix string        `koanf:"prefix"`
	TTL    time.Duration `koanf:"ttl"`
}

type RateLimitConfig struct {
	Enabled           bool    `koanf:"enabled"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

func defaultConfig() Config {
	return Config{
		App: AppConfig{Name: "jobly", Env: "development"},
		Server: ServerConfig{
			Port:            "3001",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		DB: DBConfig{
			DSN:             "postgres://localhost:5432/jobly?sslmode=disable",
			MaxOpenConns:    25,
			MaxIdleConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
			AutoMigrate:     false,
			CheckSchema:     true,
		},
		JWT: JWTConfig{
			Secret:     insecureDefaultSecret,
			Issuer:     "jobly",
			Expiration: 24 * time.Hour,
		},
		Security: SecurityConfig{
			BcryptCost:  12,
			CORSOrigins: []string{"*"},
		},
		Redis: RedisConfig{Addr: "127.0.0.1:6379", PoolSize: 10},
		Cache: CacheConfig{Driver: "memory", Prefix: "jobly:", TTL: time.Minute},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Log:     LogConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// Load builds the configuration from defaults, file and environment.
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envMappings = map[string]string{
	"app_name": "app.name",
	"app_env":  "app.env",

	"port":                    "server.port",
	"server_read_timeout":     "server.read_timeout",
	"server_write_timeout":    "server.write_timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",
	"trusted_proxies":         "server.trusted_proxies",

	"database_url":         "db.dsn",
	"db_max_open_conns":    "db.max_open_conns",
	"db_max_idle_conns":    "db.max_idle_conns",
	"db_conn_max_lifetime": "db.conn_max_lifetime",
	"db_auto_migrate":      "db.auto_migrate",
	"db_check_schema":      "db.check_schema",

	"jwt_secret":     "jwt.secret",
	"secret_key":     "jwt.secret",
	"jwt_issuer":     "jwt.issuer",
	"jwt_expiration": "jwt.expiration",

	"bcrypt_work_factor": "security.bcrypt_cost",
	"cors_origins":       "security.cors_origins",

	"redis_addr":     "redis.addr",
	"redis_password": "redis.password",
	"redis_db":       "redis.db",

	"cache_driver": "cache.driver",
	"cache_prefix": "cache.prefix",
	"cache_ttl":    "cache.ttl",

	"rate_limit_enabled": "rate_limit.enabled",
	"rate_limit_rps":     "rate_limit.requests_per_second",
	"rate_limit_burst":   "rate_limit.burst",

	"log_level":  "log.level",
	"log_format": "log.format",
	"log_caller": "log.caller",

	"metrics_enabled": "metrics.enabled",
}

// envTransformFunc maps environment variable names to config paths.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

var sliceConfigPaths = []string{"security.cors_origins", "server.trusted_proxies"}

// processSliceFields splits comma-separated env values into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.App.Env {
	case "development", "production", "test":
	default:
		return fmt.Errorf("invalid APP_ENV: %q (development, production or test)", c.App.Env)
	}

	if c.IsProduction() {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if c.JWT.Secret == insecureDefaultSecret {
			return fmt.Errorf("JWT_SECRET must be changed in production")
		}
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}

	switch c.Cache.Driver {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("invalid CACHE_DRIVER: %q (memory, redis or none)", c.Cache.Driver)
	}

	if c.DB.DSN == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit needs positive requests_per_second and burst")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}
