// Package config loads service configuration from an optional YAML file and
// LLAVEO_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Platform PlatformConfig `mapstructure:"platform"`
	Security SecurityConfig `mapstructure:"security"`
	Session  SessionConfig  `mapstructure:"session"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	Environment string `mapstructure:"environment"` // development | production
	// Global per-IP token bucket applied before per-endpoint windows.
	RateBurst  int `mapstructure:"rate_burst"`
	RatePerSec int `mapstructure:"rate_per_sec"`
}

// PostgresConfig holds the database DSN.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// PlatformConfig points at the hosted auth platform.
type PlatformConfig struct {
	URL     string `mapstructure:"url"`
	AnonKey string `mapstructure:"anon_key"`
	// JWTSecret enables local HS256 verification of platform access tokens.
	// When empty, tokens are verified with a network call to the platform.
	JWTSecret string `mapstructure:"jwt_secret"`
}

// SecurityConfig tunes origin inference.
type SecurityConfig struct {
	// ForceHTTPS overrides HTTPS inference entirely.
	ForceHTTPS bool `mapstructure:"force_https"`
	// TrustProxyHeaders enables X-Real-IP / X-Forwarded-For / Forwarded
	// resolution. Off by default: those headers are client-spoofable.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
	// EdgeIPHeader names a platform-specific edge header consulted when
	// proxy trust is disabled (e.g. "X-Vercel-Forwarded-For").
	EdgeIPHeader string `mapstructure:"edge_ip_header"`
}

// SessionConfig controls the server-side session cookie.
type SessionConfig struct {
	CookieMaxAge time.Duration `mapstructure:"cookie_max_age"`
}

// RedisConfig enables the shared rate-limit backend when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IsProduction reports whether the service runs outside local development.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Init points viper at the optional config file and binds environment keys.
// Example override: LLAVEO_PLATFORM_URL replaces platform.url.
func Init(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("llaveo")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/llaveo")
	}

	viper.SetEnvPrefix("LLAVEO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindEnvKeys()
	setDefaults()
}

func bindEnvKeys() {
	_ = viper.BindEnv("server.addr")
	_ = viper.BindEnv("server.environment")
	_ = viper.BindEnv("server.rate_burst")
	_ = viper.BindEnv("server.rate_per_sec")
	_ = viper.BindEnv("postgres.dsn")
	_ = viper.BindEnv("platform.url")
	_ = viper.BindEnv("platform.anon_key")
	_ = viper.BindEnv("platform.jwt_secret")
	_ = viper.BindEnv("security.force_https")
	_ = viper.BindEnv("security.trust_proxy_headers")
	_ = viper.BindEnv("security.edge_ip_header")
	_ = viper.BindEnv("session.cookie_max_age")
	_ = viper.BindEnv("redis.addr")
	_ = viper.BindEnv("redis.password")
	_ = viper.BindEnv("redis.db")
}

func setDefaults() {
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.environment", "development")
	viper.SetDefault("server.rate_burst", 50)
	viper.SetDefault("server.rate_per_sec", 25)
	viper.SetDefault("session.cookie_max_age", 14*24*time.Hour)
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No file: environment variables only.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot safely start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr is required")
	}
	switch strings.ToLower(c.Server.Environment) {
	case "development", "production":
	default:
		return fmt.Errorf("server.environment must be development or production, got %q", c.Server.Environment)
	}
	if c.Platform.URL != "" && !strings.HasPrefix(c.Platform.URL, "http") {
		return fmt.Errorf("platform.url must be an http(s) URL, got %q", c.Platform.URL)
	}
	if c.Session.CookieMaxAge <= 0 {
		return errors.New("session.cookie_max_age must be positive")
	}
	return nil
}
