// Package config loads marvelous configuration from marvelous.yaml and
// MARVEL_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultBaseURL is the public endpoint root of the comics-catalog API
const DefaultBaseURL = "https://gateway.marvel.com/v1/public"

// AllTypes is the key under params.global that applies to every resource type
const AllTypes = "all"

// Config represents the marvelous configuration. It is built once and then
// shared read-only by every component.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Params    ParamsConfig    `mapstructure:"params"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Log       LogConfig       `mapstructure:"log"`
	Sink      SinkConfig      `mapstructure:"sink"`
	Server    ServerConfig    `mapstructure:"server"`
}

// APIConfig holds credentials and transport settings
type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	PublicKey  string        `mapstructure:"public_key"`
	PrivateKey string        `mapstructure:"private_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	// RateLimit is the number of requests per second; 0 disables limiting
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// ParamsConfig holds global query parameters and validation toggles
type ParamsConfig struct {
	// OmitNil drops call parameters whose value is nil before validation
	OmitNil  bool `mapstructure:"omit_nil"`
	Validate bool `mapstructure:"validate"`
	// Global maps "all" or a resource type to default parameters
	Global map[string]map[string]any `mapstructure:"global"`
}

// DiscoveryConfig toggles auto-discovery of embedded resources
type DiscoveryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SinkConfig configures optional result sinks
type SinkConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
	SQL   SQLConfig   `mapstructure:"sql"`
}

// RedisConfig configures the Redis result sink
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// SQLConfig configures the SQL result sink
type SQLConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Table  string `mapstructure:"table"`
}

// ServerConfig configures the explorer server
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// AuthSecret enables bearer token auth on /api and /ws when set
	AuthSecret string        `mapstructure:"auth_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   DefaultBaseURL,
			Timeout:   30 * time.Second,
			RateLimit: 5,
			Burst:     5,
		},
		Params: ParamsConfig{
			OmitNil:  true,
			Validate: true,
			Global:   map[string]map[string]any{},
		},
		Discovery: DiscoveryConfig{Enabled: true},
		Log:       LogConfig{Level: "info", Format: "console"},
		Sink: SinkConfig{
			Redis: RedisConfig{Prefix: "marvelous:", TTL: 24 * time.Hour},
			SQL:   SQLConfig{Driver: "sqlite3", Table: "resources"},
		},
		Server: ServerConfig{Addr: "localhost:8080", TokenTTL: 24 * time.Hour},
	}
}

// Load loads the configuration. When path is empty, marvelous.yaml is looked
// up in the working directory and in $HOME/.config/marvelous; a missing file
// is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("marvelous")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "marvelous"))
		}
	}

	// MARVEL_API_PUBLIC_KEY, MARVEL_LOG_LEVEL, ...
	v.SetEnvPrefix("marvel")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if config.Params.Global == nil {
		config.Params.Global = map[string]map[string]any{}
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.public_key", d.API.PublicKey)
	v.SetDefault("api.private_key", d.API.PrivateKey)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.rate_limit", d.API.RateLimit)
	v.SetDefault("api.burst", d.API.Burst)
	v.SetDefault("params.omit_nil", d.Params.OmitNil)
	v.SetDefault("params.validate", d.Params.Validate)
	v.SetDefault("discovery.enabled", d.Discovery.Enabled)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("sink.redis.addr", d.Sink.Redis.Addr)
	v.SetDefault("sink.redis.password", d.Sink.Redis.Password)
	v.SetDefault("sink.redis.db", d.Sink.Redis.DB)
	v.SetDefault("sink.redis.prefix", d.Sink.Redis.Prefix)
	v.SetDefault("sink.redis.ttl", d.Sink.Redis.TTL)
	v.SetDefault("sink.sql.driver", d.Sink.SQL.Driver)
	v.SetDefault("sink.sql.dsn", d.Sink.SQL.DSN)
	v.SetDefault("sink.sql.table", d.Sink.SQL.Table)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.auth_secret", d.Server.AuthSecret)
	v.SetDefault("server.token_ttl", d.Server.TokenTTL)
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got: %q", cfg.API.BaseURL)
	}
	if strings.HasSuffix(cfg.API.BaseURL, "/") {
		return fmt.Errorf("api.base_url must not end with '/', got: %s", cfg.API.BaseURL)
	}
	if cfg.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative, got: %v", cfg.API.RateLimit)
	}
	if cfg.API.RateLimit > 0 && cfg.API.Burst < 1 {
		return fmt.Errorf("api.burst must be at least 1 when rate limiting, got: %d", cfg.API.Burst)
	}

	switch cfg.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be 'console' or 'json', got: %s", cfg.Log.Format)
	}

	switch cfg.Sink.SQL.Driver {
	case "sqlite3", "pgx", "postgres":
	default:
		return fmt.Errorf("sink.sql.driver must be one of sqlite3, pgx, postgres, got: %s", cfg.Sink.SQL.Driver)
	}
	if cfg.Sink.SQL.Table == "" {
		return fmt.Errorf("sink.sql.table must not be empty")
	}
	if cfg.Server.AuthSecret != "" && cfg.Server.TokenTTL <= 0 {
		return fmt.Errorf("server.token_ttl must be positive when server.auth_secret is set, got: %s", cfg.Server.TokenTTL)
	}
	return nil
}

// HasPrivateKey reports whether requests can be signed.
func (c *Config) HasPrivateKey() bool {
	return c.API.PrivateKey != ""
}
