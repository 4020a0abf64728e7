package domain

import "time"

// Config is the main application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Reference ReferenceConfig `mapstructure:"reference"`
	Mappings  MappingsConfig  `mapstructure:"mappings"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ReferenceConfig locates the normalized growth-reference tables.
type ReferenceConfig struct {
	DataDir string `mapstructure:"data_dir"`
	Source  string `mapstructure:"source"`
}

// MappingsConfig locates the declarative percentile-to-term mapping document.
// Swapping this path is the supported way to run a stricter or looser
// clinical policy without code changes.
type MappingsConfig struct {
	Path string `mapstructure:"path"`
}

// AuditConfig configures the embedded evaluation audit store.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// CacheConfig configures the in-process evaluation response cache.
type CacheConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
}

// RateLimitConfig configures API request throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
