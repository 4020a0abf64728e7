package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/prenatal-phenotype-server/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	// Set configuration file name and paths
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/prenatal-phenotype-server/")

	// Set environment variable prefix and enable automatic env binding
	viper.SetEnvPrefix("PRENATAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	m.setDefaults()

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	// Unmarshal configuration into struct
	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Reference table defaults
	viper.SetDefault("reference.data_dir", "./configs/reference")
	viper.SetDefault("reference.source", "intergrowth21")

	// Mapping document defaults
	viper.SetDefault("mappings.path", "./configs/biometry_hpo_mappings.yaml")

	// Audit store defaults
	viper.SetDefault("audit.enabled", true)
	viper.SetDefault("audit.db_path", "./data/audit.db")

	// Cache defaults
	viper.SetDefault("cache.max_entries", 4096)

	// Rate limit defaults
	viper.SetDefault("rate_limit.requests_per_second", 50)
	viper.SetDefault("rate_limit.burst", 100)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	// Validate data sources
	if config.Reference.DataDir == "" {
		return fmt.Errorf("reference data directory is required")
	}
	if !domain.SourceStandard(config.Reference.Source).IsValid() {
		return fmt.Errorf("unknown reference source standard: %s", config.Reference.Source)
	}
	if config.Mappings.Path == "" {
		return fmt.Errorf("mapping document path is required")
	}

	// Validate audit configuration
	if config.Audit.Enabled && config.Audit.DBPath == "" {
		return fmt.Errorf("audit database path is required when auditing is enabled")
	}

	// Validate cache and rate-limit configuration
	if config.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache max entries must be positive: %d", config.Cache.MaxEntries)
	}
	if config.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate limit must be positive: %g", config.RateLimit.RequestsPerSecond)
	}
	if config.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit burst must be positive: %d", config.RateLimit.Burst)
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	if config.Logging.Format != "json" && config.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	return nil
}
