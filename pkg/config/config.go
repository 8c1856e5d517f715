// Package config loads engine configuration from config.yaml with
// environment variable overrides. Secrets come from the environment only.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the KPI operations engine.
// Environment variables override YAML values for fields that support both.
type Config struct {
	// Server configuration.
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Authentication configuration.
	Auth AuthConfig `yaml:"auth"`

	// Database configuration (PostgreSQL).
	Database DatabaseConfig `yaml:"database"`

	// MigrationsPath is the directory holding SQL migrations.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// KPI engine configuration.
	KPI KPIConfig `yaml:"kpi"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT signatures are validated.
	// Set to false for local development without an identity service.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr.
	JWKSEndpoints map[string]string `yaml:"-"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"kpiops"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"kpi_operations"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// URL assembles the pgx connection URL.
func (d *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

// KPIConfig holds calculation-engine settings.
type KPIConfig struct {
	// TrendDeadbandPercent is the change threshold below which a metric's
	// trend is reported stable.
	TrendDeadbandPercent float64 `yaml:"trend_deadband_percent" env:"KPI_TREND_DEADBAND_PERCENT" env-default:"2.0"`

	// DefaultsPath points to the industry defaults YAML consulted by the
	// inference resolver. Empty uses the built-in table.
	DefaultsPath string `yaml:"defaults_path" env:"KPI_DEFAULTS_PATH" env-default:""`
}

// Load reads configuration from config.yaml with environment overrides.
// A missing config.yaml is not an error; environment and defaults apply.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if err := cfg.parseJWKSEndpoints(); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	if cfg.Auth.EnableVerification && len(cfg.Auth.JWKSEndpoints) == 0 {
		return nil, fmt.Errorf("auth verification enabled but no JWKS endpoints configured")
	}

	return cfg, nil
}

// parseJWKSEndpoints parses "issuer1=url1,issuer2=url2" into a map.
func (c *Config) parseJWKSEndpoints() error {
	c.Auth.JWKSEndpoints = make(map[string]string)
	if c.Auth.JWKSEndpointsStr == "" {
		return nil
	}
	for _, pair := range strings.Split(c.Auth.JWKSEndpointsStr, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("malformed jwks endpoint pair %q", pair)
		}
		c.Auth.JWKSEndpoints[parts[0]] = parts[1]
	}
	return nil
}
