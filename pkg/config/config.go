package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/luxtravel/portico/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	SAML          SAMLConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// SAMLConfig holds service-provider side SAML settings
type SAMLConfig struct {
	// BaseURL is the public URL of this service; callback endpoints are
	// derived from it per provider.
	BaseURL string
	// FrontendURL receives the post-login redirect carrying the token, and
	// the /login?error=... failure redirects.
	FrontendURL string
	// EntityID identifies this service provider to IdPs. Defaults to
	// BaseURL + "/saml/metadata".
	EntityID string
}

// AuthConfig holds session token settings
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("PORTICO_HOST", "0.0.0.0"),
			Port:            getEnv("PORTICO_PORT", "8080"),
			ReadTimeout:     getEnvDuration("PORTICO_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("PORTICO_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("PORTICO_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("PORTICO_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("PORTICO_HEALTH_PORT", "9090"),
		},
		Database: DatabaseConfig{
			URL:          getEnv("PORTICO_POSTGRES_URL", ""),
			MaxOpenConns: getEnvInt("PORTICO_POSTGRES_MAX_CONNS", 20),
			MaxIdleConns: getEnvInt("PORTICO_POSTGRES_IDLE_CONNS", 5),
			ConnLifetime: getEnvDuration("PORTICO_POSTGRES_CONN_LIFETIME", 30*time.Minute),
		},
		SAML: SAMLConfig{
			BaseURL:     strings.TrimRight(getEnv("PORTICO_BASE_URL", ""), "/"),
			FrontendURL: strings.TrimRight(getEnv("PORTICO_FRONTEND_URL", ""), "/"),
			EntityID:    getEnv("PORTICO_SP_ENTITY_ID", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("PORTICO_JWT_SECRET", ""),
			TokenTTL:  getEnvDuration("PORTICO_JWT_TTL", 24*time.Hour),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(getEnv("PORTICO_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("PORTICO_METRICS_ENABLED", true),
		},
	}

	if cfg.SAML.EntityID == "" && cfg.SAML.BaseURL != "" {
		cfg.SAML.EntityID = cfg.SAML.BaseURL + "/saml/metadata"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.SAML.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if _, err := url.ParseRequestURI(c.SAML.BaseURL); err != nil {
		return fmt.Errorf("base URL is not a valid URL: %w", err)
	}
	if c.SAML.FrontendURL == "" {
		return fmt.Errorf("frontend URL is required")
	}
	if _, err := url.ParseRequestURI(c.SAML.FrontendURL); err != nil {
		return fmt.Errorf("frontend URL is not a valid URL: %w", err)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT TTL must be positive")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
