// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Payment gateway settings
	MerchantID      string // Zarinpal merchant identifier
	CallbackBaseURL string // Public base URL the gateway redirects back to
	Sandbox         bool   // Use the gateway sandbox endpoints

	// Security
	RateLimitRPM   int
	AllowedOrigins []string

	// Observability
	OTLPEndpoint string // OTLP gRPC endpoint for tracing (optional)
}

const (
	DefaultPort      = "3000"
	DefaultEnv       = "development"
	DefaultLogLevel  = "info"
	DefaultRateLimit = 60
)

// Load reads configuration from environment variables.
// It loads a .env file if present (for local development).
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", DefaultPort),
		Env:             getEnv("ENV", DefaultEnv),
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:     os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		MerchantID:      os.Getenv("MERCHANT_ID"),  // Required, no default
		CallbackBaseURL: getEnv("CALLBACK_BASE_URL", ""),
		Sandbox:         getEnvBool("ZARINPAL_SANDBOX", true),
		RateLimitRPM:    getEnvInt("RATE_LIMIT_RPM", DefaultRateLimit),
		AllowedOrigins:  []string{"*"},
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if cfg.CallbackBaseURL == "" {
		cfg.CallbackBaseURL = "http://localhost:" + cfg.Port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.MerchantID == "" {
		return fmt.Errorf("MERCHANT_ID is required")
	}
	if c.CallbackBaseURL == "" {
		return fmt.Errorf("CALLBACK_BASE_URL is required")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
