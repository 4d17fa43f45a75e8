package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// Listener
	Host string `env:"RCMD_HOST" default:"127.0.0.1"`
	Port int    `env:"RCMD_PORT" default:"9999"`

	// Authentication (empty = auth disabled for every request)
	Token string `env:"RCE_TOKEN"`

	// Connection limits
	MaxMessageSize int           `env:"RCMD_MAX_MESSAGE_SIZE" default:"1048576"`
	RateLimit      float64       `env:"RCMD_RATE_LIMIT" default:"0"` // 0 = unlimited
	RateBurst      int           `env:"RCMD_RATE_BURST" default:"20"`
	IdleTimeout    time.Duration `env:"RCMD_IDLE_TIMEOUT" default:"0"` // 0 = wait forever
	PingTimeout    time.Duration `env:"RCMD_PING_TIMEOUT" default:"0"` // 0 = wait for ping to exit

	// Monitoring
	MetricsEnabled bool `env:"METRICS_ENABLED" default:"false"`
	MetricsPort    int  `env:"METRICS_PORT" default:"9100"`

	// Development
	LogLevel string `env:"LOG_LEVEL" default:"info"`
}

// ServerConfig is the part of the configuration the TCP server needs.
// It is built once at startup and never mutated afterwards.
type ServerConfig struct {
	Host  string
	Port  int
	Token string
}

// AuthEnabled reports whether requests must carry the shared token.
func (s ServerConfig) AuthEnabled() bool {
	return s.Token != ""
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// .env is optional, system env vars still apply without it
	_ = godotenv.Load(".env")

	config := &Config{}

	if err := loadEnvString(&config.GoEnv, "GO_ENV", "development"); err != nil {
		return nil, err
	}

	// Listener
	if err := loadEnvString(&config.Host, "RCMD_HOST", "127.0.0.1"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.Port, "RCMD_PORT", 9999); err != nil {
		return nil, err
	}

	// Authentication
	if err := loadEnvString(&config.Token, "RCE_TOKEN", ""); err != nil {
		return nil, err
	}

	// Connection limits
	if err := loadEnvInt(&config.MaxMessageSize, "RCMD_MAX_MESSAGE_SIZE", 1024*1024); err != nil {
		return nil, err
	}
	if err := loadEnvFloat(&config.RateLimit, "RCMD_RATE_LIMIT", 0); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.RateBurst, "RCMD_RATE_BURST", 20); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.IdleTimeout, "RCMD_IDLE_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.PingTimeout, "RCMD_PING_TIMEOUT", 0); err != nil {
		return nil, err
	}

	// Monitoring
	if err := loadEnvBool(&config.MetricsEnabled, "METRICS_ENABLED", false); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.MetricsPort, "METRICS_PORT", 9100); err != nil {
		return nil, err
	}

	// Development
	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", "info"); err != nil {
		return nil, err
	}
	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvFloat(target *float64, key string, defaultValue float64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvBool(target *bool, key string, defaultValue bool) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.Host == "" {
		errors = append(errors, "RCMD_HOST must not be empty")
	}
	// port 0 lets the OS pick one, useful for tests
	if c.Port < 0 || c.Port > 65535 {
		errors = append(errors, "RCMD_PORT must be between 0 and 65535")
	}
	if c.MetricsEnabled && (c.MetricsPort < 1 || c.MetricsPort > 65535) {
		errors = append(errors, "METRICS_PORT must be between 1 and 65535")
	}
	if c.MaxMessageSize < 64 {
		errors = append(errors, "RCMD_MAX_MESSAGE_SIZE must be at least 64 bytes")
	}
	if c.RateLimit < 0 {
		errors = append(errors, "RCMD_RATE_LIMIT must not be negative")
	}
	if c.RateBurst < 1 {
		errors = append(errors, "RCMD_RATE_BURST must be at least 1")
	}
	if c.IdleTimeout < 0 {
		errors = append(errors, "RCMD_IDLE_TIMEOUT must not be negative")
	}
	if c.PingTimeout < 0 {
		errors = append(errors, "RCMD_PING_TIMEOUT must not be negative")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// Server returns the immutable listener/auth settings.
func (c *Config) Server() ServerConfig {
	return ServerConfig{
		Host:  c.Host,
		Port:  c.Port,
		Token: c.Token,
	}
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// Helper function to check if slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
