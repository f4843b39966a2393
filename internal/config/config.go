// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Redis (optional, enables the sponsorship cache when set)
	RedisURL string `koanf:"redis_url"`

	// Ranking calibration overrides (optional JSON file)
	CalibrationFile string `koanf:"calibration_file"`

	// Privileged seller registry (optional JSON file)
	PrivilegeFile string `koanf:"privilege_file"`

	// Feed settings
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`

	// Per-source fetch timeout in seconds
	SourceTimeoutSeconds int `koanf:"source_timeout_seconds"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrInvalidPort        = errors.New("PORT must be a valid integer")
	ErrInvalidPageSize    = errors.New("DEFAULT_PAGE_SIZE must be between 1 and MAX_PAGE_SIZE")
	ErrInvalidTimeout     = errors.New("SOURCE_TIMEOUT_SECONDS must be positive")
)

// Default values for non-secret configuration.
const (
	DefaultPort                 = 8080
	DefaultEnv                  = "development"
	DefaultDefaultPageSize      = 10
	DefaultMaxPageSize          = 50
	DefaultSourceTimeoutSeconds = 5
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Parse port from env, collecting error if invalid
	// Try STUDX_PORT first, then PORT for backward compatibility
	port, portErr := getEnvIntOrDefaultMulti([]string{"STUDX_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	defaultPageSize, pageSizeErr := getEnvIntOrDefault("DEFAULT_PAGE_SIZE", k.Int("default_page_size"), DefaultDefaultPageSize)
	if pageSizeErr != nil {
		loadErrs = append(loadErrs, pageSizeErr)
	}

	maxPageSize, maxPageSizeErr := getEnvIntOrDefault("MAX_PAGE_SIZE", k.Int("max_page_size"), DefaultMaxPageSize)
	if maxPageSizeErr != nil {
		loadErrs = append(loadErrs, maxPageSizeErr)
	}

	sourceTimeout, timeoutErr := getEnvIntOrDefault("SOURCE_TIMEOUT_SECONDS", k.Int("source_timeout_seconds"), DefaultSourceTimeoutSeconds)
	if timeoutErr != nil {
		loadErrs = append(loadErrs, timeoutErr)
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:                 port,
		Env:                  getEnvOrDefaultMulti([]string{"STUDX_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:          getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisURL:             getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		CalibrationFile:      getEnvOrKoanf("CALIBRATION_FILE", k, "calibration_file"),
		PrivilegeFile:        getEnvOrKoanf("PRIVILEGE_FILE", k, "privilege_file"),
		DefaultPageSize:      defaultPageSize,
		MaxPageSize:          maxPageSize,
		SourceTimeoutSeconds: sourceTimeout,
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// SourceTimeout returns the per-source fetch timeout as a duration.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutSeconds) * time.Second
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
// Note: a zero value from a YAML file falls back to the default.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.DefaultPageSize < 1 || c.DefaultPageSize > c.MaxPageSize {
		errs = append(errs, ErrInvalidPageSize)
	}
	if c.SourceTimeoutSeconds < 1 {
		errs = append(errs, ErrInvalidTimeout)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                   fmt.Sprintf("%d", c.Port),
		"env":                    c.Env,
		"database_url":           maskDatabaseURL(c.DatabaseURL),
		"redis_url":              maskDatabaseURL(c.RedisURL),
		"calibration_file":       orNotSet(c.CalibrationFile),
		"privilege_file":         orNotSet(c.PrivilegeFile),
		"default_page_size":      fmt.Sprintf("%d", c.DefaultPageSize),
		"max_page_size":          fmt.Sprintf("%d", c.MaxPageSize),
		"source_timeout_seconds": fmt.Sprintf("%d", c.SourceTimeoutSeconds),
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "<not set>"
	}
	return s
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a connection URL.
// Supports postgres://, postgresql:// and redis:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	// Look for password pattern: user:password@host
	// Simple approach: find :// and then mask between : and @
	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	// Reconstruct URL with masked password
	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
