// Package config provides configuration loading and validation for the service and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Defaults
const (
	DefaultPort          = 8080
	DefaultFormTTL       = "24h"
	DefaultPayloadMode   = "partitioned"
	DefaultJobAPITimeout = 30
)

// Config represents the service configuration that can be loaded from a JSON file.
// All fields are optional; missing values come from the environment or defaults.
type Config struct {
	// Server
	Port           int      `json:"port,omitempty"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"` // CORS origins; empty allows any

	// Job posting API
	JobAPIBaseURL string `json:"job_api_base_url,omitempty"`
	JobAPITimeout int    `json:"job_api_timeout,omitempty"` // Seconds
	PayloadMode   string `json:"payload_mode,omitempty"`    // "partitioned" or "tagged"

	// Storage
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL; empty disables the audit log
	RedisURL    string `json:"redis_url,omitempty"`    // Empty keeps sessions in memory
	FormTTL     string `json:"form_ttl,omitempty"`     // Go duration, e.g. "24h"

	// Behavior
	Verbose bool `json:"verbose,omitempty"` // Debug logging
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables.
// Unset variables leave the corresponding field empty.
func FromEnv() (Config, error) {
	cfg := Config{
		JobAPIBaseURL: os.Getenv("JOB_API_BASE_URL"),
		PayloadMode:   os.Getenv("PAYLOAD_MODE"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		FormTTL:       os.Getenv("FORM_TTL"),
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT: %v", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("JOB_API_TIMEOUT"); v != "" {
		timeout, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid JOB_API_TIMEOUT: %v", err)
		}
		cfg.JobAPITimeout = timeout
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}
	if v := os.Getenv("VERBOSE"); v != "" {
		verbose, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid VERBOSE: %v", err)
		}
		cfg.Verbose = verbose
	}

	return cfg, nil
}

// Validate checks that the configuration has valid values.
// Empty fields are accepted; call it after MergeWithDefaults for a full check.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.JobAPITimeout < 0 {
		return fmt.Errorf("config error: 'job_api_timeout' must be non-negative")
	}

	if c.JobAPIBaseURL != "" {
		u, err := url.Parse(c.JobAPIBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: 'job_api_base_url' is not an absolute URL: %s", c.JobAPIBaseURL)
		}
	}

	switch c.PayloadMode {
	case "", "partitioned", "tagged":
	default:
		return fmt.Errorf("config error: 'payload_mode' must be 'partitioned' or 'tagged', got %q", c.PayloadMode)
	}

	if c.FormTTL != "" {
		ttl, err := time.ParseDuration(c.FormTTL)
		if err != nil {
			return fmt.Errorf("config error: invalid 'form_ttl': %v", err)
		}
		if ttl <= 0 {
			return fmt.Errorf("config error: 'form_ttl' must be positive")
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Config file values are layered over environment values this way.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.JobAPIBaseURL == "" {
		result.JobAPIBaseURL = defaults.JobAPIBaseURL
	}
	if result.PayloadMode == "" {
		result.PayloadMode = defaults.PayloadMode
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.FormTTL == "" {
		result.FormTTL = defaults.FormTTL
	}
	if len(result.AllowedOrigins) == 0 {
		result.AllowedOrigins = defaults.AllowedOrigins
	}

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.JobAPITimeout == 0 {
		result.JobAPITimeout = defaults.JobAPITimeout
	}

	// Bool fields: either source can turn verbose on
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

// WithBuiltinDefaults fills whatever is still empty with the package defaults.
func (c *Config) WithBuiltinDefaults() Config {
	return c.MergeWithDefaults(Config{
		Port:          DefaultPort,
		FormTTL:       DefaultFormTTL,
		PayloadMode:   DefaultPayloadMode,
		JobAPITimeout: DefaultJobAPITimeout,
	})
}

// FormTTLDuration returns FormTTL parsed, or the default when empty or invalid.
func (c *Config) FormTTLDuration() time.Duration {
	if ttl, err := time.ParseDuration(c.FormTTL); err == nil && ttl > 0 {
		return ttl
	}
	ttl, _ := time.ParseDuration(DefaultFormTTL)
	return ttl
}

// JobAPITimeoutDuration returns the job API timeout as a duration.
func (c *Config) JobAPITimeoutDuration() time.Duration {
	if c.JobAPITimeout <= 0 {
		return DefaultJobAPITimeout * time.Second
	}
	return time.Duration(c.JobAPITimeout) * time.Second
}

// Load reads the environment and, when path is non-empty, a JSON file whose
// values take precedence. Builtin defaults fill the rest and the result is validated.
func Load(path string) (Config, error) {
	env, err := FromEnv()
	if err != nil {
		return Config{}, err
	}

	merged := env
	if path != "" {
		file, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		merged = file.MergeWithDefaults(env)
	}

	merged = merged.WithBuiltinDefaults()
	if err := merged.Validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}
