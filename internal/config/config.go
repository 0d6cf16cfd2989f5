// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvDatabaseURL names the only setting the process cannot start without.
const EnvDatabaseURL = "DATABASE_URL"

// ErrMissingDatabaseURL is returned by Load when DATABASE_URL is unset.
var ErrMissingDatabaseURL = errors.New(EnvDatabaseURL + " is not set")

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Observability ObservabilityConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
	Bootstrap     BootstrapConfig
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL              string
	MaxConns         int
	MinConns         int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	ConnectTimeout   time.Duration
	AcquireTimeout   time.Duration
	StatementTimeout time.Duration
	Echo             bool
	AutoMigrate      bool
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	OTELEnabled    bool
	ServiceName    string
	ServiceVersion string
}

// SecurityConfig holds password hashing parameters
type SecurityConfig struct {
	Argon2Memory      uint32
	Argon2Iterations  uint32
	Argon2Parallelism uint8
	Argon2SaltLength  uint32
	Argon2KeyLength   uint32
}

// BootstrapConfig describes a company registered on first start.
type BootstrapConfig struct {
	CompanyName     string
	CompanyEmail    string
	CompanyPassword string
}

// Enabled reports whether a bootstrap company was configured.
func (b BootstrapConfig) Enabled() bool {
	return b.CompanyName != "" && b.CompanyPassword != ""
}

// LoadDotEnv reads KEY=VALUE pairs from the given files (".env" when none is
// given) into the process environment. Variables already set win. A missing
// file is not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	security, err := loadSecurityConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  parseDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: parseDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:  parseDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			URL:              os.Getenv(EnvDatabaseURL),
			MaxConns:         parseInt("DB_MAX_CONNS", 20),
			MinConns:         parseInt("DB_MIN_CONNS", 2),
			ConnMaxLifetime:  parseDuration("DB_CONN_MAX_LIFETIME", "1h"),
			ConnMaxIdleTime:  parseDuration("DB_CONN_MAX_IDLE_TIME", "30m"),
			ConnectTimeout:   parseDuration("DB_CONNECT_TIMEOUT", "10s"),
			AcquireTimeout:   parseDuration("DB_ACQUIRE_TIMEOUT", "5s"),
			StatementTimeout: parseDuration("DB_STATEMENT_TIMEOUT", "30s"),
			Echo:             parseBool("DB_ECHO", true),
			AutoMigrate:      parseBool("DB_AUTO_MIGRATE", false),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			OTELEnabled:    parseBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "companies"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "0.1.0"),
		},
		Security: security,
		RateLimit: RateLimitConfig{
			RequestsPerSecond: float64(parseInt("RATELIMIT_RPS", 10)),
			Burst:             parseInt("RATELIMIT_BURST", 20),
		},
		Bootstrap: BootstrapConfig{
			CompanyName:     os.Getenv("COMPANY_BOOTSTRAP_NAME"),
			CompanyEmail:    os.Getenv("COMPANY_BOOTSTRAP_EMAIL"),
			CompanyPassword: os.Getenv("COMPANY_BOOTSTRAP_PASSWORD"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return ErrMissingDatabaseURL
	}
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.Database.MaxConns)
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS, got %d", c.Database.MinConns)
	}
	if c.Security.Argon2Iterations == 0 {
		return errors.New("ARGON2_ITERATIONS must be positive")
	}
	if c.Security.Argon2Parallelism == 0 {
		return errors.New("ARGON2_PARALLELISM must be between 1 and 255")
	}
	if c.Security.Argon2SaltLength < 8 {
		return fmt.Errorf("ARGON2_SALT_LENGTH must be at least 8, got %d", c.Security.Argon2SaltLength)
	}
	if c.Security.Argon2KeyLength < 16 {
		return fmt.Errorf("ARGON2_KEY_LENGTH must be at least 16, got %d", c.Security.Argon2KeyLength)
	}
	switch c.Observability.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Observability.LogFormat)
	}
	return nil
}

// loadSecurityConfig reads the ARGON2_* settings. Unlike the other settings a
// malformed or out-of-range value is an error rather than a fallback.
func loadSecurityConfig() (SecurityConfig, error) {
	memory, errMemory := parseUint("ARGON2_MEMORY", 65536, 32)
	iterations, errIterations := parseUint("ARGON2_ITERATIONS", 3, 32)
	parallelism, errParallelism := parseUint("ARGON2_PARALLELISM", 4, 8)
	saltLength, errSalt := parseUint("ARGON2_SALT_LENGTH", 16, 32)
	keyLength, errKey := parseUint("ARGON2_KEY_LENGTH", 32, 32)
	if err := errors.Join(errMemory, errIterations, errParallelism, errSalt, errKey); err != nil {
		return SecurityConfig{}, err
	}

	return SecurityConfig{
		Argon2Memory:      uint32(memory),
		Argon2Iterations:  uint32(iterations),
		Argon2Parallelism: uint8(parallelism),
		Argon2SaltLength:  uint32(saltLength),
		Argon2KeyLength:   uint32(keyLength),
	}, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func parseUint(key string, defaultValue uint64, bitSize int) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	u, err := strconv.ParseUint(value, 10, bitSize)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return u, nil
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		// Fallback to default
		d, _ = time.ParseDuration(defaultValue)
	}
	return d
}
