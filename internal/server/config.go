// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the roomchat service.
package server

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	defaultPort            = ":8080"
	defaultOrigin          = "http://localhost:5173"
	defaultMaxMessageSize  = 10 << 20
	defaultBurst           = 20
	defaultRefillInterval  = time.Second
	defaultHistoryLimit    = 500
	defaultInitialPageSize = 50
	defaultPageSize        = 20
	defaultRoomSoftLimit   = 1000
	defaultShutdownTimeout = 10 * time.Second
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int           `validate:"min=1"`
	RefillInterval time.Duration `validate:"gt=0"`
}

// Config holds the server configuration settings including security controls
// and the chat engine's limits.
type Config struct {
	Port            string `validate:"required"`
	AllowedOrigins  []string
	MaxMessageSize  int64 `validate:"gt=0"`
	RateLimit       RateLimitConfig
	HistoryLimit    int           `validate:"min=1"`
	InitialPageSize int           `validate:"min=1"`
	DefaultPageSize int           `validate:"min=1"`
	RoomSoftLimit   int           `validate:"min=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	LogFormat       string        `validate:"oneof=text json"`
	LogLevel        string        `validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// DefaultConfig returns a Config populated with default values for all settings.
func DefaultConfig() Config {
	return Config{
		Port:           defaultPort,
		AllowedOrigins: []string{defaultOrigin},
		MaxMessageSize: defaultMaxMessageSize,
		RateLimit: RateLimitConfig{
			Burst:          defaultBurst,
			RefillInterval: defaultRefillInterval,
		},
		HistoryLimit:    defaultHistoryLimit,
		InitialPageSize: defaultInitialPageSize,
		DefaultPageSize: defaultPageSize,
		RoomSoftLimit:   defaultRoomSoftLimit,
		ShutdownTimeout: defaultShutdownTimeout,
		LogFormat:       "text",
		LogLevel:        "info",
	}
}

// LoadConfig reads envFile (a missing file is not an error), then the
// process environment, and returns the sanitized and validated result.
func LoadConfig(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
		slog.Debug("No env file found, relying on environment variables", "path", envFile)
	}

	cfg := NewConfigFromEnv().Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Falls back to default values if environment variables are not set or
// cannot be parsed.
func NewConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		cfg.MaxMessageSize = parseMaxMessageSize(maxSize, cfg.MaxMessageSize)
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		cfg.RateLimit.Burst = parseIntValue(burst, cfg.RateLimit.Burst)
	}

	if interval := os.Getenv("RATE_LIMIT_REFILL_INTERVAL"); interval != "" {
		cfg.RateLimit.RefillInterval = parseSeconds(interval, cfg.RateLimit.RefillInterval)
	}

	if limit := os.Getenv("HISTORY_LIMIT"); limit != "" {
		cfg.HistoryLimit = parseIntValue(limit, cfg.HistoryLimit)
	}

	if size := os.Getenv("INITIAL_PAGE_SIZE"); size != "" {
		cfg.InitialPageSize = parseIntValue(size, cfg.InitialPageSize)
	}

	if size := os.Getenv("DEFAULT_PAGE_SIZE"); size != "" {
		cfg.DefaultPageSize = parseIntValue(size, cfg.DefaultPageSize)
	}

	if limit := os.Getenv("ROOM_SOFT_LIMIT"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil && parsed >= 0 {
			cfg.RoomSoftLimit = parsed
		}
	}

	if timeout := os.Getenv("SHUTDOWN_TIMEOUT"); timeout != "" {
		cfg.ShutdownTimeout = parseSeconds(timeout, cfg.ShutdownTimeout)
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.LogFormat = strings.ToLower(format)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	return &cfg
}

// Sanitize replaces out-of-range values with their defaults and normalizes
// the port and origin list.
func (c Config) Sanitize() Config {
	def := DefaultConfig()

	c.Port = normalizePort(c.Port)

	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}

	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = def.RateLimit.Burst
	}

	if c.RateLimit.RefillInterval <= 0 {
		c.RateLimit.RefillInterval = def.RateLimit.RefillInterval
	}

	if c.HistoryLimit <= 0 {
		c.HistoryLimit = def.HistoryLimit
	}

	if c.InitialPageSize <= 0 {
		c.InitialPageSize = def.InitialPageSize
	}

	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = def.DefaultPageSize
	}

	if c.RoomSoftLimit < 0 {
		c.RoomSoftLimit = def.RoomSoftLimit
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}

	if c.LogFormat == "" {
		c.LogFormat = def.LogFormat
	}

	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}

	c.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	return c
}

// Validate checks the struct constraints of c.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// normalizePort accepts "8080", ":8080" or "host:8080".
func normalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return defaultPort
	}
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseMaxMessageSize(value string, defaultValue int64) int64 {
	if size, err := strconv.ParseInt(value, 10, 64); err == nil && size > 0 {
		return size
	}
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseSeconds(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
