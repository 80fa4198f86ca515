package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(10<<20), cfg.MaxMessageSize)
	assert.Equal(t, RateLimitConfig{Burst: 20, RefillInterval: time.Second}, cfg.RateLimit)
	assert.Equal(t, 500, cfg.HistoryLimit)
	assert.Equal(t, 50, cfg.InitialPageSize)
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Equal(t, 1000, cfg.RoomSoftLimit)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, https://b.example")
	t.Setenv("MAX_MESSAGE_SIZE", "2048")
	t.Setenv("RATE_LIMIT_BURST", "7")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "3")
	t.Setenv("HISTORY_LIMIT", "100")
	t.Setenv("INITIAL_PAGE_SIZE", "25")
	t.Setenv("DEFAULT_PAGE_SIZE", "10")
	t.Setenv("ROOM_SOFT_LIMIT", "0")
	t.Setenv("SHUTDOWN_TIMEOUT", "4")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := NewConfigFromEnv()

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, []string{"http://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(2048), cfg.MaxMessageSize)
	assert.Equal(t, RateLimitConfig{Burst: 7, RefillInterval: 3 * time.Second}, cfg.RateLimit)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, 25, cfg.InitialPageSize)
	assert.Equal(t, 10, cfg.DefaultPageSize)
	assert.Equal(t, 0, cfg.RoomSoftLimit)
	assert.Equal(t, 4*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestNewConfigFromEnvFallsBackOnGarbage(t *testing.T) {
	t.Setenv("MAX_MESSAGE_SIZE", "huge")
	t.Setenv("RATE_LIMIT_BURST", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "0")
	t.Setenv("HISTORY_LIMIT", "lots")
	t.Setenv("ROOM_SOFT_LIMIT", "-1")

	cfg := NewConfigFromEnv()
	def := DefaultConfig()

	assert.Equal(t, def.MaxMessageSize, cfg.MaxMessageSize)
	assert.Equal(t, def.RateLimit, cfg.RateLimit)
	assert.Equal(t, def.HistoryLimit, cfg.HistoryLimit)
	assert.Equal(t, def.RoomSoftLimit, cfg.RoomSoftLimit)
}

func TestSanitize(t *testing.T) {
	cfg := Config{Port: "3000", LogFormat: "text", LogLevel: "info"}.Sanitize()

	assert.Equal(t, ":3000", cfg.Port)
	assert.Equal(t, DefaultConfig().RateLimit, cfg.RateLimit)
	assert.Equal(t, 500, cfg.HistoryLimit)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, "localhost:3000", Config{Port: "localhost:3000"}.Sanitize().Port)
	assert.Equal(t, ":8080", Config{}.Sanitize().Port)
}

func TestValidateRejectsUnknownLogSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogFormat = "xml"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.LogLevel = "chatty"
	assert.Error(t, cfg.Validate())
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "roomchat.env")
	require.NoError(t, os.WriteFile(envFile, []byte("DEFAULT_PAGE_SIZE=15\nALLOWED_ORIGINS=*\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("DEFAULT_PAGE_SIZE")
		_ = os.Unsetenv("ALLOWED_ORIGINS")
	})

	cfg, err := LoadConfig(envFile)

	require.NoError(t, err)
	assert.Equal(t, 15, cfg.DefaultPageSize)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadConfigMissingFileIsFine(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env"))

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().HistoryLimit, cfg.HistoryLimit)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("LOG_FORMAT", "yaml")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env"))

	assert.Error(t, err)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "loud"

	_, err := New(cfg)

	assert.Error(t, err)
}
