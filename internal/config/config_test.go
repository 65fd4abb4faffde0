package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/some/path"},
		Server: ServerConfig{Host: "127.0.0.1", Port: "8765"},
		Covers: CoverConfig{MaxWidth: 512, MaxHeight: 768},
		Limits: RateLimitConfig{RPS: 10, Burst: 20},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"INFO", true},
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data path", func(c *Config) { c.Data.BasePath = "" }},
		{"non-numeric port", func(c *Config) { c.Server.Port = "http" }},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }},
		{"zero cover width", func(c *Config) { c.Covers.MaxWidth = 0 }},
		{"negative cover height", func(c *Config) { c.Covers.MaxHeight = -1 }},
		{"negative rate limit", func(c *Config) { c.Limits.RPS = -1 }},
		{"zero burst with rate limit", func(c *Config) { c.Limits.Burst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"ENV", "LOG_LEVEL", "DATA_PATH", "BOOKS_PATH", "SERVER_PORT", "CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST"} {
		t.Setenv(key, "")
	}

	cfg, err := Load([]string{"-env-file", filepath.Join(home, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, filepath.Join(home, ".local", "share", "librum"), cfg.Data.BasePath)
	assert.Equal(t, filepath.Join(cfg.Data.BasePath, "library.db"), cfg.Data.DatabasePath())
	assert.Equal(t, "", cfg.Library.BooksPath)
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.Addr())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Empty(t, cfg.Server.CORSOrigins)
	assert.Equal(t, 512, cfg.Covers.MaxWidth)
	assert.Equal(t, 768, cfg.Covers.MaxHeight)
	assert.True(t, cfg.Limits.Enabled())
	assert.InDelta(t, 10.0, cfg.Limits.RPS, 0)
	assert.Equal(t, 20, cfg.Limits.Burst)
}

func TestLoad_RateLimitDisabled(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("RATE_LIMIT_RPS", "0")
	t.Setenv("RATE_LIMIT_BURST", "0")

	cfg, err := Load([]string{"-env-file", ""})
	require.NoError(t, err)

	assert.False(t, cfg.Limits.Enabled())
}

func TestLoad_InvalidRateLimit(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())

	_, err := Load([]string{"-env-file", "", "-rate-limit-rps", "fast"})

	assert.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"# comment\nLOG_LEVEL=debug\nSERVER_PORT=\"9000\"\nCOVER_MAX_WIDTH=300\n",
	), 0o600))

	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("COVER_MAX_WIDTH", "")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, app://librum ,")
	t.Setenv("DATA_PATH", dir)

	cfg, err := Load([]string{"-env-file", envFile, "-port", "9100", "-log-level", "warn"})
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logger.Level, "flag beats .env")
	assert.Equal(t, "9100", cfg.Server.Port, "flag beats .env")
	assert.Equal(t, 300, cfg.Covers.MaxWidth, ".env beats default")
	assert.Equal(t, []string{"http://localhost:3000", "app://librum"}, cfg.Server.CORSOrigins)
	assert.Equal(t, dir, cfg.Data.BasePath)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())

	_, err := Load([]string{"-env-file", "", "-read-timeout", "soon"})

	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/books", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "books"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("/a/b/../c", "")
	require.NoError(t, err)
	assert.Equal(t, "/a/c", got)
}
