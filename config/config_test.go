package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for _, k := range []string{
		"STORE_DRIVER", "DATABASE_URL", "SERVER_PORT", "JWT_SECRET_KEY", "LOG_LEVEL",
		"CORS_ALLOWED_ORIGINS", "MIN_TABLE_SIZE", "R2_ACCOUNT_ID", "R2_BUCKET_NAME",
	} {
		t.Setenv(k, "")
	}
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{"DATABASE_URL": "postgres://localhost/fencing"})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Zero(t, cfg.MinTableSize)
}

func TestLoadMemoryStoreNeedsNoDatabase(t *testing.T) {
	setEnv(t, map[string]string{
		"STORE_DRIVER":         "Memory",
		"LOG_LEVEL":            "debug",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example ,",
		"MIN_TABLE_SIZE":       "16",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 16, cfg.MinTableSize)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{"STORE_DRIVER": "postgres"}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "sqlite"}},
		{"bad port", map[string]string{"STORE_DRIVER": "memory", "SERVER_PORT": "http"}},
		{"port out of range", map[string]string{"STORE_DRIVER": "memory", "SERVER_PORT": "70000"}},
		{"bad log level", map[string]string{"STORE_DRIVER": "memory", "LOG_LEVEL": "loud"}},
		{"negative table", map[string]string{"STORE_DRIVER": "memory", "MIN_TABLE_SIZE": "-4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
