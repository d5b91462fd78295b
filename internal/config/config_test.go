package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/benefits/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, config.StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "backoffice", cfg.Console.Actor)
	assert.NoError(t, cfg.RequireAuth())
	assert.Equal(t, "postgres://postgres:@localhost:5432/benefits?sslmode=disable", cfg.ConnectionString())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("DB_NAME", "claims")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "claims", cfg.DB.Name)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"AUTH_JWT_SECRET": "s", "STORAGE_DRIVER": "sqlite"}},
		{name: "bad port", env: map[string]string{"AUTH_JWT_SECRET": "s", "PORT": "eighty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestConfig_RequireAuth(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.EqualError(t, cfg.RequireAuth(), "AUTH_JWT_SECRET is required")
}
