package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "ENV", "HTTP_ADDR", "LOG_LEVEL", "DATABASE_URL", "STORAGE_BACKEND", "UNDO_BACKEND",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "JWT_SECRET", "CLIENT_TOKEN_TTL",
		"CATALOG_START_DATE", "CATALOG_DAYS_AHEAD", "AVAILABILITY_SEED", "SUBMIT_DELAY", "UNDO_TTL",
		"WIZARD_SESSION_TTL", "SWEEP_SCHEDULE", "ALLOW_GLOBAL_BOOKINGS", "SUBMIT_RATE_PER_MINUTE",
		"SUBMIT_BURST", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StorageSQL, cfg.StorageBackend)
	assert.Equal(t, UndoMemory, cfg.UndoBackend)
	assert.False(t, cfg.UsesRedis())
	assert.Equal(t, 60, cfg.CatalogDaysAhead)
	assert.Equal(t, int64(1), cfg.AvailabilitySeed)
	assert.Equal(t, time.Second, cfg.SubmitDelay)
	assert.Equal(t, 5*time.Second, cfg.UndoTTL)
	assert.Equal(t, 30*time.Minute, cfg.WizardSessionTTL)
	assert.True(t, cfg.AllowGlobalBookings)
	assert.True(t, cfg.CatalogStartDate.IsZero())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CATALOG_START_DATE", "2025-12-26")
	t.Setenv("UNDO_TTL", "10s")
	t.Setenv("ALLOW_GLOBAL_BOOKINGS", "no")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageRedis, cfg.StorageBackend)
	assert.True(t, cfg.UsesRedis())
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC), cfg.CatalogStartDate)
	assert.Equal(t, 10*time.Second, cfg.UndoTTL)
	assert.False(t, cfg.AllowGlobalBookings)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad duration", map[string]string{"UNDO_TTL": "soon"}},
		{"zero undo ttl", map[string]string{"UNDO_TTL": "0s"}},
		{"bad int", map[string]string{"SUBMIT_BURST": "many"}},
		{"bad date", map[string]string{"CATALOG_START_DATE": "26/12/2025"}},
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "files"}},
		{"unknown undo backend", map[string]string{"UNDO_BACKEND": "disk"}},
		{"prod default secret", map[string]string{"APP_ENV": "production"}},
		{"prod global listing", map[string]string{"APP_ENV": "prod", "JWT_SECRET": "s3cret", "ALLOW_GLOBAL_BOOKINGS": "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ProdDisablesGlobalByDefault(t *testing.T) {
	for _, env := range []string{"staging", " Production ", "PROD"} {
		t.Run(env, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_ENV", env)
			t.Setenv("JWT_SECRET", "s3cret")

			cfg, err := Load()
			require.NoError(t, err)
			assert.False(t, cfg.AllowGlobalBookings)
		})
	}
}
