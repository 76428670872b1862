package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Addr())
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, StorePostgres, cfg.DeficiencyStore)
	assert.Equal(t, 3, cfg.QueueWorkerCount)
	assert.Equal(t, time.Second, cfg.QueuePollInterval)
	assert.Equal(t, 5, cfg.QueueMaxAttempts)
	assert.Equal(t, 100.0, cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, "postgresql://postgres:@localhost:5432/postgres", cfg.DatabaseURL())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_Overrides(t *testing.T) {
	cfg, err := LoadConfig(envMap(map[string]string{
		"SERVER_PORT":          "9000",
		"DB_PASSWORD":          "secret",
		"DEFICIENCY_STORE":     "firestore",
		"FIRESTORE_PROJECT_ID": "props-prod",
		"QUEUE_POLL_INTERVAL":  "250ms",
		"QUEUE_MAX_ATTEMPTS":   "2",
		"RATE_LIMIT_RPS":       "2.5",
		"ENVIRONMENT":          "production",
		"LOG_LEVEL":            "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, StoreFirestore, cfg.DeficiencyStore)
	assert.Equal(t, "props-prod", cfg.FirestoreProjectID)
	assert.Equal(t, 250*time.Millisecond, cfg.QueuePollInterval)
	assert.Equal(t, 2, cfg.QueueMaxAttempts)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	cfg, err := LoadConfig(envMap(map[string]string{
		"SERVER_PORT":         "http",
		"QUEUE_POLL_INTERVAL": "soon",
	}))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, time.Second, cfg.QueuePollInterval)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"firestore without project", map[string]string{"DEFICIENCY_STORE": "firestore"}},
		{"unknown store", map[string]string{"DEFICIENCY_STORE": "redis"}},
		{"no workers", map[string]string{"QUEUE_WORKER_COUNT": "0"}},
		{"no attempts", map[string]string{"QUEUE_MAX_ATTEMPTS": "0"}},
		{"production without db password", map[string]string{"ENVIRONMENT": "prod"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(envMap(tt.env))
			assert.Error(t, err)
		})
	}
}
