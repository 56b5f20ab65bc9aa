package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/ivrflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := config.FromLookup(lookup(nil))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, "train_main", cfg.MainFlow)
	assert.Equal(t, config.BackendMemory, cfg.SessionBackend)
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := config.FromLookup(lookup(map[string]string{
		"IVR_ADDR":            ":9090",
		"IVR_SESSION_BACKEND": "Redis",
		"IVR_REDIS_DB":        "3",
		"IVR_SESSION_TTL":     "90m",
		"IVR_WATCH":           "true",
		"IVR_DEBUG":           "1",
		"IVR_MAX_INPUT_SIZE":  "512",
		"IVR_FLOWS_DIR":       "  ",
		"IVR_SUMMARY_MASK":    "^pnr$, card ,",
	}))
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, config.BackendRedis, cfg.SessionBackend)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.Watch)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 512, cfg.MaxInputSize)
	assert.Equal(t, "flows", cfg.FlowsDir, "blank values keep the default")
	assert.Equal(t, []string{"^pnr$", "card"}, cfg.SummaryMask)
}

func TestFromLookup_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"Bad Backend", map[string]string{"IVR_SESSION_BACKEND": "etcd"}, "unknown session backend"},
		{"Bad Bool", map[string]string{"IVR_WATCH": "sometimes"}, "IVR_WATCH"},
		{"Bad Int", map[string]string{"IVR_REDIS_DB": "zero"}, "IVR_REDIS_DB"},
		{"Bad Duration", map[string]string{"IVR_SESSION_TTL": "forever"}, "IVR_SESSION_TTL"},
		{"Non Positive Input Size", map[string]string{"IVR_MAX_INPUT_SIZE": "0"}, "max input size"},
		{"Fallback Without Key", map[string]string{"IVR_SESSION_FALLBACK_KEYS": "abc"}, "IVR_SESSION_KEY"},
		{"Driver Without DSN", map[string]string{"IVR_SUMMARY_DB_DRIVER": "sqlite3"}, "IVR_SUMMARY_DB_DSN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.FromLookup(lookup(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("IVR_ADDR=:7000\nIVR_SUMMARY_DIR=/var/log/ivr\nIVR_MAIN_FLOW=from_file\n"), 0o644))
	t.Setenv("IVR_MAIN_FLOW", "from_env")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "/var/log/ivr", cfg.SummaryDir)
	assert.Equal(t, "from_env", cfg.MainFlow, "the process environment wins")

	_, present := os.LookupEnv("IVR_ADDR")
	assert.False(t, present, "loading never mutates the environment")

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
