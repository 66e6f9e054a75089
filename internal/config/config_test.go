package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/openingdrill/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Addr:                  ":8080",
		StoreBackend:          "sqlite",
		DBPath:                "test.db",
		LogLevel:              "INFO",
		LogFormat:             "console",
		OpponentDelayMS:       500,
		PersistWorkerCount:    1,
		PersistQueueSize:      64,
		RouletteHardWeight:    3,
		RouletteGoodWeight:    1,
		RouletteEasyWeight:    0.3,
		RouletteUnratedWeight: 1,
		RouletteDecayEnabled:  true,
		RouletteDecayDays:     7,
		RouletteDecayMax:      2,
		RouletteFuzz:          0.1,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_EmptyAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Addr = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ADDR cannot be empty")
}

func TestValidate_StoreBackend(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "unknown backend",
			mutate:  func(c *config.Config) { c.StoreBackend = "postgres" },
			wantErr: "STORE_BACKEND",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *config.Config) { c.DBPath = "" },
			wantErr: "DB_PATH cannot be empty",
		},
		{
			name: "redis without url",
			mutate: func(c *config.Config) {
				c.StoreBackend = "redis"
				c.RedisURL = ""
			},
			wantErr: "REDIS_URL cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_RedisIgnoresDBPath(t *testing.T) {
	cfg := validConfig()
	cfg.StoreBackend = "redis"
	cfg.RedisURL = "redis://localhost:6379/0"
	cfg.DBPath = ""
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ValidLogLevels(t *testing.T) {
	for _, level := range []string{"DEBUG", "INFO", "WARN", "ERROR", "debug"} {
		t.Run(level, func(t *testing.T) {
			cfg := validConfig()
			cfg.LogLevel = level
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestValidate_RouletteBounds(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"zero hard weight", func(c *config.Config) { c.RouletteHardWeight = 0 }, "ROULETTE_WEIGHT_HARD"},
		{"negative easy weight", func(c *config.Config) { c.RouletteEasyWeight = -1 }, "ROULETTE_WEIGHT_EASY"},
		{"zero decay days", func(c *config.Config) { c.RouletteDecayDays = 0 }, "ROULETTE_DECAY_DAYS"},
		{"decay max below one", func(c *config.Config) { c.RouletteDecayMax = 0.5 }, "ROULETTE_DECAY_MAX"},
		{"fuzz of one", func(c *config.Config) { c.RouletteFuzz = 1 }, "ROULETTE_FUZZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Addr = ""
	cfg.LogLevel = "INVALID"
	cfg.LogFormat = "xml"
	cfg.PersistWorkerCount = 0
	cfg.PersistQueueSize = 0
	cfg.OpponentDelayMS = -1

	err := cfg.Validate()
	require.Error(t, err)

	errStr := err.Error()
	assert.Contains(t, errStr, "ADDR cannot be empty")
	assert.Contains(t, errStr, "LOG_LEVEL")
	assert.Contains(t, errStr, "LOG_FORMAT")
	assert.Contains(t, errStr, "PERSIST_WORKER_COUNT")
	assert.Contains(t, errStr, "PERSIST_QUEUE_SIZE")
	assert.Contains(t, errStr, "OPPONENT_DELAY_MS")
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("DB_PATH", "custom.db")
	t.Setenv("OPPONENT_DELAY_MS", "50")
	t.Setenv("ROULETTE_WEIGHT_HARD", "4.5")
	t.Setenv("ROULETTE_DECAY_ENABLED", "false")

	cfg := config.Load()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "custom.db", cfg.DBPath)
	assert.Equal(t, 50, cfg.OpponentDelayMS)
	assert.Equal(t, 4.5, cfg.RouletteHardWeight)
	assert.False(t, cfg.RouletteDecayEnabled)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("PERSIST_QUEUE_SIZE", "lots")
	t.Setenv("ROULETTE_FUZZ", "abc")

	cfg := config.Load()

	assert.Equal(t, 64, cfg.PersistQueueSize)
	assert.Equal(t, 0.1, cfg.RouletteFuzz)
}
