package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr               string
	StoreBackend       string
	DBPath             string
	RedisURL           string
	LogLevel           string
	LogFormat          string
	CatalogPath        string
	OpponentDelayMS    int
	PersistWorkerCount int
	PersistQueueSize   int

	RouletteHardWeight    float64
	RouletteGoodWeight    float64
	RouletteEasyWeight    float64
	RouletteUnratedWeight float64
	RouletteDecayEnabled  bool
	RouletteDecayDays     int
	RouletteDecayMax      float64
	RouletteFuzz          float64
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:               envOr("ADDR", ":8080"),
		StoreBackend:       envOr("STORE_BACKEND", "sqlite"),
		DBPath:             envOr("DB_PATH", "file:openingdrill.db"),
		RedisURL:           envOr("REDIS_URL", "redis://localhost:6379/0"),
		LogLevel:           envOr("LOG_LEVEL", "INFO"),
		LogFormat:          envOr("LOG_FORMAT", "console"),
		CatalogPath:        envOr("CATALOG_PATH", ""),
		OpponentDelayMS:    envIntOr("OPPONENT_DELAY_MS", 500),
		PersistWorkerCount: envIntOr("PERSIST_WORKER_COUNT", 1),
		PersistQueueSize:   envIntOr("PERSIST_QUEUE_SIZE", 64),

		RouletteHardWeight:    envFloatOr("ROULETTE_WEIGHT_HARD", 3.0),
		RouletteGoodWeight:    envFloatOr("ROULETTE_WEIGHT_GOOD", 1.0),
		RouletteEasyWeight:    envFloatOr("ROULETTE_WEIGHT_EASY", 0.3),
		RouletteUnratedWeight: envFloatOr("ROULETTE_WEIGHT_UNRATED", 1.0),
		RouletteDecayEnabled:  envBoolOr("ROULETTE_DECAY_ENABLED", true),
		RouletteDecayDays:     envIntOr("ROULETTE_DECAY_DAYS", 7),
		RouletteDecayMax:      envFloatOr("ROULETTE_DECAY_MAX", 2.0),
		RouletteFuzz:          envFloatOr("ROULETTE_FUZZ", 0.1),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	switch c.StoreBackend {
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			problems = append(problems, "DB_PATH cannot be empty")
		}
	case "redis":
		if strings.TrimSpace(c.RedisURL) == "" {
			problems = append(problems, "REDIS_URL cannot be empty")
		}
	default:
		problems = append(problems, fmt.Sprintf("STORE_BACKEND must be sqlite or redis, got %q", c.StoreBackend))
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		problems = append(problems, fmt.Sprintf("LOG_LEVEL must be DEBUG, INFO, WARN or ERROR, got %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be console or json, got %q", c.LogFormat))
	}
	if c.OpponentDelayMS < 0 {
		problems = append(problems, "OPPONENT_DELAY_MS cannot be negative")
	}
	if c.PersistWorkerCount < 1 {
		problems = append(problems, "PERSIST_WORKER_COUNT must be at least 1")
	}
	if c.PersistQueueSize < 1 {
		problems = append(problems, "PERSIST_QUEUE_SIZE must be at least 1")
	}
	for key, w := range map[string]float64{
		"ROULETTE_WEIGHT_HARD":    c.RouletteHardWeight,
		"ROULETTE_WEIGHT_GOOD":    c.RouletteGoodWeight,
		"ROULETTE_WEIGHT_EASY":    c.RouletteEasyWeight,
		"ROULETTE_WEIGHT_UNRATED": c.RouletteUnratedWeight,
	} {
		if w <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive", key))
		}
	}
	if c.RouletteDecayDays <= 0 {
		problems = append(problems, "ROULETTE_DECAY_DAYS must be positive")
	}
	if c.RouletteDecayMax < 1 {
		problems = append(problems, "ROULETTE_DECAY_MAX must be at least 1")
	}
	if c.RouletteFuzz < 0 || c.RouletteFuzz >= 1 {
		problems = append(problems, "ROULETTE_FUZZ must be in [0, 1)")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %g", key, v, def)
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("invalid value for %s=%q, using default %t", key, v, def)
	}
	return def
}
