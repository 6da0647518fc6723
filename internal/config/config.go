package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported shot backends.
const (
	BackendPostgres   = "postgres"
	BackendClickHouse = "clickhouse"
	BackendMemory     = "memory"
)

type Config struct {
	// Server
	Port           int
	Env            string
	RequestTimeout time.Duration

	// CORS
	AllowedOrigins []string

	// Backing store
	ShotBackend   string
	PostgresURL   string
	ClickHouseURL string
	ShotsCSVPath  string
	RedisURL      string

	// Durable files
	StatsCachePath string
	ModelPath      string

	// Roster snapshot
	RosterTTL      time.Duration
	RosterMinShots int
	RosterLimit    int

	// Precompute worker pool
	PrecomputeEnabled bool
	PrecomputeLimit   int
	WorkerCount       int

	// Raw-row fallback bounds
	FallbackPageSize int
	FallbackRowCap   int

	// Circuit breaker
	BreakerFailures int
	BreakerTimeout  time.Duration

	// Cache lifetimes
	PlayersTTL time.Duration
	YearsTTL   time.Duration
	PlayerTTL  time.Duration
	ShotsTTL   time.Duration
	PageTTL    time.Duration
	BinsTTL    time.Duration
	CompareTTL time.Duration

	// Rate limiting
	RateLimitPerSecond int

	// Auth
	AdminToken string
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvInt("PORT", 8080),
		Env:            getEnv("ENV", "development"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),

		ShotBackend: strings.ToLower(getEnv("SHOT_BACKEND", BackendPostgres)),
		RedisURL:    os.Getenv("REDIS_URL"),

		StatsCachePath: getEnv("STATS_CACHE_PATH", "data/precomputed_stats.json"),
		ModelPath:      getEnv("MODEL_PATH", "models/shot_model.json"),

		RosterTTL:      getEnvDuration("ROSTER_TTL", 10*time.Minute),
		RosterMinShots: getEnvInt("ROSTER_MIN_SHOTS", 1),
		RosterLimit:    getEnvInt("ROSTER_LIMIT", 5000),

		PrecomputeEnabled: getEnvBool("PRECOMPUTE_ENABLED", true),
		PrecomputeLimit:   getEnvInt("PRECOMPUTE_LIMIT", 2000),
		WorkerCount:       getEnvInt("WORKER_COUNT", 8),

		FallbackPageSize: getEnvInt("FALLBACK_PAGE_SIZE", 5000),
		FallbackRowCap:   getEnvInt("FALLBACK_ROW_CAP", 50000),

		BreakerFailures: getEnvInt("BREAKER_FAILURES", 5),
		BreakerTimeout:  getEnvDuration("BREAKER_TIMEOUT", 30*time.Second),

		PlayersTTL: getEnvDuration("PLAYERS_TTL", 10*time.Minute),
		YearsTTL:   getEnvDuration("YEARS_TTL", time.Hour),
		PlayerTTL:  getEnvDuration("PLAYER_TTL", 10*time.Minute),
		ShotsTTL:   getEnvDuration("SHOTS_TTL", 3*time.Minute),
		PageTTL:    getEnvDuration("PAGE_TTL", 2*time.Minute),
		BinsTTL:    getEnvDuration("BINS_TTL", 2*time.Minute),
		CompareTTL: getEnvDuration("COMPARE_TTL", 10*time.Minute),

		RateLimitPerSecond: getEnvInt("RATE_LIMIT_PER_SECOND", 100),

		AdminToken: os.Getenv("ADMIN_TOKEN"),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "*")
	rawOrigins := strings.Split(origins, ",")
	for _, o := range rawOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Critical configuration - fail if missing for the selected backend
	var err error
	switch cfg.ShotBackend {
	case BackendPostgres:
		cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL")
	case BackendClickHouse:
		cfg.ClickHouseURL, err = getEnvRequired("CLICKHOUSE_URL")
	case BackendMemory:
		cfg.ShotsCSVPath, err = getEnvRequired("SHOTS_CSV_PATH")
	default:
		err = fmt.Errorf("unknown SHOT_BACKEND %q (want %s, %s or %s)",
			cfg.ShotBackend, BackendPostgres, BackendClickHouse, BackendMemory)
	}
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether ENV selects production logging.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
