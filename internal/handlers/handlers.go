package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/courtside/shotchart-api/internal/logic"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// Pinger is a dependency that can be health-checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisPinger is the slice of the Redis client used for readiness.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// SchemaInstaller applies the embedded schema to a backing store.
type SchemaInstaller interface {
	InstallSchema(ctx context.Context) error
}

// PrecomputeStatus reports the precompute cache state.
type PrecomputeStatus interface {
	Ready() bool
	Size() int
}

// BreakerStatus reports the store circuit breaker state.
type BreakerStatus interface {
	State() string
}

type Config struct {
	Stats      logic.ShotStatsService
	Predictor  logic.ShotPredictor
	Source     Pinger
	Redis      RedisPinger
	Installers map[string]SchemaInstaller
	Precompute PrecomputeStatus
	Breaker    BreakerStatus
	AdminToken string
	Logger     *zap.Logger
}

type Handler struct {
	stats      logic.ShotStatsService
	predictor  logic.ShotPredictor
	source     Pinger
	redis      RedisPinger
	installers map[string]SchemaInstaller
	precompute PrecomputeStatus
	breaker    BreakerStatus
	adminHash  string
	logger     *zap.SugaredLogger
	validator  *validator.Validate
}

func New(cfg Config) *Handler {
	h := &Handler{
		stats:      cfg.Stats,
		predictor:  cfg.Predictor,
		source:     cfg.Source,
		redis:      cfg.Redis,
		installers: cfg.Installers,
		precompute: cfg.Precompute,
		breaker:    cfg.Breaker,
		logger:     cfg.Logger.Sugar(),
		validator:  validator.New(),
	}
	if cfg.AdminToken != "" {
		h.adminHash = hashToken(cfg.AdminToken)
	}
	return h
}
