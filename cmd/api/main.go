package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/courtside/shotchart-api/internal/cache"
	"github.com/courtside/shotchart-api/internal/config"
	"github.com/courtside/shotchart-api/internal/handlers"
	"github.com/courtside/shotchart-api/internal/logic"
	"github.com/courtside/shotchart-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var zlog *zap.Logger
	if cfg.IsProduction() {
		zlog, err = zap.NewProduction()
	} else {
		zlog, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer zlog.Sync()
	logger := zlog.Sugar()

	if err := run(cfg, zlog); err != nil {
		logger.Fatalw("Server exited", "error", err)
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	logger := zlog.Sugar()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, installers, closeSource, err := openSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	guarded := store.NewGuarded(source, store.BreakerConfig{
		Name:             cfg.ShotBackend,
		FailureThreshold: uint32(cfg.BreakerFailures),
		Timeout:          cfg.BreakerTimeout,
	}, logger)

	var remote cache.RemoteStore
	var redisPinger handlers.RedisPinger
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnw("Redis unavailable, using in-process cache only", "error", err)
		} else {
			remote = cache.NewRedisStore(rdb)
			redisPinger = rdb
			logger.Info("Connected to Redis")
		}
	}
	responseCache := cache.New(remote, logger)

	roster := logic.NewRosterService(guarded, cfg.RosterTTL, logger)

	var precompute *logic.StatsPrecompute
	var precomputeReader logic.PrecomputeReader
	var precomputeStatus handlers.PrecomputeStatus
	if cfg.PrecomputeEnabled {
		precompute = logic.NewStatsPrecompute(guarded, logic.PrecomputeConfig{
			Path:        cfg.StatsCachePath,
			Limit:       cfg.PrecomputeLimit,
			WorkerCount: cfg.WorkerCount,
		}, logger)
		precompute.Start(ctx)
		precomputeReader = precompute
		precomputeStatus = precompute
	}

	statsCfg := logic.ShotStatsConfig{
		PlayersTTL:       cfg.PlayersTTL,
		YearsTTL:         cfg.YearsTTL,
		PlayerTTL:        cfg.PlayerTTL,
		ShotsTTL:         cfg.ShotsTTL,
		PageTTL:          cfg.PageTTL,
		BinsTTL:          cfg.BinsTTL,
		CompareTTL:       cfg.CompareTTL,
		RosterMinShots:   cfg.RosterMinShots,
		RosterLimit:      cfg.RosterLimit,
		FallbackPageSize: cfg.FallbackPageSize,
		FallbackRowCap:   cfg.FallbackRowCap,
	}
	stats := logic.NewShotStatsService(guarded, responseCache, roster, precomputeReader, statsCfg, logger)

	coef, err := logic.LoadCoefficients(cfg.ModelPath)
	if err != nil {
		return err
	}

	h := handlers.New(handlers.Config{
		Stats:      stats,
		Predictor:  logic.NewShotPredictor(coef),
		Source:     guarded,
		Redis:      redisPinger,
		Installers: installers,
		Precompute: precomputeStatus,
		Breaker:    guarded,
		AdminToken: cfg.AdminToken,
		Logger:     zlog,
	})

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: h.Routes(handlers.RouterConfig{
			AllowedOrigins:     cfg.AllowedOrigins,
			RateLimitPerSecond: cfg.RateLimitPerSecond,
			RequestTimeout:     cfg.RequestTimeout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("Starting server", "port", cfg.Port, "backend", cfg.ShotBackend, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// openSource connects the configured backend and returns its schema
// installers and a close function.
func openSource(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (store.ShotSource, map[string]handlers.SchemaInstaller, func(), error) {
	switch cfg.ShotBackend {
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			logger.Warnw("Postgres not reachable at startup", "error", err)
		}
		src := store.NewPostgresSource(pool)
		return src, map[string]handlers.SchemaInstaller{"postgres": src}, pool.Close, nil

	case config.BackendClickHouse:
		opts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parse CLICKHOUSE_URL: %w", err)
		}
		conn, err := clickhouse.Open(opts)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect clickhouse: %w", err)
		}
		if err := conn.Ping(ctx); err != nil {
			logger.Warnw("ClickHouse not reachable at startup", "error", err)
		}
		src := store.NewClickHouseSource(conn)
		return src, map[string]handlers.SchemaInstaller{"clickhouse": src}, func() { conn.Close() }, nil

	default:
		src, err := store.LoadCSV(cfg.ShotsCSVPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load shots csv: %w", err)
		}
		logger.Infow("Loaded in-memory shot dataset", "path", cfg.ShotsCSVPath)
		return src, nil, func() {}, nil
	}
}
