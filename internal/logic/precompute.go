package logic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/courtside/shotchart-api/internal/models"
	"github.com/courtside/shotchart-api/internal/store"
	"github.com/courtside/shotchart-api/internal/worker"
)

var (
	precomputeEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shotstats_precompute_entries",
		Help: "Number of player summaries held by the precompute cache",
	})

	precomputeBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shotstats_precompute_build_duration_seconds",
		Help:    "Duration of full precompute builds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
)

// DefaultPrecomputeLimit caps how many players a build enumerates.
const DefaultPrecomputeLimit = 2000

// PrecomputeConfig configures the stats precompute cache.
type PrecomputeConfig struct {
	Path        string
	Limit       int
	WorkerCount int
}

// StatsPrecompute materializes an all-seasons summary for every known player.
// Readers see either nothing or a complete map; the map is replaced whole
// under mu and never mutated in place.
type StatsPrecompute struct {
	source store.ShotSource
	config PrecomputeConfig
	logger *zap.SugaredLogger

	mu      sync.RWMutex
	stats   map[string]*models.PlayerSummary
	swapped bool

	fileOnce sync.Once
	ready    atomic.Bool
}

func NewStatsPrecompute(source store.ShotSource, cfg PrecomputeConfig, logger *zap.SugaredLogger) *StatsPrecompute {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultPrecomputeLimit
	}
	return &StatsPrecompute{
		source: source,
		config: cfg,
		logger: logger,
	}
}

// Start launches a single background build.
func (p *StatsPrecompute) Start(ctx context.Context) {
	go func() {
		if err := p.Build(ctx); err != nil {
			p.logger.Warnw("Stats precompute failed", "error", err)
		}
	}()
}

// Build enumerates players, computes each summary through the worker pool,
// persists the result and swaps it in.
func (p *StatsPrecompute) Build(ctx context.Context) error {
	start := time.Now()

	players, err := p.source.PlayersWithStats(ctx, "", 1, p.config.Limit)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}

	built := make(map[string]*models.PlayerSummary, len(players))
	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount: p.config.WorkerCount,
		QueueSize:   len(players) + 1,
		Logger:      p.logger.Desugar(),
		Process: func(ctx context.Context, job worker.Job) (*models.PlayerSummary, error) {
			return p.source.PlayerStats(ctx, job.Player, nil)
		},
		Flush: func(batch []worker.Result) {
			for _, r := range batch {
				built[r.Player] = r.Summary
			}
		},
	})
	pool.Start(ctx)
	for _, e := range players {
		if !pool.Enqueue(e.Name) {
			break
		}
	}
	pool.Stop()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("precompute interrupted: %w", err)
	}

	if err := p.writeFile(built); err != nil {
		p.logger.Warnw("Failed to persist precomputed stats", "path", p.config.Path, "error", err)
	}

	p.mu.Lock()
	p.stats = built
	p.swapped = true
	p.mu.Unlock()

	p.ready.Store(true)
	precomputeEntries.Set(float64(len(built)))
	precomputeBuildDuration.Observe(time.Since(start).Seconds())
	p.logger.Infow("Stats precompute complete",
		"players", len(built),
		"duration", time.Since(start).String(),
	)
	return nil
}

// Get returns the precomputed summary for name. On a miss the durable file is
// loaded once, unless a build has already been swapped in. The returned
// summary is shared and must not be modified.
func (p *StatsPrecompute) Get(name string) (*models.PlayerSummary, bool) {
	if s, ok := p.lookup(name); ok {
		return s, true
	}

	p.mu.RLock()
	swapped := p.swapped
	p.mu.RUnlock()
	if swapped {
		return nil, false
	}

	p.fileOnce.Do(p.loadFile)
	return p.lookup(name)
}

// Ready reports whether a build or file load has produced a map.
func (p *StatsPrecompute) Ready() bool {
	return p.ready.Load()
}

// Size returns the number of precomputed players.
func (p *StatsPrecompute) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.stats)
}

func (p *StatsPrecompute) lookup(name string) (*models.PlayerSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.stats[name]
	return s, ok
}

func (p *StatsPrecompute) loadFile() {
	if p.config.Path == "" {
		return
	}
	data, err := os.ReadFile(p.config.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			p.logger.Warnw("Failed to read precomputed stats", "path", p.config.Path, "error", err)
		}
		return
	}

	var stats map[string]*models.PlayerSummary
	if err := json.Unmarshal(data, &stats); err != nil {
		p.logger.Warnw("Failed to decode precomputed stats", "path", p.config.Path, "error", err)
		return
	}

	p.mu.Lock()
	if !p.swapped {
		p.stats = stats
	}
	p.mu.Unlock()

	p.ready.Store(true)
	precomputeEntries.Set(float64(len(stats)))
	p.logger.Infow("Loaded precomputed stats", "path", p.config.Path, "players", len(stats))
}

// writeFile replaces the durable file atomically via rename.
func (p *StatsPrecompute) writeFile(stats map[string]*models.PlayerSummary) error {
	if p.config.Path == "" {
		return nil
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.config.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(p.config.Path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p.config.Path)
}
