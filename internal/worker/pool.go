// Package worker implements the buffered worker pool used for background
// player summary computation. This keeps slow per-player aggregation off the
// request path, providing:
// - Bounded concurrency against the backing store
// - Batched hand-off of results to the caller's sink
// - Graceful shutdown with flush guarantees
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/courtside/shotchart-api/internal/models"
)

// Prometheus metrics
var (
	jobsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shotstats_precompute_jobs_enqueued_total",
		Help: "Total number of summary jobs enqueued",
	})

	jobsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shotstats_precompute_jobs_processed_total",
		Help: "Total number of summary jobs completed by workers",
	})

	jobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shotstats_precompute_jobs_failed_total",
		Help: "Total number of summary jobs that failed",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shotstats_precompute_queue_depth",
		Help: "Current depth of the summary job queue",
	})

	flushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shotstats_precompute_flush_duration_seconds",
		Help:    "Duration of result batch flushes",
		Buckets: prometheus.DefBuckets,
	})
)

// Job represents a unit of work for the worker pool
type Job struct {
	Player    string
	Timestamp time.Time
}

// Result is a computed summary ready to be flushed.
type Result struct {
	Player  string
	Summary *models.PlayerSummary
}

// ProcessFunc computes one player's summary.
type ProcessFunc func(ctx context.Context, job Job) (*models.PlayerSummary, error)

// FlushFunc receives batches of results. Calls are serialized by the pool.
type FlushFunc func(batch []Result)

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	Process       ProcessFunc
	Flush         FlushFunc
	Logger        *zap.Logger
}

// Pool manages a pool of workers for async summary computation
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
	flushMu  sync.Mutex
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	// Start queue depth reporter
	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop closes the queue, waits for workers to drain it and flush, then
// releases the pool context.
func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool...")

	close(p.jobQueue)
	p.wg.Wait()
	p.cancel()
	p.logger.Info("Worker pool stopped")
}

// Enqueue adds a job to the queue. Blocks while the queue is full; returns
// false once the pool context is canceled.
func (p *Pool) Enqueue(player string) (ok bool) {
	job := Job{
		Player:    player,
		Timestamp: time.Now(),
	}

	// Protect against sending on closed channel
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue job (pool stopped)", "error", r)
			ok = false
		}
	}()

	select {
	case p.jobQueue <- job:
		jobsEnqueued.Inc()
		return true
	case <-p.ctx.Done():
		p.logger.Warnw("Worker pool context canceled, dropping job", "player", player)
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker processes jobs from the queue and flushes results in batches
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Result, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		p.flushMu.Lock()
		p.config.Flush(batch)
		p.flushMu.Unlock()
		flushDuration.Observe(time.Since(start).Seconds())

		p.logger.Debugw("Flushed batch", "worker", id, "batchSize", len(batch))
		batch = make([]Result, 0, p.config.BatchSize)
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				// Channel closed, flush remaining
				flush()
				return
			}

			summary, err := p.config.Process(p.ctx, job)
			if err != nil {
				p.logger.Warnw("Summary job failed", "worker", id, "player", job.Player, "error", err)
				jobsFailed.Inc()
				continue
			}
			jobsProcessed.Inc()

			batch = append(batch, Result{Player: job.Player, Summary: summary})
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-p.ctx.Done():
			p.logger.Infow("Context done, flushing final batch", "worker", id)
			flush()
			return
		}
	}
}

// reportQueueDepth periodically updates the queue depth metric
func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			queueDepth.Set(0)
			return
		}
	}
}
