package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/courtside/shotchart-api/internal/models"
)

func TestPoolProcessesAndFlushesEverything(t *testing.T) {
	var (
		mu      sync.Mutex
		flushed = map[string]int{}
		batches int
	)

	p := NewPool(PoolConfig{
		WorkerCount:   3,
		QueueSize:     10,
		BatchSize:     4,
		FlushInterval: 5 * time.Millisecond,
		Logger:        zap.NewNop(),
		Process: func(ctx context.Context, job Job) (*models.PlayerSummary, error) {
			return &models.PlayerSummary{PlayerName: job.Player, TotalShots: len(job.Player)}, nil
		},
		Flush: func(batch []Result) {
			mu.Lock()
			defer mu.Unlock()
			batches++
			for _, r := range batch {
				flushed[r.Player] = r.Summary.TotalShots
			}
		},
	})
	p.Start(context.Background())

	for i := 0; i < 50; i++ {
		if !p.Enqueue(fmt.Sprintf("player-%02d", i)) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	p.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(flushed) != 50 {
		t.Errorf("flushed %d results, want 50", len(flushed))
	}
	if batches < 13 {
		t.Errorf("got %d batches, expected at least 13 with batch size 4", batches)
	}
}

func TestPoolSkipsFailedJobs(t *testing.T) {
	var got []string
	p := NewPool(PoolConfig{
		WorkerCount: 1,
		Logger:      zap.NewNop(),
		Process: func(ctx context.Context, job Job) (*models.PlayerSummary, error) {
			if job.Player == "bad" {
				return nil, errors.New("store down")
			}
			return &models.PlayerSummary{PlayerName: job.Player}, nil
		},
		Flush: func(batch []Result) {
			for _, r := range batch {
				got = append(got, r.Player)
			}
		},
	})
	p.Start(context.Background())
	p.Enqueue("good")
	p.Enqueue("bad")
	p.Enqueue("also-good")
	p.Stop()

	if len(got) != 2 || got[0] != "good" || got[1] != "also-good" {
		t.Errorf("flushed %v, want [good also-good]", got)
	}
}

func TestEnqueueAfterStop(t *testing.T) {
	p := NewPool(PoolConfig{
		WorkerCount: 1,
		Logger:      zap.NewNop(),
		Process: func(ctx context.Context, job Job) (*models.PlayerSummary, error) {
			return &models.PlayerSummary{}, nil
		},
		Flush: func([]Result) {},
	})
	p.Start(context.Background())
	p.Stop()

	start := time.Now()
	if p.Enqueue("late") {
		t.Error("Enqueue should return false after Stop")
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("Enqueue after Stop should return immediately")
	}
}

func TestEnqueueCanceledContext(t *testing.T) {
	release := make(chan struct{})
	p := NewPool(PoolConfig{
		WorkerCount: 1,
		QueueSize:   1,
		Logger:      zap.NewNop(),
		Process: func(ctx context.Context, job Job) (*models.PlayerSummary, error) {
			<-release
			return &models.PlayerSummary{}, nil
		},
		Flush: func([]Result) {},
	})
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	p.Enqueue("first") // picked up by the worker, which blocks
	p.Enqueue("second") // fills the queue

	done := make(chan bool)
	go func() { done <- p.Enqueue("third") }()

	cancel()
	select {
	case ok := <-done:
		if ok {
			t.Error("Enqueue should fail once the context is canceled")
		}
	case <-time.After(time.Second):
		t.Fatal("Enqueue did not return after cancel")
	}
	close(release)
	p.Stop()
}
