package logic

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/courtside/shotchart-api/internal/models"
)

func precomputeShots() []models.Shot {
	shots := scenarioShots()
	shots = append(shots,
		shot("B", 2024, 1, 1, 2, true, "2PT Field Goal", "Dunk Shot"),
		shot("B", 2024, 10, 10, 14, false, "2PT Field Goal", "Jump Shot"),
	)
	return shots
}

func TestPrecomputeBuildAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats", "precomputed.json")
	p := NewStatsPrecompute(newMockSource(precomputeShots()), PrecomputeConfig{Path: path, WorkerCount: 2}, zap.NewNop().Sugar())

	if p.Ready() {
		t.Fatal("Ready before build")
	}
	if err := p.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !p.Ready() || p.Size() != 2 {
		t.Fatalf("Ready=%v Size=%d, want true/2", p.Ready(), p.Size())
	}
	a, ok := p.Get("A")
	if !ok {
		t.Fatal("A missing from precompute")
	}
	if a.TotalShots != 3 || a.MadeShots != 2 || a.FGPct != 0.667 {
		t.Errorf("A = %d/%d %.3f, want 3/2 0.667", a.TotalShots, a.MadeShots, a.FGPct)
	}
	if _, ok := p.Get("nobody"); ok {
		t.Error("unexpected hit for unknown player")
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("durable file not written: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestPrecomputeLazyFileLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "precomputed.json")
	builder := NewStatsPrecompute(newMockSource(precomputeShots()), PrecomputeConfig{Path: path}, zap.NewNop().Sugar())
	if err := builder.Build(context.Background()); err != nil {
		t.Fatal(err)
	}

	src := newMockSource(nil)
	reader := NewStatsPrecompute(src, PrecomputeConfig{Path: path}, zap.NewNop().Sugar())
	b, ok := reader.Get("B")
	if !ok {
		t.Fatal("B not loaded from file")
	}
	if b.TotalShots != 2 || b.MadeShots != 1 {
		t.Errorf("B = %d/%d, want 2/1", b.TotalShots, b.MadeShots)
	}
	if !reader.Ready() {
		t.Error("Ready should be true after file load")
	}
	if src.statsCalls.Load() != 0 {
		t.Error("file load must not touch the store")
	}
}

func TestPrecomputeMissingFile(t *testing.T) {
	p := NewStatsPrecompute(newMockSource(nil), PrecomputeConfig{Path: filepath.Join(t.TempDir(), "absent.json")}, zap.NewNop().Sugar())
	if _, ok := p.Get("A"); ok {
		t.Error("expected miss")
	}
	if p.Ready() {
		t.Error("Ready should stay false")
	}
}

func TestPrecomputeNoPartialVisibility(t *testing.T) {
	release := make(chan struct{})
	src := newMockSource(precomputeShots())
	src.PlayerStatsFunc = func(ctx context.Context, player string, years []int) (*models.PlayerSummary, error) {
		<-release
		return src.data.PlayerStats(ctx, player, years)
	}

	p := NewStatsPrecompute(src, PrecomputeConfig{WorkerCount: 2}, zap.NewNop().Sugar())
	done := make(chan error, 1)
	go func() { done <- p.Build(context.Background()) }()

	// Let one summary complete while the other is still pending.
	release <- struct{}{}
	for i := 0; i < 5; i++ {
		if p.Size() != 0 {
			t.Fatal("partially built map became visible")
		}
		if _, ok := p.Get("A"); ok {
			t.Fatal("entry visible before build finished")
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Size() != 2 {
		t.Errorf("Size = %d after build, want 2", p.Size())
	}
}

func TestPrecomputeFileIgnoredAfterSwap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "precomputed.json")
	stale := NewStatsPrecompute(newMockSource(scenarioShots()), PrecomputeConfig{Path: path}, zap.NewNop().Sugar())
	if err := stale.Build(context.Background()); err != nil {
		t.Fatal(err)
	}

	p := NewStatsPrecompute(newMockSource(nil), PrecomputeConfig{Path: path}, zap.NewNop().Sugar())
	p.mu.Lock()
	p.stats = map[string]*models.PlayerSummary{"B": {PlayerName: "B", TotalShots: 1}}
	p.swapped = true
	p.mu.Unlock()

	if _, ok := p.Get("A"); ok {
		t.Error("file must not be consulted once a build has been swapped in")
	}
	if _, ok := p.Get("B"); !ok {
		t.Error("B missing")
	}
}
