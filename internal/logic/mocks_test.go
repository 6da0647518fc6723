package logic

import (
	"context"
	"sync/atomic"

	"github.com/courtside/shotchart-api/internal/models"
	"github.com/courtside/shotchart-api/internal/store"
)

// MockSource delegates to an in-memory dataset unless a Func override is
// set. Call counters let tests check which tier answered.
type MockSource struct {
	data *store.MemorySource

	PlayersWithStatsFunc func(ctx context.Context, search string, minShots, limit int) ([]models.RosterEntry, error)
	PlayerStatsFunc      func(ctx context.Context, player string, years []int) (*models.PlayerSummary, error)
	PlayerShotsFunc      func(ctx context.Context, player string, years []int, offset, limit int) ([]models.Shot, error)
	AvailableYearsFunc   func(ctx context.Context) ([]int, error)

	rosterCalls atomic.Int32
	statsCalls  atomic.Int32
	shotsCalls  atomic.Int32
}

func newMockSource(shots []models.Shot) *MockSource {
	return &MockSource{data: store.NewMemorySource(shots)}
}

func (m *MockSource) PlayersWithStats(ctx context.Context, search string, minShots, limit int) ([]models.RosterEntry, error) {
	m.rosterCalls.Add(1)
	if m.PlayersWithStatsFunc != nil {
		return m.PlayersWithStatsFunc(ctx, search, minShots, limit)
	}
	return m.data.PlayersWithStats(ctx, search, minShots, limit)
}

func (m *MockSource) PlayerStats(ctx context.Context, player string, years []int) (*models.PlayerSummary, error) {
	m.statsCalls.Add(1)
	if m.PlayerStatsFunc != nil {
		return m.PlayerStatsFunc(ctx, player, years)
	}
	return m.data.PlayerStats(ctx, player, years)
}

func (m *MockSource) PlayerShots(ctx context.Context, player string, years []int, offset, limit int) ([]models.Shot, error) {
	m.shotsCalls.Add(1)
	if m.PlayerShotsFunc != nil {
		return m.PlayerShotsFunc(ctx, player, years, offset, limit)
	}
	return m.data.PlayerShots(ctx, player, years, offset, limit)
}

func (m *MockSource) AvailableYears(ctx context.Context) ([]int, error) {
	if m.AvailableYearsFunc != nil {
		return m.AvailableYearsFunc(ctx)
	}
	return m.data.AvailableYears(ctx)
}

func (m *MockSource) Ping(ctx context.Context) error {
	return nil
}

// shot builds a located row; distance stays nil when dist is negative.
func shot(player string, year int, x, y, dist float64, made bool, shotType, action string) models.Shot {
	s := models.Shot{
		PlayerName: player,
		LocX:       models.Float(x),
		LocY:       models.Float(y),
		Made:       models.MadeFlag(made),
		ShotType:   shotType,
		ActionType: action,
		Year:       year,
	}
	if dist >= 0 {
		s.Distance = models.Float(dist)
	}
	return s
}

// scenarioShots is the three-shot dataset for player "A".
func scenarioShots() []models.Shot {
	return []models.Shot{
		shot("A", 2023, 4, 0, 4, true, "2PT Field Goal", "Layup Shot"),
		shot("A", 2023, 0, 6, 6, true, "2PT Field Goal", "Jump Shot"),
		shot("A", 2024, 24, 0, 24, false, "3PT Field Goal", "Jump Shot"),
	}
}
