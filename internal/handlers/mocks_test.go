package handlers

import (
	"context"

	"github.com/courtside/shotchart-api/internal/models"
)

// MockShotStatsService
type MockShotStatsService struct {
	ListPlayersFunc    func(ctx context.Context, search string, minShots, limit int) ([]models.RosterEntry, error)
	ListYearsFunc      func(ctx context.Context) ([]int, error)
	GetPlayerFunc      func(ctx context.Context, name string, years []int) (*models.PlayerSummary, error)
	GetPlayerShotsFunc func(ctx context.Context, name string, years []int, limit int) (*models.ShotsResponse, error)
	GetShotPageFunc    func(ctx context.Context, req models.ShotPageRequest) (*models.ShotPageResponse, error)
	GetShotBinsFunc    func(ctx context.Context, req models.ShotBinsRequest) (*models.BinResult, error)
	CompareFunc        func(ctx context.Context, req models.CompareRequest) (*models.CompareResponse, error)
}

func (m *MockShotStatsService) ListPlayers(ctx context.Context, search string, minShots, limit int) ([]models.RosterEntry, error) {
	if m.ListPlayersFunc != nil {
		return m.ListPlayersFunc(ctx, search, minShots, limit)
	}
	return []models.RosterEntry{}, nil
}

func (m *MockShotStatsService) ListYears(ctx context.Context) ([]int, error) {
	if m.ListYearsFunc != nil {
		return m.ListYearsFunc(ctx)
	}
	return []int{}, nil
}

func (m *MockShotStatsService) GetPlayer(ctx context.Context, name string, years []int) (*models.PlayerSummary, error) {
	if m.GetPlayerFunc != nil {
		return m.GetPlayerFunc(ctx, name, years)
	}
	return &models.PlayerSummary{PlayerName: name}, nil
}

func (m *MockShotStatsService) GetPlayerShots(ctx context.Context, name string, years []int, limit int) (*models.ShotsResponse, error) {
	if m.GetPlayerShotsFunc != nil {
		return m.GetPlayerShotsFunc(ctx, name, years, limit)
	}
	return &models.ShotsResponse{Shots: []models.Shot{}}, nil
}

func (m *MockShotStatsService) GetShotPage(ctx context.Context, req models.ShotPageRequest) (*models.ShotPageResponse, error) {
	if m.GetShotPageFunc != nil {
		return m.GetShotPageFunc(ctx, req)
	}
	return &models.ShotPageResponse{Shots: []models.Shot{}, Page: req.Page, PageSize: req.PageSize}, nil
}

func (m *MockShotStatsService) GetShotBins(ctx context.Context, req models.ShotBinsRequest) (*models.BinResult, error) {
	if m.GetShotBinsFunc != nil {
		return m.GetShotBinsFunc(ctx, req)
	}
	return &models.BinResult{Bins: []models.ShotBin{}}, nil
}

func (m *MockShotStatsService) Compare(ctx context.Context, req models.CompareRequest) (*models.CompareResponse, error) {
	if m.CompareFunc != nil {
		return m.CompareFunc(ctx, req)
	}
	return &models.CompareResponse{}, nil
}

// MockPredictor
type MockPredictor struct {
	PredictFunc func(req *models.PredictShotRequest) (float64, error)
}

func (m *MockPredictor) Predict(req *models.PredictShotRequest) (float64, error) {
	if m.PredictFunc != nil {
		return m.PredictFunc(req)
	}
	return 0.5, nil
}

func (m *MockPredictor) PredictGrid(req models.PredictGridRequest) []models.GridPoint {
	points := make([]models.GridPoint, 0, len(req.Xs)*len(req.Ys))
	for _, x := range req.Xs {
		for _, y := range req.Ys {
			points = append(points, models.GridPoint{LocX: x, LocY: y, ProbabilityMake: 0.5})
		}
	}
	return points
}

// MockPinger
type MockPinger struct {
	Err error
}

func (m *MockPinger) Ping(ctx context.Context) error { return m.Err }

// MockInstaller
type MockInstaller struct {
	Err   error
	Calls int
}

func (m *MockInstaller) InstallSchema(ctx context.Context) error {
	m.Calls++
	return m.Err
}
