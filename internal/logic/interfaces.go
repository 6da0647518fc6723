package logic

import (
	"context"

	"github.com/courtside/shotchart-api/internal/models"
)

// ShotStatsService serves the read-through views of shot data. List-shaped
// operations degrade to empty results; singular ones return errors that match
// store.ErrNotFound or store.ErrUnavailable.
type ShotStatsService interface {
	ListPlayers(ctx context.Context, search string, minShots, limit int) ([]models.RosterEntry, error)
	ListYears(ctx context.Context) ([]int, error)
	GetPlayer(ctx context.Context, name string, years []int) (*models.PlayerSummary, error)
	GetPlayerShots(ctx context.Context, name string, years []int, limit int) (*models.ShotsResponse, error)
	GetShotPage(ctx context.Context, req models.ShotPageRequest) (*models.ShotPageResponse, error)
	GetShotBins(ctx context.Context, req models.ShotBinsRequest) (*models.BinResult, error)
	Compare(ctx context.Context, req models.CompareRequest) (*models.CompareResponse, error)
}

// ShotPredictor scores hypothetical shots.
type ShotPredictor interface {
	Predict(req *models.PredictShotRequest) (float64, error)
	PredictGrid(req models.PredictGridRequest) []models.GridPoint
}

// PrecomputeReader is the lookup side of the precompute cache.
type PrecomputeReader interface {
	Get(name string) (*models.PlayerSummary, bool)
}
