// Package store holds the backing-store adapters for shot data. Every
// adapter implements ShotSource; callers distinguish a genuinely absent
// player (ErrNotFound) from a failing tier (ErrUnavailable) with errors.Is.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/courtside/shotchart-api/internal/models"
)

var (
	// ErrNotFound means the store answered and the entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means the store could not answer.
	ErrUnavailable = errors.New("store unavailable")
)

// ShotSource is the data-source abstraction consumed by the cache layer.
type ShotSource interface {
	// PlayersWithStats lists players whose name contains search
	// (case-insensitive) with at least minShots attempts, most shots first.
	PlayersWithStats(ctx context.Context, search string, minShots, limit int) ([]models.RosterEntry, error)
	// PlayerStats runs the store's own aggregation for one player.
	// An empty years slice means every season.
	PlayerStats(ctx context.Context, player string, years []int) (*models.PlayerSummary, error)
	// PlayerShots returns raw shot rows in a stable order.
	PlayerShots(ctx context.Context, player string, years []int, offset, limit int) ([]models.Shot, error)
	AvailableYears(ctx context.Context) ([]int, error)
	Ping(ctx context.Context) error
}

// unavailable tags a transport or decoding failure.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
