package logic

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/courtside/shotchart-api/internal/models"
	"github.com/courtside/shotchart-api/internal/store"
)

// DefaultRosterTTL is how long a roster snapshot is served before refresh.
const DefaultRosterTTL = 10 * time.Minute

type rosterSnapshot struct {
	entries  []models.RosterEntry
	minShots int
	loadedAt time.Time

	// truncated is set when the load hit its limit; players at or below
	// cutoff shots may then be missing.
	truncated bool
	cutoff    int
}

// RosterService keeps a coarse in-memory copy of the player listing so that
// search requests never reach the store. Refreshes happen on the request that
// notices staleness; concurrent refreshes are last-write-wins.
type RosterService struct {
	source   store.ShotSource
	ttl      time.Duration
	now      func() time.Time
	snapshot atomic.Pointer[rosterSnapshot]
	logger   *zap.SugaredLogger
}

func NewRosterService(source store.ShotSource, ttl time.Duration, logger *zap.SugaredLogger) *RosterService {
	if ttl <= 0 {
		ttl = DefaultRosterTTL
	}
	return &RosterService{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// EnsureFresh repopulates the snapshot when it is missing or older than the
// staleness threshold.
func (r *RosterService) EnsureFresh(ctx context.Context, minShotCount, limit int) error {
	if snap := r.snapshot.Load(); snap != nil && r.now().Sub(snap.loadedAt) <= r.ttl {
		return nil
	}

	entries, err := r.source.PlayersWithStats(ctx, "", minShotCount, limit)
	if err != nil {
		return fmt.Errorf("refresh roster: %w", err)
	}
	snap := &rosterSnapshot{
		entries:  entries,
		minShots: minShotCount,
		loadedAt: r.now(),
	}
	if limit > 0 && len(entries) >= limit {
		snap.truncated = true
		snap.cutoff = entries[0].TotalShots
		for _, e := range entries {
			snap.cutoff = min(snap.cutoff, e.TotalShots)
		}
	}
	r.snapshot.Store(snap)
	r.logger.Infow("Roster snapshot refreshed", "players", len(entries), "truncated", snap.truncated)
	return nil
}

// Covers reports whether the snapshot can answer a listing with the given
// minimum shot count. A snapshot built with a higher floor lacks players, and
// a truncated one lacks everyone at or below its cutoff.
func (r *RosterService) Covers(minShots int) bool {
	snap := r.snapshot.Load()
	if snap == nil || minShots < snap.minShots {
		return false
	}
	return !snap.truncated || minShots > snap.cutoff
}

// Filter returns snapshot entries with at least minShots attempts whose name
// contains search (case-insensitive), most shots first, truncated to limit.
// A non-positive limit means no cap.
func (r *RosterService) Filter(search string, minShots, limit int) []models.RosterEntry {
	snap := r.snapshot.Load()
	if snap == nil {
		return []models.RosterEntry{}
	}
	return filterRoster(snap.entries, search, minShots, limit)
}

func filterRoster(entries []models.RosterEntry, search string, minShots, limit int) []models.RosterEntry {
	needle := strings.ToLower(strings.TrimSpace(search))

	out := make([]models.RosterEntry, 0, len(entries))
	for _, e := range entries {
		if e.TotalShots < minShots {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(e.Name), needle) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalShots > out[j].TotalShots
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
