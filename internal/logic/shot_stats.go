package logic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/courtside/shotchart-api/internal/aggregate"
	"github.com/courtside/shotchart-api/internal/cache"
	"github.com/courtside/shotchart-api/internal/models"
	"github.com/courtside/shotchart-api/internal/store"
)

const (
	MaxShotsLimit   = 50000
	MinPageSize     = 100
	MaxPageSize     = 5000
	DefaultBinCount = 25
	MaxBinCount     = 100

	DefaultLoadTimeout = time.Minute
)

// NotFoundError names the player that could not be found.
type NotFoundError struct {
	Player string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Player '%s' not found", e.Player)
}

func (e *NotFoundError) Unwrap() error {
	return store.ErrNotFound
}

// ShotStatsConfig holds cache lifetimes and fallback bounds.
type ShotStatsConfig struct {
	PlayersTTL time.Duration
	YearsTTL   time.Duration
	PlayerTTL  time.Duration
	ShotsTTL   time.Duration
	PageTTL    time.Duration
	BinsTTL    time.Duration
	CompareTTL time.Duration

	// Roster snapshot population bounds
	RosterMinShots int
	RosterLimit    int

	// Raw-row fallback bounds
	FallbackPageSize int
	FallbackRowCap   int

	// LoadTimeout bounds a shared miss load, which outlives any single caller.
	LoadTimeout time.Duration
}

// DefaultShotStatsConfig returns the standard lifetimes and bounds.
func DefaultShotStatsConfig() ShotStatsConfig {
	return ShotStatsConfig{
		PlayersTTL:       10 * time.Minute,
		YearsTTL:         time.Hour,
		PlayerTTL:        10 * time.Minute,
		ShotsTTL:         3 * time.Minute,
		PageTTL:          2 * time.Minute,
		BinsTTL:          2 * time.Minute,
		CompareTTL:       10 * time.Minute,
		RosterMinShots:   1,
		RosterLimit:      5000,
		FallbackPageSize: MaxPageSize,
		FallbackRowCap:   MaxShotsLimit,
		LoadTimeout:      DefaultLoadTimeout,
	}
}

type shotStatsService struct {
	source     store.ShotSource
	cache      *cache.Cache
	roster     *RosterService
	precompute PrecomputeReader
	config     ShotStatsConfig
	flight     singleflight.Group
	logger     *zap.SugaredLogger
}

// NewShotStatsService wires the fallback chain. roster and precompute may be
// nil, in which case those tiers are skipped.
func NewShotStatsService(source store.ShotSource, c *cache.Cache, roster *RosterService, precompute PrecomputeReader, cfg ShotStatsConfig, logger *zap.SugaredLogger) ShotStatsService {
	if cfg.FallbackPageSize <= 0 {
		cfg.FallbackPageSize = MaxPageSize
	}
	if cfg.FallbackRowCap <= 0 {
		cfg.FallbackRowCap = MaxShotsLimit
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultLoadTimeout
	}
	return &shotStatsService{
		source:     source,
		cache:      c,
		roster:     roster,
		precompute: precompute,
		config:     cfg,
		logger:     logger,
	}
}

// readThrough serves key from the cache or runs load once per concurrent
// miss. load reports whether its result may be cached. The shared load runs
// detached from the first caller's context so one caller leaving does not
// fail the others; each caller still stops waiting when its own ctx ends.
func readThrough[T any](ctx context.Context, s *shotStatsService, key string, ttl time.Duration, load func(ctx context.Context) (T, bool, error)) (T, error) {
	var out T
	if s.cache.Get(ctx, key, &out) {
		return out, nil
	}

	ch := s.flight.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.LoadTimeout)
		defer cancel()

		val, cacheable, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if cacheable {
			s.cache.Set(loadCtx, key, val, ttl)
		}
		return val, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return out, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return out, ctx.Err()
	}
}

func (s *shotStatsService) ListPlayers(ctx context.Context, search string, minShots, limit int) ([]models.RosterEntry, error) {
	key := cache.Key("players", cache.SearchKey(search), strconv.Itoa(minShots), strconv.Itoa(limit))

	return readThrough(ctx, s, key, s.config.PlayersTTL, func(ctx context.Context) ([]models.RosterEntry, bool, error) {
		if s.roster != nil {
			err := s.roster.EnsureFresh(ctx, s.config.RosterMinShots, s.config.RosterLimit)
			if err == nil && s.roster.Covers(minShots) {
				return s.roster.Filter(search, minShots, limit), true, nil
			}
			if err != nil {
				s.logger.Warnw("Roster snapshot unavailable", "error", err)
			}
		}

		players, err := s.source.PlayersWithStats(ctx, search, minShots, limit)
		if err != nil {
			s.logger.Errorw("Failed to list players", "search", search, "error", err)
			return []models.RosterEntry{}, false, nil
		}
		if players == nil {
			players = []models.RosterEntry{}
		}
		return players, true, nil
	})
}

func (s *shotStatsService) ListYears(ctx context.Context) ([]int, error) {
	return readThrough(ctx, s, "years", s.config.YearsTTL, func(ctx context.Context) ([]int, bool, error) {
		years, err := s.source.AvailableYears(ctx)
		if err != nil {
			s.logger.Errorw("Failed to list years", "error", err)
			return []int{}, false, nil
		}
		sorted := append([]int{}, years...)
		sort.Ints(sorted)
		return sorted, true, nil
	})
}

func (s *shotStatsService) GetPlayer(ctx context.Context, name string, years []int) (*models.PlayerSummary, error) {
	key := cache.Key("player", name, cache.YearsKey(years))

	summary, err := readThrough(ctx, s, key, s.config.PlayerTTL, func(ctx context.Context) (*models.PlayerSummary, bool, error) {
		summary, err := s.computePlayer(ctx, name, years)
		return summary, err == nil, err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, &NotFoundError{Player: name}
	}
	return summary, err
}

// computePlayer walks precompute, server-side aggregation and finally local
// aggregation over paged raw rows.
func (s *shotStatsService) computePlayer(ctx context.Context, name string, years []int) (*models.PlayerSummary, error) {
	if len(years) == 0 && s.precompute != nil {
		if summary, ok := s.precompute.Get(name); ok {
			return summary, nil
		}
	}

	summary, err := s.source.PlayerStats(ctx, name, years)
	switch {
	case err == nil:
		return summary, nil
	case errors.Is(err, store.ErrNotFound):
		return nil, err
	}
	s.logger.Warnw("Server-side aggregation failed, aggregating raw rows", "player", name, "error", err)

	rows, err := s.collectShots(ctx, name, years, s.config.FallbackRowCap)
	if err != nil {
		return nil, fmt.Errorf("player %q: %w", name, err)
	}
	summary, err = aggregate.Summarize(name, rows)
	if errors.Is(err, aggregate.ErrNoShots) {
		return nil, store.ErrNotFound
	}
	return summary, err
}

// collectShots pages through raw rows until a short page or the cap.
func (s *shotStatsService) collectShots(ctx context.Context, name string, years []int, rowCap int) ([]models.Shot, error) {
	pageSize := s.config.FallbackPageSize
	rows := make([]models.Shot, 0)

	for offset := 0; offset < rowCap; offset += pageSize {
		size := min(pageSize, rowCap-offset)
		page, err := s.source.PlayerShots(ctx, name, years, offset, size)
		if err != nil {
			return nil, err
		}
		rows = append(rows, page...)
		if len(page) < size {
			break
		}
	}
	return rows, nil
}

func (s *shotStatsService) GetPlayerShots(ctx context.Context, name string, years []int, limit int) (*models.ShotsResponse, error) {
	if limit <= 0 || limit > MaxShotsLimit {
		limit = MaxShotsLimit
	}
	key := cache.Key("shots", name, cache.YearsKey(years), strconv.Itoa(limit))

	return readThrough(ctx, s, key, s.config.ShotsTTL, func(ctx context.Context) (*models.ShotsResponse, bool, error) {
		shots, err := s.collectShots(ctx, name, years, limit)
		if err != nil {
			s.logger.Errorw("Failed to fetch shots", "player", name, "error", err)
			return &models.ShotsResponse{Shots: []models.Shot{}}, false, nil
		}
		return &models.ShotsResponse{Shots: shots, Total: len(shots)}, true, nil
	})
}

func (s *shotStatsService) GetShotPage(ctx context.Context, req models.ShotPageRequest) (*models.ShotPageResponse, error) {
	page := max(req.Page, 1)
	pageSize := min(max(req.PageSize, MinPageSize), MaxPageSize)
	key := cache.Key("page", req.PlayerName, cache.YearsKey(req.Years), strconv.Itoa(page), strconv.Itoa(pageSize))

	return readThrough(ctx, s, key, s.config.PageTTL, func(ctx context.Context) (*models.ShotPageResponse, bool, error) {
		resp := &models.ShotPageResponse{Page: page, PageSize: pageSize, Shots: []models.Shot{}}
		shots, err := s.source.PlayerShots(ctx, req.PlayerName, req.Years, (page-1)*pageSize, pageSize)
		if err != nil {
			s.logger.Errorw("Failed to fetch shot page", "player", req.PlayerName, "page", page, "error", err)
			return resp, false, nil
		}
		if shots != nil {
			resp.Shots = shots
		}
		resp.Count = len(resp.Shots)
		return resp, true, nil
	})
}

func (s *shotStatsService) GetShotBins(ctx context.Context, req models.ShotBinsRequest) (*models.BinResult, error) {
	xBins := clampBins(req.XBins)
	yBins := clampBins(req.YBins)
	key := cache.Key("bins", req.PlayerName, cache.YearsKey(req.Years), strconv.Itoa(xBins), strconv.Itoa(yBins))

	return readThrough(ctx, s, key, s.config.BinsTTL, func(ctx context.Context) (*models.BinResult, bool, error) {
		shots, err := s.collectShots(ctx, req.PlayerName, req.Years, s.config.FallbackRowCap)
		if err != nil {
			s.logger.Errorw("Failed to fetch shots for binning", "player", req.PlayerName, "error", err)
			empty := aggregate.Bin(nil, xBins, yBins)
			return &empty, false, nil
		}
		result := aggregate.Bin(shots, xBins, yBins)
		return &result, true, nil
	})
}

func clampBins(n int) int {
	if n <= 0 {
		return DefaultBinCount
	}
	return min(n, MaxBinCount)
}

// Compare resolves both players concurrently. Each side goes through
// GetPlayer, so a missing second player leaves the first one's summary
// cached and intact.
func (s *shotStatsService) Compare(ctx context.Context, req models.CompareRequest) (*models.CompareResponse, error) {
	key := cache.Key("compare", req.Player1, req.Player2, cache.YearsKey(req.Years))

	return readThrough(ctx, s, key, s.config.CompareTTL, func(ctx context.Context) (*models.CompareResponse, bool, error) {
		resp := &models.CompareResponse{}
		var err1, err2 error

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			resp.Player1, err1 = s.GetPlayer(ctx, req.Player1, req.Years)
		}()
		go func() {
			defer wg.Done()
			resp.Player2, err2 = s.GetPlayer(ctx, req.Player2, req.Years)
		}()
		wg.Wait()

		if err1 != nil {
			return nil, false, err1
		}
		if err2 != nil {
			return nil, false, err2
		}
		return resp, true, nil
	})
}
