package logic

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/courtside/shotchart-api/internal/aggregate"
	"github.com/courtside/shotchart-api/internal/cache"
	"github.com/courtside/shotchart-api/internal/models"
	"github.com/courtside/shotchart-api/internal/store"
)

var errBackend = fmt.Errorf("rpc get_player_stats: %w", store.ErrUnavailable)

func newTestService(src *MockSource, roster *RosterService, pre PrecomputeReader) *shotStatsService {
	logger := zap.NewNop().Sugar()
	cfg := DefaultShotStatsConfig()
	return NewShotStatsService(src, cache.New(nil, logger), roster, pre, cfg, logger).(*shotStatsService)
}

func TestGetPlayerScenario(t *testing.T) {
	src := newMockSource(scenarioShots())
	svc := newTestService(src, nil, nil)

	summary, err := svc.GetPlayer(context.Background(), "A", nil)
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if summary.TotalShots != 3 || summary.MadeShots != 2 || summary.FGPct != 0.667 {
		t.Errorf("got %d/%d %.3f, want 3/2 0.667", summary.TotalShots, summary.MadeShots, summary.FGPct)
	}

	wantZones := map[string][2]int{
		aggregate.ZonePaint: {1, 1},
		aggregate.ZoneShort: {1, 1},
		aggregate.ZoneThree: {1, 0},
	}
	if len(summary.ByZone) != len(wantZones) {
		t.Fatalf("got %d zones, want %d: %+v", len(summary.ByZone), len(wantZones), summary.ByZone)
	}
	for label, want := range wantZones {
		z, ok := summary.Zone(label)
		if !ok {
			t.Errorf("zone %q missing", label)
			continue
		}
		if z.Attempts != want[0] || z.Made != want[1] {
			t.Errorf("zone %q = %d/%d, want %d/%d", label, z.Attempts, z.Made, want[0], want[1])
		}
	}

	// Second read is served from the cache.
	if _, err := svc.GetPlayer(context.Background(), "A", nil); err != nil {
		t.Fatal(err)
	}
	if got := src.statsCalls.Load(); got != 1 {
		t.Errorf("store aggregation called %d times, want 1", got)
	}
}

func TestGetPlayerFallsBackToRawRows(t *testing.T) {
	direct, err := aggregate.Summarize("A", scenarioShots())
	if err != nil {
		t.Fatal(err)
	}

	src := newMockSource(scenarioShots())
	src.PlayerStatsFunc = func(ctx context.Context, player string, years []int) (*models.PlayerSummary, error) {
		return nil, errBackend
	}
	svc := newTestService(src, nil, nil)
	svc.config.FallbackPageSize = 2

	got, err := svc.GetPlayer(context.Background(), "A", nil)
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if !reflect.DeepEqual(got, direct) {
		t.Errorf("fallback summary differs:\n got %+v\nwant %+v", got, direct)
	}
	if calls := src.shotsCalls.Load(); calls != 2 {
		t.Errorf("paged %d times, want 2 (full page then short page)", calls)
	}
}

func TestGetPlayerRowCapBoundsFallback(t *testing.T) {
	src := newMockSource(scenarioShots())
	src.PlayerStatsFunc = func(ctx context.Context, player string, years []int) (*models.PlayerSummary, error) {
		return nil, errBackend
	}
	svc := newTestService(src, nil, nil)
	svc.config.FallbackPageSize = 1
	svc.config.FallbackRowCap = 2

	got, err := svc.GetPlayer(context.Background(), "A", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalShots != 2 {
		t.Errorf("TotalShots = %d, want 2 (row cap)", got.TotalShots)
	}
}

func TestGetPlayerNotFound(t *testing.T) {
	svc := newTestService(newMockSource(scenarioShots()), nil, nil)

	_, err := svc.GetPlayer(context.Background(), "Nobody", nil)
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Player != "Nobody" {
		t.Fatalf("err = %v, want NotFoundError for Nobody", err)
	}
	if !errors.Is(err, store.ErrNotFound) {
		t.Error("NotFoundError should match store.ErrNotFound")
	}
	if !strings.Contains(err.Error(), "Nobody") {
		t.Errorf("message %q should name the player", err.Error())
	}
}

func TestGetPlayerNotFoundAfterFallback(t *testing.T) {
	src := newMockSource(scenarioShots())
	src.PlayerStatsFunc = func(ctx context.Context, player string, years []int) (*models.PlayerSummary, error) {
		return nil, errBackend
	}
	svc := newTestService(src, nil, nil)

	_, err := svc.GetPlayer(context.Background(), "Nobody", nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want not found when raw rows are empty", err)
	}
}

func TestGetPlayerTotalFailure(t *testing.T) {
	src := newMockSource(scenarioShots())
	src.PlayerStatsFunc = func(ctx context.Context, player string, years []int) (*models.PlayerSummary, error) {
		return nil, errBackend
	}
	src.PlayerShotsFunc = func(ctx context.Context, player string, years []int, offset, limit int) ([]models.Shot, error) {
		return nil, fmt.Errorf("scan shots: %w", store.ErrUnavailable)
	}
	svc := newTestService(src, nil, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.GetPlayer(context.Background(), "A", nil)
		if !errors.Is(err, store.ErrUnavailable) || errors.Is(err, store.ErrNotFound) {
			t.Fatalf("err = %v, want unavailable", err)
		}
	}
	if got := src.statsCalls.Load(); got != 2 {
		t.Errorf("failures must not be cached: store called %d times, want 2", got)
	}
}

type fixedPrecompute map[string]*models.PlayerSummary

func (f fixedPrecompute) Get(name string) (*models.PlayerSummary, bool) {
	s, ok := f[name]
	return s, ok
}

func TestGetPlayerPrecomputeOnlyForAllSeasons(t *testing.T) {
	src := newMockSource(scenarioShots())
	pre := fixedPrecompute{"A": {PlayerName: "A", TotalShots: 999}}
	svc := newTestService(src, nil, pre)
	ctx := context.Background()

	all, err := svc.GetPlayer(ctx, "A", nil)
	if err != nil {
		t.Fatal(err)
	}
	if all.TotalShots != 999 || src.statsCalls.Load() != 0 {
		t.Errorf("all-seasons request should be answered by precompute, got %d shots", all.TotalShots)
	}

	season, err := svc.GetPlayer(ctx, "A", []int{2023})
	if err != nil {
		t.Fatal(err)
	}
	if season.TotalShots != 2 {
		t.Errorf("filtered request TotalShots = %d, want 2 from the store", season.TotalShots)
	}
}

func TestCompareMissingPlayer(t *testing.T) {
	src := newMockSource(scenarioShots())
	svc := newTestService(src, nil, nil)
	ctx := context.Background()

	_, err := svc.Compare(ctx, models.CompareRequest{Player1: "A", Player2: "B"})
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Player != "B" {
		t.Fatalf("err = %v, want NotFoundError for B", err)
	}

	calls := src.statsCalls.Load()
	a, err := svc.GetPlayer(ctx, "A", nil)
	if err != nil {
		t.Fatalf("A should still resolve: %v", err)
	}
	if a.TotalShots != 3 || a.FGPct != 0.667 {
		t.Errorf("A = %d %.3f, want 3 0.667", a.TotalShots, a.FGPct)
	}
	if src.statsCalls.Load() != calls {
		t.Error("A's summary should have been cached during compare")
	}
}

func TestCompare(t *testing.T) {
	shots := append(scenarioShots(), shot("B", 2024, 1, 1, 2, true, "2PT Field Goal", "Dunk Shot"))
	svc := newTestService(newMockSource(shots), nil, nil)

	resp, err := svc.Compare(context.Background(), models.CompareRequest{Player1: "A", Player2: "B", Years: []int{2024}})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if resp.Player1.TotalShots != 1 || resp.Player2.TotalShots != 1 {
		t.Errorf("got %d and %d shots, want 1 and 1", resp.Player1.TotalShots, resp.Player2.TotalShots)
	}
	if resp.Player1.PlayerName != "A" || resp.Player2.PlayerName != "B" {
		t.Errorf("players out of order: %s, %s", resp.Player1.PlayerName, resp.Player2.PlayerName)
	}
}

func TestListPlayersFromRoster(t *testing.T) {
	src := rosterSource()
	r, _ := newTestRoster(src)
	svc := newTestService(src, r, nil)
	ctx := context.Background()

	curry, err := svc.ListPlayers(ctx, "curry", 100, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(curry) != 2 || curry[0].Name != "Stephen Curry" {
		t.Errorf("got %+v", curry)
	}

	if _, err := svc.ListPlayers(ctx, "james", 100, 10); err != nil {
		t.Fatal(err)
	}
	if got := src.rosterCalls.Load(); got != 1 {
		t.Errorf("store listed %d times, want 1 (snapshot)", got)
	}
}

func TestListPlayersFallsBackToStore(t *testing.T) {
	var mu sync.Mutex
	var searches []string
	src := newMockSource(nil)
	src.PlayersWithStatsFunc = func(ctx context.Context, search string, minShots, limit int) ([]models.RosterEntry, error) {
		mu.Lock()
		defer mu.Unlock()
		searches = append(searches, search)
		if search == "" {
			return nil, errors.New("timeout")
		}
		return []models.RosterEntry{{Name: "Seth Curry", TotalShots: 400}}, nil
	}
	r, _ := newTestRoster(src)
	svc := newTestService(src, r, nil)

	got, err := svc.ListPlayers(context.Background(), "seth", 100, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Seth Curry" {
		t.Errorf("got %+v", got)
	}
	if len(searches) != 2 || searches[1] != "seth" {
		t.Errorf("store searches = %q, want roster refresh then direct search", searches)
	}
}

func TestListPlayersTruncatedRosterGoesToStore(t *testing.T) {
	var directCalls int
	src := newMockSource(nil)
	src.PlayersWithStatsFunc = func(ctx context.Context, search string, minShots, limit int) ([]models.RosterEntry, error) {
		if search == "" && limit == 2 {
			return []models.RosterEntry{{Name: "Stephen Curry", TotalShots: 1500}, {Name: "LeBron James", TotalShots: 1400}}, nil
		}
		directCalls++
		return []models.RosterEntry{{Name: "Bench Guy", TotalShots: 40}}, nil
	}
	r, _ := newTestRoster(src)
	logger := zap.NewNop().Sugar()
	cfg := DefaultShotStatsConfig()
	cfg.RosterLimit = 2
	svc := NewShotStatsService(src, cache.New(nil, logger), r, nil, cfg, logger)

	got, err := svc.ListPlayers(context.Background(), "bench", 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Bench Guy" {
		t.Errorf("got %+v, want the store's answer", got)
	}
	if directCalls != 1 {
		t.Errorf("direct store searches = %d, want 1", directCalls)
	}

	top, err := svc.ListPlayers(context.Background(), "", 1500, 10)
	if err != nil || len(top) != 1 || top[0].Name != "Stephen Curry" {
		t.Errorf("above cutoff got %+v, %v; want roster answer", top, err)
	}
	if directCalls != 1 {
		t.Errorf("listing above the cutoff should not reach the store directly")
	}
}

func TestListPlayersTotalFailure(t *testing.T) {
	src := newMockSource(nil)
	src.PlayersWithStatsFunc = func(ctx context.Context, search string, minShots, limit int) ([]models.RosterEntry, error) {
		return nil, errors.New("down")
	}
	svc := newTestService(src, nil, nil)

	for i := 0; i < 2; i++ {
		got, err := svc.ListPlayers(context.Background(), "", 100, 100)
		if err != nil || got == nil || len(got) != 0 {
			t.Fatalf("got %v, %v; want empty list", got, err)
		}
	}
	if src.rosterCalls.Load() != 2 {
		t.Error("empty fallback result must not be cached")
	}
}

func TestListYears(t *testing.T) {
	src := newMockSource(nil)
	src.AvailableYearsFunc = func(ctx context.Context) ([]int, error) {
		return []int{2024, 2019, 2021}, nil
	}
	svc := newTestService(src, nil, nil)

	years, err := svc.ListYears(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(years, []int{2019, 2021, 2024}) {
		t.Errorf("years = %v, want ascending", years)
	}

	src2 := newMockSource(nil)
	src2.AvailableYearsFunc = func(ctx context.Context) ([]int, error) { return nil, errBackend }
	years, _ = newTestService(src2, nil, nil).ListYears(context.Background())
	if years == nil || len(years) != 0 {
		t.Errorf("years on failure = %v, want empty", years)
	}
}

func TestGetShotPageClamping(t *testing.T) {
	tests := []struct {
		name               string
		page, pageSize     int
		wantPage, wantSize int
		wantOffset         int
	}{
		{"defaults", 0, 0, 1, 100, 0},
		{"small page size", 3, 10, 3, 100, 200},
		{"large page size", 2, 9000, 2, 5000, 5000},
		{"in range", 4, 250, 4, 250, 750},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOffset, gotLimit int
			src := newMockSource(scenarioShots())
			src.PlayerShotsFunc = func(ctx context.Context, player string, years []int, offset, limit int) ([]models.Shot, error) {
				gotOffset, gotLimit = offset, limit
				return scenarioShots()[:1], nil
			}
			svc := newTestService(src, nil, nil)

			resp, err := svc.GetShotPage(context.Background(), models.ShotPageRequest{PlayerName: "A", Page: tt.page, PageSize: tt.pageSize})
			if err != nil {
				t.Fatal(err)
			}
			if resp.Page != tt.wantPage || resp.PageSize != tt.wantSize || resp.Count != 1 {
				t.Errorf("page=%d size=%d count=%d, want %d %d 1", resp.Page, resp.PageSize, resp.Count, tt.wantPage, tt.wantSize)
			}
			if gotOffset != tt.wantOffset || gotLimit != tt.wantSize {
				t.Errorf("store offset=%d limit=%d, want %d %d", gotOffset, gotLimit, tt.wantOffset, tt.wantSize)
			}
		})
	}
}

func TestGetShotBins(t *testing.T) {
	svc := newTestService(newMockSource(scenarioShots()), nil, nil)

	res, err := svc.GetShotBins(context.Background(), models.ShotBinsRequest{PlayerName: "A", XBins: 500})
	if err != nil {
		t.Fatal(err)
	}
	if res.XBins != MaxBinCount || res.YBins != DefaultBinCount {
		t.Errorf("bins = %dx%d, want %dx%d", res.XBins, res.YBins, MaxBinCount, DefaultBinCount)
	}
	attempts := 0
	for _, b := range res.Bins {
		attempts += b.Attempts
		if b.Made > b.Attempts {
			t.Errorf("bin %+v has more makes than attempts", b)
		}
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestGetPlayerShots(t *testing.T) {
	var gotLimit int
	src := newMockSource(scenarioShots())
	src.PlayerShotsFunc = func(ctx context.Context, player string, years []int, offset, limit int) ([]models.Shot, error) {
		gotLimit = limit
		return src.data.PlayerShots(ctx, player, years, offset, limit)
	}
	svc := newTestService(src, nil, nil)

	resp, err := svc.GetPlayerShots(context.Background(), "A", []int{2023}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 || len(resp.Shots) != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
	if gotLimit != MaxPageSize {
		t.Errorf("page limit = %d, want %d", gotLimit, MaxPageSize)
	}

	failing := newMockSource(nil)
	failing.PlayerShotsFunc = func(ctx context.Context, player string, years []int, offset, limit int) ([]models.Shot, error) {
		return nil, errBackend
	}
	resp, err = newTestService(failing, nil, nil).GetPlayerShots(context.Background(), "A", nil, 10)
	if err != nil || resp.Total != 0 || resp.Shots == nil {
		t.Errorf("failure should yield an empty list, got %+v, %v", resp, err)
	}
}

func TestSharedLoadSurvivesFirstCallerCancel(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	src := newMockSource(scenarioShots())
	src.PlayerStatsFunc = func(ctx context.Context, player string, years []int) (*models.PlayerSummary, error) {
		close(entered)
		select {
		case <-release:
			return src.data.PlayerStats(ctx, player, years)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	svc := newTestService(src, nil, nil)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.GetPlayer(leaderCtx, "A", nil)
		leaderErr <- err
	}()

	<-entered
	cancel()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("first caller err = %v, want context.Canceled", err)
	}

	type result struct {
		summary *models.PlayerSummary
		err     error
	}
	waiter := make(chan result, 1)
	go func() {
		s, err := svc.GetPlayer(context.Background(), "A", nil)
		waiter <- result{s, err}
	}()
	close(release)

	got := <-waiter
	if got.err != nil {
		t.Fatalf("second caller err = %v, want success", got.err)
	}
	if got.summary.TotalShots != 3 {
		t.Errorf("TotalShots = %d, want 3", got.summary.TotalShots)
	}
	if n := src.statsCalls.Load(); n != 1 {
		t.Errorf("PlayerStats called %d times, want 1", n)
	}
}

func TestWaiterStopsOnOwnCancel(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	src := newMockSource(scenarioShots())
	src.AvailableYearsFunc = func(ctx context.Context) ([]int, error) {
		<-release
		return []int{2024}, nil
	}
	svc := newTestService(src, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.ListYears(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
