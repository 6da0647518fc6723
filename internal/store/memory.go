package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/courtside/shotchart-api/internal/aggregate"
	"github.com/courtside/shotchart-api/internal/models"
)

// MemorySource serves an already-cleaned shot dataset held entirely in
// memory, grouping rows in process. It is immutable after construction.
type MemorySource struct {
	byPlayer map[string][]models.Shot
	players  []string
	years    []int
}

// NewMemorySource indexes shots by player, keeping input order per player.
func NewMemorySource(shots []models.Shot) *MemorySource {
	m := &MemorySource{byPlayer: make(map[string][]models.Shot)}
	seenYear := make(map[int]bool)
	for _, s := range shots {
		if _, ok := m.byPlayer[s.PlayerName]; !ok {
			m.players = append(m.players, s.PlayerName)
		}
		m.byPlayer[s.PlayerName] = append(m.byPlayer[s.PlayerName], s)
		if !seenYear[s.Year] {
			seenYear[s.Year] = true
			m.years = append(m.years, s.Year)
		}
	}
	sort.Ints(m.years)
	return m
}

// LoadCSV reads a cleaned shots CSV with the canonical upper-case headers
// (PLAYER_NAME, TEAM_NAME, LOC_X, LOC_Y, SHOT_MADE_FLAG, SHOT_DISTANCE,
// SHOT_TYPE, ACTION_TYPE, YEAR).
func LoadCSV(path string) (*MemorySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	shots, err := ReadShotsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewMemorySource(shots), nil
}

// ReadShotsCSV parses canonical shot rows. Rows with an unparseable made
// flag or year are skipped; missing optional numeric cells stay nil.
func ReadShotsCSV(r io.Reader) ([]models.Shot, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"PLAYER_NAME", "SHOT_MADE_FLAG", "YEAR"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing required column %s", required)
		}
	}

	cell := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	optFloat := func(v string) *float64 {
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		return &f
	}

	var shots []models.Shot
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		var made models.MadeFlag
		if err := made.UnmarshalJSON([]byte(cell(rec, "SHOT_MADE_FLAG"))); err != nil {
			continue
		}
		year, err := strconv.ParseFloat(cell(rec, "YEAR"), 64)
		if err != nil {
			continue
		}

		s := models.Shot{
			PlayerName: cell(rec, "PLAYER_NAME"),
			TeamName:   cell(rec, "TEAM_NAME"),
			LocX:       optFloat(cell(rec, "LOC_X")),
			LocY:       optFloat(cell(rec, "LOC_Y")),
			Made:       made,
			Distance:   optFloat(cell(rec, "SHOT_DISTANCE")),
			ShotType:   cell(rec, "SHOT_TYPE"),
			ActionType: cell(rec, "ACTION_TYPE"),
			Year:       int(year),
		}
		if s.ShotType == "" {
			s.ShotType = "Unknown"
		}
		if s.ActionType == "" {
			s.ActionType = "Unknown"
		}
		shots = append(shots, s)
	}
	return shots, nil
}

func (m *MemorySource) Ping(ctx context.Context) error {
	return nil
}

func (m *MemorySource) PlayersWithStats(ctx context.Context, search string, minShots, limit int) ([]models.RosterEntry, error) {
	needle := strings.ToLower(search)
	players := make([]models.RosterEntry, 0)
	for _, name := range m.players {
		shots := m.byPlayer[name]
		if len(shots) < minShots || !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		made := 0
		for _, s := range shots {
			if s.Made {
				made++
			}
		}
		players = append(players, models.RosterEntry{
			Name:       name,
			TotalShots: len(shots),
			FGPct:      aggregate.Pct(made, len(shots)),
		})
	}
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].TotalShots > players[j].TotalShots
	})
	if limit > 0 && len(players) > limit {
		players = players[:limit]
	}
	return players, nil
}

func (m *MemorySource) PlayerStats(ctx context.Context, player string, years []int) (*models.PlayerSummary, error) {
	summary, err := aggregate.Summarize(player, m.filter(player, years))
	if errors.Is(err, aggregate.ErrNoShots) {
		return nil, ErrNotFound
	}
	return summary, err
}

func (m *MemorySource) PlayerShots(ctx context.Context, player string, years []int, offset, limit int) ([]models.Shot, error) {
	rows := m.filter(player, years)
	if offset >= len(rows) {
		return []models.Shot{}, nil
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]models.Shot, len(rows))
	copy(out, rows)
	return out, nil
}

func (m *MemorySource) AvailableYears(ctx context.Context) ([]int, error) {
	out := make([]int, len(m.years))
	copy(out, m.years)
	return out, nil
}

func (m *MemorySource) filter(player string, years []int) []models.Shot {
	shots := m.byPlayer[player]
	if len(years) == 0 {
		return shots
	}
	want := make(map[int]bool, len(years))
	for _, y := range years {
		want[y] = true
	}
	out := make([]models.Shot, 0, len(shots))
	for _, s := range shots {
		if want[s.Year] {
			out = append(out, s)
		}
	}
	return out
}
