// Package aggregate computes player shot summaries and shot histograms in
// process. It mirrors the server-side aggregation of the backing store and is
// only meant for capped inputs (tens of thousands of rows), not as a
// streaming aggregator.
package aggregate

import (
	"errors"
	"math"
	"sort"
	"strconv"

	"github.com/courtside/shotchart-api/internal/models"
)

// ErrNoShots is returned when there is nothing to summarize.
var ErrNoShots = errors.New("no shots to summarize")

// MaxActionTypes bounds the action-type breakdown.
const MaxActionTypes = 10

// Zone labels in band order.
const (
	ZonePaint = "Paint (0-5ft)"
	ZoneShort = "Short (5-10ft)"
	ZoneMid   = "Mid (10-15ft)"
	ZoneLong2 = "Long 2 (15-22ft)"
	ZoneThree = "3PT (22+ft)"
)

type zoneBand struct {
	label string
	upper float64
}

// zoneBands are inclusive upper bounds; anything past the last band, or
// without a resolvable distance, is a three.
var zoneBands = []zoneBand{
	{ZonePaint, 5},
	{ZoneShort, 10},
	{ZoneMid, 15},
	{ZoneLong2, 22},
}

// ZoneLabels lists every zone in band order.
func ZoneLabels() []string {
	labels := make([]string, 0, len(zoneBands)+1)
	for _, b := range zoneBands {
		labels = append(labels, b.label)
	}
	return append(labels, ZoneThree)
}

// ZoneFor assigns a distance to its zone.
func ZoneFor(distance float64, ok bool) string {
	if !ok || math.IsNaN(distance) {
		return ZoneThree
	}
	for _, b := range zoneBands {
		if distance <= b.upper {
			return b.label
		}
	}
	return ZoneThree
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Pct returns made/attempts rounded to 3 decimals, 0 when there are no attempts.
func Pct(made, attempts int) float64 {
	if attempts == 0 {
		return 0
	}
	return Round(float64(made)/float64(attempts), 3)
}

// group accumulates attempts and makes per label, remembering the order in
// which labels were first seen.
type group struct {
	order []string
	rows  map[string]*models.Breakdown
}

func newGroup() *group {
	return &group{rows: make(map[string]*models.Breakdown)}
}

func (g *group) add(label string, made bool) {
	b, ok := g.rows[label]
	if !ok {
		b = &models.Breakdown{Label: label}
		g.rows[label] = b
		g.order = append(g.order, label)
	}
	b.Attempts++
	if made {
		b.Made++
	}
}

// list returns the breakdown rows in encounter order with percentages filled in.
func (g *group) list() []models.Breakdown {
	out := make([]models.Breakdown, 0, len(g.order))
	for _, label := range g.order {
		b := *g.rows[label]
		b.FGPct = Pct(b.Made, b.Attempts)
		out = append(out, b)
	}
	return out
}

// Summarize aggregates a player's shot rows into a summary.
func Summarize(player string, rows []models.Shot) (*models.PlayerSummary, error) {
	if len(rows) == 0 {
		return nil, ErrNoShots
	}

	var (
		made        int
		distSum     float64
		distCount   int
		byShotType  = newGroup()
		byYear      = newGroup()
		byZone      = newGroup()
		byAction    = newGroup()
		seasonOrder = make(map[string]int)
	)

	for _, r := range rows {
		isMade := bool(r.Made)
		if isMade {
			made++
		}

		d, ok := r.ResolvedDistance()
		if ok {
			distSum += d
			distCount++
		}

		byShotType.add(r.ShotType, isMade)
		year := strconv.Itoa(r.Year)
		seasonOrder[year] = r.Year
		byYear.add(year, isMade)
		byZone.add(ZoneFor(d, ok), isMade)
		byAction.add(r.ActionType, isMade)
	}

	summary := &models.PlayerSummary{
		PlayerName: player,
		TotalShots: len(rows),
		MadeShots:  made,
		FGPct:      Pct(made, len(rows)),
	}
	if distCount > 0 {
		summary.AvgDistance = Round(distSum/float64(distCount), 1)
	}

	summary.ByShotType = byShotType.list()
	sort.SliceStable(summary.ByShotType, func(i, j int) bool {
		return summary.ByShotType[i].Label < summary.ByShotType[j].Label
	})

	summary.ByYear = byYear.list()
	sort.SliceStable(summary.ByYear, func(i, j int) bool {
		return seasonOrder[summary.ByYear[i].Label] < seasonOrder[summary.ByYear[j].Label]
	})

	summary.ByZone = make([]models.Breakdown, 0, len(zoneBands)+1)
	zones := byZone.list()
	for _, label := range ZoneLabels() {
		for _, z := range zones {
			if z.Label == label {
				summary.ByZone = append(summary.ByZone, z)
			}
		}
	}

	summary.ByAction = TopByAttempts(byAction.list(), MaxActionTypes)

	return summary, nil
}

// TopByAttempts sorts breakdown rows by attempts descending, keeping the
// existing order among ties, and truncates to n.
func TopByAttempts(rows []models.Breakdown, n int) []models.Breakdown {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Attempts > rows[j].Attempts
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}
