package store

import (
	"fmt"
	"strings"
)

// ShotQuery holds parameters for constructing a ClickHouse shots query.
type ShotQuery struct {
	Player    string // WHERE player_name = ?
	Years     []int  // WHERE year IN (...)
	Dimension string // Group by: shot_type, year, zone, action_type. Empty selects raw rows.
	Offset    int
	Limit     int
}

const (
	shotsTable   = "shotchart.shots"
	distanceExpr = "coalesce(shot_distance, sqrt(loc_x * loc_x + loc_y * loc_y))"
	zoneExpr     = "multiIf(isNull(" + distanceExpr + "), '3PT (22+ft)', " +
		distanceExpr + " <= 5, 'Paint (0-5ft)', " +
		distanceExpr + " <= 10, 'Short (5-10ft)', " +
		distanceExpr + " <= 15, 'Mid (10-15ft)', " +
		distanceExpr + " <= 22, 'Long 2 (15-22ft)', '3PT (22+ft)')"
)

// allowedDimensions maps safe API values to SQL expressions and ordering
var allowedDimensions = map[string]struct {
	expr    string
	orderBy string
}{
	"shot_type":   {"shot_type", "label ASC"},
	"year":        {"toString(year)", "min(year) ASC"},
	"zone":        {zoneExpr, "label ASC"},
	"action_type": {"action_type", "attempts DESC, min((year, id)) ASC"},
}

const maxRawLimit = 50000

// BuildShotQuery constructs a parameterized ClickHouse SQL query.
func BuildShotQuery(q ShotQuery) (string, []any, error) {
	if q.Player == "" {
		return "", nil, fmt.Errorf("player is required")
	}

	var query string
	if q.Dimension == "" {
		query = "SELECT player_name, team_name, loc_x, loc_y, shot_made_flag, shot_distance, shot_type, action_type, year FROM " + shotsTable
	} else {
		dim, ok := allowedDimensions[q.Dimension]
		if !ok {
			return "", nil, fmt.Errorf("invalid dimension: %s", q.Dimension)
		}
		query = fmt.Sprintf("SELECT %s AS label, count() AS attempts, countIf(shot_made_flag = 1) AS made FROM %s", dim.expr, shotsTable)
	}

	query += " WHERE player_name = ?"
	args := []any{q.Player}

	if len(q.Years) > 0 {
		placeholders := make([]string, len(q.Years))
		for i, y := range q.Years {
			placeholders[i] = "?"
			args = append(args, y)
		}
		query += " AND year IN (" + strings.Join(placeholders, ", ") + ")"
	}

	if q.Dimension != "" {
		dim := allowedDimensions[q.Dimension]
		query += " GROUP BY label ORDER BY " + dim.orderBy
		if q.Limit > 0 {
			query += fmt.Sprintf(" LIMIT %d", q.Limit)
		}
		return query, args, nil
	}

	limit := q.Limit
	if limit <= 0 || limit > maxRawLimit {
		limit = maxRawLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" ORDER BY year, id LIMIT %d OFFSET %d", limit, offset)

	return query, args, nil
}
