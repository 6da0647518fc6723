package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"golang.org/x/sync/errgroup"

	"github.com/courtside/shotchart-api/internal/aggregate"
	"github.com/courtside/shotchart-api/internal/models"
)

// ClickHouseSource runs shot aggregation as ClickHouse GROUP BY queries.
type ClickHouseSource struct {
	ch driver.Conn
}

func NewClickHouseSource(ch driver.Conn) *ClickHouseSource {
	return &ClickHouseSource{ch: ch}
}

func (s *ClickHouseSource) Ping(ctx context.Context) error {
	return s.ch.Ping(ctx)
}

func (s *ClickHouseSource) PlayersWithStats(ctx context.Context, search string, minShots, limit int) ([]models.RosterEntry, error) {
	rows, err := s.ch.Query(ctx, `
		SELECT
			player_name,
			count() AS total,
			round(avg(shot_made_flag), 3) AS fg_pct
		FROM `+shotsTable+`
		WHERE positionCaseInsensitiveUTF8(player_name, ?) > 0
		GROUP BY player_name
		HAVING total >= ?
		ORDER BY total DESC, player_name ASC
		LIMIT ?
	`, search, minShots, limit)
	if err != nil {
		return nil, unavailable("players query", err)
	}
	defer rows.Close()

	players := make([]models.RosterEntry, 0)
	for rows.Next() {
		var (
			e     models.RosterEntry
			total uint64
		)
		if err := rows.Scan(&e.Name, &total, &e.FGPct); err != nil {
			return nil, unavailable("scan player", err)
		}
		e.TotalShots = int(total)
		players = append(players, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("players query", err)
	}
	return players, nil
}

// PlayerStats fetches totals and every breakdown concurrently.
func (s *ClickHouseSource) PlayerStats(ctx context.Context, player string, years []int) (*models.PlayerSummary, error) {
	summary := &models.PlayerSummary{PlayerName: player}

	where := "player_name = ?"
	args := []any{player}
	if len(years) > 0 {
		where += " AND year IN (?" + strings.Repeat(", ?", len(years)-1) + ")"
		for _, y := range years {
			args = append(args, y)
		}
	}

	var total, made uint64
	var avgDist float64
	if err := s.ch.QueryRow(ctx, `
		SELECT
			count() AS total,
			countIf(shot_made_flag = 1) AS made,
			ifNotFinite(avgOrNull(`+distanceExpr+`), 0) AS avg_distance
		FROM `+shotsTable+`
		WHERE `+where, args...).Scan(&total, &made, &avgDist); err != nil {
		return nil, unavailable("player totals", err)
	}
	if total == 0 {
		return nil, ErrNotFound
	}
	summary.TotalShots = int(total)
	summary.MadeShots = int(made)
	summary.FGPct = aggregate.Pct(int(made), int(total))
	summary.AvgDistance = aggregate.Round(avgDist, 1)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := s.breakdown(ctx, ShotQuery{Player: player, Years: years, Dimension: "shot_type"})
		if err != nil {
			return fmt.Errorf("shot type breakdown: %w", err)
		}
		summary.ByShotType = rows
		return nil
	})

	g.Go(func() error {
		rows, err := s.breakdown(ctx, ShotQuery{Player: player, Years: years, Dimension: "year"})
		if err != nil {
			return fmt.Errorf("season breakdown: %w", err)
		}
		summary.ByYear = rows
		return nil
	})

	g.Go(func() error {
		rows, err := s.breakdown(ctx, ShotQuery{Player: player, Years: years, Dimension: "zone"})
		if err != nil {
			return fmt.Errorf("zone breakdown: %w", err)
		}
		summary.ByZone = orderZones(rows)
		return nil
	})

	g.Go(func() error {
		rows, err := s.breakdown(ctx, ShotQuery{Player: player, Years: years, Dimension: "action_type", Limit: aggregate.MaxActionTypes})
		if err != nil {
			return fmt.Errorf("action breakdown: %w", err)
		}
		summary.ByAction = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, unavailable("player stats", err)
	}
	return summary, nil
}

func (s *ClickHouseSource) breakdown(ctx context.Context, q ShotQuery) ([]models.Breakdown, error) {
	query, args, err := BuildShotQuery(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.ch.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Breakdown, 0)
	for rows.Next() {
		var (
			label          string
			attempts, made uint64
		)
		if err := rows.Scan(&label, &attempts, &made); err != nil {
			return nil, err
		}
		out = append(out, models.Breakdown{
			Label:    label,
			Attempts: int(attempts),
			Made:     int(made),
			FGPct:    aggregate.Pct(int(made), int(attempts)),
		})
	}
	return out, rows.Err()
}

// orderZones puts zone rows in band order.
func orderZones(rows []models.Breakdown) []models.Breakdown {
	out := make([]models.Breakdown, 0, len(rows))
	for _, label := range aggregate.ZoneLabels() {
		for _, r := range rows {
			if r.Label == label {
				out = append(out, r)
			}
		}
	}
	return out
}

func (s *ClickHouseSource) PlayerShots(ctx context.Context, player string, years []int, offset, limit int) ([]models.Shot, error) {
	query, args, err := BuildShotQuery(ShotQuery{Player: player, Years: years, Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	rows, err := s.ch.Query(ctx, query, args...)
	if err != nil {
		return nil, unavailable("shots query", err)
	}
	defer rows.Close()

	shots := make([]models.Shot, 0)
	for rows.Next() {
		var (
			sh   models.Shot
			made uint8
			year uint16
		)
		if err := rows.Scan(&sh.PlayerName, &sh.TeamName, &sh.LocX, &sh.LocY, &made,
			&sh.Distance, &sh.ShotType, &sh.ActionType, &year); err != nil {
			return nil, unavailable("scan shot", err)
		}
		sh.Made = made > 0
		sh.Year = int(year)
		shots = append(shots, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("shots query", err)
	}
	return shots, nil
}

func (s *ClickHouseSource) AvailableYears(ctx context.Context) ([]int, error) {
	rows, err := s.ch.Query(ctx, "SELECT DISTINCT year FROM "+shotsTable+" ORDER BY year")
	if err != nil {
		return nil, unavailable("years query", err)
	}
	defer rows.Close()

	years := make([]int, 0)
	for rows.Next() {
		var y uint16
		if err := rows.Scan(&y); err != nil {
			return nil, unavailable("scan year", err)
		}
		years = append(years, int(y))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("years query", err)
	}
	return years, nil
}

// InstallSchema applies ClickHouseSchema one statement at a time.
func (s *ClickHouseSource) InstallSchema(ctx context.Context) error {
	for _, stmt := range Statements(ClickHouseSchema) {
		if err := s.ch.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
