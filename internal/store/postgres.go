package store

import (
	"context"
	"errors"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/courtside/shotchart-api/internal/models"
)

// PgPool defines the subset of pgxpool.Pool the Postgres source uses.
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PostgresSource reads shots from Postgres and delegates aggregation to the
// SQL functions in PostgresSchema.
type PostgresSource struct {
	pg PgPool
}

func NewPostgresSource(pg PgPool) *PostgresSource {
	return &PostgresSource{pg: pg}
}

func (s *PostgresSource) Ping(ctx context.Context) error {
	return s.pg.Ping(ctx)
}

func (s *PostgresSource) PlayersWithStats(ctx context.Context, search string, minShots, limit int) ([]models.RosterEntry, error) {
	rows, err := s.pg.Query(ctx,
		"SELECT name, total_shots, fg_pct FROM get_players_with_stats($1, $2, $3)",
		search, minShots, limit)
	if err != nil {
		return nil, unavailable("get_players_with_stats", err)
	}
	defer rows.Close()

	players := make([]models.RosterEntry, 0)
	for rows.Next() {
		var (
			e     models.RosterEntry
			total int64
			fgPct *float64
		)
		if err := rows.Scan(&e.Name, &total, &fgPct); err != nil {
			return nil, unavailable("scan player", err)
		}
		e.TotalShots = int(total)
		if fgPct != nil {
			e.FGPct = *fgPct
		}
		players = append(players, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("get_players_with_stats", err)
	}
	return players, nil
}

func (s *PostgresSource) PlayerStats(ctx context.Context, player string, years []int) (*models.PlayerSummary, error) {
	var raw []byte
	err := s.pg.QueryRow(ctx, "SELECT get_player_stats($1, $2)", player, int32s(years)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && len(raw) == 0) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get_player_stats", err)
	}

	var summary models.PlayerSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, unavailable("decode player stats", err)
	}
	if summary.TotalShots == 0 {
		return nil, ErrNotFound
	}
	return &summary, nil
}

func (s *PostgresSource) PlayerShots(ctx context.Context, player string, years []int, offset, limit int) ([]models.Shot, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT player_name, team_name, loc_x, loc_y, shot_made_flag,
		       shot_distance, shot_type, action_type, year
		FROM shots
		WHERE player_name = $1
		  AND ($2::int[] IS NULL OR year = ANY ($2))
		ORDER BY year, id
		OFFSET $3 LIMIT $4
	`, player, int32s(years), offset, limit)
	if err != nil {
		return nil, unavailable("select shots", err)
	}
	defer rows.Close()

	shots := make([]models.Shot, 0, limit)
	for rows.Next() {
		var (
			sh   models.Shot
			made int16
			year int32
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
		return nil, unavailable("select shots", err)
	}
	return shots, nil
}

func (s *PostgresSource) AvailableYears(ctx context.Context) ([]int, error) {
	rows, err := s.pg.Query(ctx, "SELECT year FROM get_available_years()")
	if err != nil {
		return nil, unavailable("get_available_years", err)
	}
	defer rows.Close()

	years := make([]int, 0)
	for rows.Next() {
		var y int32
		if err := rows.Scan(&y); err != nil {
			return nil, unavailable("scan year", err)
		}
		years = append(years, int(y))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("get_available_years", err)
	}
	return years, nil
}

// InstallSchema applies PostgresSchema.
func (s *PostgresSource) InstallSchema(ctx context.Context) error {
	for _, stmt := range Statements(PostgresSchema) {
		if _, err := s.pg.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// int32s converts a year filter for the int[] parameter; nil stays NULL.
func int32s(years []int) []int32 {
	if len(years) == 0 {
		return nil
	}
	out := make([]int32, len(years))
	for i, y := range years {
		out[i] = int32(y)
	}
	return out
}
