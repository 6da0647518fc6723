package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtside/shotchart-api/internal/models"
	"github.com/courtside/shotchart-api/internal/store"
)

// SeedShot is a generated shot with its row id.
type SeedShot struct {
	ID uuid.UUID
	models.Shot
}

var (
	shotColumns = []string{
		"id", "player_name", "team_name", "loc_x", "loc_y", "shot_made_flag",
		"shot_distance", "shot_type", "action_type", "year",
	}

	teams   = []string{"Golden State Warriors", "Los Angeles Lakers", "Boston Celtics", "Denver Nuggets", "Miami Heat"}
	actions = []string{"Jump Shot", "Pullup Jump shot", "Step Back Jump shot", "Driving Layup Shot", "Layup Shot", "Dunk Shot", "Hook Shot", "Floating Jump shot", "Tip Layup Shot", "Alley Oop Dunk Shot", "Cutting Layup Shot", "Running Dunk Shot"}
)

func main() {
	target := flag.String("target", "postgres", "postgres, clickhouse or csv")
	players := flag.Int("players", 50, "number of synthetic players")
	perPlayer := flag.Int("shots", 400, "shots per player")
	fromYear := flag.Int("from", 2019, "first season")
	toYear := flag.Int("to", 2024, "last season")
	seed := flag.Uint64("seed", 42, "random seed")
	out := flag.String("out", "data/shots.csv", "output path for -target csv")
	install := flag.Bool("install", true, "apply the embedded schema before inserting")
	flag.Parse()

	shots := generate(rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)), *players, *perPlayer, *fromYear, *toYear)
	log.Printf("Generated %d shots for %d players", len(shots), *players)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var err error
	switch *target {
	case "postgres":
		err = seedPostgres(ctx, os.Getenv("POSTGRES_URL"), shots, *install)
	case "clickhouse":
		err = seedClickHouse(ctx, os.Getenv("CLICKHOUSE_URL"), shots, *install)
	case "csv":
		err = writeCSV(*out, shots)
	default:
		err = fmt.Errorf("unknown target %q", *target)
	}
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d shots into %s", len(shots), *target)
}

// generate produces shots on a half court in feet, basket at the origin.
// Make probability falls off with distance.
func generate(rng *rand.Rand, players, perPlayer, fromYear, toYear int) []SeedShot {
	if toYear < fromYear {
		toYear = fromYear
	}
	shots := make([]SeedShot, 0, players*perPlayer)
	for p := 0; p < players; p++ {
		name := fmt.Sprintf("Player %03d", p+1)
		team := teams[p%len(teams)]
		skill := 0.9 + rng.Float64()*0.2

		for i := 0; i < perPlayer; i++ {
			angle := rng.Float64() * math.Pi
			dist := math.Abs(rng.NormFloat64()*9 + 12)
			x := math.Round(math.Cos(angle)*dist*10) / 10
			y := math.Round(math.Sin(angle)*dist*10) / 10
			dist = math.Round(math.Hypot(x, y)*10) / 10

			shotType := "2PT Field Goal"
			if dist > 22 || (math.Abs(x) >= 22 && y <= 9) {
				shotType = "3PT Field Goal"
			}
			action := actions[rng.IntN(len(actions))]
			if dist > 10 {
				action = actions[rng.IntN(4)]
			}

			pMake := skill * (0.68 - 0.012*dist)
			shots = append(shots, SeedShot{
				ID: uuid.New(),
				Shot: models.Shot{
					PlayerName: name,
					TeamName:   team,
					LocX:       models.Float(x),
					LocY:       models.Float(y),
					Distance:   models.Float(dist),
					Made:       models.MadeFlag(rng.Float64() < pMake),
					ShotType:   shotType,
					ActionType: action,
					Year:       fromYear + rng.IntN(toYear-fromYear+1),
				},
			})
		}
	}
	return shots
}

func madeInt(f models.MadeFlag) int {
	if f {
		return 1
	}
	return 0
}

func seedPostgres(ctx context.Context, url string, shots []SeedShot, install bool) error {
	if url == "" {
		return fmt.Errorf("POSTGRES_URL is not set")
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return err
	}
	defer pool.Close()

	if install {
		if err := store.NewPostgresSource(pool).InstallSchema(ctx); err != nil {
			return fmt.Errorf("install schema: %w", err)
		}
	}

	n, err := pool.CopyFrom(ctx, pgx.Identifier{"shots"}, shotColumns,
		pgx.CopyFromSlice(len(shots), func(i int) ([]any, error) {
			s := shots[i]
			return []any{
				s.ID, s.PlayerName, s.TeamName, s.LocX, s.LocY, int16(madeInt(s.Made)),
				s.Distance, s.ShotType, s.ActionType, int32(s.Year),
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("copy shots: %w", err)
	}
	log.Printf("Copied %d rows into postgres", n)
	return nil
}

func seedClickHouse(ctx context.Context, url string, shots []SeedShot, install bool) error {
	if url == "" {
		return fmt.Errorf("CLICKHOUSE_URL is not set")
	}
	opts, err := clickhouse.ParseDSN(url)
	if err != nil {
		return err
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return err
	}
	defer conn.Close()

	if install {
		if err := store.NewClickHouseSource(conn).InstallSchema(ctx); err != nil {
			return fmt.Errorf("install schema: %w", err)
		}
	}

	batch, err := conn.PrepareBatch(ctx, `
		INSERT INTO shotchart.shots (
			id, player_name, team_name, loc_x, loc_y, shot_made_flag,
			shot_distance, shot_type, action_type, year
		)
	`)
	if err != nil {
		return err
	}
	for _, s := range shots {
		if err := batch.Append(
			s.ID,
			s.PlayerName,
			s.TeamName,
			s.LocX,
			s.LocY,
			uint8(madeInt(s.Made)),
			s.Distance,
			s.ShotType,
			s.ActionType,
			uint16(s.Year),
		); err != nil {
			return fmt.Errorf("append shot: %w", err)
		}
	}
	return batch.Send()
}

// writeCSV emits the canonical upper-case columns read by the memory backend.
func writeCSV(path string, shots []SeedShot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write([]string{"PLAYER_NAME", "TEAM_NAME", "LOC_X", "LOC_Y", "SHOT_MADE_FLAG", "SHOT_DISTANCE", "SHOT_TYPE", "ACTION_TYPE", "YEAR"})
	for _, s := range shots {
		w.Write([]string{
			s.PlayerName,
			s.TeamName,
			strconv.FormatFloat(*s.LocX, 'f', -1, 64),
			strconv.FormatFloat(*s.LocY, 'f', -1, 64),
			strconv.Itoa(madeInt(s.Made)),
			strconv.FormatFloat(*s.Distance, 'f', -1, 64),
			s.ShotType,
			s.ActionType,
			strconv.Itoa(s.Year),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
