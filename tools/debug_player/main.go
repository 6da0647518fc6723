package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/goccy/go-json"

	"github.com/courtside/shotchart-api/internal/aggregate"
	"github.com/courtside/shotchart-api/internal/models"
	"github.com/courtside/shotchart-api/internal/store"
)

// Compares the store's own aggregation for a player with the local
// aggregation over that player's raw rows and prints both on mismatch.
func main() {
	player := flag.String("player", "", "player name")
	yearsFlag := flag.String("years", "", "comma-separated seasons")
	flag.Parse()
	if *player == "" {
		log.Fatal("-player is required")
	}

	chURL := os.Getenv("CLICKHOUSE_URL")
	if chURL == "" {
		chURL = "clickhouse://localhost:9000/shotchart"
	}

	opts, err := clickhouse.ParseDSN(chURL)
	if err != nil {
		log.Fatalf("Failed to parse DSN: %v", err)
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open connection: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var years []int
	for _, p := range strings.Split(*yearsFlag, ",") {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		y, err := strconv.Atoi(p)
		if err != nil {
			log.Fatalf("Bad season %q: %v", p, err)
		}
		years = append(years, y)
	}

	src := store.NewClickHouseSource(conn)

	server, err := src.PlayerStats(ctx, *player, years)
	if err != nil {
		log.Fatalf("Server-side aggregation failed: %v", err)
	}

	var rows []models.Shot
	const pageSize = 5000
	for offset := 0; offset < 50000; offset += pageSize {
		page, err := src.PlayerShots(ctx, *player, years, offset, pageSize)
		if err != nil {
			log.Fatalf("Fetching raw rows failed: %v", err)
		}
		rows = append(rows, page...)
		if len(page) < pageSize {
			break
		}
	}

	local, err := aggregate.Summarize(*player, rows)
	if err != nil {
		log.Fatalf("Local aggregation failed: %v", err)
	}

	if reflect.DeepEqual(server, local) {
		fmt.Printf("OK: %s total=%d made=%d fg_pct=%.3f\n", *player, local.TotalShots, local.MadeShots, local.FGPct)
		return
	}

	fmt.Println("MISMATCH")
	dump("server", server)
	dump("local", local)
	os.Exit(1)
}

func dump(label string, s *models.PlayerSummary) {
	data, _ := json.MarshalIndent(s, "", "  ")
	fmt.Printf("--- %s ---\n%s\n", label, data)
}
