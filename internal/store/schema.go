package store

import (
	_ "embed"
	"strings"
)

// PostgresSchema creates the shots table and the aggregation functions the
// Postgres source calls.
//
//go:embed schema/postgres.sql
var PostgresSchema string

// ClickHouseSchema creates the shots table for the ClickHouse source.
//
//go:embed schema/clickhouse.sql
var ClickHouseSchema string

// Statements splits a schema file into individual statements. Postgres
// function bodies are dollar-quoted, so semicolons inside $$ are kept.
func Statements(schema string) []string {
	var (
		out      []string
		b        strings.Builder
		inDollar bool
	)
	for i := 0; i < len(schema); i++ {
		if strings.HasPrefix(schema[i:], "$$") {
			inDollar = !inDollar
			b.WriteString("$$")
			i++
			continue
		}
		if schema[i] == ';' && !inDollar {
			if stmt := strings.TrimSpace(b.String()); stmt != "" {
				out = append(out, stmt)
			}
			b.Reset()
			continue
		}
		b.WriteByte(schema[i])
	}
	if stmt := strings.TrimSpace(b.String()); stmt != "" {
		out = append(out, stmt)
	}
	return out
}
