package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema/postgres.sql
var postgresSchema string

//go:embed schema/duckdb.sql
var duckdbSchema string

// ExecFunc executes a single SQL statement
type ExecFunc func(ctx context.Context, stmt string) error

// Statements splits a schema file into individual statements
func Statements(schema string) []string {
	var stmts []string
	for _, part := range strings.Split(schema, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// ApplySchema runs every statement of the schema in order. All statements are
// idempotent so this is safe on every start.
func ApplySchema(ctx context.Context, schema string, exec ExecFunc) error {
	for i, stmt := range Statements(schema) {
		if err := exec(ctx, stmt); err != nil {
			return fmt.Errorf("[DATABASE] failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
