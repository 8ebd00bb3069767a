package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

var errSchemaNotOwned = errors.New("schema is managed by the database")

// EnsureSchema creates tables shaped like the production views. Only the
// sqlite dev source owns its schema; the other drivers read existing views.
func (r *SQLRepository) EnsureSchema(ctx context.Context) error {
	if r.d.name != DriverSQLite {
		return fmt.Errorf("ensure schema on %s: %w", r.d.name, errSchemaNotOwned)
	}
	for _, stmt := range splitStatements(sqliteSchema) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// LoadSeed executes statements in one transaction.
func (r *SQLRepository) LoadSeed(ctx context.Context, statements []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seed statement %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}
