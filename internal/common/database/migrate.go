package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration is one embedded schema file.
type Migration struct {
	Name string
	SQL  string
}

// Migrations returns the embedded schema files in name order.
func Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		body, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		out = append(out, Migration{Name: name, SQL: string(body)})
	}
	return out, nil
}

// Migrate applies every embedded migration inside one transaction.
// The statements are idempotent so reruns are safe.
func Migrate(ctx context.Context, db *sql.DB) ([]string, error) {
	migrations, err := Migrations()
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	applied := make([]string, 0, len(migrations))
	for _, m := range migrations {
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			return nil, fmt.Errorf("migration %s failed: %w", m.Name, err)
		}
		applied = append(applied, m.Name)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit migrations: %w", err)
	}
	return applied, nil
}
