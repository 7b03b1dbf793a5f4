package db

import (
	"bufio"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed schema
var schemaFS embed.FS

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Execer runs one migration script.
type Execer func(ctx context.Context, sql string) error

// Migrate runs the "-- +migrate Up" section of every schema file for dialect,
// in file name order. The scripts are idempotent.
func Migrate(ctx context.Context, dialect Dialect, exec Execer) error {
	dir := path.Join("schema", string(dialect))
	entries, err := fs.ReadDir(schemaFS, dir)
	if err != nil {
		return fmt.Errorf("reading schema dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		content, err := fs.ReadFile(schemaFS, path.Join(dir, f))
		if err != nil {
			return fmt.Errorf("reading %s: %w", f, err)
		}

		upSQL := ExtractMigrateUp(string(content))
		if upSQL == "" {
			continue
		}

		if err := exec(ctx, upSQL); err != nil {
			return fmt.Errorf("executing migration %s: %w", f, err)
		}
	}
	return nil
}

func MigratePostgres(ctx context.Context, conn DBTX) error {
	return Migrate(ctx, Postgres, func(ctx context.Context, sql string) error {
		_, err := conn.Exec(ctx, sql)
		return err
	})
}

func MigrateSQLite(ctx context.Context, conn *sql.DB) error {
	return Migrate(ctx, SQLite, func(ctx context.Context, sql string) error {
		_, err := conn.ExecContext(ctx, sql)
		return err
	})
}

// ExtractMigrateUp extracts the SQL between "-- +migrate Up" and "-- +migrate Down" markers.
func ExtractMigrateUp(content string) string {
	scanner := bufio.NewScanner(strings.NewReader(content))
	var lines []string
	inUp := false

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == "-- +migrate Up" {
			inUp = true
			continue
		}
		if trimmed == "-- +migrate Down" {
			break
		}
		if inUp {
			lines = append(lines, line)
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
