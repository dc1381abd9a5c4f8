// Package sqlite keeps development backend object metadata in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultTable is the metadata table used when none is configured.
const DefaultTable = "objects"

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Database wraps a SQLite connection holding one metadata table.
type Database struct {
	db    *sql.DB
	table string
}

// Connect opens dsn (a file path or ":memory:"). An empty table selects DefaultTable.
func Connect(ctx context.Context, dsn, table string) (*Database, error) {
	if table == "" {
		table = DefaultTable
	}
	if !IsValidTableName(table) {
		return nil, fmt.Errorf("connect sqlite: invalid table name: %s", table)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	// One connection so ":memory:" databases are shared and writes serialize.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	return &Database{db: db, table: table}, nil
}

// Migrate creates the metadata table if it does not exist.
func (d *Database) Migrate(ctx context.Context) error {
	if err := createObjectsTable(ctx, d.db, d.table); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the table matches the expected schema.
func (d *Database) Validate(ctx context.Context) error {
	if err := validateTableSchema(ctx, d.db, d.table, objectsTableSchema); err != nil {
		return fmt.Errorf("validate schema %s: %w", d.table, err)
	}
	return nil
}

// Repo returns the metadata repository backed by this database.
func (d *Database) Repo() *Repo {
	return &Repo{db: d.db, table: d.table}
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}
