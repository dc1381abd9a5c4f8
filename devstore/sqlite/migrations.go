package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

func createObjectsTable(ctx context.Context, db *sql.DB, table string) error {
	quotedTable := quoteIdentifier(table)
	indexUpdatedAt := quoteIdentifier(fmt.Sprintf("idx_%s_updated_at", table))

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL PRIMARY KEY,
			object_key TEXT NOT NULL UNIQUE,
			content_type TEXT NOT NULL,
			etag TEXT NOT NULL,
			size_bytes INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`, quotedTable)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	indexSQL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (updated_at)`, indexUpdatedAt, quotedTable)
	if _, err := db.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("create index updated_at: %w", err)
	}

	return nil
}

type columnInfo struct {
	dataType   string
	isNullable bool
}

var objectsTableSchema = map[string]columnInfo{
	"id":           {"text", false},
	"object_key":   {"text", false},
	"content_type": {"text", false},
	"etag":         {"text", false},
	"size_bytes":   {"integer", false},
	"created_at":   {"text", false},
	"updated_at":   {"text", false},
}

func validateTableSchema(ctx context.Context, db *sql.DB, table string, expected map[string]columnInfo) error {
	exists, err := tableExists(ctx, db, table)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("table %s does not exist", table)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(table)))
	if err != nil {
		return fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	actual := make(map[string]columnInfo)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			dfltValue        sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scan column: %w", err)
		}
		actual[name] = columnInfo{dataType: strings.ToLower(dataType), isNullable: notNull == 0}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	var problems []string
	for name, want := range expected {
		got, ok := actual[name]
		switch {
		case !ok:
			problems = append(problems, "missing column "+name)
		case got.dataType != want.dataType:
			problems = append(problems, fmt.Sprintf("%s: expected %s, got %s", name, want.dataType, got.dataType))
		case got.isNullable != want.isNullable:
			problems = append(problems, fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", name, want.isNullable, got.isNullable))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("table %s schema validation failed: %s", table, strings.Join(problems, "; "))
	}
	return nil
}

func tableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check table exists: %w", err)
	}
	return true, nil
}
