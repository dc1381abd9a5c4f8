package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sagarc03/presignd"
	"github.com/sagarc03/presignd/devstore"
)

// Repo implements devstore.MetaDataRepo.
type Repo struct {
	db    *sql.DB
	table string
}

// Get returns the metadata stored for key, or presignd.ErrNotFound.
func (r *Repo) Get(ctx context.Context, key string) (devstore.Object, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, object_key, content_type, etag, size_bytes, created_at, updated_at
		FROM %s
		WHERE object_key = ?`, quoteIdentifier(r.table))

	var (
		o                           devstore.Object
		idStr, createdAt, updatedAt string
	)

	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&idStr, &o.Key, &o.ContentType, &o.ETag, &o.Size, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return devstore.Object{}, presignd.ErrNotFound
		}
		return devstore.Object{}, fmt.Errorf("get: %w", err)
	}

	if o.ID, err = uuid.Parse(idStr); err != nil {
		return devstore.Object{}, fmt.Errorf("get: parse uuid: %w", err)
	}
	if o.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return devstore.Object{}, fmt.Errorf("get: parse created_at: %w", err)
	}
	if o.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return devstore.Object{}, fmt.Errorf("get: parse updated_at: %w", err)
	}

	return o, nil
}

// Upsert records entry, keeping the id and created_at of an existing row.
func (r *Repo) Upsert(ctx context.Context, entry devstore.ObjectEntry) (devstore.Object, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return devstore.Object{}, false, fmt.Errorf("upsert: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existingID, existingCreated string
	checkQuery := fmt.Sprintf(`SELECT id, created_at FROM %s WHERE object_key = ?`, quoteIdentifier(r.table)) //nolint:gosec // table name is validated
	err = tx.QueryRowContext(ctx, checkQuery, entry.Key).Scan(&existingID, &existingCreated)
	isInsert := errors.Is(err, sql.ErrNoRows)
	if err != nil && !isInsert {
		return devstore.Object{}, false, fmt.Errorf("upsert: check existing: %w", err)
	}

	now := time.Now().UTC()
	nowStr := now.Format(time.RFC3339Nano)

	o := devstore.Object{
		Key:         entry.Key,
		ContentType: entry.ContentType,
		ETag:        entry.ETag,
		Size:        entry.Size,
		UpdatedAt:   now,
	}

	if isInsert {
		o.ID = uuid.New()
		o.CreatedAt = now

		insertQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`INSERT INTO %s (id, object_key, content_type, etag, size_bytes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(r.table))

		if _, err := tx.ExecContext(ctx, insertQuery,
			o.ID.String(), entry.Key, entry.ContentType, entry.ETag, entry.Size, nowStr, nowStr,
		); err != nil {
			return devstore.Object{}, false, fmt.Errorf("upsert: insert: %w", err)
		}
	} else {
		if o.ID, err = uuid.Parse(existingID); err != nil {
			return devstore.Object{}, false, fmt.Errorf("upsert: parse uuid: %w", err)
		}
		if o.CreatedAt, err = time.Parse(time.RFC3339Nano, existingCreated); err != nil {
			return devstore.Object{}, false, fmt.Errorf("upsert: parse created_at: %w", err)
		}

		updateQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`UPDATE %s
			SET content_type = ?, etag = ?, size_bytes = ?, updated_at = ?
			WHERE object_key = ?`, quoteIdentifier(r.table))

		if _, err := tx.ExecContext(ctx, updateQuery,
			entry.ContentType, entry.ETag, entry.Size, nowStr, entry.Key,
		); err != nil {
			return devstore.Object{}, false, fmt.Errorf("upsert: update: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return devstore.Object{}, false, fmt.Errorf("upsert: commit: %w", err)
	}

	return o, isInsert, nil
}
