// Package devstore is a single-bucket, path-style S3 subset for local
// development and tests. It accepts only requests carrying a valid
// presigned signature, so URLs issued by presignd can be exercised end to
// end without a real storage provider.
package devstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sagarc03/presignd"
)

// Store combines metadata and object bytes.
type Store struct {
	repo           MetaDataRepo
	storage        FileStorage
	cleanupTimeout time.Duration
}

// StoreConfig holds options for Store.
type StoreConfig struct {
	CleanupTimeout time.Duration // Timeout for removing orphaned bytes (default: 30s)
}

// NewStore creates a Store.
func NewStore(repo MetaDataRepo, storage FileStorage, cfg StoreConfig) *Store {
	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}
	return &Store{
		repo:           repo,
		storage:        storage,
		cleanupTimeout: cleanupTimeout,
	}
}

// Populate rebuilds metadata from the objects already on disk, e.g. after
// the metadata database was deleted. It returns how many objects were
// recorded and stops at the first error.
func (s *Store) Populate(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("populate: %w", err)
	}

	entries, err := s.storage.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("populate: %w", err)
	}

	n := 0
	for _, entry := range entries {
		if !presignd.IsValidKey(entry.Key) {
			slog.Warn("skipping object with invalid key", "key", entry.Key)
			continue
		}
		if _, _, err := s.repo.Upsert(ctx, entry); err != nil {
			return n, fmt.Errorf("populate '%s': %w", entry.Key, err)
		}
		n++
	}

	return n, nil
}

// Put stores content under key. If recording metadata fails the written
// bytes are removed again.
func (s *Store) Put(ctx context.Context, key, contentType string, content io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, fmt.Errorf("put object: %w", err)
	}

	if !presignd.IsValidKey(key) {
		return Object{}, fmt.Errorf("put object %q: %w", key, presignd.ErrInvalidInput)
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	saved, err := s.storage.Write(ctx, key, content)
	if err != nil {
		return Object{}, fmt.Errorf("put object %s: write failed: %w", key, err)
	}

	obj, _, err := s.repo.Upsert(ctx, ObjectEntry{
		Key:         key,
		Size:        saved.BytesWritten,
		ETag:        saved.ETag,
		ContentType: contentType,
	})
	if err != nil {
		// The request context may already be cancelled.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
		defer cancel()

		if delErr := s.storage.Delete(cleanupCtx, key); delErr != nil {
			return Object{}, fmt.Errorf("put object %s: metadata upsert failed (%w) and cleanup failed: %w", key, err, delErr)
		}
		return Object{}, fmt.Errorf("put object %s: metadata upsert failed: %w", key, err)
	}

	return obj, nil
}

// Get returns the metadata and content of key. The caller closes the reader.
func (s *Store) Get(ctx context.Context, key string) (Object, io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, nil, fmt.Errorf("get object: %w", err)
	}

	if !presignd.IsValidKey(key) {
		return Object{}, nil, fmt.Errorf("get object %q: %w", key, presignd.ErrInvalidInput)
	}

	obj, err := s.repo.Get(ctx, key)
	if err != nil {
		return Object{}, nil, fmt.Errorf("get object: %w", err)
	}

	f, err := s.storage.Get(ctx, key)
	if err != nil {
		return Object{}, nil, fmt.Errorf("get object: %w", err)
	}

	return obj, f, nil
}
