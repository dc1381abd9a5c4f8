// Package filesystem stores development backend objects on local disk.
// Writes are atomic (temp file and rename) and produce SHA-256 etags.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/sagarc03/presignd"
	"github.com/sagarc03/presignd/devstore"
)

// tmpPrefix marks in-flight writes; List skips them.
const tmpPrefix = ".presignd-tmp-"

// Store provides file system storage operations.
type Store struct {
	root *os.Root
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Get opens an object for reading. Returns presignd.ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, presignd.ErrNotFound
		}
		return nil, fmt.Errorf("open object: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat object: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, presignd.ErrNotFound
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically writes content under key using a temp file and rename.
// Intermediate directories are created as needed.
func (s *Store) Write(ctx context.Context, key string, content io.Reader) (devstore.SaveResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return devstore.SaveResult{}, ctxErr
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return devstore.SaveResult{}, fmt.Errorf("open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	size, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return devstore.SaveResult{}, fmt.Errorf("copy object contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return devstore.SaveResult{}, fmt.Errorf("sync object: %w", err)
	}

	if dir := path.Dir(key); dir != "." {
		if err := s.root.MkdirAll(dir, 0o755); err != nil {
			return devstore.SaveResult{}, fmt.Errorf("create intermediate directories: %w", err)
		}
	}

	if renameErr := s.root.Rename(tmpFile, key); renameErr != nil {
		return devstore.SaveResult{}, fmt.Errorf("rename object: %w", renameErr)
	}

	success = true

	return devstore.SaveResult{BytesWritten: size, ETag: hex.EncodeToString(h.Sum(nil))}, nil
}

// Delete removes an object. Returns presignd.ErrNotFound if it does not exist.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.root.Remove(key); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return presignd.ErrNotFound
		}
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// List walks the root and returns every stored object with its size,
// SHA-256 etag and a content type guessed from the extension.
func (s *Store) List(ctx context.Context) ([]devstore.ObjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []devstore.ObjectEntry{}

	err := fs.WalkDir(s.root.FS(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tmpPrefix) {
			return nil
		}

		entry, err := s.describe(p)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	return entries, nil
}

func (s *Store) describe(key string) (devstore.ObjectEntry, error) {
	f, err := s.root.Open(key)
	if err != nil {
		return devstore.ObjectEntry{}, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close file", "key", key, "err", closeErr)
		}
	}()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return devstore.ObjectEntry{}, err
	}

	return devstore.ObjectEntry{
		Key:         key,
		Size:        size,
		ETag:        hex.EncodeToString(h.Sum(nil)),
		ContentType: detectContentType(key),
	}, nil
}

func detectContentType(key string) string {
	if contentType := mime.TypeByExtension(path.Ext(key)); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

func tmpFileName() string {
	return tmpPrefix + uuid.New().String()
}
