package devstore

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// Object is the stored metadata of an uploaded object.
type Object struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	ETag        string    `json:"etag"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ObjectEntry is what a write produces before metadata is recorded.
type ObjectEntry struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
}

// SaveResult is returned by FileStorage.Write.
type SaveResult struct {
	BytesWritten int64
	ETag         string
}

// MetaDataRepo persists object metadata. Implementations must be safe for
// concurrent use.
type MetaDataRepo interface {
	// Get returns presignd.ErrNotFound when the key has no metadata.
	Get(ctx context.Context, key string) (Object, error)
	// Upsert creates or replaces the metadata for entry.Key. The bool
	// reports whether a new row was created.
	Upsert(ctx context.Context, entry ObjectEntry) (Object, bool, error)
}

// FileStorage holds object bytes.
type FileStorage interface {
	// Get returns presignd.ErrNotFound when the object does not exist.
	// The caller closes the returned reader.
	Get(ctx context.Context, key string) (io.ReadSeekCloser, error)
	// Write stores content atomically, overwriting any existing object.
	Write(ctx context.Context, key string, content io.Reader) (SaveResult, error)
	// Delete returns presignd.ErrNotFound when the object does not exist.
	Delete(ctx context.Context, key string) error
	// List walks every stored object. Used to rebuild metadata.
	List(ctx context.Context) ([]ObjectEntry, error)
}
