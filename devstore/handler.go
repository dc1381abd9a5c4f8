package devstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sagarc03/presignd"
	presignhttp "github.com/sagarc03/presignd/http"
)

// DefaultMaxObjectBytes bounds a single upload.
const DefaultMaxObjectBytes = 5 << 30

// ObjectStore is the storage the handler serves. *Store implements it.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, content io.Reader) (Object, error)
	Get(ctx context.Context, key string) (Object, io.ReadSeekCloser, error)
}

type HandlerConfig struct {
	Bucket string
	// Verifier checks presigned signatures. Nil serves without authentication.
	Verifier       presignhttp.RequestVerifier
	MaxObjectBytes int64
}

// Handler serves path-style PUT and GET for a single bucket.
type Handler struct {
	config HandlerConfig
	store  ObjectStore
}

// NewHandler creates a new Handler.
func NewHandler(config HandlerConfig, store ObjectStore) *Handler {
	if config.MaxObjectBytes <= 0 {
		config.MaxObjectBytes = DefaultMaxObjectBytes
	}
	return &Handler{config: config, store: store}
}

// Router returns the development store's routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(presignhttp.RequestLogger)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		presignhttp.WriteError(w, http.StatusNotFound, "not_found", "Route not found")
	})

	r.Group(func(r chi.Router) {
		r.Use(presignhttp.AuthMiddleware(h.config.Verifier))
		r.Get("/{bucket}/*", h.handleGet)
		r.Put("/{bucket}/*", h.handlePut)
	})

	return r
}

// objectKey extracts the decoded key and reports whether the bucket matches.
func (h *Handler) objectKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	prefix := "/" + h.config.Bucket + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		presignhttp.WriteError(w, http.StatusNotFound, "no_such_bucket", "Bucket not found")
		return "", false
	}

	key := strings.TrimPrefix(r.URL.Path, prefix)
	if !presignd.IsValidKey(key) {
		presignhttp.WriteError(w, http.StatusBadRequest, "invalid_key", "Invalid object key")
		return "", false
	}

	return key, true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	key, ok := h.objectKey(w, r)
	if !ok {
		return
	}

	obj, content, err := h.store.Get(r.Context(), key)
	if err != nil {
		presignhttp.HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("ETag", `"`+obj.ETag+`"`)
	w.Header().Set("Content-Type", obj.ContentType)

	http.ServeContent(w, r, key, obj.UpdatedAt, content)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	key, ok := h.objectKey(w, r)
	if !ok {
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.config.MaxObjectBytes)

	obj, err := h.store.Put(r.Context(), key, r.Header.Get("Content-Type"), body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			presignhttp.WriteError(w, http.StatusRequestEntityTooLarge, "entity_too_large",
				fmt.Sprintf("Object exceeds %d bytes", maxErr.Limit))
			return
		}
		presignhttp.HandleError(w, err)
		return
	}

	w.Header().Set("ETag", `"`+obj.ETag+`"`)
	_ = presignhttp.WriteJSON(w, http.StatusOK, obj)
}
