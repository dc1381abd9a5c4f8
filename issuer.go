package presignd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Signer turns a SigningRequest into a presigned URL using the storage
// provider's signing scheme. Implementations must be safe for concurrent use
// and must not perform network calls.
type Signer interface {
	Presign(ctx context.Context, req SigningRequest) (PresignedURL, error)
}

// Observer receives issuance outcomes, e.g. for metrics.
type Observer interface {
	ObserveIssued(method string)
	ObserveFailure(reason string)
}

type nopObserver struct{}

func (nopObserver) ObserveIssued(string)  {}
func (nopObserver) ObserveFailure(string) {}

// Issuer issues presigned URLs for a single bucket. It is immutable after
// construction and safe for concurrent use.
type Issuer struct {
	signer             Signer
	ttl                time.Duration
	defaultContentType string
	observer           Observer
	now                func() time.Time
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithTTL sets how long issued URLs stay valid.
func WithTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.ttl = ttl
	}
}

// WithDefaultContentType sets the content type bound to PUT URLs when the
// caller does not name one.
func WithDefaultContentType(contentType string) IssuerOption {
	return func(i *Issuer) {
		i.defaultContentType = contentType
	}
}

// WithObserver reports issuance outcomes to o.
func WithObserver(o Observer) IssuerOption {
	return func(i *Issuer) {
		if o != nil {
			i.observer = o
		}
	}
}

// WithClock sets the time source used to stamp signatures.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer creates an Issuer backed by signer.
func NewIssuer(signer Signer, opts ...IssuerOption) (*Issuer, error) {
	if signer == nil {
		return nil, fmt.Errorf("new issuer: signer is required: %w", ErrConfig)
	}

	i := &Issuer{
		signer:             signer,
		ttl:                DefaultTTL,
		defaultContentType: DefaultContentType,
		observer:           nopObserver{},
		now:                time.Now,
	}

	for _, opt := range opts {
		opt(i)
	}

	if i.ttl < time.Second || i.ttl > MaxExpires {
		return nil, fmt.Errorf("new issuer: ttl must be between 1s and %s: %w", MaxExpires, ErrConfig)
	}

	if i.defaultContentType == "" {
		return nil, fmt.Errorf("new issuer: default content type is required: %w", ErrConfig)
	}

	return i, nil
}

// TTL returns the validity window of issued URLs.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// DefaultContentType returns the content type bound to PUT URLs by default.
func (i *Issuer) DefaultContentType() string {
	return i.defaultContentType
}

// IssuePutAndGet issues a PUT URL bound to contentType and a GET URL for the
// same key. Both carry the same signing time and therefore expire together.
// An empty contentType is replaced by the default; the uploader must send
// exactly that Content-Type header.
func (i *Issuer) IssuePutAndGet(ctx context.Context, key, contentType string) (RoundTrip, error) {
	if contentType == "" {
		contentType = i.defaultContentType
	}

	signedAt := i.signTime()

	put, err := i.presign(ctx, SigningRequest{
		Method:      http.MethodPut,
		Key:         key,
		ContentType: contentType,
		Expires:     i.ttl,
		SignTime:    signedAt,
	})
	if err != nil {
		return RoundTrip{}, err
	}

	get, err := i.presign(ctx, SigningRequest{
		Method:   http.MethodGet,
		Key:      key,
		Expires:  i.ttl,
		SignTime: signedAt,
	})
	if err != nil {
		return RoundTrip{}, err
	}

	return RoundTrip{
		Key:         key,
		ContentType: contentType,
		PutURL:      put.URL,
		GetURL:      get.URL,
		ExpiresIn:   i.ttl,
	}, nil
}

// IssueGet issues a GET URL for key.
func (i *Issuer) IssueGet(ctx context.Context, key string) (PresignedURL, error) {
	return i.presign(ctx, SigningRequest{
		Method:   http.MethodGet,
		Key:      key,
		Expires:  i.ttl,
		SignTime: i.signTime(),
	})
}

func (i *Issuer) signTime() time.Time {
	return i.now().UTC().Truncate(time.Second)
}

func (i *Issuer) presign(ctx context.Context, req SigningRequest) (PresignedURL, error) {
	if err := req.Validate(); err != nil {
		i.observer.ObserveFailure("invalid_input")
		return PresignedURL{}, fmt.Errorf("presign %s: %w", req.Method, err)
	}

	u, err := i.signer.Presign(ctx, req)
	if err == nil && u.URL == "" {
		err = errEmptyURL
	}
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			i.observer.ObserveFailure("invalid_input")
			return PresignedURL{}, fmt.Errorf("presign %s: %w", req.Method, err)
		}
		i.observer.ObserveFailure("signing")
		slog.Error("presign failed", "method", req.Method, "key", req.Key, "err", err)
		return PresignedURL{}, fmt.Errorf("presign %s: %w: %w", req.Method, ErrSigning, err)
	}

	i.observer.ObserveIssued(req.Method)
	slog.Debug("presigned url issued", "method", req.Method, "key", req.Key, "expires_in", req.Expires)

	return u, nil
}
