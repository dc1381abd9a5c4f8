// Package minio signs presigned URLs with minio-go.
package minio

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sagarc03/presignd"
)

// Config options for the minio-go signer.
type Config struct {
	Endpoint     string // Base URL, e.g. https://<account>.r2.cloudflarestorage.com
	Bucket       string
	Region       string
	Credential   presignd.Credential
	UsePathStyle bool
}

// Signer implements presignd.Signer on top of minio.Client.PresignHeader.
//
// minio-go always stamps the current time, so SigningRequest.SignTime is
// ignored and the returned SignedAt is read back from the URL.
type Signer struct {
	client *miniogo.Client
	bucket string
}

// New creates a Signer. Because the region is fixed the client never
// performs a bucket location lookup.
func New(cfg Config) (*Signer, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("endpoint %q has no host: %w", cfg.Endpoint, presignd.ErrConfig)
	}
	if strings.Trim(u.Path, "/") != "" {
		return nil, fmt.Errorf("endpoint %q must not have a path: %w", cfg.Endpoint, presignd.ErrConfig)
	}

	lookup := miniogo.BucketLookupDNS
	if cfg.UsePathStyle {
		lookup = miniogo.BucketLookupPath
	}

	client, err := miniogo.New(u.Host, &miniogo.Options{
		Creds:        credentials.NewStaticV4(cfg.Credential.AccessKeyID, cfg.Credential.SecretKey, ""),
		Secure:       u.Scheme != "http",
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Signer{client: client, bucket: cfg.Bucket}, nil
}

// Presign returns a URL authorizing exactly req.Method on req.Key.
func (s *Signer) Presign(ctx context.Context, req presignd.SigningRequest) (presignd.PresignedURL, error) {
	var headers http.Header

	switch req.Method {
	case http.MethodPut:
		headers = http.Header{}
		headers.Set("Content-Type", req.ContentType)
	case http.MethodGet:
	default:
		return presignd.PresignedURL{}, fmt.Errorf("unsupported method %q: %w", req.Method, presignd.ErrInvalidInput)
	}

	u, err := s.client.PresignHeader(ctx, req.Method, s.bucket, req.Key, req.Expires, url.Values{}, headers)
	if err != nil {
		return presignd.PresignedURL{}, err
	}

	raw := u.String()
	signedAt, err := presignd.ParseSignedAt(raw)
	if err != nil {
		return presignd.PresignedURL{}, err
	}

	return presignd.PresignedURL{
		URL:       raw,
		Method:    req.Method,
		ExpiresIn: req.Expires,
		SignedAt:  signedAt.Truncate(time.Second),
	}, nil
}
