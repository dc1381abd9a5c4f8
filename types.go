package presignd

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTTL is how long issued URLs stay valid.
	DefaultTTL = 600 * time.Second
	// DefaultContentType is bound to PUT URLs when the caller names none.
	DefaultContentType = "video/mp4"
	// SigningRegion is the region R2 expects in the credential scope.
	SigningRegion = "auto"
	// SigningService is the service name in the credential scope.
	SigningService = "s3"
)

// Credential is the long-lived key pair used to sign URLs.
// It redacts the secret when printed or logged.
type Credential struct {
	AccessKeyID string
	SecretKey   string
}

// Validate checks that both halves of the key pair are present.
func (c Credential) Validate() error {
	if strings.TrimSpace(c.AccessKeyID) == "" {
		return fmt.Errorf("access key id is required: %w", ErrConfig)
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("secret key is required: %w", ErrConfig)
	}
	return nil
}

func (c Credential) String() string {
	return fmt.Sprintf("Credential{AccessKeyID: %s, SecretKey: ***}", c.AccessKeyID)
}

func (c Credential) GoString() string {
	return c.String()
}

// LogValue implements slog.LogValuer.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("access_key_id", c.AccessKeyID),
		slog.String("secret_key", "***"),
	)
}

// Bucket identifies the target bucket of a deployment.
type Bucket struct {
	AccountID string
	Name      string
	// Endpoint overrides the R2 endpoint derived from AccountID.
	Endpoint string
}

// EndpointURL returns the base URL of the storage provider.
func (b Bucket) EndpointURL() string {
	if b.Endpoint != "" {
		return strings.TrimSuffix(b.Endpoint, "/")
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", b.AccountID)
}

// Validate checks that the bucket can be addressed.
func (b Bucket) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("bucket name is required: %w", ErrConfig)
	}
	if b.AccountID == "" && b.Endpoint == "" {
		return fmt.Errorf("account id or endpoint is required: %w", ErrConfig)
	}
	return nil
}

// SigningRequest describes the single operation a URL authorizes.
type SigningRequest struct {
	Method      string
	Key         string
	ContentType string
	Expires     time.Duration
	// SignTime pins the X-Amz-Date of the signature. Zero means now.
	SignTime time.Time
}

// Validate checks the request before it reaches a signer.
func (r SigningRequest) Validate() error {
	switch r.Method {
	case http.MethodGet, http.MethodPut:
	default:
		return fmt.Errorf("unsupported method %q: %w", r.Method, ErrInvalidInput)
	}

	if !IsValidKey(r.Key) {
		return fmt.Errorf("invalid key %q: %w", r.Key, ErrInvalidInput)
	}

	if r.Method == http.MethodPut && r.ContentType == "" {
		return fmt.Errorf("put requires a content type: %w", ErrInvalidInput)
	}

	if r.Expires < time.Second || r.Expires > MaxExpires {
		return fmt.Errorf("expires must be between 1s and %s: %w", MaxExpires, ErrInvalidInput)
	}

	return nil
}

// PresignedURL is an issued authorization. The server keeps no record of it.
type PresignedURL struct {
	URL       string
	Method    string
	ExpiresIn time.Duration
	SignedAt  time.Time
}

// ExpiresAt returns the instant after which verifiers reject the URL.
func (p PresignedURL) ExpiresAt() time.Time {
	return p.SignedAt.Add(p.ExpiresIn)
}

// RoundTrip is a PUT and GET pair for the same object, expiring together.
type RoundTrip struct {
	Key         string
	ContentType string
	PutURL      string
	GetURL      string
	ExpiresIn   time.Duration
}

var errEmptyURL = errors.New("signer returned an empty url")
