package presignd

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureAlgorithm = "AWS4-HMAC-SHA256"
	MaxExpiresSeconds  = 604800 // 7 days
	MaxExpires         = MaxExpiresSeconds * time.Second
	DateTimeFormat     = "20060102T150405Z"
	DateFormat         = "20060102"
	UnsignedPayload    = "UNSIGNED-PAYLOAD"

	scopeTerminator = "aws4_request"
)

// SecretStore resolves the secret key for an access key id.
type SecretStore interface {
	Lookup(accessKey string) (secretKey string, err error)
}

// SignatureVerifier checks SigV4 query-string signatures the way an
// S3-compatible provider does. The development backend and the tests use it
// to prove that issued URLs are accepted and that their bindings hold.
type SignatureVerifier struct {
	Region  string
	Service string
	Store   SecretStore
	// Clock returns the current time; defaults to time.Now.
	Clock func() time.Time
}

// NewSignatureVerifier creates a verifier for region and service
// ("auto" and "s3" for R2).
func NewSignatureVerifier(region, service string, store SecretStore) *SignatureVerifier {
	return &SignatureVerifier{
		Region:  region,
		Service: service,
		Store:   store,
		Clock:   time.Now,
	}
}

// Verify accepts r only if its X-Amz-* query parameters carry a valid,
// unexpired signature over r's method, escaped path, query and signed
// headers. A URL is still valid at exactly X-Amz-Date + X-Amz-Expires.
//
// The path must reach the verifier exactly as the signer encoded it. The
// "host" header is taken from r.Host.
//
// Every rejection wraps ErrUnauthorized.
func (v *SignatureVerifier) Verify(r *http.Request) error {
	p, err := parsePresignedQuery(r.URL.Query())
	if err != nil {
		return err
	}

	if err := v.checkValidity(p); err != nil {
		return err
	}

	secretKey, err := v.Store.Lookup(p.scope.accessKey)
	if err != nil {
		return fmt.Errorf("lookup access key: %w", err)
	}

	headers := r.Header.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	headers.Set("Host", r.Host)

	creq := canonicalRequest(r.Method, canonicalURI(r.URL), p, headers)
	want := hex.EncodeToString(hmacSHA256(p.scope.signingKey(secretKey), []byte(stringToSign(p, creq))))

	if !hmac.Equal([]byte(want), []byte(p.signature)) {
		return fmt.Errorf("signature mismatch: %w", ErrUnauthorized)
	}

	return nil
}

func (v *SignatureVerifier) now() time.Time {
	if v.Clock == nil {
		return time.Now()
	}
	return v.Clock()
}

func (v *SignatureVerifier) checkValidity(p presignedQuery) error {
	if p.algorithm != SignatureAlgorithm {
		return fmt.Errorf("invalid algorithm: expected %s, got %s: %w", SignatureAlgorithm, p.algorithm, ErrUnauthorized)
	}
	if v.now().After(p.signedAt.Add(p.expires)) {
		return fmt.Errorf("signature expired: %w", ErrUnauthorized)
	}

	switch {
	case p.scope.date != p.signedAt.Format(DateFormat):
		return fmt.Errorf("credential date mismatch: %w", ErrUnauthorized)
	case p.scope.region != v.Region:
		return fmt.Errorf("region mismatch: expected %s, got %s: %w", v.Region, p.scope.region, ErrUnauthorized)
	case p.scope.service != v.Service:
		return fmt.Errorf("service mismatch: expected %s, got %s: %w", v.Service, p.scope.service, ErrUnauthorized)
	}
	return nil
}

// credentialScope is the parsed X-Amz-Credential value.
type credentialScope struct {
	accessKey string
	date      string
	region    string
	service   string
}

func (c credentialScope) String() string {
	return strings.Join([]string{c.date, c.region, c.service, scopeTerminator}, "/")
}

// signingKey chains HMACs over the scope, starting from "AWS4"+secret.
func (c credentialScope) signingKey(secretKey string) []byte {
	key := []byte("AWS4" + secretKey)
	for _, part := range []string{c.date, c.region, c.service, scopeTerminator} {
		key = hmacSHA256(key, []byte(part))
	}
	return key
}

// presignedQuery holds the authentication parameters of a presigned URL.
type presignedQuery struct {
	algorithm     string
	scope         credentialScope
	signedAt      time.Time
	expires       time.Duration
	signedHeaders string
	signature     string
	payloadHash   string
	query         url.Values
}

func parsePresignedQuery(q url.Values) (presignedQuery, error) {
	required := []string{
		"X-Amz-Algorithm",
		"X-Amz-Credential",
		"X-Amz-Date",
		"X-Amz-Expires",
		"X-Amz-SignedHeaders",
		"X-Amz-Signature",
	}
	for _, name := range required {
		if q.Get(name) == "" {
			return presignedQuery{}, fmt.Errorf("missing required signature parameters: %w", ErrUnauthorized)
		}
	}

	signedAt, err := time.Parse(DateTimeFormat, q.Get("X-Amz-Date"))
	if err != nil {
		return presignedQuery{}, fmt.Errorf("invalid X-Amz-Date format: %w", ErrUnauthorized)
	}

	seconds, err := strconv.Atoi(q.Get("X-Amz-Expires"))
	if err != nil || seconds < 1 || seconds > MaxExpiresSeconds {
		return presignedQuery{}, fmt.Errorf("invalid X-Amz-Expires: must be between 1 and %d: %w", MaxExpiresSeconds, ErrUnauthorized)
	}

	parts := strings.Split(q.Get("X-Amz-Credential"), "/")
	if len(parts) != 5 {
		return presignedQuery{}, fmt.Errorf("invalid X-Amz-Credential format: %w", ErrUnauthorized)
	}
	if parts[4] != scopeTerminator {
		return presignedQuery{}, fmt.Errorf("invalid credential terminator: expected %s: %w", scopeTerminator, ErrUnauthorized)
	}

	payloadHash := q.Get("X-Amz-Content-Sha256")
	if payloadHash == "" {
		payloadHash = UnsignedPayload
	}

	return presignedQuery{
		algorithm:     q.Get("X-Amz-Algorithm"),
		scope:         credentialScope{accessKey: parts[0], date: parts[1], region: parts[2], service: parts[3]},
		signedAt:      signedAt,
		expires:       time.Duration(seconds) * time.Second,
		signedHeaders: q.Get("X-Amz-SignedHeaders"),
		signature:     q.Get("X-Amz-Signature"),
		payloadHash:   payloadHash,
		query:         q,
	}, nil
}

// ParseSignedAt reads the X-Amz-Date of a presigned URL.
func ParseSignedAt(rawURL string) (time.Time, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse url: %w", err)
	}
	t, err := time.Parse(DateTimeFormat, u.Query().Get("X-Amz-Date"))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse X-Amz-Date: %w", err)
	}
	return t, nil
}

func canonicalURI(u *url.URL) string {
	if p := u.EscapedPath(); p != "" {
		return p
	}
	return "/"
}

func canonicalRequest(method, uri string, p presignedQuery, headers http.Header) string {
	return strings.Join([]string{
		method,
		uri,
		canonicalQuery(p.query),
		canonicalHeaders(headers, p.signedHeaders),
		p.signedHeaders,
		p.payloadHash,
	}, "\n")
}

func stringToSign(p presignedQuery, canonicalRequest string) string {
	sum := sha256.Sum256([]byte(canonicalRequest))
	return strings.Join([]string{
		SignatureAlgorithm,
		p.signedAt.Format(DateTimeFormat),
		p.scope.String(),
		hex.EncodeToString(sum[:]),
	}, "\n")
}

// canonicalQuery encodes every parameter but the signature, sorted by key,
// with spaces as %20.
func canonicalQuery(q url.Values) string {
	rest := make(url.Values, len(q))
	for k, v := range q {
		if k != "X-Amz-Signature" {
			rest[k] = v
		}
	}
	return strings.ReplaceAll(rest.Encode(), "+", "%20")
}

// canonicalHeaders renders "name:value\n" for each signed header in sorted
// order, with inner whitespace collapsed.
func canonicalHeaders(headers http.Header, signedHeaders string) string {
	names := strings.Split(signedHeaders, ";")
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		value := strings.Join(strings.Fields(strings.Join(headers.Values(name), ",")), " ")
		b.WriteString(name + ":" + value + "\n")
	}
	return b.String()
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
