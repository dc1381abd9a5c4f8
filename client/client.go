package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	presignhttp "github.com/sagarc03/presignd/http"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client talks to a presignd server and to the URLs it issues.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a Client for the presignd server at endpoint.
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}

	c := &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// PresignPut asks the server for a PUT and GET URL pair for key. An empty
// contentType lets the server apply its default.
func (c *Client) PresignPut(ctx context.Context, key, contentType string) (presignhttp.PresignPutResponse, error) {
	var out presignhttp.PresignPutResponse
	err := c.postJSON(ctx, "/presign-put", presignhttp.PresignPutRequest{Key: key, ContentType: contentType}, &out)
	return out, err
}

// PresignGet asks the server for a GET URL for key.
func (c *Client) PresignGet(ctx context.Context, key string) (presignhttp.PresignGetResponse, error) {
	var out presignhttp.PresignGetResponse
	err := c.postJSON(ctx, "/presign-get", presignhttp.PresignGetRequest{Key: key}, &out)
	return out, err
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseServerError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// Upload PUTs body to a presigned URL. contentType must be the one the URL
// was issued for. When body is an *os.File or an in-memory reader its size
// is sent as Content-Length.
func (c *Client) Upload(ctx context.Context, putURL, contentType string, body io.Reader) (*UploadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, putURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	if f, ok := body.(*os.File); ok {
		info, statErr := f.Stat()
		if statErr != nil {
			return nil, fmt.Errorf("stat file: %w", statErr)
		}
		req.ContentLength = info.Size()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, parseServerError(resp.StatusCode, respBody)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return &UploadResult{
		ContentType: contentType,
		ETag:        strings.Trim(resp.Header.Get("ETag"), `"`),
		Size:        req.ContentLength,
	}, nil
}

// Download GETs a presigned URL. The returned body must be closed by the caller.
func (c *Client) Download(ctx context.Context, getURL string) (*DownloadResult, io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, getURL, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	return &DownloadResult{
		ETag:        strings.Trim(resp.Header.Get("ETag"), `"`),
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}, resp.Body, nil
}

// UploadFile presigns key, uploads the file at localPath and returns both
// URLs. An empty key is derived from localPath and an empty contentType is
// detected from the file extension.
func (c *Client) UploadFile(ctx context.Context, localPath, key, contentType string) (*RoundTripResult, error) {
	if localPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}
	if key == "" {
		key = NormalizeLocalToRemotePath(localPath)
	}
	if contentType == "" {
		contentType = DetectContentType(localPath)
	}

	file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	urls, err := c.PresignPut(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	up, err := c.Upload(ctx, urls.PutURL, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	return &RoundTripResult{
		Key:         urls.Key,
		LocalPath:   localPath,
		PutURL:      urls.PutURL,
		GetURL:      urls.GetURL,
		ExpiresIn:   urls.ExpiresIn,
		ContentType: contentType,
		ETag:        up.ETag,
		Size:        up.Size,
	}, nil
}

// NormalizeLocalToRemotePath converts a local path to a clean object key.
// It handles:
//   - Leading "./" is stripped (./foo/bar.mp4 -> foo/bar.mp4)
//   - Leading "/" is stripped (/abs/path/file.mp4 -> abs/path/file.mp4)
//   - Parent traversal is resolved (../sibling/file.mp4 -> sibling/file.mp4)
//   - Backslashes are converted to forward slashes (Windows)
func NormalizeLocalToRemotePath(localPath string) string {
	p := filepath.ToSlash(filepath.Clean(filepath.ToSlash(localPath)))
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")

	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}

	if p == ".." || p == "." {
		return ""
	}
	return p
}

// DetectContentType returns a MIME type based on file extension.
func DetectContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "application/octet-stream"
	}

	// Video types are missing from some platform MIME tables.
	switch ext {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	}

	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}
