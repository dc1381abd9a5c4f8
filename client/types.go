package client

// UploadResult describes a completed PUT to a presigned URL.
type UploadResult struct {
	ContentType string `json:"content_type"`
	ETag        string `json:"etag,omitempty"`
	Size        int64  `json:"size_bytes"`
}

// DownloadResult describes a GET from a presigned URL.
type DownloadResult struct {
	ETag        string `json:"etag,omitempty"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// RoundTripResult is the outcome of UploadFile.
type RoundTripResult struct {
	Key         string `json:"key"`
	LocalPath   string `json:"local_path"`
	PutURL      string `json:"put_url"`
	GetURL      string `json:"get_url"`
	ExpiresIn   int    `json:"expires_in"`
	ContentType string `json:"content_type"`
	ETag        string `json:"etag,omitempty"`
	Size        int64  `json:"size_bytes"`
	Verified    bool   `json:"verified"`
}

// IssueResult is a set of URLs issued for one key. PutURL is empty for
// GET-only issuance.
type IssueResult struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type,omitempty"`
	PutURL      string `json:"put_url,omitempty"`
	GetURL      string `json:"get_url"`
	ExpiresIn   int    `json:"expires_in"`
}
