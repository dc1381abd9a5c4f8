package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	presignhttp "github.com/sagarc03/presignd/http"
)

// Errors for configuration and input validation.
var (
	ErrEndpointRequired = errors.New("endpoint is required")
	ErrInvalidEndpoint  = errors.New("invalid endpoint")
	ErrEmptyPath        = errors.New("path is required")
)

// APIError represents an error response from presignd or the storage provider.
type APIError struct {
	StatusCode int
	// Code and Message are set when the body is a presignd JSON error.
	Code    string
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " " + e.Code + ": " + e.Message
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrBadRequest is returned when the server rejects the key or body (400).
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}

	// ErrForbidden is returned when a presigned URL is rejected (403),
	// e.g. expired, tampered or sent with the wrong Content-Type.
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}

	// ErrNotFound is returned when the requested object does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}
)

func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Body: string(body)}

	var e presignhttp.ErrorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		apiErr.Code = e.Error
		apiErr.Message = e.Message
	}
	return apiErr
}
