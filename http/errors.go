package http

import "errors"

// ErrInvalidRequest is returned when a request body cannot be decoded or
// fails validation.
var ErrInvalidRequest = errors.New("invalid request")
