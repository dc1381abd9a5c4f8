package presignd

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrSigning is returned when the signing backend fails to produce a URL
	ErrSigning = errors.New("signing failed")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConfig is returned when credentials or bucket identity are missing or malformed
	ErrConfig = errors.New("invalid configuration")
)
