// Package camlerrors defines the shared error taxonomy used across the
// client and server: a closed set of sentinel kinds that every layer wraps
// with context instead of inventing ad-hoc error strings.
package camlerrors

import "errors"

// Sentinel kinds. Callers compare with errors.Is; wrapping with
// fmt.Errorf("...: %w", err) preserves the match.
var (
	ErrNotInitialized = errors.New("not initialized")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrServerError    = errors.New("server error")
	ErrTimeout        = errors.New("request timed out")
	ErrFileExisted    = errors.New("file already exists")
	ErrFileNotFound   = errors.New("file not found")
	ErrMalformedDiff  = errors.New("malformed diff")
	ErrInvalidArgument = errors.New("invalid argument")
)
