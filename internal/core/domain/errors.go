package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSession means no session token was present when one was required.
	ErrMissingSession = errors.New("missing session")
	// ErrInvalidCredentials means the upstream rejected a login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUpstreamUnauthorized means an authenticated upstream call returned 401 or 403.
	ErrUpstreamUnauthorized = errors.New("upstream rejected session")
	// ErrUpstream covers every other upstream failure.
	ErrUpstream = errors.New("upstream request failed")
	// ErrUpstreamUnavailable is a transport-level failure reaching the upstream.
	ErrUpstreamUnavailable = fmt.Errorf("%w: upstream unreachable", ErrUpstream)
	// ErrEmptyResponse means the upstream answered 2xx without a usable body.
	ErrEmptyResponse = errors.New("empty upstream response")

	ErrForbidden        = errors.New("access forbidden")
	ErrLocationRequired = errors.New("clinical location required")
)

// UpstreamError carries the status code of a failed upstream call.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsSessionFatal reports whether err means the user has to log in again.
func IsSessionFatal(err error) bool {
	return errors.Is(err, ErrMissingSession) || errors.Is(err, ErrUpstreamUnauthorized)
}
