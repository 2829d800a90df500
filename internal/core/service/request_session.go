package service

import (
	"net/http"
	"sync"

	"github.com/openhms/hms-portal/internal/core/domain"
	"github.com/openhms/hms-portal/internal/core/ports"
)

// HeaderMode selects how the session token is presented upstream.
type HeaderMode string

const (
	HeaderModeCookie HeaderMode = "cookie"
	HeaderModeBearer HeaderMode = "bearer"
)

// HeaderConfig describes the header set the upstream expects.
type HeaderConfig struct {
	Mode HeaderMode
	// CookieName is the upstream session cookie, used in cookie mode.
	CookieName string
}

// RequestSession is the session capability of one incoming request. It is
// safe for concurrent use by the calls a single page load fans out.
type RequestSession struct {
	store       ports.CredentialStore
	headers     HeaderConfig
	fingerprint func(string) string

	mu      sync.Mutex
	expired bool
	cause   error
}

// NewRequestSession binds a store to the upstream header configuration.
// fingerprint maps a token to a loggable identifier.
func NewRequestSession(store ports.CredentialStore, headers HeaderConfig, fingerprint func(string) string) *RequestSession {
	if headers.CookieName == "" {
		headers.CookieName = "JSESSIONID"
	}
	return &RequestSession{store: store, headers: headers, fingerprint: fingerprint}
}

func (r *RequestSession) Store() ports.CredentialStore { return r.store }

// Headers returns the header set for an authenticated upstream call.
func (r *RequestSession) Headers() (http.Header, error) {
	token, ok := r.store.Token()
	if !ok {
		return nil, domain.ErrMissingSession
	}
	return r.HeadersFor(token), nil
}

// HeadersFor builds the upstream header set for token.
func (r *RequestSession) HeadersFor(token string) http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	switch r.headers.Mode {
	case HeaderModeBearer:
		h.Set("Authorization", "Bearer "+token)
	default:
		h.Set("Cookie", (&http.Cookie{Name: r.headers.CookieName, Value: token}).String())
	}
	return h
}

func (r *RequestSession) Fingerprint() string {
	token, _ := r.store.Token()
	if r.fingerprint == nil {
		return ""
	}
	return r.fingerprint(token)
}

// Check marks the session expired when err is session-fatal. Only the
// first fatal error is kept as the cause. err is returned as is.
func (r *RequestSession) Check(err error) error {
	if err == nil || !domain.IsSessionFatal(err) {
		return err
	}
	r.mu.Lock()
	if !r.expired {
		r.expired = true
		r.cause = err
	}
	r.mu.Unlock()
	return err
}

func (r *RequestSession) Expired() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expired
}

// Cause is the first session-fatal error seen, or nil.
func (r *RequestSession) Cause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cause
}
