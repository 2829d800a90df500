package ports

import (
	"context"
	"net/http"

	"github.com/openhms/hms-portal/internal/core/domain"
)

// RequestSession is the per-request session capability handed to every
// operation that talks to the upstream on behalf of the user.
type RequestSession interface {
	Store() CredentialStore
	// Headers returns what an authenticated upstream call must carry, or
	// domain.ErrMissingSession when there is no token.
	Headers() (http.Header, error)
	// HeadersFor builds the same header set for a token not yet stored.
	HeadersFor(token string) http.Header
	// Fingerprint identifies the current token without revealing it.
	Fingerprint() string
	// Check applies the session-expiry rule to err and returns it unchanged.
	Check(err error) error
	Expired() bool
}

// AuthService logs users in and out.
type AuthService interface {
	Login(ctx context.Context, rs RequestSession, username, password string) (*domain.Session, error)
	// Logout always clears the local session; the error reports whether
	// the upstream session was invalidated too.
	Logout(ctx context.Context, rs RequestSession) error
}

// LocationDirectory lists the locations a user may work at.
type LocationDirectory interface {
	LoginLocations(ctx context.Context, rs RequestSession) ([]domain.Location, error)
}

// SessionContext composes the per-page session snapshot.
//
// The returned snapshot is always usable. err is nil exactly when the
// snapshot is authenticated; otherwise it says why the session could not be
// resolved, so callers can tell an expired session from an upstream outage.
type SessionContext interface {
	Snapshot(ctx context.Context, rs RequestSession) (domain.SessionSnapshot, error)
}
