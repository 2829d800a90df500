package ports

import (
	"context"
	"net/http"

	"github.com/openhms/hms-portal/internal/core/domain"
)

// UserPrivileges is the flattened privilege view of a user.
type UserPrivileges struct {
	UserUUID   string
	Roles      []domain.Role
	Privileges []string
}

// ClinicalAPI is the upstream system of record the portal authenticates against.
type ClinicalAPI interface {
	// CreateSession exchanges credentials for a session token.
	CreateSession(ctx context.Context, username, password string) (string, error)
	// DeleteSession invalidates the session identified by headers.
	DeleteSession(ctx context.Context, headers http.Header) error
	// CurrentSession is the "who am I" call.
	CurrentSession(ctx context.Context, headers http.Header) (*domain.Session, error)
	// UserPrivileges returns the privileges granted to userUUID directly or through roles.
	UserPrivileges(ctx context.Context, headers http.Header, userUUID string) (*UserPrivileges, error)
	// LoginLocations lists the locations a user may pick to work from.
	LoginLocations(ctx context.Context, headers http.Header) ([]domain.Location, error)
	// Ping checks the upstream is reachable without credentials.
	Ping(ctx context.Context) error
}
