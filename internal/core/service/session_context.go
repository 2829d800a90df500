package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openhms/hms-portal/internal/core/domain"
	"github.com/openhms/hms-portal/internal/core/ports"
)

// SessionContextProvider composes the session snapshot a page renders from.
type SessionContextProvider struct {
	api ports.ClinicalAPI
	log zerolog.Logger
}

func NewSessionContextProvider(api ports.ClinicalAPI, log zerolog.Logger) *SessionContextProvider {
	return &SessionContextProvider{api: api, log: log}
}

// Snapshot fetches the session details and then the user's privileges and
// joins them. Any error yields an anonymous snapshot together with the cause;
// session-fatal causes also expire the request session.
func (p *SessionContextProvider) Snapshot(ctx context.Context, rs ports.RequestSession) (domain.SessionSnapshot, error) {
	headers, err := rs.Headers()
	if err != nil {
		return p.anonymous(rs, "headers", err)
	}

	session, err := p.api.CurrentSession(ctx, headers)
	if err != nil {
		return p.anonymous(rs, "session", err)
	}
	if !session.Authenticated || session.User == nil {
		return p.anonymous(rs, "session", domain.ErrUpstreamUnauthorized)
	}

	privs, err := p.api.UserPrivileges(ctx, headers, session.User.UUID)
	if err != nil {
		return p.anonymous(rs, "privileges", err)
	}

	user := *session.User
	if len(privs.Roles) > 0 {
		user.Roles = privs.Roles
	}

	return domain.SessionSnapshot{
		Loaded:        true,
		Authenticated: true,
		User:          &user,
		Privileges:    domain.NewPrivilegeSet(privs.Privileges...),
		Location:      session.SessionLocation,
		Locale:        session.Locale,
	}, nil
}

func (p *SessionContextProvider) anonymous(rs ports.RequestSession, step string, err error) (domain.SessionSnapshot, error) {
	rs.Check(err)
	ev := p.log.Warn()
	if domain.IsSessionFatal(err) {
		ev = p.log.Debug()
	}
	ev.Err(err).Str("step", step).Str("session", rs.Fingerprint()).Msg("session snapshot unavailable")
	return domain.AnonymousSnapshot(), fmt.Errorf("session snapshot %s: %w", step, err)
}
