package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openhms/hms-portal/internal/core/domain"
	"github.com/openhms/hms-portal/internal/core/ports"
)

// AuthService implements login and logout against the clinical API.
type AuthService struct {
	api   ports.ClinicalAPI
	audit ports.AuditSink
	log   zerolog.Logger
}

func NewAuthService(api ports.ClinicalAPI, audit ports.AuditSink, log zerolog.Logger) *AuthService {
	return &AuthService{api: api, audit: audit, log: log}
}

// Login exchanges credentials for a session token and stores it only once
// the follow-up identity call has confirmed the session.
func (s *AuthService) Login(ctx context.Context, rs ports.RequestSession, username, password string) (*domain.Session, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.api.CreateSession(ctx, username, password)
	if err != nil {
		s.record(domain.EventLoginFailed, username, "", err)
		return nil, loginError(err)
	}

	headers := rs.HeadersFor(token)
	session, err := s.api.CurrentSession(ctx, headers)
	if err == nil && (session == nil || !session.Authenticated) {
		err = domain.ErrInvalidCredentials
	}
	if err != nil {
		if delErr := s.api.DeleteSession(ctx, headers); delErr != nil {
			s.log.Warn().Err(delErr).Msg("failed to discard unconfirmed upstream session")
		}
		s.record(domain.EventLoginFailed, username, "", err)
		return nil, loginError(err)
	}

	rs.Store().SetToken(token)
	session.Token = token

	s.record(domain.EventLoginSucceeded, username, rs.Fingerprint(), nil)
	s.log.Info().Str("username", username).Str("session", rs.Fingerprint()).Msg("user logged in")
	return session, nil
}

// Logout invalidates the session upstream on a best-effort basis and
// always clears the local token. The returned error only reports the
// upstream outcome; the local session is gone either way.
func (s *AuthService) Logout(ctx context.Context, rs ports.RequestSession) error {
	fp := rs.Fingerprint()
	var err error
	if headers, herr := rs.Headers(); herr == nil {
		if err = s.api.DeleteSession(ctx, headers); err != nil {
			s.log.Warn().Err(err).Str("session", fp).Msg("upstream logout failed, clearing local session anyway")
		}
	}
	rs.Store().ClearToken()

	if fp != "" {
		s.record(domain.EventLoggedOut, "", fp, err)
	}
	return err
}

func (s *AuthService) record(t domain.AuthEventType, username, fingerprint string, cause error) {
	if s.audit == nil {
		return
	}
	ev := domain.NewAuthEvent(t, fingerprint)
	ev.Username = username
	if cause != nil {
		ev.Detail = cause.Error()
	}
	s.audit.Enqueue(ev)
}

// loginError collapses upstream failures into the login taxonomy.
func loginError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUpstreamUnauthorized):
		return domain.ErrInvalidCredentials
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return domain.ErrUpstreamUnavailable
	default:
		return fmt.Errorf("login: %w", err)
	}
}
