package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuthEventType names what happened to a session.
type AuthEventType string

const (
	EventLoginSucceeded AuthEventType = "login_succeeded"
	EventLoginFailed    AuthEventType = "login_failed"
	EventLoggedOut      AuthEventType = "logged_out"
	EventSessionExpired AuthEventType = "session_expired"
)

// AuthEvent is an audit record of a session lifecycle change. The raw
// token is never stored, only its fingerprint.
type AuthEvent struct {
	ID               string        `json:"id"`
	Type             AuthEventType `json:"type"`
	Username         string        `json:"username,omitempty"`
	TokenFingerprint string        `json:"token_fingerprint,omitempty"`
	Path             string        `json:"path,omitempty"`
	Detail           string        `json:"detail,omitempty"`
	At               time.Time     `json:"at"`
}

// NewAuthEvent stamps a new event with an id and the current time.
func NewAuthEvent(t AuthEventType, fingerprint string) AuthEvent {
	return AuthEvent{
		ID:               uuid.NewString(),
		Type:             t,
		TokenFingerprint: fingerprint,
		At:               time.Now().UTC(),
	}
}
