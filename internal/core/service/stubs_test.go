package service

import (
	"context"
	"net/http"
	"sync"

	"github.com/openhms/hms-portal/internal/core/domain"
	"github.com/openhms/hms-portal/internal/core/ports"
)

// memoryStore is a CredentialStore that records every mutation.
type memoryStore struct {
	token  string
	sets   int
	clears int
}

func (m *memoryStore) Token() (string, bool) { return m.token, m.token != "" }

func (m *memoryStore) SetToken(t string) {
	m.token = t
	m.sets++
}

func (m *memoryStore) ClearToken() {
	m.token = ""
	m.clears++
}

func fingerprint(token string) string {
	if token == "" {
		return ""
	}
	return "fp-" + token
}

func newRS(store *memoryStore) *RequestSession {
	return NewRequestSession(store, HeaderConfig{Mode: HeaderModeCookie}, fingerprint)
}

type stubClinical struct {
	createFn     func(ctx context.Context, username, password string) (string, error)
	deleteFn     func(ctx context.Context, h http.Header) error
	currentFn    func(ctx context.Context, h http.Header) (*domain.Session, error)
	privilegesFn func(ctx context.Context, h http.Header, userUUID string) (*ports.UserPrivileges, error)
	locationsFn  func(ctx context.Context, h http.Header) ([]domain.Location, error)

	mu      sync.Mutex
	deleted []http.Header
}

func (s *stubClinical) CreateSession(ctx context.Context, u, p string) (string, error) {
	return s.createFn(ctx, u, p)
}

func (s *stubClinical) DeleteSession(ctx context.Context, h http.Header) error {
	s.mu.Lock()
	s.deleted = append(s.deleted, h)
	s.mu.Unlock()
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, h)
}

func (s *stubClinical) CurrentSession(ctx context.Context, h http.Header) (*domain.Session, error) {
	return s.currentFn(ctx, h)
}

func (s *stubClinical) UserPrivileges(ctx context.Context, h http.Header, uuid string) (*ports.UserPrivileges, error) {
	return s.privilegesFn(ctx, h, uuid)
}

func (s *stubClinical) LoginLocations(ctx context.Context, h http.Header) ([]domain.Location, error) {
	return s.locationsFn(ctx, h)
}

func (s *stubClinical) Ping(context.Context) error { return nil }

type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (r *recordingSink) Enqueue(ev domain.AuthEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) types() []domain.AuthEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuthEventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}
