package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/openhms/hms-portal/internal/core/domain"
	"github.com/openhms/hms-portal/internal/core/ports"
	"github.com/openhms/hms-portal/internal/core/service"
	"github.com/openhms/hms-portal/internal/infrastructure/cookie"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (s *recordingSink) Enqueue(ev domain.AuthEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func newSessionEcho(sink ports.AuditSink, h echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	g := e.Group("/api", Session(SessionConfig{
		Cookie:   cookie.Options{Name: testCookie},
		Upstream: service.HeaderConfig{Mode: service.HeaderModeCookie},
		Audit:    sink,
		Log:      zerolog.Nop(),
	}))
	g.GET("/data", h)
	return e
}

// upstreamCall stands in for an OpenMRS call that rejects the token.
func upstreamCall(rs *service.RequestSession) error {
	if _, err := rs.Headers(); err != nil {
		return rs.Check(err)
	}
	return rs.Check(&domain.UpstreamError{Op: "test", StatusCode: http.StatusUnauthorized, Err: domain.ErrUpstreamUnauthorized})
}

func TestSession_ConcurrentUnauthorizedRedirectsOnce(t *testing.T) {
	sink := &recordingSink{}
	e := newSessionEcho(sink, func(c echo.Context) error {
		rs := RequestSessionFrom(c)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = upstreamCall(rs)
			}()
		}
		wg.Wait()
		if rs.Expired() {
			return rs.Cause()
		}
		return c.String(http.StatusOK, "unreachable")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "stale"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if locs := rec.Header().Values(echo.HeaderLocation); len(locs) != 1 || locs[0] != LoginPath {
		t.Fatalf("expected exactly one redirect to %s, got %v", LoginPath, locs)
	}

	var cleared int
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == testCookie {
			if ck.MaxAge >= 0 {
				t.Fatalf("expected cookie deletion, got %+v", ck)
			}
			cleared++
		}
	}
	if cleared != 1 {
		t.Fatalf("expected the cookie to be cleared once, got %d", cleared)
	}
	if n := sink.count(); n != 1 {
		t.Fatalf("expected one session_expired audit event, got %d", n)
	}
}

func TestSession_HandlerReturningFatalErrorRedirects(t *testing.T) {
	e := newSessionEcho(nil, func(c echo.Context) error {
		return fmt.Errorf("load patients: %w", domain.ErrUpstreamUnauthorized)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "stale"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != LoginPath {
		t.Fatalf("expected redirect to login, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
}

func TestSession_PageLocalErrorPassesThrough(t *testing.T) {
	pageErr := fmt.Errorf("%w: boom", domain.ErrUpstream)
	var got error

	e := newSessionEcho(nil, func(c echo.Context) error {
		return RequestSessionFrom(c).Check(pageErr)
	})
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		got = err
		_ = c.NoContent(http.StatusBadGateway)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "tok"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if !errors.Is(got, domain.ErrUpstream) {
		t.Fatalf("expected page-local error to reach the error handler, got %v", got)
	}
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if sessionCookie(rec) != nil {
		t.Fatal("page-local errors must not clear the session")
	}
}

type stubSessions struct {
	mu    sync.Mutex
	calls int
	snap  domain.SessionSnapshot
	err   error
}

func (s *stubSessions) Snapshot(_ context.Context, rs ports.RequestSession) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		rs.Check(s.err)
	}
	return s.snap, s.err
}

func TestSnapshotter_ComposesOncePerRequest(t *testing.T) {
	sessions := &stubSessions{snap: domain.SessionSnapshot{
		Loaded: true, Authenticated: true, Privileges: domain.NewPrivilegeSet("View Patients"),
	}}
	snaps := NewSnapshotter(sessions, nil)

	e := newSessionEcho(nil, func(c echo.Context) error {
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = snaps.For(c)
			}()
		}
		wg.Wait()
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "tok"})
	e.ServeHTTP(httptest.NewRecorder(), req)

	if sessions.calls != 1 {
		t.Fatalf("expected one composition, got %d", sessions.calls)
	}
}

func TestSnapshotter_AppliesLocationCookie(t *testing.T) {
	sessions := &stubSessions{snap: domain.SessionSnapshot{
		Loaded: true, Authenticated: true,
		Location: &domain.Location{UUID: "upstream", Display: "Upstream Ward"},
	}}
	locs := cookie.NewLocationCookie("hms_location", "secret", false)
	snaps := NewSnapshotter(sessions, locs)

	// Mint a location cookie bound to the fingerprint of "tok".
	e0 := echo.New()
	mintRec := httptest.NewRecorder()
	if err := locs.Write(e0.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), mintRec), cookie.Fingerprint("tok"),
		domain.Location{UUID: "picked", Display: "Outpatient"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var got domain.SessionSnapshot
	e := newSessionEcho(nil, func(c echo.Context) error {
		got = snaps.For(c)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "tok"})
	for _, ck := range mintRec.Result().Cookies() {
		req.AddCookie(ck)
	}
	e.ServeHTTP(httptest.NewRecorder(), req)

	if got.Location == nil || got.Location.UUID != "picked" {
		t.Fatalf("expected cookie location to win, got %+v", got.Location)
	}
}

func TestSnapshotter_ResolveKeepsPageLocalCause(t *testing.T) {
	cause := &domain.UpstreamError{Op: "user_privileges", StatusCode: http.StatusInternalServerError, Err: domain.ErrUpstream}
	sessions := &stubSessions{snap: domain.AnonymousSnapshot(), err: cause}
	snaps := NewSnapshotter(sessions, nil)

	var (
		first, second error
		expired       bool
	)
	e := newSessionEcho(nil, func(c echo.Context) error {
		_, first = snaps.Resolve(c)
		_, second = snaps.Resolve(c)
		expired = RequestSessionFrom(c).Expired()
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "tok"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if !errors.Is(first, domain.ErrUpstream) || !errors.Is(second, domain.ErrUpstream) {
		t.Fatalf("expected the upstream cause on every call, got %v and %v", first, second)
	}
	if sessions.calls != 1 {
		t.Fatalf("expected one composition, got %d", sessions.calls)
	}
	if expired {
		t.Fatal("a page-local failure must not expire the session")
	}
	if sessionCookie(rec) != nil {
		t.Fatal("a page-local failure must not touch the session cookie")
	}
}
