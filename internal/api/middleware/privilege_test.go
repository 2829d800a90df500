package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/openhms/hms-portal/internal/core/domain"
)

// serveGated runs gate in front of a handler that answers 200 and returns
// the error that reached the echo error handler, if any.
func serveGated(t *testing.T, gate echo.MiddlewareFunc) (called bool, got error, rec *httptest.ResponseRecorder) {
	t.Helper()
	e := newSessionEcho(nil, func(c echo.Context) error {
		return gate(func(c echo.Context) error {
			called = true
			return c.NoContent(http.StatusOK)
		})(c)
	})
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		got = err
		_ = c.NoContent(http.StatusTeapot)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "tok"})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return called, got, rec
}

func TestRequirePrivilege(t *testing.T) {
	tests := []struct {
		name     string
		snap     domain.SessionSnapshot
		err      error
		wantErr  error
		wantNext bool
	}{
		{
			name:     "holds privilege",
			snap:     domain.SessionSnapshot{Loaded: true, Authenticated: true, Privileges: domain.NewPrivilegeSet("Get Locations")},
			wantNext: true,
		},
		{
			name:    "missing privilege",
			snap:    domain.SessionSnapshot{Loaded: true, Authenticated: true, Privileges: domain.NewPrivilegeSet("View Patients")},
			wantErr: domain.ErrForbidden,
		},
		{
			name:    "privilege differs in case",
			snap:    domain.SessionSnapshot{Loaded: true, Authenticated: true, Privileges: domain.NewPrivilegeSet("get locations")},
			wantErr: domain.ErrForbidden,
		},
		{
			name:    "snapshot unavailable",
			snap:    domain.AnonymousSnapshot(),
			err:     &domain.UpstreamError{Op: "user_privileges", StatusCode: 500, Err: domain.ErrUpstream},
			wantErr: domain.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snaps := NewSnapshotter(&stubSessions{snap: tt.snap, err: tt.err}, nil)

			called, got, rec := serveGated(t, RequirePrivilege(snaps, "Get Locations"))

			if called != tt.wantNext {
				t.Fatalf("next called = %v, want %v", called, tt.wantNext)
			}
			if tt.wantErr == nil {
				if got != nil || rec.Code != http.StatusOK {
					t.Fatalf("expected 200 without error, got %d %v", rec.Code, got)
				}
				return
			}
			if !errors.Is(got, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, got)
			}
		})
	}
}

func TestRequirePrivilege_ExpiredSessionRedirects(t *testing.T) {
	unauthorized := &domain.UpstreamError{Op: "current_session", StatusCode: 401, Err: domain.ErrUpstreamUnauthorized}
	snaps := NewSnapshotter(&stubSessions{snap: domain.AnonymousSnapshot(), err: unauthorized}, nil)

	called, got, rec := serveGated(t, RequirePrivilege(snaps, "Get Locations"))

	if called || got != nil {
		t.Fatalf("expected no handler call and no error, got called=%v err=%v", called, got)
	}
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != LoginPath {
		t.Fatalf("expected redirect to login, got %d", rec.Code)
	}
}

func TestRequireLocation(t *testing.T) {
	withLocation := domain.SessionSnapshot{Loaded: true, Authenticated: true}.
		WithLocation(&domain.Location{UUID: "loc-1", Display: "Ward"})

	tests := []struct {
		name     string
		snap     domain.SessionSnapshot
		err      error
		wantErr  error
		wantNext bool
	}{
		{
			name:     "location set",
			snap:     withLocation,
			wantNext: true,
		},
		{
			name:    "no location",
			snap:    domain.SessionSnapshot{Loaded: true, Authenticated: true},
			wantErr: domain.ErrLocationRequired,
		},
		{
			name:    "blank location uuid",
			snap:    domain.SessionSnapshot{Loaded: true, Authenticated: true, Location: &domain.Location{Display: "Ward"}},
			wantErr: domain.ErrLocationRequired,
		},
		{
			name:    "snapshot unavailable reports the upstream cause",
			snap:    domain.AnonymousSnapshot(),
			err:     &domain.UpstreamError{Op: "user_privileges", StatusCode: 502, Err: domain.ErrUpstream},
			wantErr: domain.ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snaps := NewSnapshotter(&stubSessions{snap: tt.snap, err: tt.err}, nil)

			called, got, rec := serveGated(t, RequireLocation(snaps))

			if called != tt.wantNext {
				t.Fatalf("next called = %v, want %v", called, tt.wantNext)
			}
			if tt.wantErr == nil {
				if got != nil || rec.Code != http.StatusOK {
					t.Fatalf("expected 200 without error, got %d %v", rec.Code, got)
				}
				return
			}
			if !errors.Is(got, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, got)
			}
		})
	}
}
