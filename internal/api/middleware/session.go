package middleware

import (
	"errors"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/openhms/hms-portal/internal/api/metrics"
	"github.com/openhms/hms-portal/internal/core/domain"
	"github.com/openhms/hms-portal/internal/core/ports"
	"github.com/openhms/hms-portal/internal/core/service"
	"github.com/openhms/hms-portal/internal/infrastructure/cookie"
)

const (
	requestSessionKey = "request_session"
	snapshotKey       = "session_snapshot"
)

// SessionConfig configures Session.
type SessionConfig struct {
	Cookie   cookie.Options
	Upstream service.HeaderConfig
	// Audit receives a session_expired event per expired request. Optional.
	Audit ports.AuditSink
	Log   zerolog.Logger
}

// Session attaches a RequestSession to the request and applies the expiry
// rule once the handler is done: if any upstream call (or the handler's own
// error) was session-fatal, the cookie is cleared and the browser is sent to
// the login page exactly once, however many calls failed.
func Session(cfg SessionConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rs := service.NewRequestSession(cookie.StoreFor(c, cfg.Cookie), cfg.Upstream, cookie.Fingerprint)
			c.Set(requestSessionKey, rs)
			c.Set(snapshotKey, &snapshotMemo{})

			err := next(c)
			if err != nil {
				rs.Check(err)
			}
			if !rs.Expired() {
				return err
			}

			fp := rs.Fingerprint()
			rs.Store().ClearToken()

			reason := "upstream_unauthorized"
			if errors.Is(rs.Cause(), domain.ErrMissingSession) {
				reason = "missing_session"
			}
			metrics.SessionsExpiredTotal.WithLabelValues(reason).Inc()

			if cfg.Audit != nil && fp != "" {
				ev := domain.NewAuthEvent(domain.EventSessionExpired, fp)
				ev.Path = c.Request().URL.Path
				ev.Detail = reason
				cfg.Audit.Enqueue(ev)
			}

			if c.Response().Committed {
				cfg.Log.Warn().
					Str("path", c.Request().URL.Path).
					Str("reason", reason).
					Msg("session expired after response was written")
				return nil
			}
			return c.Redirect(http.StatusFound, LoginPath)
		}
	}
}

// RequestSessionFrom returns the session attached by Session, or nil.
func RequestSessionFrom(c echo.Context) *service.RequestSession {
	rs, _ := c.Get(requestSessionKey).(*service.RequestSession)
	return rs
}

type snapshotMemo struct {
	once sync.Once
	snap domain.SessionSnapshot
	err  error
}

// Snapshotter composes the session snapshot of a request at most once and
// overlays the location the user picked in this session.
type Snapshotter struct {
	sessions ports.SessionContext
	location *cookie.LocationCookie
}

func NewSnapshotter(sessions ports.SessionContext, location *cookie.LocationCookie) *Snapshotter {
	return &Snapshotter{sessions: sessions, location: location}
}

// For returns the snapshot of c, anonymous when it could not be resolved.
func (s *Snapshotter) For(c echo.Context) domain.SessionSnapshot {
	snap, _ := s.Resolve(c)
	return snap
}

// Resolve returns the snapshot of c and, when it is anonymous, the reason.
// It is safe to call from goroutines the handler starts, since the memo is
// installed before the handler runs.
func (s *Snapshotter) Resolve(c echo.Context) (domain.SessionSnapshot, error) {
	rs := RequestSessionFrom(c)
	if rs == nil {
		return domain.AnonymousSnapshot(), domain.ErrMissingSession
	}
	memo, ok := c.Get(snapshotKey).(*snapshotMemo)
	if !ok {
		return s.compose(c, rs)
	}
	memo.once.Do(func() {
		memo.snap, memo.err = s.compose(c, rs)
	})
	return memo.snap, memo.err
}

func (s *Snapshotter) compose(c echo.Context, rs *service.RequestSession) (domain.SessionSnapshot, error) {
	snap, err := s.sessions.Snapshot(c.Request().Context(), rs)
	if err != nil || !snap.Authenticated || s.location == nil {
		return snap, err
	}
	if loc := s.location.Read(c, rs.Fingerprint()); loc != nil {
		return snap.WithLocation(loc), nil
	}
	return snap, nil
}

// Refresh replaces the memoised snapshot, e.g. after the location changed.
func (s *Snapshotter) Refresh(c echo.Context, snap domain.SessionSnapshot) {
	memo := &snapshotMemo{snap: snap}
	memo.once.Do(func() {})
	c.Set(snapshotKey, memo)
}
