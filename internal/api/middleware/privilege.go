package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/openhms/hms-portal/internal/core/domain"
)

// RequirePrivilege rejects the request with domain.ErrForbidden unless the
// session holds privilege. A snapshot that could not be composed grants
// nothing; if the session expired meanwhile, the expiry cause is returned so
// Session redirects instead.
func RequirePrivilege(snaps *Snapshotter, privilege string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := snaps.For(c)
			if snap.HasPrivilege(privilege) {
				return next(c)
			}
			if rs := RequestSessionFrom(c); rs != nil && rs.Expired() {
				return rs.Cause()
			}
			return domain.ErrForbidden
		}
	}
}

// RequireLocation blocks clinical routes until a working location is set.
// When the snapshot itself is unavailable its error is returned, so an
// upstream outage is not reported as a missing location.
func RequireLocation(snaps *Snapshotter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap, err := snaps.Resolve(c)
			if err != nil {
				return err
			}
			if !snap.HasLocation() {
				return domain.ErrLocationRequired
			}
			return next(c)
		}
	}
}
