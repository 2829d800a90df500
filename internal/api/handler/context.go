package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openhms/hms-portal/internal/api/middleware"
	"github.com/openhms/hms-portal/internal/core/service"
)

// requestSession returns the session attached by middleware.Session. Routes
// are only registered behind it, so a nil result is a wiring bug.
func requestSession(c echo.Context) (*service.RequestSession, error) {
	rs := middleware.RequestSessionFrom(c)
	if rs == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "request session not initialised")
	}
	return rs, nil
}

// render writes body unless the request session expired while it was being
// built, in which case the expiry cause is returned and middleware.Session
// answers with the login redirect instead.
func render(c echo.Context, rs *service.RequestSession, code int, body any) error {
	if rs.Expired() {
		return rs.Cause()
	}
	return c.JSON(code, body)
}
