package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openhms/hms-portal/internal/api/middleware"
	"github.com/openhms/hms-portal/internal/core/domain"
	"github.com/openhms/hms-portal/internal/infrastructure/cookie"
)

// SessionHandler serves the session snapshot and the navigation derived from it.
type SessionHandler struct {
	snaps      *middleware.Snapshotter
	location   *cookie.LocationCookie
	navigation []domain.NavEntry
}

func NewSessionHandler(snaps *middleware.Snapshotter, location *cookie.LocationCookie, navigation []domain.NavEntry) *SessionHandler {
	return &SessionHandler{snaps: snaps, location: location, navigation: navigation}
}

// GetSession returns the current session snapshot.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.SessionSnapshot
// @Failure      302  {string}  string  "session expired, redirect to /login"
// @Router       /api/session [get]
func (h *SessionHandler) GetSession(c echo.Context) error {
	rs, err := requestSession(c)
	if err != nil {
		return err
	}
	return render(c, rs, http.StatusOK, h.snaps.For(c))
}

// SetLocation changes the working location for this session. Nothing is
// sent upstream; the choice lives in a signed cookie bound to the session.
//
// @Summary      Set session location
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      locationRequest  true  "Location"
// @Success      200   {object}  domain.SessionSnapshot
// @Failure      400   {object}  map[string]string
// @Failure      302   {string}  string  "session expired, redirect to /login"
// @Failure      502   {object}  map[string]string
// @Router       /api/session/location [put]
func (h *SessionHandler) SetLocation(c echo.Context) error {
	var req locationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	rs, err := requestSession(c)
	if err != nil {
		return err
	}

	snap, err := h.snaps.Resolve(c)
	if err != nil {
		return err
	}

	loc := domain.Location{UUID: req.UUID, Display: req.Display}
	if err := h.location.Write(c, rs.Fingerprint(), loc); err != nil {
		return err
	}

	snap = snap.WithLocation(&loc)
	h.snaps.Refresh(c, snap)
	return c.JSON(http.StatusOK, snap)
}

// GetNavigation returns the navigation entries the session may see.
//
// @Summary      Visible navigation
// @Tags         session
// @Produce      json
// @Success      200  {object}  navigationResponse
// @Router       /api/navigation [get]
func (h *SessionHandler) GetNavigation(c echo.Context) error {
	rs, err := requestSession(c)
	if err != nil {
		return err
	}
	items := domain.VisibleNavigation(h.snaps.For(c), h.navigation)
	return render(c, rs, http.StatusOK, navigationResponse{Items: items})
}
