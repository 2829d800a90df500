package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openhms/hms-portal/internal/core/ports"
)

type LocationHandler struct {
	locations ports.LocationDirectory
}

func NewLocationHandler(locations ports.LocationDirectory) *LocationHandler {
	return &LocationHandler{locations: locations}
}

// ListLoginLocations returns the locations a user can pick as working location.
//
// @Summary      Login locations
// @Tags         session
// @Produce      json
// @Success      200  {object}  locationsResponse
// @Failure      403  {object}  map[string]string
// @Failure      502  {object}  map[string]any
// @Router       /api/locations [get]
func (h *LocationHandler) ListLoginLocations(c echo.Context) error {
	rs, err := requestSession(c)
	if err != nil {
		return err
	}
	locs, err := h.locations.LoginLocations(c.Request().Context(), rs)
	if err != nil {
		return err
	}
	return render(c, rs, http.StatusOK, locationsResponse{Locations: locs})
}
