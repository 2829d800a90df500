package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/openhms/hms-portal/internal/api/middleware"
	"github.com/openhms/hms-portal/internal/core/domain"
	"github.com/openhms/hms-portal/internal/core/ports"
)

// DashboardHandler composes everything the dashboard shell needs in one
// round trip.
type DashboardHandler struct {
	snaps      *middleware.Snapshotter
	locations  ports.LocationDirectory
	navigation []domain.NavEntry
	log        zerolog.Logger
}

func NewDashboardHandler(snaps *middleware.Snapshotter, locations ports.LocationDirectory, navigation []domain.NavEntry, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{snaps: snaps, locations: locations, navigation: navigation, log: log}
}

// Get loads the snapshot and the location list concurrently. A failing
// location list is shown inline; only a session-fatal error ends the page.
//
// @Summary      Dashboard
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  dashboardResponse
// @Failure      302  {string}  string  "session expired, redirect to /login"
// @Router       /dashboard [get]
func (h *DashboardHandler) Get(c echo.Context) error {
	rs, err := requestSession(c)
	if err != nil {
		return err
	}

	var (
		snap    domain.SessionSnapshot
		locs    []domain.Location
		locsErr error
	)
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		snap = h.snaps.For(c)
		return nil
	})
	g.Go(func() error {
		locs, locsErr = h.locations.LoginLocations(ctx, rs)
		if domain.IsSessionFatal(locsErr) {
			return locsErr
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	resp := dashboardResponse{
		Session:    snap,
		Navigation: domain.VisibleNavigation(snap, h.navigation),
		Locations:  locs,
	}
	if resp.Locations == nil {
		resp.Locations = []domain.Location{}
	}
	if locsErr != nil {
		h.log.Warn().Err(locsErr).Str("session", rs.Fingerprint()).Msg("dashboard locations unavailable")
		resp.LocationsError = &pageError{Error: "locations are temporarily unavailable", Retry: true}
	}
	return render(c, rs, http.StatusOK, resp)
}

// Page serves the shell of a clinical page. Privilege and location gates run
// in front of it, so reaching it means the entry is visible to the session.
//
// @Summary      Clinical page
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  clinicalPageResponse
// @Failure      302  {string}  string  "session expired, redirect to /login"
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /dashboard/{page} [get]
func (h *DashboardHandler) Page(entry domain.NavEntry) echo.HandlerFunc {
	return func(c echo.Context) error {
		rs, err := requestSession(c)
		if err != nil {
			return err
		}
		return render(c, rs, http.StatusOK, clinicalPageResponse{Session: h.snaps.For(c), Page: entry})
	}
}
