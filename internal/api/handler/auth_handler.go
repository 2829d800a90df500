package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openhms/hms-portal/internal/api/metrics"
	"github.com/openhms/hms-portal/internal/core/domain"
	"github.com/openhms/hms-portal/internal/core/ports"
	"github.com/openhms/hms-portal/internal/infrastructure/cookie"
)

type AuthHandler struct {
	authService ports.AuthService
	location    *cookie.LocationCookie
}

func NewAuthHandler(authService ports.AuthService, location *cookie.LocationCookie) *AuthHandler {
	return &AuthHandler{authService: authService, location: location}
}

// LoginPage answers GET /login. The guard has already dropped any token
// the browser still carried.
//
// @Summary      Login page
// @Tags         auth
// @Produce      json
// @Success      200  {object}  loginPageResponse
// @Router       /login [get]
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.JSON(http.StatusOK, loginPageResponse{Page: "login", Login: "/auth/login"})
}

// Login exchanges credentials for an upstream session and sets the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
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

	session, err := h.authService.Login(c.Request().Context(), rs, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid username or password"})
		case errors.Is(err, domain.ErrUpstreamUnavailable):
			metrics.LoginsTotal.WithLabelValues("unavailable").Inc()
		default:
			metrics.LoginsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	// A location picked under a previous session no longer applies.
	h.location.Clear(c)

	return c.JSON(http.StatusOK, loginResponse{
		User:     session.User,
		Location: session.SessionLocation,
		Locale:   session.Locale,
	})
}

// Logout ends the session upstream and locally, then sends the browser to /login.
//
// @Summary      Logout
// @Tags         auth
// @Success      303  {string}  string  "redirect to /login"
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	rs, err := requestSession(c)
	if err != nil {
		return err
	}

	outcome := "ok"
	if err := h.authService.Logout(c.Request().Context(), rs); err != nil {
		outcome = "failed"
	}
	metrics.LogoutsTotal.WithLabelValues(outcome).Inc()

	h.location.Clear(c)
	return c.Redirect(http.StatusSeeOther, "/login")
}
