package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/openhms/hms-portal/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Retry
// marks failures the page may offer to retry in place.
type errorResponse struct {
	Error string `json:"error"`
	Retry bool   `json:"retry,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain
// errors to status codes and renders {"error": "<message>"}. Unexpected
// errors are logged and never leak details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid username or password"}
	case domain.IsSessionFatal(err):
		// Only reached outside middleware.Session, which redirects instead.
		return http.StatusUnauthorized, errorResponse{Error: "session expired"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden"}
	case errors.Is(err, domain.ErrLocationRequired):
		return http.StatusConflict, errorResponse{Error: "select a location first"}
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		logUpstream(log, err, c)
		return http.StatusServiceUnavailable, errorResponse{Error: "clinical system unavailable", Retry: true}
	case errors.Is(err, domain.ErrUpstream), errors.Is(err, domain.ErrEmptyResponse):
		logUpstream(log, err, c)
		return http.StatusBadGateway, errorResponse{Error: "clinical system request failed", Retry: true}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

func logUpstream(log zerolog.Logger, err error, c echo.Context) {
	ev := log.Warn().Err(err).Str("path", c.Path())
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		ev = ev.Str("op", ue.Op).Int("upstream_status", ue.StatusCode)
	}
	ev.Msg("upstream failure")
}
