package api

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/openhms/hms-portal/docs"
	"github.com/openhms/hms-portal/internal/api/handler"
	"github.com/openhms/hms-portal/internal/api/middleware"
	"github.com/openhms/hms-portal/internal/core/domain"
	"github.com/openhms/hms-portal/internal/core/ports"
	"github.com/openhms/hms-portal/internal/core/service"
	"github.com/openhms/hms-portal/internal/infrastructure/cookie"
	"github.com/openhms/hms-portal/internal/infrastructure/http/handlers"
)

// Privilege required to list login locations.
const privilegeGetLocations = "Get Locations"

// Dependencies is everything the router wires into handlers.
type Dependencies struct {
	Log zerolog.Logger

	SessionCookie     cookie.Options
	LocationCookie    *cookie.LocationCookie
	Upstream          service.HeaderConfig
	ProtectedPrefixes []string

	Auth      ports.AuthService
	Sessions  ports.SessionContext
	Locations ports.LocationDirectory
	Audit     ports.AuditSink

	Readiness []handlers.Dependency
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Pre-routing: cookie-presence guard ---
	e.Pre(middleware.Guard(middleware.GuardConfig{
		Cookie:            deps.SessionCookie,
		ProtectedPrefixes: deps.ProtectedPrefixes,
	}))

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.Metrics())
	e.Use(middleware.RequestLogger(deps.Log))

	// --- Dependencies ---
	session := middleware.Session(middleware.SessionConfig{
		Cookie:   deps.SessionCookie,
		Upstream: deps.Upstream,
		Audit:    deps.Audit,
		Log:      deps.Log,
	})
	snaps := middleware.NewSnapshotter(deps.Sessions, deps.LocationCookie)

	authHandler := handler.NewAuthHandler(deps.Auth, deps.LocationCookie)
	sessionHandler := handler.NewSessionHandler(snaps, deps.LocationCookie, domain.DefaultNavigation)
	locationHandler := handler.NewLocationHandler(deps.Locations)
	dashboardHandler := handler.NewDashboardHandler(snaps, deps.Locations, domain.DefaultNavigation, deps.Log)

	// --- Auth routes ---
	e.GET("/login", authHandler.LoginPage)
	auth := e.Group("/auth", session)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)

	// --- Session-backed pages and API ---
	e.GET("/dashboard", dashboardHandler.Get, session)

	// Clinical pages carry the same gates as their navigation entries.
	for _, entry := range domain.DefaultNavigation {
		if !strings.HasPrefix(entry.Href, "/dashboard/") {
			continue
		}
		e.GET(entry.Href, dashboardHandler.Page(entry), pageGates(snaps, session, entry)...)
	}

	apiGroup := e.Group("/api", session)
	apiGroup.GET("/session", sessionHandler.GetSession)
	apiGroup.PUT("/session/location", sessionHandler.SetLocation)
	apiGroup.GET("/navigation", sessionHandler.GetNavigation)
	apiGroup.GET("/locations", locationHandler.ListLoginLocations, middleware.RequirePrivilege(snaps, privilegeGetLocations))

	// --- Health probes, metrics and docs (no session required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Readiness...)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// pageGates returns the middleware chain that enforces entry server side.
func pageGates(snaps *middleware.Snapshotter, session echo.MiddlewareFunc, entry domain.NavEntry) []echo.MiddlewareFunc {
	gates := []echo.MiddlewareFunc{session}
	if entry.Privilege != "" {
		gates = append(gates, middleware.RequirePrivilege(snaps, entry.Privilege))
	}
	if entry.RequiresLocation {
		gates = append(gates, middleware.RequireLocation(snaps))
	}
	return gates
}
