package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/openhms/hms-portal/internal/infrastructure/cookie"
)

// LoginPath is where every session-fatal condition sends the browser.
const LoginPath = "/login"

// GuardConfig configures Guard.
type GuardConfig struct {
	Cookie            cookie.Options
	ProtectedPrefixes []string
}

// Guard decides from cookie presence alone whether a request may proceed.
// It never talks to the upstream; token validity is discovered later by
// the first upstream call that gets a 401/403.
//
// Register it with e.Pre so it runs before routing.
func Guard(cfg GuardConfig) echo.MiddlewareFunc {
	prefixes := make([]string, 0, len(cfg.ProtectedPrefixes))
	for _, p := range cfg.ProtectedPrefixes {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p != "" {
			prefixes = append(prefixes, p)
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			store := cookie.StoreFor(c, cfg.Cookie)
			_, hasToken := store.Token()

			switch {
			case isProtected(path, prefixes) && !hasToken:
				store.ClearToken()
				return c.Redirect(http.StatusFound, LoginPath)
			case path == LoginPath && hasToken:
				// Visiting the login page starts over, even if the token
				// is still valid upstream.
				store.ClearToken()
			}
			return next(c)
		}
	}
}

// isProtected matches whole path segments: /api covers /api and /api/x,
// not /apix.
func isProtected(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
