package cookie

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const storeContextKey = "cookie_store"

// Options configures the session cookie.
type Options struct {
	Name   string
	Secure bool
}

// Store keeps the session token in an HTTP-only cookie. It is bound to a
// single request; writes go out as Set-Cookie headers and are visible to
// later reads in the same request.
type Store struct {
	c    echo.Context
	opts Options

	overridden bool
	token      string
}

// StoreFor returns the store of the request, creating it on first use so
// every middleware and handler sees the same state.
func StoreFor(c echo.Context, opts Options) *Store {
	if s, ok := c.Get(storeContextKey).(*Store); ok {
		return s
	}
	s := &Store{c: c, opts: opts}
	c.Set(storeContextKey, s)
	return s
}

// Token returns the session token, if any.
func (s *Store) Token() (string, bool) {
	if s.overridden {
		return s.token, s.token != ""
	}
	ck, err := s.c.Cookie(s.opts.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

// SetToken stores token for the rest of the browser session.
func (s *Store) SetToken(token string) {
	s.overridden = true
	s.token = token
	s.c.SetCookie(s.cookie(token, 0))
}

// ClearToken deletes the session cookie.
func (s *Store) ClearToken() {
	s.overridden = true
	s.token = ""
	s.c.SetCookie(s.cookie("", -1))
}

func (s *Store) cookie(value string, maxAge int) *http.Cookie {
	return newCookie(s.opts.Name, value, maxAge, s.opts.Secure)
}

func newCookie(name, value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
