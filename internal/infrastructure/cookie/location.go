package cookie

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/openhms/hms-portal/internal/core/domain"
)

var ErrInvalidLocationCookie = errors.New("invalid location cookie")

const locationTTL = 12 * time.Hour

type locationClaims struct {
	LocationUUID    string `json:"loc"`
	LocationDisplay string `json:"loc_name"`
	jwt.RegisteredClaims
}

// LocationCookie persists the working location picked in the UI. The value
// is an HS256 token whose subject is the session fingerprint, so a location
// chosen under one session is ignored by any other.
type LocationCookie struct {
	name   string
	secret []byte
	secure bool
	now    func() time.Time
}

func NewLocationCookie(name, secret string, secure bool) *LocationCookie {
	return &LocationCookie{name: name, secret: []byte(secret), secure: secure, now: time.Now}
}

// Write stores loc for the session identified by fingerprint.
func (l *LocationCookie) Write(c echo.Context, fingerprint string, loc domain.Location) error {
	value, err := l.sign(fingerprint, loc)
	if err != nil {
		return err
	}
	c.SetCookie(newCookie(l.name, value, int(locationTTL.Seconds()), l.secure))
	return nil
}

// Read returns the stored location for fingerprint, or nil when there is
// none or it belongs to another session.
func (l *LocationCookie) Read(c echo.Context, fingerprint string) *domain.Location {
	ck, err := c.Cookie(l.name)
	if err != nil || ck.Value == "" {
		return nil
	}
	loc, err := l.parse(ck.Value, fingerprint)
	if err != nil {
		return nil
	}
	return loc
}

// Clear deletes the location cookie.
func (l *LocationCookie) Clear(c echo.Context) {
	c.SetCookie(newCookie(l.name, "", -1, l.secure))
}

func (l *LocationCookie) sign(fingerprint string, loc domain.Location) (string, error) {
	now := l.now()
	claims := locationClaims{
		LocationUUID:    loc.UUID,
		LocationDisplay: loc.Display,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fingerprint,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(locationTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return "", fmt.Errorf("sign location cookie: %w", err)
	}
	return signed, nil
}

func (l *LocationCookie) parse(value, fingerprint string) (*domain.Location, error) {
	var claims locationClaims
	tkn, err := jwt.ParseWithClaims(value, &claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return l.secret, nil
	}, jwt.WithTimeFunc(l.now))
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidLocationCookie
	}
	if fingerprint == "" || claims.Subject != fingerprint || claims.LocationUUID == "" {
		return nil, ErrInvalidLocationCookie
	}
	return &domain.Location{UUID: claims.LocationUUID, Display: claims.LocationDisplay}, nil
}
