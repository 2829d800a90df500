package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	OpenMRS OpenMRSConfig
	Session SessionConfig

	// ProtectedPrefixes are the path prefixes that require a session.
	ProtectedPrefixes []string `env:"PROTECTED_PREFIXES, default=/dashboard,/api"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Billing BillingConfig
	Audit   AuditConfig
}

type OpenMRSConfig struct {
	BaseURL       string        `env:"OPENMRS_BASE_URL,       default=http://localhost:8080/openmrs"`
	AuthMode      string        `env:"OPENMRS_AUTH_MODE,      default=cookie"`
	SessionCookie string        `env:"OPENMRS_SESSION_COOKIE, default=JSESSIONID"`
	Timeout       time.Duration `env:"OPENMRS_TIMEOUT,        default=10s"`
}

type SessionConfig struct {
	CookieName         string `env:"SESSION_COOKIE_NAME,   default=hms_session"`
	CookieSecure       bool   `env:"SESSION_COOKIE_SECURE, default=false"`
	LocationCookieName string `env:"LOCATION_COOKIE_NAME,  default=hms_location"`
	// CookieSecret signs the location cookie.
	CookieSecret string `env:"COOKIE_SECRET"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=hms_portal"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type BillingConfig struct {
	// DSN is optional; the readiness check skips billing when empty.
	DSN string `env:"BILLING_DATABASE_DSN"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

const devCookieSecret = "hms-portal-development-secret"

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.IsDevelopment() && cfg.Session.CookieSecret == "" {
		cfg.Session.CookieSecret = devCookieSecret
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.OpenMRS.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("OPENMRS_BASE_URL must be an absolute http(s) URL, got %q", c.OpenMRS.BaseURL))
	}
	switch c.OpenMRS.AuthMode {
	case "cookie", "bearer":
	default:
		errs = append(errs, fmt.Errorf("OPENMRS_AUTH_MODE must be cookie or bearer, got %q", c.OpenMRS.AuthMode))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME must not be empty"))
	}
	if c.Session.LocationCookieName == "" || c.Session.LocationCookieName == c.Session.CookieName {
		errs = append(errs, errors.New("LOCATION_COOKIE_NAME must be set and differ from SESSION_COOKIE_NAME"))
	}
	if c.Session.CookieSecret == "" {
		errs = append(errs, errors.New("COOKIE_SECRET is required outside development"))
	}
	for _, p := range c.ProtectedPrefixes {
		if !strings.HasPrefix(strings.TrimSpace(p), "/") {
			errs = append(errs, fmt.Errorf("PROTECTED_PREFIXES entry %q must start with /", p))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
