// Package openmrs is the HTTP client for the OpenMRS REST API. Every
// response is decoded into a typed struct and every status code passes
// through classify, so callers only ever branch on domain errors.
package openmrs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openhms/hms-portal/internal/core/domain"
)

const restPath = "/ws/rest/v1"

// Observer is told about every upstream round trip. status is 0 when the
// request never got a response.
type Observer func(endpoint string, status int, elapsed time.Duration)

// Config captures the settings for talking to the upstream.
type Config struct {
	BaseURL string
	// SessionCookie is the cookie the upstream issues for its sessions.
	SessionCookie string
	// Timeout of 0 leaves the http.Client default (no timeout).
	Timeout  time.Duration
	Observer Observer
}

// Client implements ports.ClinicalAPI.
type Client struct {
	base          string
	sessionCookie string
	http          *http.Client
	observe       Observer
}

func NewClient(cfg Config) *Client {
	cookie := cfg.SessionCookie
	if cookie == "" {
		cookie = "JSESSIONID"
	}
	observe := cfg.Observer
	if observe == nil {
		observe = func(string, int, time.Duration) {}
	}
	return &Client{
		base:          strings.TrimRight(cfg.BaseURL, "/") + restPath,
		sessionCookie: cookie,
		http:          &http.Client{Timeout: cfg.Timeout},
		observe:       observe,
	}
}

// do performs one request and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, headers http.Header, body io.Reader, out any) (*http.Response, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, &domain.UpstreamError{Op: op, Err: fmt.Errorf("%w: %v", domain.ErrUpstream, err)}
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(op, 0, time.Since(start))
		return nil, &domain.UpstreamError{Op: op, Err: fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)}
	}
	defer resp.Body.Close()
	c.observe(op, resp.StatusCode, time.Since(start))

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnavailable, err)}
	}
	if err := classify(op, resp.StatusCode, payload, out != nil); err != nil {
		return resp, err
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return resp, &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: decode: %v", domain.ErrUpstream, err)}
		}
	}
	return resp, nil
}

// classify maps a status code onto the error taxonomy.
func classify(op string, status int, payload []byte, wantBody bool) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &domain.UpstreamError{Op: op, StatusCode: status, Err: domain.ErrUpstreamUnauthorized}
	case status < 200 || status > 299:
		return &domain.UpstreamError{Op: op, StatusCode: status, Err: fmt.Errorf("%w: %s", domain.ErrUpstream, upstreamMessage(payload))}
	case wantBody && (status == http.StatusNoContent || len(strings.TrimSpace(string(payload))) == 0):
		return &domain.UpstreamError{Op: op, StatusCode: status, Err: domain.ErrEmptyResponse}
	}
	return nil
}

// upstreamMessage pulls error.message out of an OpenMRS error body.
func upstreamMessage(payload []byte) string {
	var body errorBody
	if err := json.Unmarshal(payload, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return "unexpected status"
}

// Ping checks that the upstream answers the unauthenticated session probe.
func (c *Client) Ping(ctx context.Context) error {
	var out sessionResponse
	_, err := c.do(ctx, "ping", http.MethodGet, "/session", nil, nil, nil, &out)
	return err
}

func isUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrUpstreamUnauthorized)
}
