package openmrs

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/openhms/hms-portal/internal/core/domain"
)

const sessionRepresentation = "custom:(sessionId,authenticated,locale," +
	"user:(uuid,display,username,systemId,person:(uuid,display),roles:(uuid,display))," +
	"sessionLocation:(uuid,display))"

// CreateSession authenticates with HTTP Basic credentials. The token is the
// upstream session cookie when one is set, the reported sessionId otherwise.
func (c *Client) CreateSession(ctx context.Context, username, password string) (string, error) {
	creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	headers := http.Header{"Authorization": {"Basic " + creds}}

	var out sessionResponse
	resp, err := c.do(ctx, "create_session", http.MethodPost, "/session", nil, headers, strings.NewReader("{}"), &out)
	if err != nil {
		if isUnauthorized(err) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}
	if !out.Authenticated {
		return "", domain.ErrInvalidCredentials
	}

	for _, ck := range resp.Cookies() {
		if ck.Name == c.sessionCookie && ck.Value != "" {
			return ck.Value, nil
		}
	}
	if out.SessionID != "" {
		return out.SessionID, nil
	}
	return "", &domain.UpstreamError{Op: "create_session", StatusCode: resp.StatusCode, Err: domain.ErrEmptyResponse}
}

// DeleteSession logs the session out upstream.
func (c *Client) DeleteSession(ctx context.Context, headers http.Header) error {
	_, err := c.do(ctx, "delete_session", http.MethodDelete, "/session", nil, headers, nil, nil)
	return err
}

// CurrentSession returns who the headers authenticate as.
func (c *Client) CurrentSession(ctx context.Context, headers http.Header) (*domain.Session, error) {
	var out sessionResponse
	q := url.Values{"v": {sessionRepresentation}}
	if _, err := c.do(ctx, "current_session", http.MethodGet, "/session", q, headers, nil, &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}
