package openmrs

import (
	"context"
	"net/http"
	"net/url"

	"github.com/openhms/hms-portal/internal/core/domain"
)

const loginLocationTag = "Login Location"

// LoginLocations lists the locations tagged as valid login locations.
func (c *Client) LoginLocations(ctx context.Context, headers http.Header) ([]domain.Location, error) {
	var out locationListResponse
	q := url.Values{"tag": {loginLocationTag}, "v": {"custom:(uuid,display)"}}
	if _, err := c.do(ctx, "login_locations", http.MethodGet, "/location", q, headers, nil, &out); err != nil {
		return nil, err
	}

	locs := make([]domain.Location, 0, len(out.Results))
	for _, r := range out.Results {
		locs = append(locs, domain.Location{UUID: r.UUID, Display: r.Display})
	}
	return locs, nil
}
