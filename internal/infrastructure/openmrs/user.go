package openmrs

import (
	"context"
	"net/http"
	"net/url"

	"github.com/openhms/hms-portal/internal/core/domain"
	"github.com/openhms/hms-portal/internal/core/ports"
)

const privilegesRepresentation = "custom:(uuid,privileges:(uuid,display)," +
	"roles:(uuid,display,privileges:(uuid,display)))"

// UserPrivileges flattens direct and role-granted privileges of a user.
func (c *Client) UserPrivileges(ctx context.Context, headers http.Header, userUUID string) (*ports.UserPrivileges, error) {
	if userUUID == "" {
		return nil, &domain.UpstreamError{Op: "user_privileges", Err: domain.ErrEmptyResponse}
	}

	var out userPrivilegesResponse
	q := url.Values{"v": {privilegesRepresentation}}
	if _, err := c.do(ctx, "user_privileges", http.MethodGet, "/user/"+url.PathEscape(userUUID), q, headers, nil, &out); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var names []string
	add := func(refs []ref) {
		for _, p := range refs {
			if p.Display == "" {
				continue
			}
			if _, ok := seen[p.Display]; ok {
				continue
			}
			seen[p.Display] = struct{}{}
			names = append(names, p.Display)
		}
	}

	add(out.Privileges)
	roles := make([]domain.Role, 0, len(out.Roles))
	for _, r := range out.Roles {
		roles = append(roles, domain.Role{UUID: r.UUID, Display: r.Display})
		add(r.Privileges)
	}

	return &ports.UserPrivileges{UserUUID: out.UUID, Roles: roles, Privileges: names}, nil
}
