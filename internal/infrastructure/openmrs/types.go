package openmrs

import "github.com/openhms/hms-portal/internal/core/domain"

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type ref struct {
	UUID    string `json:"uuid"`
	Display string `json:"display"`
}

type userResponse struct {
	UUID     string `json:"uuid"`
	Display  string `json:"display"`
	Username string `json:"username"`
	SystemID string `json:"systemId"`
	Person   *ref   `json:"person"`
	Roles    []ref  `json:"roles"`
}

type sessionResponse struct {
	SessionID       string        `json:"sessionId"`
	Authenticated   bool          `json:"authenticated"`
	Locale          string        `json:"locale"`
	User            *userResponse `json:"user"`
	SessionLocation *ref          `json:"sessionLocation"`
}

type roleResponse struct {
	UUID       string `json:"uuid"`
	Display    string `json:"display"`
	Privileges []ref  `json:"privileges"`
}

type userPrivilegesResponse struct {
	UUID       string         `json:"uuid"`
	Privileges []ref          `json:"privileges"`
	Roles      []roleResponse `json:"roles"`
}

type locationListResponse struct {
	Results []ref `json:"results"`
}

func (r *sessionResponse) toDomain() *domain.Session {
	s := &domain.Session{
		Token:         r.SessionID,
		Authenticated: r.Authenticated,
		Locale:        r.Locale,
	}
	if r.User != nil {
		u := r.User.toDomain()
		s.User = &u
	}
	if r.SessionLocation != nil && r.SessionLocation.UUID != "" {
		s.SessionLocation = &domain.Location{UUID: r.SessionLocation.UUID, Display: r.SessionLocation.Display}
	}
	return s
}

func (u *userResponse) toDomain() domain.User {
	out := domain.User{
		UUID:     u.UUID,
		Display:  u.Display,
		Username: u.Username,
		SystemID: u.SystemID,
		Roles:    toRoles(u.Roles),
	}
	if u.Person != nil {
		out.Person = domain.Person{UUID: u.Person.UUID, Display: u.Person.Display}
	}
	return out
}

func toRoles(refs []ref) []domain.Role {
	roles := make([]domain.Role, 0, len(refs))
	for _, r := range refs {
		roles = append(roles, domain.Role{UUID: r.UUID, Display: r.Display})
	}
	return roles
}
