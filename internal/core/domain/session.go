package domain

import (
	"encoding/json"
	"sort"
)

// Location is the clinical site a session is working from.
type Location struct {
	UUID    string `json:"uuid"`
	Display string `json:"display"`
}

// Session is what the upstream clinical API reports for a session token.
type Session struct {
	Token           string    `json:"-"`
	Authenticated   bool      `json:"authenticated"`
	User            *User     `json:"user,omitempty"`
	SessionLocation *Location `json:"session_location,omitempty"`
	Locale          string    `json:"locale,omitempty"`
}

// PrivilegeSet holds privilege names. Membership is exact and case-sensitive.
type PrivilegeSet map[string]struct{}

// NewPrivilegeSet builds a set from names, dropping blanks and duplicates.
func NewPrivilegeSet(names ...string) PrivilegeSet {
	set := make(PrivilegeSet, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// Has reports whether name is in the set. A nil set contains nothing.
func (p PrivilegeSet) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// Names returns the privileges sorted alphabetically.
func (p PrivilegeSet) Names() []string {
	out := make([]string, 0, len(p))
	for n := range p {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (p PrivilegeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Names())
}

func (p *PrivilegeSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*p = NewPrivilegeSet(names...)
	return nil
}

// SessionSnapshot is the per-page read model of who is logged in, what
// they may do and where they are working. The zero value is a snapshot
// that is still loading: it grants nothing.
type SessionSnapshot struct {
	Loaded        bool         `json:"loaded"`
	Authenticated bool         `json:"authenticated"`
	User          *User        `json:"user,omitempty"`
	Privileges    PrivilegeSet `json:"privileges"`
	Location      *Location    `json:"location,omitempty"`
	Locale        string       `json:"locale,omitempty"`
}

// AnonymousSnapshot is the settled snapshot used whenever the session
// could not be resolved.
func AnonymousSnapshot() SessionSnapshot {
	return SessionSnapshot{Loaded: true, Privileges: PrivilegeSet{}}
}

// HasPrivilege reports whether the snapshot grants name. It never panics
// and returns false while loading or when unauthenticated.
func (s SessionSnapshot) HasPrivilege(name string) bool {
	if !s.Loaded || !s.Authenticated {
		return false
	}
	return s.Privileges.Has(name)
}

// HasLocation reports whether a working location is set.
func (s SessionSnapshot) HasLocation() bool {
	return s.Location != nil && s.Location.UUID != ""
}

// WithLocation returns a copy of the snapshot working from loc.
// Passing nil clears the location.
func (s SessionSnapshot) WithLocation(loc *Location) SessionSnapshot {
	if loc != nil {
		l := *loc
		loc = &l
	}
	s.Location = loc
	return s
}
