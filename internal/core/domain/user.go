package domain

// Person is the demographic record a user account is attached to.
type Person struct {
	UUID    string `json:"uuid"`
	Display string `json:"display"`
}

// Role is a named bundle of privileges assigned to a user upstream.
type Role struct {
	UUID    string `json:"uuid"`
	Display string `json:"display"`
}

// User is the read-only projection of the upstream account for the
// lifetime of a session. Username may be empty depending on how the
// upstream server is configured.
type User struct {
	UUID     string `json:"uuid"`
	Display  string `json:"display"`
	Username string `json:"username,omitempty"`
	SystemID string `json:"system_id"`
	Person   Person `json:"person"`
	Roles    []Role `json:"roles"`
}
