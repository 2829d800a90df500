package ports

// CredentialStore holds the one opaque session token of the current
// browser session. Reads observe writes made earlier in the same request.
type CredentialStore interface {
	Token() (string, bool)
	SetToken(token string)
	ClearToken()
}
