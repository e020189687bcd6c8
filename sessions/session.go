// Package sessions owns the client's authentication state: the current
// credential pair, the claims derived from it, and their durable storage.
// At most one Session is held per process; it is created on login, replaced
// on refresh, and destroyed on logout or unrecoverable auth failure.
package sessions

import "time"

// Claims are derived from the access token, never authoritative. A token that
// fails to decode degrades to "no claims" rather than failing the caller.
type Claims struct {
	SubjectID string
	FirstName string
	LastName  string
	Role      string
}

// Session is the credential pair plus derived claims. AccessToken, when
// present, is always the most recently issued one.
type Session struct {
	AccessToken  string
	RefreshToken string
	Claims       *Claims
	// ExpiresAt is a hint from the issuing endpoint; the authoritative
	// expiry signal is a 401 from the server.
	ExpiresAt time.Time
}
