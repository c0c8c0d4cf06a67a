// Package sessions holds the server-side session records that bind an opaque
// session identifier to a principal identifier.
package sessions

import "time"

// Session is the server-side state for one authenticated session. Only the
// principal's identifier is stored: the full principal is rehydrated from the
// directory on every request so role or tenant changes take effect without
// re-login.
type Session struct {
	ID          string
	PrincipalID int64
	CreatedAt   time.Time
	LastSeenAt  time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the session deadline has passed at the given time.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
