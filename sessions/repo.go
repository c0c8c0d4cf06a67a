package sessions

import "time"

// Store is the session store contract. It is injected into the gateway and is
// the single source of truth for session validity: it must be consulted on
// every request, with no per-process caching, so a logout takes effect
// immediately across all server instances behind a load balancer.
type Store interface {
	// Put creates or replaces a session
	Put(sessionID string, session Session) error

	// Get retrieves a session by ID
	Get(sessionID string) (Session, error)

	// Delete removes a session by ID. Deleting an absent session is not an error.
	Delete(sessionID string) error

	// DeleteExpired removes sessions whose deadline has passed
	DeleteExpired(now time.Time) error
}
