package sessions

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

var ErrSessionNotFound = errors.New("session not found")

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore is an in-memory implementation of Store. Suitable for a single
// server instance; multi-instance deployments should back Store with a shared
// cache or database.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	nowTime  func() time.Time
}

// StoreOption modifies an InMemoryStore instance.
type StoreOption func(*InMemoryStore)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *InMemoryStore) {
		s.nowTime = nowFunc
	}
}

// NewInMemoryStore creates a new in-memory session store
func NewInMemoryStore(options ...StoreOption) *InMemoryStore {
	store := &InMemoryStore{
		sessions: make(map[string]Session),
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(store)
	}
	return store
}

func (s *InMemoryStore) Put(sessionID string, session Session) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = session
	return nil
}

// Get returns the session for the given ID. An expired session is treated the
// same as a missing one and is removed on sight.
func (s *InMemoryStore) Get(sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if session.Expired(s.nowTime()) {
		delete(s.sessions, sessionID)
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *InMemoryStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func (s *InMemoryStore) DeleteExpired(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
		}
	}
	return nil
}
