package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process fallback used when Redis is unavailable.
// Sessions do not survive a restart; acceptable for development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// NewMemoryStore returns an in-memory Store with the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Create(_ context.Context) (*Session, error) {
	sess := Session{
		Token:     newToken(),
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.sessions[sess.Token] = memoryEntry{session: sess, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	out := sess
	return &out, nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[token]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.sessions, token)
		return nil, ErrNotFound
	}
	out := entry.session
	return &out, nil
}

func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	s.sessions[sess.Token] = memoryEntry{session: *sess, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Destroy(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}
