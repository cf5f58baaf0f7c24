package repositories

import (
	"context"
	"sync"
	"time"
)

// MemorySessionStore is an in-process SessionRevocationStore. Entries are
// dropped once the token they refer to would have expired anyway.
type MemorySessionStore struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
	now     func() time.Time
}

// NewMemorySessionStore creates an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke marks sessionID as logged out until expiresAt.
func (s *MemorySessionStore) Revoke(_ context.Context, sessionID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.revoked {
		if !now.Before(exp) {
			delete(s.revoked, id)
		}
	}
	if now.Before(expiresAt) {
		s.revoked[sessionID] = expiresAt
	}
	return nil
}

// IsRevoked reports whether sessionID was revoked and has not expired yet.
func (s *MemorySessionStore) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.revoked[sessionID]
	return ok && s.now().Before(exp), nil
}
