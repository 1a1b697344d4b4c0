// Package memory holds the in-process refresh token store. Keeping
// refresh state in memory is deliberate: a process restart invalidates
// every session and forces re-login, and there is no multi-instance
// deployment to share state with.
package memory

import (
	"sync"
	"time"

	"github.com/aussiebroadwan/staffroom/internal/api/domain"
	"github.com/aussiebroadwan/staffroom/internal/api/store"
)

// RefreshTokenStore maps identity email -> live refresh token record.
// A single mutex guards the map; the expected identity count is small
// and every operation is a handful of map accesses, so there is nothing
// to gain from read-write locking. The lock is never held across token
// minting - signing happens before the store is touched.
type RefreshTokenStore struct {
	mu     sync.Mutex
	byUser map[string]domain.RefreshToken
}

var _ store.RefreshTokens = (*RefreshTokenStore)(nil)

func NewRefreshTokenStore() *RefreshTokenStore {
	return &RefreshTokenStore{byUser: make(map[string]domain.RefreshToken)}
}

// Put unconditionally replaces the identity's entry. Any previously
// issued refresh token for that identity becomes permanently invalid.
func (s *RefreshTokenStore) Put(email string, t domain.RefreshToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[email] = t
}

// Get returns the live entry for an identity.
func (s *RefreshTokenStore) Get(email string) (domain.RefreshToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byUser[email]
	return t, ok
}

// FindOwnerByToken returns the identity whose live entry carries the
// exact token string. A superseded or unknown token finds no owner.
func (s *RefreshTokenStore) FindOwnerByToken(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, t := range s.byUser {
		if t.Token == token {
			return email, true
		}
	}
	return "", false
}

// Remove drops the identity's entry. Removing an absent entry is a no-op.
func (s *RefreshTokenStore) Remove(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, email)
}

// Rotate performs the refresh flow's read-modify-write under one lock
// acquisition: verify presented is the live, unexpired token for email,
// then replace it with next. On any failure the entry is left untouched
// and a reason error is returned for the caller to log.
func (s *RefreshTokenStore) Rotate(email, presented string, next domain.RefreshToken, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byUser[email]
	if !ok {
		return store.ErrNotFound
	}
	if current.Token != presented {
		return store.ErrTokenMismatch
	}
	if current.Expired(now) {
		return store.ErrTokenExpired
	}

	s.byUser[email] = next
	return nil
}
