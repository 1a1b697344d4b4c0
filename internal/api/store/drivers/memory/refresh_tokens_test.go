package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/staffroom/internal/api/domain"
	"github.com/aussiebroadwan/staffroom/internal/api/store"
	"github.com/stretchr/testify/require"
)

func record(email, token string, expiresAt time.Time) domain.RefreshToken {
	return domain.RefreshToken{Token: token, Email: email, ExpiresAt: expiresAt}
}

func TestPutGetRemove(t *testing.T) {
	t.Parallel()
	s := NewRefreshTokenStore()
	now := time.Now()

	_, ok := s.Get("a@test.com")
	require.False(t, ok)

	s.Put("a@test.com", record("a@test.com", "tok-1", now.Add(time.Hour)))
	got, ok := s.Get("a@test.com")
	require.True(t, ok)
	require.Equal(t, "tok-1", got.Token)

	t.Run("put overwrites", func(t *testing.T) {
		s.Put("a@test.com", record("a@test.com", "tok-2", now.Add(time.Hour)))
		got, ok := s.Get("a@test.com")
		require.True(t, ok)
		require.Equal(t, "tok-2", got.Token)

		_, found := s.FindOwnerByToken("tok-1")
		require.False(t, found)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		s.Remove("a@test.com")
		s.Remove("a@test.com")
		_, ok := s.Get("a@test.com")
		require.False(t, ok)
	})
}

func TestFindOwnerByToken(t *testing.T) {
	t.Parallel()
	s := NewRefreshTokenStore()
	now := time.Now()

	s.Put("a@test.com", record("a@test.com", "tok-a", now.Add(time.Hour)))
	s.Put("b@test.com", record("b@test.com", "tok-b", now.Add(time.Hour)))

	owner, ok := s.FindOwnerByToken("tok-b")
	require.True(t, ok)
	require.Equal(t, "b@test.com", owner)

	_, ok = s.FindOwnerByToken("tok-unknown")
	require.False(t, ok)

	// Equality is on the exact string.
	_, ok = s.FindOwnerByToken("tok-a ")
	require.False(t, ok)
}

func TestRotate(t *testing.T) {
	t.Parallel()
	now := time.Now()

	t.Run("replaces the live token", func(t *testing.T) {
		s := NewRefreshTokenStore()
		s.Put("a@test.com", record("a@test.com", "old", now.Add(time.Hour)))

		err := s.Rotate("a@test.com", "old", record("a@test.com", "new", now.Add(2*time.Hour)), now)
		require.NoError(t, err)

		got, ok := s.Get("a@test.com")
		require.True(t, ok)
		require.Equal(t, "new", got.Token)

		// The old token is permanently dead, not merely expired.
		require.ErrorIs(t,
			s.Rotate("a@test.com", "old", record("a@test.com", "newer", now.Add(time.Hour)), now),
			store.ErrTokenMismatch)
	})

	t.Run("no session", func(t *testing.T) {
		s := NewRefreshTokenStore()
		err := s.Rotate("ghost@test.com", "tok", record("ghost@test.com", "new", now.Add(time.Hour)), now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("expired entry is rejected and kept", func(t *testing.T) {
		s := NewRefreshTokenStore()
		s.Put("a@test.com", record("a@test.com", "old", now.Add(-time.Minute)))

		err := s.Rotate("a@test.com", "old", record("a@test.com", "new", now.Add(time.Hour)), now)
		require.ErrorIs(t, err, store.ErrTokenExpired)

		got, ok := s.Get("a@test.com")
		require.True(t, ok)
		require.Equal(t, "old", got.Token)
	})

	t.Run("expiry boundary is inclusive", func(t *testing.T) {
		s := NewRefreshTokenStore()
		s.Put("a@test.com", record("a@test.com", "old", now))

		err := s.Rotate("a@test.com", "old", record("a@test.com", "new", now.Add(time.Hour)), now)
		require.ErrorIs(t, err, store.ErrTokenExpired)
	})
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()
	s := NewRefreshTokenStore()
	now := time.Now()

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			email := fmt.Sprintf("user%d@test.com", i%8)
			tok := fmt.Sprintf("tok-%d", i)
			s.Put(email, record(email, tok, now.Add(time.Hour)))
			s.Get(email)
			s.FindOwnerByToken(tok)
			_ = s.Rotate(email, tok, record(email, tok+"-r", now.Add(time.Hour)), now)
			s.Remove(email)
		}()
	}
	wg.Wait()
}

func TestConcurrentRotateSingleWinner(t *testing.T) {
	t.Parallel()
	s := NewRefreshTokenStore()
	now := time.Now()
	s.Put("a@test.com", record("a@test.com", "shared", now.Add(time.Hour)))

	const racers = 16
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := record("a@test.com", fmt.Sprintf("next-%d", i), now.Add(time.Hour))
			errs <- s.Rotate("a@test.com", "shared", next, now)
		}()
	}
	wg.Wait()
	close(errs)

	// Exactly one racer may win; every other attempt replays a
	// superseded token and must fail.
	var wins int
	for err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, store.ErrTokenMismatch)
		}
	}
	require.Equal(t, 1, wins)
}
