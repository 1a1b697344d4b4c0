package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/staffroom/internal/api/domain"
	"github.com/aussiebroadwan/staffroom/internal/api/store/drivers/memory"
	"github.com/aussiebroadwan/staffroom/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// stubRoles stands in for the external credential/role lookup.
type stubRoles map[string]string

func (r stubRoles) GetRole(_ context.Context, email string) (string, error) {
	return r[email], nil
}

const (
	adminEmail = "admin@test.com"
	userEmail  = "user@test.com"
)

func newSessionService(t *testing.T) (*SessionService, *memory.RefreshTokenStore) {
	t.Helper()

	codec, err := jwtx.NewCodec([]byte("0123456789abcdef0123456789abcdef"), "staffroom-api", "staffroom")
	require.NoError(t, err)

	tokens := memory.NewRefreshTokenStore()
	svc := &SessionService{
		Codec:  codec,
		Tokens: tokens,
		Roles: stubRoles{
			adminEmail:        domain.RoleAdmin,
			userEmail:         domain.RoleUser,
			"admin2@test.com": domain.RoleAdmin,
		},
		AccessTTL:  20 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
	return svc, tokens
}

func TestIssueRegistersRefreshToken(t *testing.T) {
	t.Parallel()
	svc, tokens := newSessionService(t)

	session, err := svc.Issue(userEmail, domain.RoleUser, "", time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)

	owner, ok := tokens.FindOwnerByToken(session.RefreshToken)
	require.True(t, ok)
	require.Equal(t, userEmail, owner)

	claims, err := svc.Codec.Decode(session.AccessToken)
	require.NoError(t, err)
	require.Equal(t, userEmail, claims.Email())
	require.Equal(t, domain.RoleUser, claims.Role)
	require.False(t, claims.IsImpersonating())
}

func TestIssueSupersedesPreviousSession(t *testing.T) {
	t.Parallel()
	svc, tokens := newSessionService(t)
	now := time.Now()

	first, err := svc.Issue(userEmail, domain.RoleUser, "", now)
	require.NoError(t, err)
	second, err := svc.Issue(userEmail, domain.RoleUser, "", now)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The first refresh token is gone, not expired: replaying it fails.
	_, ok := tokens.FindOwnerByToken(first.RefreshToken)
	require.False(t, ok)

	_, err = svc.Refresh(context.Background(), first.RefreshToken, first.AccessToken, now)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshWithExpiredAccessToken(t *testing.T) {
	t.Parallel()
	svc, _ := newSessionService(t)
	ctx := context.Background()

	// Log in far enough in the past that the access token has expired
	// while the refresh token is still comfortably alive.
	loginAt := time.Now().Add(-svc.AccessTTL - time.Minute)
	session, err := svc.Issue(adminEmail, domain.RoleAdmin, "", loginAt)
	require.NoError(t, err)

	_, err = svc.Codec.Decode(session.AccessToken)
	require.ErrorIs(t, err, jwtx.ErrExpired)

	rotated, err := svc.Refresh(ctx, session.RefreshToken, session.AccessToken, time.Now())
	require.NoError(t, err)
	require.Equal(t, adminEmail, rotated.Email)
	require.Equal(t, domain.RoleAdmin, rotated.Role)
	require.NotEqual(t, session.AccessToken, rotated.AccessToken)
	require.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

	claims, err := svc.Codec.Decode(rotated.AccessToken)
	require.NoError(t, err)
	require.Equal(t, adminEmail, claims.Email())
}

func TestRefreshIsSingleUse(t *testing.T) {
	t.Parallel()
	svc, _ := newSessionService(t)
	ctx := context.Background()
	now := time.Now()

	session, err := svc.Issue(userEmail, domain.RoleUser, "", now)
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, session.RefreshToken, session.AccessToken, now)
	require.NoError(t, err)

	// The old refresh token is permanently dead.
	_, err = svc.Refresh(ctx, session.RefreshToken, session.AccessToken, now)
	require.ErrorIs(t, err, ErrInvalidToken)

	// The new one still works.
	_, err = svc.Refresh(ctx, rotated.RefreshToken, rotated.AccessToken, now)
	require.NoError(t, err)
}

func TestRefreshRejectsTamperedAccessToken(t *testing.T) {
	t.Parallel()
	svc, tokens := newSessionService(t)
	ctx := context.Background()
	now := time.Now()

	session, err := svc.Issue(userEmail, domain.RoleUser, "", now)
	require.NoError(t, err)

	tampered := session.AccessToken[:len(session.AccessToken)-4] + "AAAA"
	_, err = svc.Refresh(ctx, session.RefreshToken, tampered, now)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Failed refresh must not consume the live refresh token.
	owner, ok := tokens.FindOwnerByToken(session.RefreshToken)
	require.True(t, ok)
	require.Equal(t, userEmail, owner)
}

func TestRefreshRejectsExpiredRefreshToken(t *testing.T) {
	t.Parallel()
	svc, _ := newSessionService(t)
	ctx := context.Background()

	loginAt := time.Now().Add(-svc.RefreshTTL - time.Minute)
	session, err := svc.Issue(userEmail, domain.RoleUser, "", loginAt)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, session.RefreshToken, session.AccessToken, time.Now())
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshWithoutSession(t *testing.T) {
	t.Parallel()
	svc, _ := newSessionService(t)
	ctx := context.Background()
	now := time.Now()

	// A valid access token whose owner has no live refresh entry.
	access, err := svc.Codec.Encode(jwtx.NewClaims(userEmail, domain.RoleUser, ""), now, now.Add(time.Hour))
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, "some-refresh-token", access, now)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	t.Parallel()
	svc, tokens := newSessionService(t)
	ctx := context.Background()
	now := time.Now()

	session, err := svc.Issue(userEmail, domain.RoleUser, "", now)
	require.NoError(t, err)

	svc.Revoke(userEmail)
	svc.Revoke(userEmail) // idempotent

	_, ok := tokens.Get(userEmail)
	require.False(t, ok)

	_, err = svc.Refresh(ctx, session.RefreshToken, session.AccessToken, now)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestImpersonationRoundTrip(t *testing.T) {
	t.Parallel()
	svc, _ := newSessionService(t)
	ctx := context.Background()
	now := time.Now()

	_, err := svc.Issue(adminEmail, domain.RoleAdmin, "", now)
	require.NoError(t, err)

	session, err := svc.Impersonate(ctx, adminEmail, userEmail, now)
	require.NoError(t, err)
	require.Equal(t, userEmail, session.Email)
	require.Equal(t, domain.RoleUser, session.Role)
	require.Equal(t, adminEmail, session.OriginalEmail)

	claims, err := svc.Codec.Decode(session.AccessToken)
	require.NoError(t, err)
	require.Equal(t, userEmail, claims.Email())
	require.Equal(t, adminEmail, claims.OriginalEmail)
	require.True(t, claims.IsImpersonating())

	t.Run("impersonation survives refresh", func(t *testing.T) {
		rotated, err := svc.Refresh(ctx, session.RefreshToken, session.AccessToken, now)
		require.NoError(t, err)
		require.Equal(t, adminEmail, rotated.OriginalEmail)

		claims, err := svc.Codec.Decode(rotated.AccessToken)
		require.NoError(t, err)
		require.Equal(t, adminEmail, claims.OriginalEmail)
		session = rotated
	})

	t.Run("stop restores the admin", func(t *testing.T) {
		claims, err := svc.Codec.Decode(session.AccessToken)
		require.NoError(t, err)

		restored, err := svc.StopImpersonation(ctx, claims, now)
		require.NoError(t, err)
		require.Equal(t, adminEmail, restored.Email)
		require.Equal(t, domain.RoleAdmin, restored.Role)
		require.Empty(t, restored.OriginalEmail)

		restoredClaims, err := svc.Codec.Decode(restored.AccessToken)
		require.NoError(t, err)
		require.Equal(t, adminEmail, restoredClaims.Email())
		require.False(t, restoredClaims.IsImpersonating())
	})
}

func TestImpersonateUnknownTarget(t *testing.T) {
	t.Parallel()
	svc, tokens := newSessionService(t)

	_, err := svc.Impersonate(context.Background(), adminEmail, "ghost@test.com", time.Now())
	require.ErrorIs(t, err, ErrTargetNotFound)

	_, ok := tokens.Get("ghost@test.com")
	require.False(t, ok)
}

func TestImpersonateAdminForbidden(t *testing.T) {
	t.Parallel()
	svc, tokens := newSessionService(t)
	now := time.Now()

	admin, err := svc.Issue(adminEmail, domain.RoleAdmin, "", now)
	require.NoError(t, err)

	_, err = svc.Impersonate(context.Background(), adminEmail, "admin2@test.com", now)
	require.ErrorIs(t, err, ErrForbiddenImpersonation)

	// Store unchanged: the admin's own session is untouched and no
	// entry appeared for the target.
	entry, ok := tokens.Get(adminEmail)
	require.True(t, ok)
	require.Equal(t, admin.RefreshToken, entry.Token)
	_, ok = tokens.Get("admin2@test.com")
	require.False(t, ok)
}

func TestStopImpersonationWithVanishedAdmin(t *testing.T) {
	t.Parallel()
	svc, _ := newSessionService(t)
	now := time.Now()

	// Claims marked as impersonating, but the original admin no longer
	// resolves to any role.
	claims := jwtx.NewClaims(userEmail, domain.RoleUser, "gone@test.com")

	_, err := svc.StopImpersonation(context.Background(), claims, now)
	require.ErrorIs(t, err, ErrTargetNotFound)
}

func TestStopImpersonationWhenNotImpersonating(t *testing.T) {
	t.Parallel()
	svc, tokens := newSessionService(t)
	now := time.Now()

	session, err := svc.Issue(adminEmail, domain.RoleAdmin, "", now)
	require.NoError(t, err)

	claims, err := svc.Codec.Decode(session.AccessToken)
	require.NoError(t, err)

	_, err = svc.StopImpersonation(context.Background(), claims, now)
	require.ErrorIs(t, err, ErrNotImpersonating)

	entry, ok := tokens.Get(adminEmail)
	require.True(t, ok)
	require.Equal(t, session.RefreshToken, entry.Token)
}
