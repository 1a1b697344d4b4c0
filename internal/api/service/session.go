package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/staffroom/internal/api/domain"
	"github.com/aussiebroadwan/staffroom/internal/api/store"
	"github.com/aussiebroadwan/staffroom/pkg/cryptox"
	"github.com/aussiebroadwan/staffroom/pkg/jwtx"
	"github.com/aussiebroadwan/staffroom/pkg/slogx"
)

var (
	// ErrInvalidToken covers every refresh failure the caller is allowed
	// to see: tampered access token, unknown/superseded/expired refresh
	// token. The user must log in again.
	ErrInvalidToken = errors.New("invalid_token")

	ErrTargetNotFound         = errors.New("impersonation_target_not_found")
	ErrForbiddenImpersonation = errors.New("impersonation_forbidden")
	ErrNotImpersonating       = errors.New("not_impersonating")
)

// RoleLookup resolves a user's role by email. A missing user yields an
// empty role, not an error. UserService implements this.
type RoleLookup interface {
	GetRole(ctx context.Context, email string) (string, error)
}

// SessionService orchestrates session issuance, rotation, and teardown.
// It owns the refresh token store and the codec; at most one refresh
// token is live per identity, last write wins.
type SessionService struct {
	Codec  *jwtx.Codec
	Tokens store.RefreshTokens
	Roles  RoleLookup

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// mint signs an access token and generates a refresh record without
// touching the store. Signing is pure; the store lock is never held
// around it.
func (s *SessionService) mint(email, role, originalEmail string, now time.Time) (domain.Session, domain.RefreshToken, error) {
	access, err := s.Codec.Encode(jwtx.NewClaims(email, role, originalEmail), now, now.Add(s.AccessTTL))
	if err != nil {
		return domain.Session{}, domain.RefreshToken{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, domain.RefreshToken{}, err
	}

	record := domain.RefreshToken{
		Token:     refresh,
		Email:     email,
		ExpiresAt: now.Add(s.RefreshTTL),
	}
	session := domain.Session{
		Email:         email,
		Role:          role,
		OriginalEmail: originalEmail,
		AccessToken:   access,
		RefreshToken:  refresh,
	}
	return session, record, nil
}

// Issue mints a fresh access/refresh pair for an identity after the
// caller has validated credentials or impersonation authorization. Any
// previous session for the identity is silently superseded.
func (s *SessionService) Issue(email, role, originalEmail string, now time.Time) (domain.Session, error) {
	session, record, err := s.mint(email, role, originalEmail, now)
	if err != nil {
		return domain.Session{}, err
	}
	s.Tokens.Put(email, record)
	return session, nil
}

// Refresh rotates a session: it validates the presented access token
// (expired is fine, tampered is not), checks the presented refresh token
// is the live unexpired one for the subject, and replaces both tokens.
// The superseded refresh token is permanently invalid afterwards.
func (s *SessionService) Refresh(ctx context.Context, presentedRefresh, presentedAccess string, now time.Time) (domain.Session, error) {
	log := slogx.FromContext(ctx)

	claims, err := s.Codec.Decode(presentedAccess)
	if err != nil && !errors.Is(err, jwtx.ErrExpired) {
		log.Warn("refresh rejected: access token invalid", "err", err)
		return domain.Session{}, ErrInvalidToken
	}
	if claims.Email() == "" || presentedRefresh == "" {
		return domain.Session{}, ErrInvalidToken
	}

	// Claims carry over verbatim, so an impersonation survives refresh.
	session, record, err := s.mint(claims.Email(), claims.Role, claims.OriginalEmail, now)
	if err != nil {
		return domain.Session{}, err
	}

	if err := s.Tokens.Rotate(claims.Email(), presentedRefresh, record, now); err != nil {
		// The store reason (absent, mismatched, expired) is for logs
		// only; callers get one opaque unauthorized outcome.
		log.Warn("refresh rejected", "email", claims.Email(), "reason", err)
		return domain.Session{}, ErrInvalidToken
	}

	return session, nil
}

// Revoke tears down an identity's session. Revoking an identity with no
// session is a no-op.
func (s *SessionService) Revoke(email string) {
	s.Tokens.Remove(email)
}

// Impersonate starts an impersonation session: the admin acts as the
// target until StopImpersonation. Admins may not impersonate admins.
func (s *SessionService) Impersonate(ctx context.Context, adminEmail, targetEmail string, now time.Time) (domain.Session, error) {
	role, err := s.Roles.GetRole(ctx, targetEmail)
	if err != nil {
		return domain.Session{}, err
	}
	if role == "" {
		return domain.Session{}, ErrTargetNotFound
	}
	if role == domain.RoleAdmin {
		return domain.Session{}, ErrForbiddenImpersonation
	}

	return s.Issue(targetEmail, role, adminEmail, now)
}

// StopImpersonation unwinds an impersonation, restoring the original
// admin session. One level only: the restored claims carry no
// original-email marker.
func (s *SessionService) StopImpersonation(ctx context.Context, claims jwtx.Claims, now time.Time) (domain.Session, error) {
	if !claims.IsImpersonating() {
		return domain.Session{}, ErrNotImpersonating
	}

	role, err := s.Roles.GetRole(ctx, claims.OriginalEmail)
	if err != nil {
		return domain.Session{}, err
	}
	if role == "" {
		return domain.Session{}, ErrTargetNotFound
	}

	return s.Issue(claims.OriginalEmail, role, "", now)
}
