package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/staffroom/internal/api/domain"
	"github.com/aussiebroadwan/staffroom/internal/api/store"
	"github.com/aussiebroadwan/staffroom/pkg/cryptox"
)

var ErrInvalidCredentials = errors.New("invalid_credentials")

// UserService is the credential validator: it checks email/password
// pairs against the users table and resolves roles.
type UserService struct {
	Store store.Store
}

// ValidateCredentials reports whether the email/password pair matches a
// stored user. An unknown email and a wrong password are indistinguishable
// to the caller.
func (s *UserService) ValidateCredentials(ctx context.Context, email, password string) (bool, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return cryptox.VerifyPassword(password, u.PasswordHash) == nil, nil
}

// GetRole returns the user's role, or "" when the user does not exist.
func (s *UserService) GetRole(ctx context.Context, email string) (string, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return u.Role, nil
}

// SeedUser is a user created at startup when the users table is empty.
type SeedUser struct {
	Email    string
	Password string
	Role     string
}

// EnsureSeedUsers creates the given users if and only if the table is
// empty, so a fresh deployment has accounts to log in with. Passwords
// are hashed here, not in migrations.
func (s *UserService) EnsureSeedUsers(ctx context.Context, logger *slog.Logger, seeds []SeedUser) error {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}

	for _, seed := range seeds {
		hash, err := cryptox.HashPassword(seed.Password)
		if err != nil {
			return err
		}
		if err := s.Store.Users().CreateUser(ctx, domain.User{
			Email:        seed.Email,
			PasswordHash: hash,
			Role:         seed.Role,
		}); err != nil {
			return err
		}
		logger.Info("seeded user", "email", seed.Email, "role", seed.Role)
	}
	return nil
}
