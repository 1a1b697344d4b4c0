package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/staffroom/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// Rotation failure reasons. Callers collapse these into a single
	// unauthorized outcome; the distinction exists for logging.
	ErrTokenMismatch = errors.New("store: presented refresh token is not the live one")
	ErrTokenExpired  = errors.New("store: refresh token expired")
)

// Store is the root data access interface for durable state (users and
// employees). Concrete drivers implement this; sqlite is the only one
// today.
type Store interface {
	Users() Users
	Employees() Employees

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByEmail is used during login and role lookups.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user.
	CreateUser(ctx context.Context, u domain.User) error

	// IsEmpty returns true if there are no users, used by startup seeding.
	IsEmpty(ctx context.Context) (bool, error)
}

type Employees interface {
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	GetEmployee(ctx context.Context, id string) (domain.Employee, error)
	CreateEmployee(ctx context.Context, e domain.Employee) error

	// UpdateEmployeeName mutates the name and bumps updated_at,
	// returning the stored record.
	UpdateEmployeeName(ctx context.Context, id, name string) (domain.Employee, error)

	DeleteEmployee(ctx context.Context, id string) error
}

// RefreshTokens is the single source of truth for "is this refresh
// token currently the live one for its owner". At most one live token
// per identity; Put overwrites unconditionally (last write wins, so a
// login on a second device silently supersedes the first).
//
// All methods are atomic with respect to each other. None of them
// block: implementations are expected to be process-memory maps.
type RefreshTokens interface {
	// Put unconditionally replaces the identity's entry.
	Put(email string, t domain.RefreshToken)

	// Get returns the live entry for an identity.
	Get(email string) (domain.RefreshToken, bool)

	// FindOwnerByToken returns the identity owning the exact token
	// string, used to verify a presented token is the live one.
	FindOwnerByToken(token string) (string, bool)

	// Remove drops the identity's entry. Absence is not an error.
	Remove(email string)

	// Rotate atomically validates that presented is the live, unexpired
	// token for email and replaces it with next. It fails with
	// ErrNotFound, ErrTokenMismatch, or ErrTokenExpired, leaving the
	// entry untouched on failure.
	Rotate(email, presented string, next domain.RefreshToken, now time.Time) error
}
