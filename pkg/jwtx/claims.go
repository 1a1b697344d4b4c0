package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants for the session flows. These provide
// sensible security defaults but can be overridden via configuration.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	// Short-lived for security - typical range is 15m to 1h.
	DefaultAccessTokenTTL = 20 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	// Longer-lived for user convenience - typical range is 7d to 30d.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the access-token claims used across the service. The subject
// is the user's email address; Role carries the user's single role.
type Claims struct {
	jwt.RegisteredClaims

	// Role the user holds ("Admin" or "User").
	Role string `json:"role,omitempty"`

	// OriginalEmail is set only while an admin is impersonating another
	// user: the subject is then the impersonated user and OriginalEmail
	// records the admin who started the impersonation. At most one level,
	// no chains.
	OriginalEmail string `json:"orig_email,omitempty"`
}

// NewClaims builds minimally-correct claims for a session. Registered
// time fields are stamped by Codec.Encode.
func NewClaims(email, role, originalEmail string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: email,
			ID:      NewJTI(),
		},
		Role:          role,
		OriginalEmail: originalEmail,
	}
}

// Email returns the identity the session acts as (the subject claim).
func (c Claims) Email() string { return c.Subject }

// IsImpersonating reports whether this session is an admin impersonating
// another user.
func (c Claims) IsImpersonating() bool { return c.OriginalEmail != "" }

// NewJTI returns a URL-safe random identifier for the "jti" claim. There
// might be a better way of doing this, but random is plenty unique here.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
