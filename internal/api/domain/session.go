package domain

import "time"

// RefreshToken is the stored refresh record for one identity. The token
// value is kept verbatim: the store lives in process memory only, and
// liveness checks are exact string comparisons against the presented
// token.
type RefreshToken struct {
	Token     string // opaque random string, base64url
	Email     string // owning identity
	ExpiresAt time.Time
}

// Expired reports whether the refresh token's lifetime has passed.
func (t RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// Session is the result of issuing, refreshing, or impersonating: the
// identity the tokens act as, plus the freshly minted token pair.
// OriginalEmail is non-empty only while impersonating.
type Session struct {
	Email         string
	Role          string
	OriginalEmail string
	AccessToken   string
	RefreshToken  string
}
