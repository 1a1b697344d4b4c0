package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretBytes is the smallest HS256 secret we accept. Anything shorter
// than the hash output weakens the HMAC for no reason.
const MinSecretBytes = 32

var (
	// ErrInvalidSignature reports a token that failed verification:
	// tampered payload, wrong key, or malformed structure. Never
	// salvageable - callers must hard-reject.
	ErrInvalidSignature = errors.New("jwtx: invalid token signature")

	// ErrExpired reports a token whose signature verified but whose
	// expiry has passed. Decode still returns the claims alongside this
	// error so the refresh flow can rotate an expired-but-untampered
	// access token.
	ErrExpired = errors.New("jwtx: token expired")
)

// Decoder validates a token string and gives you back the claims.
// Implementations must return ErrExpired together with the decoded
// claims when only the lifetime check failed.
type Decoder interface {
	Decode(token string) (Claims, error)
}

// Codec signs claim sets into compact HS256 tokens and verifies them
// back. It is stateless apart from its configuration: any process
// holding the same secret can verify what this one minted.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
}

// NewCodec validates the signing configuration and returns a ready codec.
func NewCodec(secret []byte, issuer, audience string) (*Codec, error) {
	if len(secret) < MinSecretBytes {
		return nil, errors.New("jwtx: signing secret must be at least 32 bytes")
	}
	if issuer == "" {
		return nil, errors.New("jwtx: issuer is required")
	}
	return &Codec{secret: secret, issuer: issuer, audience: audience}, nil
}

// Encode stamps the registered time fields onto claims and signs them.
// The issued-at and expiry instants are embedded as standard numeric
// date claims so any verifier holding the secret can check expiry.
func (c *Codec) Encode(claims Claims, issuedAt, expiresAt time.Time) (string, error) {
	claims.Issuer = c.issuer
	if c.audience != "" {
		claims.Audience = jwt.ClaimStrings{c.audience}
	}
	claims.IssuedAt = jwt.NewNumericDate(issuedAt)
	claims.NotBefore = jwt.NewNumericDate(issuedAt)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	if claims.ID == "" {
		claims.ID = NewJTI()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Decode verifies a token string and returns its claims.
//
// Error contract:
//   - ErrInvalidSignature: tampered, malformed, wrong alg/key, or wrong
//     issuer/audience. Claims are NOT returned.
//   - ErrExpired: signature verified but exp has passed. Claims ARE
//     returned so the caller can complete a refresh.
func (c *Codec) Decode(tokenString string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithIssuedAt(),
	}
	if c.audience != "" {
		opts = append(opts, jwt.WithAudience(c.audience))
	}

	parser := jwt.NewParser(opts...)
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err == nil {
		claims, ok := token.Claims.(*Claims)
		if !ok {
			return Claims{}, ErrInvalidSignature
		}
		return *claims, nil
	}

	switch {
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience):
		return Claims{}, ErrInvalidSignature

	case errors.Is(err, jwt.ErrTokenExpired):
		// Signature checked out; only the lifetime failed. Hand the
		// claims back so the refresh flow can salvage the session.
		if token == nil {
			return Claims{}, ErrInvalidSignature
		}
		claims, ok := token.Claims.(*Claims)
		if !ok {
			return Claims{}, ErrInvalidSignature
		}
		return *claims, ErrExpired

	default:
		return Claims{}, ErrInvalidSignature
	}
}
