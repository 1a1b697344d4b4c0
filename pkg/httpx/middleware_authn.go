package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/staffroom/pkg/jwtx"
	"github.com/aussiebroadwan/staffroom/pkg/slogx"
)

// AuthnMiddleware verifies the bearer access token and injects its
// claims into the request context. Expired tokens are rejected.
func AuthnMiddleware(d jwtx.Decoder) Middleware {
	return authn(d, false)
}

// AuthnAllowExpired verifies the bearer token but lets an expired (yet
// untampered) token through with its claims. Only the refresh-token
// route uses this: refresh is exactly the mechanism that salvages an
// expired access token.
func AuthnAllowExpired(d jwtx.Decoder) Middleware {
	return authn(d, true)
}

func authn(d jwtx.Decoder, allowExpired bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := d.Decode(raw)
			if err != nil {
				if !errors.Is(err, jwtx.ErrExpired) {
					log.Warn("jwt verify failed", "err", err)
					writeBearerError(w, "token verification failed")
					return
				}
				if !allowExpired {
					writeBearerError(w, "token expired")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(contextWithAuth(ctx, claims)))
		})
	}
}

// RequireRole rejects authenticated requests whose role claim does not
// match. Chain it after AuthnMiddleware.
func RequireRole(role string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != role {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the raw bearer token from the Authorization
// header. The second return is false when the header is absent or not a
// bearer scheme.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer")), true
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
