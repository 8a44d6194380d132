// ABOUTME: Client-side bearer token inspection
// ABOUTME: Decodes the JWT payload without verifying the signature to read exp

package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HasTokenFormat reports whether token is non-empty and has exactly three
// dot-separated segments. It says nothing about expiry.
func HasTokenFormat(token string) bool {
	return token != "" && strings.Count(token, ".") == 2
}

// ValidToken reports whether token is structurally a JWT whose exp claim is
// strictly after now. Signature is not checked; the backend owns that.
func ValidToken(token string, now time.Time) bool {
	exp, ok := TokenExpiry(token)
	if !ok {
		return false
	}
	return exp.After(now)
}

// tokenParser decodes without looking at the signature. Padded segments are
// accepted since some issuers emit them.
var tokenParser = jwt.NewParser(jwt.WithPaddingAllowed())

// tokenClaims decodes the payload of token. The header's alg is not
// required: an unspecified or unknown alg still leaves the claims decoded.
func tokenClaims(token string) (*jwt.RegisteredClaims, bool) {
	if !HasTokenFormat(token) {
		return nil, false
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := tokenParser.ParseUnverified(token, claims); err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return nil, false
	}
	return claims, true
}

// TokenExpiry returns the decoded exp claim of token.
func TokenExpiry(token string) (time.Time, bool) {
	claims, ok := tokenClaims(token)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// TokenIssuedAt returns the decoded iat claim of token, when present.
func TokenIssuedAt(token string) (time.Time, bool) {
	claims, ok := tokenClaims(token)
	if !ok || claims.IssuedAt == nil {
		return time.Time{}, false
	}
	return claims.IssuedAt.Time, true
}
