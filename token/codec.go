// Package token decodes DashWise access tokens into their claims.
//
// Decoding is deliberately signature-free: the backend is the only party
// that validates tokens, the client just needs to read the identity and
// expiry claims it carries. This package is the single place that knows
// the token's structure.
package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/masterfulhomes/dashwise-go/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims is the projection of an access token's payload used by the client.
// Optional claims are left as zero values when absent; Expiry is converted
// from the token's epoch-seconds representation to wall-clock time at
// decode time so callers never compare across units.
type Claims struct {
	Subject   string    // User's unique ID (sub)
	Username  string    // Display/login name, optional
	Email     string    // Optional
	Role      string    // Deployment-specific role string
	TenantID  string    // Tenant the token was issued for
	TokenType string    // "access" or "refresh", minted by the issuer (typ)
	Expiry    time.Time // Zero when the token carries no exp claim
	IssuedAt  time.Time // Zero when the token carries no iat claim
	ID        string    // Unique token ID (jti), optional
}

// ExpiresWithin reports whether the token expires within d from now.
// Tokens without an exp claim never report as expiring.
func (c Claims) ExpiresWithin(d time.Duration) bool {
	if c.Expiry.IsZero() {
		return false
	}
	return c.Expiry.Before(NowTimeFunc().Add(d))
}

// Expired reports whether the token's expiry has passed.
func (c Claims) Expired() bool {
	return c.ExpiresWithin(0)
}

// Decode parses a token without verifying its signature and extracts the
// client-relevant claims. Malformed input yields ErrMalformedToken; missing
// optional claims are not an error.
func Decode(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.Wrapf(errors.ErrMalformedToken, "empty token")
	}

	parsed, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrMalformedToken, "parse token: %v", err)
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.Wrapf(errors.ErrMalformedToken, "extract claims")
	}

	claims := &Claims{}
	claims.Subject = stringClaim(mapClaims, "sub", "id", "user_id")
	claims.Username = stringClaim(mapClaims, "username", "name")
	claims.Email = stringClaim(mapClaims, "email")
	claims.Role = stringClaim(mapClaims, "role")
	claims.TenantID = stringClaim(mapClaims, "tenant", "tenant_id")
	claims.TokenType = stringClaim(mapClaims, "typ", "token_type")
	claims.ID = stringClaim(mapClaims, "jti")

	// Some deployments issue roles as a list; take the first entry.
	if claims.Role == "" {
		if roles, ok := mapClaims["roles"].([]any); ok && len(roles) > 0 {
			if s, ok := roles[0].(string); ok {
				claims.Role = s
			}
		}
	}

	if exp, ok := numericClaim(mapClaims, "exp"); ok {
		claims.Expiry = time.Unix(exp, 0)
	}
	if iat, ok := numericClaim(mapClaims, "iat"); ok {
		claims.IssuedAt = time.Unix(iat, 0)
	}

	return claims, nil
}

// stringClaim returns the first present string value among the given keys.
func stringClaim(claims jwtlib.MapClaims, keys ...string) string {
	for _, key := range keys {
		if s, ok := claims[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// numericClaim reads an epoch-seconds claim, tolerating the float64 and
// json.Number encodings produced by different issuers.
func numericClaim(claims jwtlib.MapClaims, key string) (int64, bool) {
	switch v := claims[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case interface{ Int64() (int64, error) }:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
