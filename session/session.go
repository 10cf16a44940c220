// Package session holds the authenticated state for one DashWise client:
// the current token pair, the role the backend granted, and the user
// profile projected from the access token's claims. The in-memory state
// is mirrored to durable storage on every mutation so a restarted client
// resumes exactly where it left off.
package session

import "github.com/masterfulhomes/dashwise-go/token"

// Persisted record field names, kept stable across client versions so an
// upgrade never drops an existing session.
const (
	KeyAccessToken  = "token"
	KeyRefreshToken = "refresh_token"
	KeyRole         = "role"
	KeyUser         = "user"
)

// UserProfile is the identity projected from the access token's claims,
// consumed read-only by UI components (display name, avatar initial).
type UserProfile struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
}

// Session is the authenticated state for one client.
type Session struct {
	AccessToken  string
	RefreshToken string
	Role         string
	User         *UserProfile
}

// Authenticated reports whether the session holds an access token.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// Record is the durable mirror of a Session. The four fields are always
// written together and cleared together; a record missing any of the
// first three is treated as absent on rehydration.
type Record struct {
	AccessToken  string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	Role         string       `json:"role"`
	User         *UserProfile `json:"user,omitempty"`
}

// Complete reports whether the record carries everything needed to
// restore a session.
func (r Record) Complete() bool {
	return r.AccessToken != "" && r.RefreshToken != "" && r.Role != ""
}

// profileFromClaims builds a UserProfile from decoded token claims.
func profileFromClaims(claims *token.Claims) *UserProfile {
	return &UserProfile{
		ID:       claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
		TenantID: claims.TenantID,
	}
}
