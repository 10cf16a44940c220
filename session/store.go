package session

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/masterfulhomes/dashwise-go/token"
)

// Store owns the current session. It is the single shared mutable piece
// of auth state in the process: the transport reads the latest token from
// it on every request, the access gate reads the latest role, and only
// Login, Refresh, and Logout may mutate it. Every mutation updates the
// in-memory session and the durable record in the same critical section,
// so the two never diverge past one synchronous update.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	current Session
}

// NewStore creates a session store backed by the given storage.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Login establishes a session from a fresh token grant. The user profile
// is derived from the access token's claims; a token whose claims cannot
// be decoded still logs the session in, just with a sparse profile. When
// the server sent no top-level role, the role claim is used instead.
func (s *Store) Login(accessToken, refreshToken, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(accessToken, refreshToken, role)
}

// Refresh atomically replaces both tokens and re-derives the profile from
// the new access token, keeping the previous role and profile when the
// new token's claims cannot be decoded.
func (s *Store) Refresh(newAccessToken, newRefreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(newAccessToken, newRefreshToken, s.current.Role)
}

// applyLocked sets tokens, derives role/user, and persists. Callers hold mu.
func (s *Store) applyLocked(accessToken, refreshToken, role string) error {
	previous := s.current

	s.current.AccessToken = accessToken
	s.current.RefreshToken = refreshToken
	s.current.Role = role

	claims, err := token.Decode(accessToken)
	if err != nil {
		// Degrade rather than abort: keep whatever profile we had.
		log.Debug().Err(err).Msg("session: access token claims not decodable, keeping previous profile")
		s.current.User = previous.User
		if s.current.Role == "" {
			s.current.Role = previous.Role
		}
	} else {
		s.current.User = profileFromClaims(claims)
		if s.current.Role == "" {
			s.current.Role = claims.Role
		}
	}

	return s.persistLocked()
}

// Logout clears the session and the persisted record. Idempotent.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Session{}
	return s.storage.Clear()
}

// Rehydrate restores the session from storage, invoked once at startup
// before anything reads auth state. Only a complete record (access token,
// refresh token, role) restores a session; partial records leave the
// store anonymous rather than half-authenticated.
func (s *Store) Rehydrate() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.storage.Read()
	if err != nil {
		return false, err
	}
	if record == nil || !record.Complete() {
		return false, nil
	}

	s.current = Session{
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
		Role:         record.Role,
		User:         record.User,
	}

	// Prefer a freshly decoded profile over the stored one.
	if claims, err := token.Decode(record.AccessToken); err == nil {
		s.current.User = profileFromClaims(claims)
	}
	return true, nil
}

// persistLocked mirrors the current session to storage. Callers hold mu.
func (s *Store) persistLocked() error {
	return s.storage.Write(&Record{
		AccessToken:  s.current.AccessToken,
		RefreshToken: s.current.RefreshToken,
		Role:         s.current.Role,
		User:         s.current.User,
	})
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// AccessToken returns the current access token, empty when anonymous.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.AccessToken
}

// RefreshToken returns the current refresh token.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.RefreshToken
}

// Role returns the current role, empty when anonymous.
func (s *Store) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Role
}

// User returns the current profile, nil when anonymous or not decodable.
func (s *Store) User() *UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.User
}

// Authenticated reports whether an access token is currently held.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Authenticated()
}
