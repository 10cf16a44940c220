package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenExpiry  = 15 * time.Minute
	refreshTokenExpiry = 7 * 24 * time.Hour
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type stubUser struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	Role         string
	TenantID     string
}

type storedRefreshToken struct {
	Token    string
	UserID   string
	IssuedAt time.Time
}

// backend holds the stub's in-memory state: users keyed by email and one
// refresh token per user, rotated on every refresh.
type backend struct {
	mu            sync.Mutex
	signingSecret []byte
	users         map[string]*stubUser
	refreshTokens map[string]*storedRefreshToken // token -> record
	byUser        map[string]string              // userID -> current token
}

func newBackend(signingSecret []byte) *backend {
	return &backend{
		signingSecret: signingSecret,
		users:         make(map[string]*stubUser),
		refreshTokens: make(map[string]*storedRefreshToken),
		byUser:        make(map[string]string),
	}
}

// seed creates one user per role so every dashboard can be exercised.
func (b *backend) seed() {
	seeds := []struct{ username, email, password, role string }{
		{"admin", "admin@masterfulhomes.test", "admin123", "admin"},
		{"manager", "manager@masterfulhomes.test", "manager123", "manager"},
		{"tech", "tech@masterfulhomes.test", "tech123", "technician"},
		{"finance", "finance@masterfulhomes.test", "finance123", "finance"},
	}
	for _, s := range seeds {
		if _, err := b.createUser(s.username, s.email, s.password, s.role); err != nil {
			panic(err)
		}
	}
}

func (b *backend) createUser(username, email, password, role string) (*stubUser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.users[email]; exists {
		return nil, fmt.Errorf("user %q already exists", email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if role == "" {
		role = "technician"
	}
	user := &stubUser{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		TenantID:     "masterful-homes",
	}
	b.users[email] = user
	return user, nil
}

func (b *backend) authenticate(email, password string) (*stubUser, bool) {
	b.mu.Lock()
	user, ok := b.users[email]
	b.mu.Unlock()
	if !ok {
		return nil, false
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, false
	}
	return user, true
}

// mintAccessToken creates an HS256 access token carrying the claim set
// the client's codec reads.
func (b *backend) mintAccessToken(user *stubUser) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
		"tenant":   user.TenantID,
		"typ":      "access",
		"iat":      now.Unix(),
		"exp":      now.Add(accessTokenExpiry).Unix(),
		"jti":      uuid.New().String(),
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(b.signingSecret)
}

// issueRefreshToken creates a new opaque refresh token for the user,
// replacing any existing one (single refresh token per user).
func (b *backend) issueRefreshToken(userID string) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	tokenStr := hex.EncodeToString(tokenBytes)

	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.byUser[userID]; ok {
		delete(b.refreshTokens, old)
	}
	b.refreshTokens[tokenStr] = &storedRefreshToken{
		Token:    tokenStr,
		UserID:   userID,
		IssuedAt: NowTimeFunc(),
	}
	b.byUser[userID] = tokenStr
	return tokenStr, nil
}

// redeemRefreshToken validates and consumes a refresh token, returning
// its user. Expired or unknown tokens fail; a redeemed token is removed
// so it can never be replayed.
func (b *backend) redeemRefreshToken(tokenStr string) (*stubUser, bool) {
	b.mu.Lock()
	record, ok := b.refreshTokens[tokenStr]
	if ok {
		delete(b.refreshTokens, tokenStr)
		delete(b.byUser, record.UserID)
	}
	b.mu.Unlock()

	if !ok || NowTimeFunc().Sub(record.IssuedAt) > refreshTokenExpiry {
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, user := range b.users {
		if user.ID == record.UserID {
			return user, true
		}
	}
	return nil, false
}

// verifyAccessToken parses and validates a presented bearer token.
func (b *backend) verifyAccessToken(rawToken string) (jwtlib.MapClaims, bool) {
	parsed, err := jwtlib.ParseWithClaims(rawToken, jwtlib.MapClaims{}, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return b.signingSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, false
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, false
	}
	if typ, _ := claims["typ"].(string); typ != "access" {
		return nil, false
	}
	return claims, true
}
