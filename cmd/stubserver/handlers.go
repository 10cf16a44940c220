package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	Role         string       `json:"role"`
	User         *userPayload `json:"user,omitempty"`
}

type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id"`
}

func (b *backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	user, err := b.createUser(req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, http.StatusConflict, "account already exists")
		return
	}
	b.writeGrant(w, http.StatusCreated, user)
}

func (b *backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, ok := b.authenticate(req.Email, req.Password)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	log.Info().Str("email", user.Email).Str("role", user.Role).Msg("login")
	b.writeGrant(w, http.StatusOK, user)
}

func (b *backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	user, ok := b.redeemRefreshToken(req.RefreshToken)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	log.Debug().Str("email", user.Email).Msg("refresh")
	b.writeGrant(w, http.StatusOK, user)
}

// writeGrant mints a fresh token pair for the user and writes it.
func (b *backend) writeGrant(w http.ResponseWriter, status int, user *stubUser) {
	accessToken, err := b.mintAccessToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not mint access token")
		return
	}
	refreshToken, err := b.issueRefreshToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue refresh token")
		return
	}
	writeJSON(w, status, tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Role:         user.Role,
		User: &userPayload{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
			TenantID: user.TenantID,
		},
	})
}

// requireAuth validates a Bearer access token, returning 401 for missing,
// malformed, expired, or non-access tokens.
func (b *backend) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			writeError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}
		if _, ok := b.verifyAccessToken(parts[1]); !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired access token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *backend) handleInstallations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]any{
		{"id": 1, "customer_id": 1, "customer_name": "Oakwood Estates", "package_type": "solar", "status": "scheduled"},
		{"id": 2, "customer_id": 2, "customer_name": "Riverside Flats", "package_type": "hvac", "status": "in_progress"},
	})
}

func (b *backend) handleInvoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]any{
		{"id": 1, "amount": 2500.00, "status": "pending", "customer_id": 1},
		{"id": 2, "amount": 1800.50, "status": "paid", "customer_id": 2},
	})
}

func (b *backend) handleCustomers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]any{
		{"id": 1, "name": "Oakwood Estates", "email": "contact@oakwood.test"},
		{"id": 2, "name": "Riverside Flats", "email": "office@riverside.test"},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
