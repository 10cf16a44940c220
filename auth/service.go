// Package auth implements the DashWise authentication protocol: login,
// registration, and the refresh state machine that keeps the session's
// access token current. It mutates the session store and nothing else.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/masterfulhomes/dashwise-go/httpclient"
	"github.com/masterfulhomes/dashwise-go/internal/errors"
	"github.com/masterfulhomes/dashwise-go/internal/metrics"
	"github.com/masterfulhomes/dashwise-go/session"
)

const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	refreshPath  = "/auth/refresh"

	// A refresh call that never resolves must not wedge the transport;
	// hitting this deadline counts as a refresh failure.
	defaultRefreshTimeout = 10 * time.Second
)

// TokenGrant is the token pair the backend returns from login, register,
// and refresh. Role may arrive top-level or inside the user object; the
// service normalises that to one contract.
type TokenGrant struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	Role         string               `json:"role,omitempty"`
	User         *session.UserProfile `json:"user,omitempty"`
	Message      string               `json:"message,omitempty"`
}

// Service drives the auth endpoints and owns the refresh protocol.
// Auth calls go over a plain HTTP client, never over the refreshing
// transport: login and refresh themselves must not trigger refreshes.
type Service struct {
	baseURL        string
	store          *session.Store
	httpClient     *http.Client
	refreshTimeout time.Duration

	// refreshGroup coalesces concurrent refreshes: the first caller runs
	// the refresh call, everyone else waits for that same result.
	refreshGroup singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithHTTPClient replaces the HTTP client used for auth endpoints.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Service) {
		s.httpClient = hc
	}
}

// WithRefreshTimeout bounds how long a single refresh call may take.
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.refreshTimeout = d
	}
}

// NewService creates an auth service for the given API base URL, bound to
// the session store it will populate.
func NewService(baseURL string, store *session.Store, options ...Option) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("auth: baseURL is required")
	}
	if store == nil {
		return nil, fmt.Errorf("auth: session store is required")
	}
	service := &Service{
		baseURL:        strings.TrimRight(baseURL, "/"),
		store:          store,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

// Login authenticates with email and password and establishes a session.
// Rejected credentials yield ErrInvalidCredentials; the session is left
// untouched on any failure.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenGrant, error) {
	grant, err := s.postGrant(ctx, loginPath, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if grant.AccessToken == "" {
		return nil, errors.Wrapf(errors.ErrInvalidCredentials, "login response carried no access token")
	}
	if err := s.store.Login(grant.AccessToken, grant.RefreshToken, grant.roleField()); err != nil {
		return nil, errors.Wrapf(err, "persist session")
	}
	log.Info().Str("role", s.store.Role()).Msg("auth: logged in")
	return grant, nil
}

// Register creates an account. When the backend replies with a token
// grant the session is established immediately, exactly as for login;
// otherwise only the server message is returned and the caller is
// expected to log in.
func (s *Service) Register(ctx context.Context, username, email, password, role string) (*TokenGrant, error) {
	body := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}
	if role != "" {
		body["role"] = role
	}
	grant, err := s.postGrant(ctx, registerPath, body)
	if err != nil {
		return nil, err
	}
	if grant.AccessToken != "" && grant.RefreshToken != "" {
		if err := s.store.Login(grant.AccessToken, grant.RefreshToken, grant.roleField()); err != nil {
			return nil, errors.Wrapf(err, "persist session")
		}
	}
	return grant, nil
}

// Logout clears the session locally. Idempotent.
func (s *Service) Logout() error {
	return s.store.Logout()
}

// AccessToken returns the current access token.
func (s *Service) AccessToken() string {
	return s.store.AccessToken()
}

// Teardown implements the transport's unrecoverable-failure path.
func (s *Service) Teardown() error {
	return s.store.Logout()
}

// RefreshAccessToken runs the refresh protocol and returns the new access
// token once the session store holds it. Concurrent callers share a
// single in-flight refresh call and receive the same token; the refresh
// token is read inside the flight so the call always uses the latest one.
// Failure leaves the store untouched; tearing down is the caller's job.
func (s *Service) RefreshAccessToken(ctx context.Context) (string, error) {
	result, err, shared := s.refreshGroup.Do("refresh", func() (any, error) {
		return s.refreshOnce(ctx)
	})
	if err != nil {
		metrics.RefreshTotal.WithLabelValues(metrics.RefreshOutcomeFailure).Inc()
		return "", err
	}
	if shared {
		metrics.RefreshTotal.WithLabelValues(metrics.RefreshOutcomeCoalesced).Inc()
	} else {
		metrics.RefreshTotal.WithLabelValues(metrics.RefreshOutcomeSuccess).Inc()
	}
	return result.(string), nil
}

// refreshOnce performs one refresh call and updates the session store.
func (s *Service) refreshOnce(ctx context.Context) (string, error) {
	refreshToken := s.store.RefreshToken()
	if refreshToken == "" {
		return "", errors.Wrapf(errors.ErrRefreshFailed, "no refresh token held")
	}

	ctx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	defer cancel()

	grant, err := s.postGrant(ctx, refreshPath, map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		return "", errors.Wrapf(errors.ErrRefreshFailed, "%v", err)
	}
	if grant.AccessToken == "" {
		return "", errors.Wrapf(errors.ErrRefreshFailed, "refresh response carried no access token")
	}

	// Non-rotating deployments return only a new access token; keep the
	// refresh token we have in that case.
	newRefreshToken := grant.RefreshToken
	if newRefreshToken == "" {
		newRefreshToken = refreshToken
	}
	if err := s.store.Refresh(grant.AccessToken, newRefreshToken); err != nil {
		return "", errors.Wrapf(errors.ErrRefreshFailed, "persist refreshed session: %v", err)
	}

	log.Debug().Msg("auth: access token refreshed")
	return grant.AccessToken, nil
}

// postGrant POSTs a JSON body to an auth endpoint and decodes the grant.
func (s *Service) postGrant(ctx context.Context, path string, body map[string]string) (*TokenGrant, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("auth: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("auth: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "POST %s: read response: %v", path, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var grant TokenGrant
		if err := json.Unmarshal(data, &grant); err != nil {
			return nil, fmt.Errorf("auth: decode %s response: %w", path, err)
		}
		return &grant, nil
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusBadRequest:
		return nil, errors.Wrapf(errors.ErrInvalidCredentials, "POST %s: %s", path, serverMessage(data, resp.StatusCode))
	case resp.StatusCode == http.StatusConflict:
		return nil, errors.Wrapf(errors.ErrDuplicateAccount, "POST %s: %s", path, serverMessage(data, resp.StatusCode))
	default:
		return nil, errors.Wrapf(errors.ErrInternal, "POST %s: %s", path, serverMessage(data, resp.StatusCode))
	}
}

// roleField resolves the one role contract: top-level role wins, then the
// user object's role; an empty result lets the session store fall back to
// the token's role claim.
func (g *TokenGrant) roleField() string {
	if g.Role != "" {
		return g.Role
	}
	if g.User != nil {
		return g.User.Role
	}
	return ""
}

// serverMessage extracts the error/message field from an auth response.
func serverMessage(data []byte, statusCode int) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return fmt.Sprintf("status %d", statusCode)
}

var _ httpclient.SessionAccessor = (*Service)(nil)
