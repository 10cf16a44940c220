// Package httpclient is the authenticated request pipeline for the
// DashWise API. Every outgoing request carries the current access token,
// and an authorization failure triggers one transparent refresh-and-retry
// before the failure is surfaced. The auth state is an injected
// dependency, read fresh on every request; the client itself holds no
// token state of its own.
package httpclient

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

	"github.com/masterfulhomes/dashwise-go/internal/errors"
	"github.com/masterfulhomes/dashwise-go/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// SessionAccessor is the narrow view of the auth session the transport
// needs. RefreshAccessToken must coalesce concurrent calls into a single
// refresh; Teardown must be safe to call more than once.
type SessionAccessor interface {
	// AccessToken returns the current access token, empty when anonymous.
	AccessToken() string
	// RefreshAccessToken obtains a new access token using the refresh
	// token and returns it after the session has been updated.
	RefreshAccessToken(ctx context.Context) (string, error)
	// Teardown clears the session after an unrecoverable refresh failure.
	Teardown() error
}

// Client executes authenticated API requests.
type Client struct {
	baseURL    string
	session    SessionAccessor
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a Client for the given API base URL. The session accessor
// is required: it is the only source of token state and the only target
// of teardown side effects.
func New(baseURL string, session SessionAccessor, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("httpclient: baseURL is required")
	}
	if session == nil {
		return nil, fmt.Errorf("httpclient: session accessor is required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		session:    session,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// Do executes one API request. The body, when non-nil, is sent as JSON;
// the response body, when out is non-nil, is decoded as JSON into out.
//
// On a 401 the request is retried exactly once: the refresh protocol is
// asked for a new access token, the request is replayed with it, and
// whatever the replay yields is returned. A second 401 propagates without
// another refresh. A failed refresh tears the session down and propagates
// the original authorization failure.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("httpclient: marshal request body: %w", err)
		}
	}

	// Single-shot retry marker: at most one refresh-and-retry cycle per
	// original request, regardless of what the replay returns.
	retried := false

	accessToken := c.session.AccessToken()
	for {
		resp, err := c.send(ctx, method, path, payload, accessToken)
		if err != nil {
			metrics.RequestsTotal.WithLabelValues(method, "network_error").Inc()
			return errors.Wrapf(errors.ErrNetwork, "%s %s: %v", method, path, err)
		}

		if resp.StatusCode != http.StatusUnauthorized {
			return c.finish(method, path, resp, out)
		}

		drain(resp)
		metrics.RequestsTotal.WithLabelValues(method, "unauthorized").Inc()

		if retried {
			log.Debug().Str("method", method).Str("path", path).
				Msg("httpclient: still unauthorized after refresh, giving up")
			return errors.Wrapf(errors.ErrUnauthorized, "%s %s", method, path)
		}
		retried = true

		newToken, refreshErr := c.session.RefreshAccessToken(ctx)
		if refreshErr != nil {
			log.Warn().Err(refreshErr).Str("method", method).Str("path", path).
				Msg("httpclient: token refresh failed, tearing down session")
			if err := c.session.Teardown(); err != nil {
				log.Warn().Err(err).Msg("httpclient: session teardown failed")
			}
			return errors.Wrapf(errors.ErrUnauthorized, "%s %s: %v", method, path, refreshErr)
		}

		metrics.RetriesTotal.Inc()
		accessToken = newToken
	}
}

// Get executes a GET request.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post executes a POST request.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put executes a PUT request.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete executes a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// send builds and executes a single request attempt.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, accessToken string) (*http.Response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return c.httpClient.Do(req)
}

// finish maps a non-401 response to the caller's result.
func (c *Client) finish(method, path string, resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		metrics.RequestsTotal.WithLabelValues(method, "ok").Inc()
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("httpclient: decode %s %s response: %w", method, path, err)
		}
		return nil
	}

	metrics.RequestsTotal.WithLabelValues(method, "error").Inc()
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return errors.Wrapf(errors.ErrNotFound, "%s %s: %s", method, path, apiErr)
	default:
		return fmt.Errorf("%s %s: %w", method, path, apiErr)
	}
}

// APIError is a non-2xx, non-401 response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// readErrorMessage extracts the server's error message when the body is
// the usual {"error": ...} or {"message": ...} shape.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return strings.TrimSpace(string(data))
	}
	if parsed.Error != "" {
		return parsed.Error
	}
	return parsed.Message
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
