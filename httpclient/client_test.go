package httpclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/masterfulhomes/dashwise-go/httpclient"
	"github.com/masterfulhomes/dashwise-go/internal/errors"
)

// fakeAccessor is a controllable SessionAccessor.
type fakeAccessor struct {
	mu           sync.Mutex
	token        string
	refreshedTo  string
	refreshErr   error
	refreshCalls int
	teardowns    int
}

func (f *fakeAccessor) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeAccessor) RefreshAccessToken(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	f.token = f.refreshedTo
	return f.token, nil
}

func (f *fakeAccessor) Teardown() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teardowns = f.teardowns + 1
	f.token = ""
	return nil
}

func newClient(t *testing.T, baseURL string, accessor *fakeAccessor) *httpclient.Client {
	t.Helper()
	client, err := httpclient.New(baseURL, accessor)
	require.NoError(t, err)
	return client
}

func TestAttachesCurrentBearerToken(t *testing.T) {
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	accessor := &fakeAccessor{token: "A1"}
	client := newClient(t, server.URL, accessor)

	var out map[string]string
	require.NoError(t, client.Get(context.Background(), "/ping", &out))
	require.Equal(t, "Bearer A1", seenAuth)
	require.Equal(t, "ok", out["status"])
}

func TestNoBearerWhenAnonymous(t *testing.T) {
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL, &fakeAccessor{})
	require.NoError(t, client.Get(context.Background(), "/ping", nil))
	require.Empty(t, seenAuth)
}

func TestOneUnauthorizedThenSuccess(t *testing.T) {
	var resourceCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resourceCalls++
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]string{"job-1", "job-2"})
	}))
	defer server.Close()

	accessor := &fakeAccessor{token: "stale", refreshedTo: "fresh"}
	client := newClient(t, server.URL, accessor)

	var jobs []string
	require.NoError(t, client.Get(context.Background(), "/installations", &jobs))

	// Exactly one refresh, exactly two resource calls, caller never sees
	// the intermediate 401.
	require.Equal(t, 1, accessor.refreshCalls)
	require.Equal(t, 2, resourceCalls)
	require.Equal(t, []string{"job-1", "job-2"}, jobs)
	require.Zero(t, accessor.teardowns)
}

func TestSecondUnauthorizedPropagatesWithoutSecondRefresh(t *testing.T) {
	var resourceCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resourceCalls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	accessor := &fakeAccessor{token: "stale", refreshedTo: "fresh"}
	client := newClient(t, server.URL, accessor)

	err := client.Get(context.Background(), "/installations", nil)
	require.ErrorIs(t, err, errors.ErrUnauthorized)
	require.Equal(t, 1, accessor.refreshCalls, "no refresh loop")
	require.Equal(t, 2, resourceCalls, "original attempt plus one replay")
	require.Zero(t, accessor.teardowns, "refresh succeeded, no teardown")
}

func TestRefreshFailureTearsDownSession(t *testing.T) {
	var resourceCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resourceCalls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	accessor := &fakeAccessor{token: "stale", refreshErr: errors.ErrRefreshFailed}
	client := newClient(t, server.URL, accessor)

	err := client.Get(context.Background(), "/installations", nil)
	require.ErrorIs(t, err, errors.ErrUnauthorized)
	require.Equal(t, 1, resourceCalls, "no replay without a new token")
	require.Equal(t, 1, accessor.refreshCalls)
	require.Equal(t, 1, accessor.teardowns)
}

func TestNetworkErrorIsRetryableNotFatal(t *testing.T) {
	accessor := &fakeAccessor{token: "A1"}
	client := newClient(t, "http://127.0.0.1:1", accessor)

	err := client.Get(context.Background(), "/installations", nil)
	require.ErrorIs(t, err, errors.ErrNetwork)
	require.Zero(t, accessor.refreshCalls)
	require.Zero(t, accessor.teardowns, "a connectivity failure never logs the user out")
}

func TestErrorStatusMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"no such invoice"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message":"database down"}`))
		}
	}))
	defer server.Close()

	client := newClient(t, server.URL, &fakeAccessor{token: "A1"})

	err := client.Get(context.Background(), "/missing", nil)
	require.ErrorIs(t, err, errors.ErrNotFound)

	err = client.Get(context.Background(), "/broken", nil)
	var apiErr *httpclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	require.Equal(t, "database down", apiErr.Message)
}

func TestPostSendsJSONBodyOnReplay(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(buf))
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	accessor := &fakeAccessor{token: "stale", refreshedTo: "fresh"}
	client := newClient(t, server.URL, accessor)

	require.NoError(t, client.Post(context.Background(), "/invoices", map[string]int{"amount": 42}, nil))
	require.Len(t, bodies, 2)
	require.Equal(t, bodies[0], bodies[1], "the replay carries the same body as the original")
	require.JSONEq(t, `{"amount":42}`, bodies[1])
}
