package hunter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastClient builds a client with millisecond retry backoff for tests.
func fastClient(baseURL string) Client {
	c := NewClient("test-key", WithBaseURL(baseURL)).(*httpClient)
	c.backoff = time.Millisecond
	return c
}

func TestVerifyEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email-verifier", r.URL.Path)
		assert.Equal(t, "jane@acme.com", r.URL.Query().Get("email"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"email":"jane@acme.com","status":"valid","score":97}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	v, err := c.VerifyEmail(context.Background(), "jane@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "valid", v.Status)
	assert.Equal(t, 97, v.Score)
	assert.True(t, v.Valid())
}

func TestVerifyEmail_Invalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"email":"bogus@acme.com","status":"invalid","score":3}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	v, err := c.VerifyEmail(context.Background(), "bogus@acme.com")
	require.NoError(t, err)
	assert.False(t, v.Valid())
}

func TestSearchDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/domain-search", r.URL.Path)
		assert.Equal(t, "acme.com", r.URL.Query().Get("domain"))

		_, _ = w.Write([]byte(`{"data":{
			"domain":"acme.com",
			"organization":"Acme Widgets",
			"industry":"Manufacturing",
			"linkedin":"https://linkedin.com/company/acme"
		}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	info, err := c.SearchDomain(context.Background(), "acme.com")
	require.NoError(t, err)
	assert.Equal(t, "Acme Widgets", info.Organization)
	assert.Equal(t, "Manufacturing", info.Industry)
	assert.Equal(t, "https://linkedin.com/company/acme", info.LinkedIn)
}

func TestRateLimited(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.VerifyEmail(context.Background(), "jane@acme.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	// Quota exhaustion is terminal, not transient.
	assert.Equal(t, 1, calls)
}

func TestRetriesTransientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"email":"jane@acme.com","status":"valid","score":80}}`))
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	v, err := c.VerifyEmail(context.Background(), "jane@acme.com")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, v.Valid())
}

func TestUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"details":"bad key"}]}`))
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.VerifyEmail(context.Background(), "jane@acme.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 401")
}
