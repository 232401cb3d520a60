// Package hunter provides a client for the Hunter.io v2 API.
package hunter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// ErrRateLimited signals that the Hunter.io quota is exhausted. Callers use
// errors.Is to detect it; the aggregator stops calling the source for the
// rest of the process lifetime.
var ErrRateLimited = eris.New("hunter: rate limited")

// Client defines the Hunter.io operations used for enrichment.
type Client interface {
	// VerifyEmail checks deliverability of a single email address.
	VerifyEmail(ctx context.Context, email string) (*Verification, error)
	// SearchDomain looks up company metadata for a domain.
	SearchDomain(ctx context.Context, domain string) (*DomainInfo, error)
}

// Verification is the parsed email-verifier payload.
type Verification struct {
	Email  string `json:"email"`
	Status string `json:"status"` // "valid", "invalid", "accept_all", "unknown"
	Score  int    `json:"score"`  // 0-100 deliverability score
}

// Valid reports whether Hunter considers the address deliverable.
func (v *Verification) Valid() bool { return v.Status == "valid" }

// DomainInfo is the parsed domain-search payload.
type DomainInfo struct {
	Domain       string `json:"domain"`
	Organization string `json:"organization"`
	Industry     string `json:"industry"`
	Country      string `json:"country"`
	LinkedIn     string `json:"linkedin"`
	Twitter      string `json:"twitter"`
	Facebook     string `json:"facebook"`
}

// Option configures the Hunter client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	backoff time.Duration
}

// NewClient creates a new Hunter.io client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.hunter.io/v2",
		http:    &http.Client{Timeout: 10 * time.Second},
		// Hunter free plan allows 10 req/s.
		limiter: rate.NewLimiter(10, 1),
		backoff: 1 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the Hunter.io response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *httpClient) VerifyEmail(ctx context.Context, email string) (*Verification, error) {
	params := url.Values{"email": {email}}
	body, err := c.get(ctx, "/email-verifier", params)
	if err != nil {
		return nil, err
	}

	var v Verification
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, eris.Wrap(err, "hunter: unmarshal verification")
	}
	return &v, nil
}

func (c *httpClient) SearchDomain(ctx context.Context, domain string) (*DomainInfo, error) {
	params := url.Values{"domain": {domain}}
	body, err := c.get(ctx, "/domain-search", params)
	if err != nil {
		return nil, err
	}

	var info DomainInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, eris.Wrap(err, "hunter: unmarshal domain info")
	}
	return &info, nil
}

// get performs an authenticated GET with bounded retries on transient server
// errors. A 429 is returned as ErrRateLimited without retrying: Hunter quotas
// reset monthly, retrying within a request is pointless.
func (c *httpClient) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	params.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	const maxAttempts = 3
	backoff := c.backoff

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "hunter: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "hunter: create request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = eris.Wrap(err, "hunter: request failed")
		} else {
			body, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if readErr != nil {
				return nil, eris.Wrap(readErr, "hunter: read response body")
			}

			switch {
			case resp.StatusCode == http.StatusOK:
				var env envelope
				if err := json.Unmarshal(body, &env); err != nil {
					return nil, eris.Wrap(err, "hunter: unmarshal envelope")
				}
				return env.Data, nil
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, ErrRateLimited
			case retryableStatusCode(resp.StatusCode):
				lastErr = eris.Errorf("hunter: status %d: %s", resp.StatusCode, string(body))
			default:
				return nil, eris.Errorf("hunter: unexpected status %d: %s", resp.StatusCode, string(body))
			}
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return nil, lastErr
}

func retryableStatusCode(code int) bool {
	return code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}
