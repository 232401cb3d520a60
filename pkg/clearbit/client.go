// Package clearbit provides a client for the free Clearbit Logo and
// Autocomplete APIs. Neither endpoint requires an API key.
package clearbit

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

// Client defines the Clearbit operations used for enrichment.
type Client interface {
	// LogoURL builds the logo URL for a domain without any HTTP call.
	LogoURL(domain string) string
	// CheckLogo verifies that a logo actually exists for the domain. Returns
	// the URL when found, "" when Clearbit has no logo.
	CheckLogo(ctx context.Context, domain string) (string, error)
	// SuggestCompany resolves a free-text company name to its domain.
	SuggestCompany(ctx context.Context, name string) (*Suggestion, error)
}

// Suggestion is one autocomplete result.
type Suggestion struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Logo   string `json:"logo"`
}

// Option configures the Clearbit client.
type Option func(*httpClient)

// WithLogoBaseURL sets a custom logo base URL (for testing).
func WithLogoBaseURL(u string) Option {
	return func(c *httpClient) {
		c.logoBaseURL = u
	}
}

// WithAutocompleteBaseURL sets a custom autocomplete base URL (for testing).
func WithAutocompleteBaseURL(u string) Option {
	return func(c *httpClient) {
		c.autocompleteBaseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the request pacing.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	logoBaseURL         string
	autocompleteBaseURL string
	http                *http.Client
	limiter             *rate.Limiter
}

// NewClient creates a new Clearbit client. The free endpoints are unmetered
// but undocumented, so requests are paced conservatively by default.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		logoBaseURL:         "https://logo.clearbit.com",
		autocompleteBaseURL: "https://autocomplete.clearbit.com",
		http:                &http.Client{Timeout: 5 * time.Second},
		limiter:             rate.NewLimiter(rate.Limit(10), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) LogoURL(domain string) string {
	if domain == "" {
		return ""
	}
	return c.logoBaseURL + "/" + domain
}

func (c *httpClient) CheckLogo(ctx context.Context, domain string) (string, error) {
	logoURL := c.LogoURL(domain)
	if logoURL == "" {
		return "", nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "clearbit: rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, logoURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "clearbit: create logo request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "clearbit: logo check")
	}
	_ = resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return logoURL, nil
	}
	return "", nil
}

func (c *httpClient) SuggestCompany(ctx context.Context, name string) (*Suggestion, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "clearbit: rate limiter")
	}

	reqURL := c.autocompleteBaseURL + "/v1/companies/suggest?query=" + url.QueryEscape(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "clearbit: create suggest request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "clearbit: suggest request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "clearbit: read suggest response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("clearbit: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var suggestions []Suggestion
	if err := json.Unmarshal(body, &suggestions); err != nil {
		return nil, eris.Wrap(err, "clearbit: unmarshal suggestions")
	}
	if len(suggestions) == 0 {
		return nil, nil
	}
	// Autocomplete orders by relevance; the first hit is the best match.
	return &suggestions[0], nil
}
