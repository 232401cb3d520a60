// Package enrich queries independent external data sources for a parsed
// contact and merges their outputs deterministically. Every source is
// best-effort: failures, timeouts, and exhausted quotas degrade the output,
// they never abort it.
package enrich

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cardscan/internal/model"
	"github.com/sells-group/cardscan/internal/parser"
)

// ErrQuotaExhausted signals that a source's free quota ran out. The
// aggregator marks the source exhausted for the rest of the process lifetime.
var ErrQuotaExhausted = eris.New("enrich: source quota exhausted")

// Key identifies the contact for source lookups. Sources use whichever
// parts they need and ignore the rest.
type Key struct {
	Email   string
	Domain  string
	Company string
}

// Fragment is the partial payload a single source contributes. Empty fields
// were not supplied; pointers distinguish "not checked" from "checked,
// negative".
type Fragment struct {
	Domain      string
	LogoURL     string
	Industry    string
	LinkedInURL string

	EmailVerified *bool
	EmailScore    *float64
}

// Result is a successful source response.
type Result struct {
	Fragment Fragment
}

// Source is a single external enrichment provider.
type Source interface {
	Name() string
	Query(ctx context.Context, key Key) (*Result, error)
}

// DeriveKey extracts the lookup key from a parsed record. The company domain
// comes from the website when present, else from a non-personal email domain.
func DeriveKey(record model.ContactRecord) Key {
	key := Key{
		Email:   record.Email,
		Company: record.Company,
	}

	if d := domainFromWebsite(record.Website); d != "" {
		key.Domain = d
	} else if d := domainFromEmail(record.Email); d != "" {
		key.Domain = d
	}
	return key
}

// Enrichable reports whether the record carries enough identity for any
// source to act on. Without it enrichment is a no-op.
func Enrichable(record model.ContactRecord) bool {
	return record.Email != "" || record.Company != "" || record.Website != ""
}

func domainFromWebsite(website string) string {
	if website == "" {
		return ""
	}
	raw := website
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if !strings.Contains(host, ".") {
		return ""
	}
	return host
}

func domainFromEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	domain := strings.ToLower(email[at+1:])
	if parser.IsPersonalDomain(domain) {
		return ""
	}
	return domain
}
