package enrich

import (
	"context"

	"github.com/sells-group/cardscan/pkg/clearbit"
)

// clearbitSource contributes the company logo and, when the record carries
// only a company name, resolves the domain via autocomplete. Both Clearbit
// endpoints are free and unkeyed, so this source never exhausts a quota.
type clearbitSource struct {
	client clearbit.Client
}

// NewClearbitSource creates the Clearbit enrichment source.
func NewClearbitSource(client clearbit.Client) Source {
	return &clearbitSource{client: client}
}

func (s *clearbitSource) Name() string { return "clearbit" }

func (s *clearbitSource) Query(ctx context.Context, key Key) (*Result, error) {
	var frag Fragment

	domain := key.Domain
	if domain == "" && key.Company != "" {
		suggestion, err := s.client.SuggestCompany(ctx, key.Company)
		if err != nil {
			return nil, err
		}
		if suggestion != nil {
			domain = suggestion.Domain
			frag.LogoURL = suggestion.Logo
		}
	}
	if domain == "" {
		return &Result{}, nil
	}

	frag.Domain = domain
	if frag.LogoURL == "" {
		logo, err := s.client.CheckLogo(ctx, domain)
		if err != nil {
			return nil, err
		}
		frag.LogoURL = logo
	}

	return &Result{Fragment: frag}, nil
}
