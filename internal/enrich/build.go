package enrich

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cardscan/internal/config"
	"github.com/sells-group/cardscan/pkg/clearbit"
	"github.com/sells-group/cardscan/pkg/hunter"
)

// NewFromConfig builds the aggregator with sources in the configured
// priority order. A source whose credential is absent is still registered
// (so its status shows up in results) but starts permanently exhausted.
func NewFromConfig(cfg *config.Config) (*Aggregator, error) {
	var sources []Source
	var exhausted []string

	for _, name := range cfg.Enrich.SourceOrder {
		switch name {
		case "hunter":
			var opts []hunter.Option
			if cfg.Hunter.BaseURL != "" {
				opts = append(opts, hunter.WithBaseURL(cfg.Hunter.BaseURL))
			}
			sources = append(sources, NewHunterSource(hunter.NewClient(cfg.Hunter.Key, opts...)))
			if cfg.Hunter.Key == "" {
				exhausted = append(exhausted, "hunter")
			}
		case "clearbit":
			var opts []clearbit.Option
			if cfg.Clearbit.LogoBaseURL != "" {
				opts = append(opts, clearbit.WithLogoBaseURL(cfg.Clearbit.LogoBaseURL))
			}
			if cfg.Clearbit.AutocompleteBaseURL != "" {
				opts = append(opts, clearbit.WithAutocompleteBaseURL(cfg.Clearbit.AutocompleteBaseURL))
			}
			sources = append(sources, NewClearbitSource(clearbit.NewClient(opts...)))
		case "heuristic":
			sources = append(sources, NewHeuristicSource())
		default:
			return nil, eris.Errorf("enrich: unknown source %q", name)
		}
	}

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	quota := NewQuotaState(names...)
	for _, name := range exhausted {
		quota.Exhaust(name)
	}

	timeout := time.Duration(cfg.Enrich.TimeoutSecs) * time.Second
	return NewAggregator(sources, quota, timeout), nil
}
