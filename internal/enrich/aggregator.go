package enrich

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/cardscan/internal/model"
	"github.com/sells-group/cardscan/internal/resilience"
)

// Aggregator fans a lookup key out to every source concurrently and merges
// the answers in a fixed priority order, so output is reproducible no matter
// which source responds first.
type Aggregator struct {
	sources []Source // priority order, highest first
	quota   *QuotaState
	timeout time.Duration
}

// NewAggregator creates an aggregator over the given sources. The slice
// order is the merge priority.
func NewAggregator(sources []Source, quota *QuotaState, timeout time.Duration) *Aggregator {
	if quota == nil {
		names := make([]string, len(sources))
		for i, s := range sources {
			names[i] = s.Name()
		}
		quota = NewQuotaState(names...)
	}
	return &Aggregator{sources: sources, quota: quota, timeout: timeout}
}

// Quota exposes the shared exhaustion flags.
func (a *Aggregator) Quota() *QuotaState { return a.quota }

// Enrich queries all non-exhausted sources for the record and merges their
// fragments. Always returns a usable value; per-source failures are recorded
// in Sources and never propagate.
func (a *Aggregator) Enrich(ctx context.Context, record model.ContactRecord) *model.CompanyEnrichment {
	if !Enrichable(record) {
		return &model.CompanyEnrichment{}
	}

	key := DeriveKey(record)
	results := make([]*Result, len(a.sources))
	outcomes := make([]model.EnrichmentOutcome, len(a.sources))

	var g errgroup.Group
	for i, src := range a.sources {
		if a.quota.Exhausted(src.Name()) {
			outcomes[i] = model.EnrichmentOutcome{Source: src.Name(), Status: model.SourceStatusRateLimited}
			continue
		}

		g.Go(func() error {
			qctx := ctx
			if a.timeout > 0 {
				var cancel context.CancelFunc
				qctx, cancel = context.WithTimeout(ctx, a.timeout)
				defer cancel()
			}

			res, err := src.Query(qctx, key)
			switch {
			case err == nil:
				results[i] = res
				outcomes[i] = model.EnrichmentOutcome{Source: src.Name(), Status: model.SourceStatusOK}
			case errors.Is(err, ErrQuotaExhausted):
				a.quota.Exhaust(src.Name())
				outcomes[i] = model.EnrichmentOutcome{Source: src.Name(), Status: model.SourceStatusRateLimited}
				zap.L().Warn("enrich: source quota exhausted, disabling for process lifetime",
					zap.String("source", src.Name()))
			case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), isTransportErr(err):
				outcomes[i] = model.EnrichmentOutcome{Source: src.Name(), Status: model.SourceStatusUnavailable}
				zap.L().Warn("enrich: source unreachable",
					zap.String("source", src.Name()),
					zap.Error(err))
			default:
				outcomes[i] = model.EnrichmentOutcome{Source: src.Name(), Status: model.SourceStatusError, Error: err.Error()}
				zap.L().Warn("enrich: source query failed",
					zap.String("source", src.Name()),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	merged := mergeResults(results)
	merged.Sources = outcomes
	return merged
}

// isTransportErr reports failures that happened before the source could
// answer: DNS, dial, reset, or dropped connections. These mark the source
// unavailable, like a timeout. Application-level failures stay errors.
func isTransportErr(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return resilience.IsTransient(err)
}

// mergeResults combines fragments in slice order: the first non-empty value
// per logical field wins, later sources are ignored for that field.
func mergeResults(results []*Result) *model.CompanyEnrichment {
	ce := &model.CompanyEnrichment{}
	for _, res := range results {
		if res == nil {
			continue
		}
		frag := res.Fragment
		if ce.Domain == "" {
			ce.Domain = frag.Domain
		}
		if ce.LogoURL == "" {
			ce.LogoURL = frag.LogoURL
		}
		if ce.Industry == "" {
			ce.Industry = frag.Industry
		}
		if ce.LinkedInURL == "" {
			ce.LinkedInURL = frag.LinkedInURL
		}
		if !ce.EmailVerified && frag.EmailVerified != nil {
			ce.EmailVerified = *frag.EmailVerified
		}
		if ce.EmailScore == 0 && frag.EmailScore != nil {
			ce.EmailScore = *frag.EmailScore
			ce.EmailDeliverable = *frag.EmailScore >= 0.5
		}
	}
	return ce
}

// Apply folds merged enrichment into the contact record and upgrades field
// confidence. Parsed values always win over enriched ones; enrichment only
// fills gaps. A verified email raises its quality label and score.
func Apply(ce *model.CompanyEnrichment, record *model.ContactRecord, fc *model.FieldConfidence) {
	if ce == nil {
		return
	}
	if record.Industry == "" {
		record.Industry = ce.Industry
	}
	if record.LinkedIn == "" {
		record.LinkedIn = ce.LinkedInURL
	}
	if record.CompanyLogo == "" {
		record.CompanyLogo = ce.LogoURL
	}

	if ce.EmailVerified && record.Email != "" && fc != nil {
		score := ce.EmailScore
		if prev := fc.Score(model.FieldEmail); score < prev {
			score = prev
		}
		fc.Set(model.FieldEmail, score, model.QualityVerified)
	}
}
