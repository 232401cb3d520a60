package enrich

import (
	"context"
	"errors"

	"github.com/sells-group/cardscan/pkg/hunter"
)

// hunterSource wraps Hunter.io: email verification plus company metadata by
// domain. One logical source; exhausting the Hunter quota disables both
// lookups at once.
type hunterSource struct {
	client hunter.Client
}

// NewHunterSource creates the Hunter.io enrichment source.
func NewHunterSource(client hunter.Client) Source {
	return &hunterSource{client: client}
}

func (s *hunterSource) Name() string { return "hunter" }

func (s *hunterSource) Query(ctx context.Context, key Key) (*Result, error) {
	if key.Email == "" && key.Domain == "" {
		return &Result{}, nil
	}

	var frag Fragment

	if key.Email != "" {
		v, err := s.client.VerifyEmail(ctx, key.Email)
		if err != nil {
			return nil, translateHunterErr(err)
		}
		verified := v.Valid()
		score := float64(v.Score) / 100.0
		frag.EmailVerified = &verified
		frag.EmailScore = &score
	}

	if key.Domain != "" {
		info, err := s.client.SearchDomain(ctx, key.Domain)
		if err != nil {
			// Verification may already have succeeded; keep what we have
			// unless the quota is gone, which callers must learn about.
			if translated := translateHunterErr(err); errors.Is(translated, ErrQuotaExhausted) || frag.EmailVerified == nil {
				return nil, translated
			}
			return &Result{Fragment: frag}, nil
		}
		frag.Domain = info.Domain
		frag.Industry = info.Industry
		frag.LinkedInURL = info.LinkedIn
	}

	return &Result{Fragment: frag}, nil
}

func translateHunterErr(err error) error {
	if errors.Is(err, hunter.ErrRateLimited) {
		return ErrQuotaExhausted
	}
	return err
}
