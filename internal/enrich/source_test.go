package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cardscan/internal/model"
	"github.com/sells-group/cardscan/pkg/clearbit"
	"github.com/sells-group/cardscan/pkg/hunter"
)

func TestDeriveKey_WebsiteDomainPreferred(t *testing.T) {
	key := DeriveKey(model.ContactRecord{
		Email:   "jane@acme.com",
		Website: "https://www.acme-widgets.com/about",
		Company: "Acme Widgets",
	})

	assert.Equal(t, "acme-widgets.com", key.Domain)
	assert.Equal(t, "jane@acme.com", key.Email)
	assert.Equal(t, "Acme Widgets", key.Company)
}

func TestDeriveKey_EmailDomainFallback(t *testing.T) {
	key := DeriveKey(model.ContactRecord{Email: "jane@acme.com"})
	assert.Equal(t, "acme.com", key.Domain)
}

func TestDeriveKey_PersonalDomainSkipped(t *testing.T) {
	key := DeriveKey(model.ContactRecord{Email: "jane@gmail.com"})
	assert.Empty(t, key.Domain)
	assert.Equal(t, "jane@gmail.com", key.Email)
}

func TestEnrichable(t *testing.T) {
	assert.False(t, Enrichable(model.ContactRecord{Name: "Jane Smith", Title: "CEO"}))
	assert.True(t, Enrichable(model.ContactRecord{Email: "jane@acme.com"}))
	assert.True(t, Enrichable(model.ContactRecord{Company: "Acme"}))
	assert.True(t, Enrichable(model.ContactRecord{Website: "acme.com"}))
}

func TestQuotaState_Monotonic(t *testing.T) {
	q := NewQuotaState("hunter", "clearbit")

	assert.False(t, q.Exhausted("hunter"))
	q.Exhaust("hunter")
	assert.True(t, q.Exhausted("hunter"))
	assert.False(t, q.Exhausted("clearbit"))

	// Unknown sources are tracked lazily, starting not exhausted.
	assert.False(t, q.Exhausted("other"))
}

func TestDetectIndustry(t *testing.T) {
	tests := []struct {
		company string
		want    string
	}{
		{"Coastal Realty Group", "real estate"},
		{"CloudWorks Software", "technology"},
		{"First Capital Bank", "finance"},
		{"Lakeside Medical Clinic", "healthcare"},
		{"Smith & Jones Attorneys", "legal"},
		{"Acme Widgets", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectIndustry(tt.company), tt.company)
	}
}

func TestLinkedinCompanyURL(t *testing.T) {
	assert.Equal(t, "https://www.linkedin.com/company/acme-widgets",
		linkedinCompanyURL("Acme Widgets, Inc."))
	assert.Empty(t, linkedinCompanyURL("!!!"))
}

func TestHeuristicSource(t *testing.T) {
	src := NewHeuristicSource()
	res, err := src.Query(context.Background(), Key{Company: "Acme Consulting", Domain: "acme.com"})
	require.NoError(t, err)
	assert.Equal(t, "consulting", res.Fragment.Industry)
	assert.Equal(t, "https://www.linkedin.com/company/acme-consulting", res.Fragment.LinkedInURL)
	assert.Equal(t, "acme.com", res.Fragment.Domain)
}

type stubHunter struct {
	verification *hunter.Verification
	verifyErr    error
	domainInfo   *hunter.DomainInfo
	domainErr    error
}

func (s *stubHunter) VerifyEmail(context.Context, string) (*hunter.Verification, error) {
	return s.verification, s.verifyErr
}

func (s *stubHunter) SearchDomain(context.Context, string) (*hunter.DomainInfo, error) {
	return s.domainInfo, s.domainErr
}

func TestHunterSource_Query(t *testing.T) {
	src := NewHunterSource(&stubHunter{
		verification: &hunter.Verification{Status: "valid", Score: 92},
		domainInfo: &hunter.DomainInfo{
			Domain:   "acme.com",
			Industry: "Manufacturing",
			LinkedIn: "https://linkedin.com/company/acme",
		},
	})

	res, err := src.Query(context.Background(), Key{Email: "jane@acme.com", Domain: "acme.com"})
	require.NoError(t, err)
	require.NotNil(t, res.Fragment.EmailVerified)
	assert.True(t, *res.Fragment.EmailVerified)
	assert.InDelta(t, 0.92, *res.Fragment.EmailScore, 1e-9)
	assert.Equal(t, "Manufacturing", res.Fragment.Industry)
}

func TestHunterSource_RateLimited(t *testing.T) {
	src := NewHunterSource(&stubHunter{verifyErr: hunter.ErrRateLimited})

	_, err := src.Query(context.Background(), Key{Email: "jane@acme.com"})
	require.ErrorIs(t, err, ErrQuotaExhausted)
}

func TestHunterSource_DomainErrorKeepsVerification(t *testing.T) {
	src := NewHunterSource(&stubHunter{
		verification: &hunter.Verification{Status: "valid", Score: 80},
		domainErr:    assert.AnError,
	})

	res, err := src.Query(context.Background(), Key{Email: "jane@acme.com", Domain: "acme.com"})
	require.NoError(t, err)
	require.NotNil(t, res.Fragment.EmailVerified)
	assert.True(t, *res.Fragment.EmailVerified)
	assert.Empty(t, res.Fragment.Industry)
}

func TestHunterSource_NothingToQuery(t *testing.T) {
	src := NewHunterSource(&stubHunter{})
	res, err := src.Query(context.Background(), Key{Company: "Acme"})
	require.NoError(t, err)
	assert.Nil(t, res.Fragment.EmailVerified)
}

type stubClearbit struct {
	suggestion *clearbit.Suggestion
	suggestErr error
	logo       string
	logoErr    error
}

func (s *stubClearbit) LogoURL(domain string) string {
	return "https://logo.clearbit.com/" + domain
}

func (s *stubClearbit) CheckLogo(context.Context, string) (string, error) {
	return s.logo, s.logoErr
}

func (s *stubClearbit) SuggestCompany(context.Context, string) (*clearbit.Suggestion, error) {
	return s.suggestion, s.suggestErr
}

func TestClearbitSource_WithDomain(t *testing.T) {
	src := NewClearbitSource(&stubClearbit{logo: "https://logo.clearbit.com/acme.com"})

	res, err := src.Query(context.Background(), Key{Domain: "acme.com"})
	require.NoError(t, err)
	assert.Equal(t, "acme.com", res.Fragment.Domain)
	assert.Equal(t, "https://logo.clearbit.com/acme.com", res.Fragment.LogoURL)
}

func TestClearbitSource_ResolvesDomainFromName(t *testing.T) {
	src := NewClearbitSource(&stubClearbit{
		suggestion: &clearbit.Suggestion{
			Name:   "Acme Widgets",
			Domain: "acme.com",
			Logo:   "https://logo.clearbit.com/acme.com",
		},
	})

	res, err := src.Query(context.Background(), Key{Company: "Acme Widgets"})
	require.NoError(t, err)
	assert.Equal(t, "acme.com", res.Fragment.Domain)
	assert.Equal(t, "https://logo.clearbit.com/acme.com", res.Fragment.LogoURL)
}

func TestClearbitSource_NoIdentity(t *testing.T) {
	src := NewClearbitSource(&stubClearbit{})
	res, err := src.Query(context.Background(), Key{})
	require.NoError(t, err)
	assert.Empty(t, res.Fragment.Domain)
	assert.Empty(t, res.Fragment.LogoURL)
}
