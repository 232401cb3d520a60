package enrich

import (
	"context"
	"regexp"
	"strings"
)

// industryCategories maps an industry label to name fragments that imply it.
// Order of categories is fixed so detection is deterministic.
var industryCategories = []struct {
	industry string
	keywords []string
}{
	{"real estate", []string{"real estate", "realty", "property", "properties", "housing", "homes"}},
	{"technology", []string{"tech", "software", "digital", "cyber", "cloud", "data", "computing"}},
	{"finance", []string{"bank", "financial", "capital", "investment", "wealth", "insurance", "credit"}},
	{"healthcare", []string{"health", "medical", "hospital", "clinic", "care", "pharma", "biotech"}},
	{"legal", []string{"law", "legal", "attorney", "lawyer", "counsel"}},
	{"consulting", []string{"consulting", "advisory", "consultants", "solutions"}},
	{"manufacturing", []string{"manufacturing", "industrial", "factory", "production"}},
	{"retail", []string{"retail", "store", "shop", "commerce", "market"}},
	{"hospitality", []string{"hotel", "restaurant", "hospitality", "resort", "travel"}},
	{"education", []string{"university", "college", "school", "education", "academy", "institute"}},
}

var nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

// heuristicSource derives industry and a LinkedIn company URL from the
// company name alone. Local computation, always available, never exhausted.
// It sits last in priority so API-backed sources win when they answer.
type heuristicSource struct{}

// NewHeuristicSource creates the local keyword-based enrichment source.
func NewHeuristicSource() Source {
	return &heuristicSource{}
}

func (heuristicSource) Name() string { return "heuristic" }

func (heuristicSource) Query(_ context.Context, key Key) (*Result, error) {
	var frag Fragment
	if key.Company != "" {
		frag.Industry = DetectIndustry(key.Company)
		frag.LinkedInURL = linkedinCompanyURL(key.Company)
	}
	frag.Domain = key.Domain
	return &Result{Fragment: frag}, nil
}

// DetectIndustry matches the company name against the keyword vocabulary.
// Returns "" when nothing matches.
func DetectIndustry(companyName string) string {
	lower := strings.ToLower(companyName)
	for _, cat := range industryCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return cat.industry
			}
		}
	}
	return ""
}

// linkedinCompanyURL builds a LinkedIn company slug URL from the name.
func linkedinCompanyURL(companyName string) string {
	clean := nonAlnumRe.ReplaceAllString(companyName, "")
	clean = strings.ToLower(strings.TrimSpace(clean))
	clean = strings.Join(strings.Fields(clean), "-")
	if clean == "" {
		return ""
	}
	return "https://www.linkedin.com/company/" + clean
}
