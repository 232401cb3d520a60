package parser

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// Tolerant of separators: +, -, ., spaces, parentheses. Digit count is
	// validated separately after normalization.
	phoneRe = regexp.MustCompile(`\+?[0-9][0-9\-\.\s\(\)]{5,}[0-9]`)

	websiteRe = regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?[a-z0-9][a-z0-9-]*(?:\.[a-z0-9-]+)*\.(?:com|net|org|io|co|biz|info|us|ai|dev|tech|edu|gov)\b(?:/\S*)?`)

	linkedinRe = regexp.MustCompile(`(?i)(?:linkedin\.com/in/|linkedin:\s*)([A-Za-z0-9_-]+)`)

	digitRe = regexp.MustCompile(`[0-9]`)

	// Address shapes: street number, city/state/zip, unit keywords.
	streetRe       = regexp.MustCompile(`^\d+\s+[A-Za-z]`)
	cityStateZipRe = regexp.MustCompile(`[A-Za-z]+,?\s*[A-Z]{2}\s*\d{5}`)
	unitRe         = regexp.MustCompile(`(?i)\b(suite|ste|floor|building|bldg|apt|unit)\b`)
)

// titleKeywords is the closed vocabulary of role words. A line containing any
// of them (case-insensitive) is treated as a job title.
var titleKeywords = []string{
	"ceo", "cto", "cfo", "coo", "cio", "cmo",
	"president", "vice president", "vp",
	"director", "manager", "senior", "junior",
	"engineer", "developer", "designer", "analyst",
	"consultant", "specialist", "coordinator",
	"executive", "officer", "lead", "head",
	"founder", "co-founder", "partner", "owner",
	"agent", "representative", "accountant", "attorney",
	"lawyer", "physician", "professor", "teacher", "researcher",
}

// companyIndicators are words that mark a line as a company name rather than
// a person.
var companyIndicators = []string{
	"inc", "llc", "llp", "ltd", "corp", "corporation", "company", "co.",
	"group", "partners", "solutions", "services", "technologies", "tech",
	"systems", "consulting", "industries", "enterprises", "associates",
	"international", "realty", "properties",
}

// personalEmailDomains are consumer providers; their domain never identifies
// a company.
var personalEmailDomains = map[string]struct{}{
	"gmail.com": {}, "yahoo.com": {}, "hotmail.com": {}, "outlook.com": {},
	"aol.com": {}, "icloud.com": {}, "mail.com": {}, "protonmail.com": {},
	"zoho.com": {}, "live.com": {}, "msn.com": {}, "me.com": {},
	"comcast.net": {}, "verizon.net": {}, "att.net": {},
}

func hasTitleKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range titleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func hasCompanyIndicator(line string) bool {
	lower := strings.ToLower(line)
	for _, ind := range companyIndicators {
		// Word-boundary check keeps "co." from matching inside "confidence".
		for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
			return r == ' ' || r == ',' || r == '\t'
		}) {
			if strings.TrimSuffix(w, ".") == strings.TrimSuffix(ind, ".") {
				return true
			}
		}
	}
	return false
}

// looksLikeAddress reports whether the line matches a street, city/state/zip,
// or unit shape. Role lines are excluded so "Floor Manager" stays a title.
func looksLikeAddress(line string) bool {
	if hasTitleKeyword(line) {
		return false
	}
	return streetRe.MatchString(strings.TrimSpace(line)) ||
		cityStateZipRe.MatchString(line) ||
		unitRe.MatchString(line)
}

// LooksLikeEmail reports whether the text contains an email-shaped token.
func LooksLikeEmail(text string) bool {
	return emailRe.MatchString(text)
}

// LooksLikePhone reports whether the text contains a phone-shaped token with
// enough digits to be a real number.
func LooksLikePhone(text string) bool {
	for _, m := range phoneRe.FindAllString(text, -1) {
		if NormalizePhone(m) != "" {
			return true
		}
	}
	return false
}

// IsPersonalDomain reports whether the email domain belongs to a consumer
// provider rather than a company.
func IsPersonalDomain(domain string) bool {
	_, ok := personalEmailDomains[strings.ToLower(domain)]
	return ok
}
