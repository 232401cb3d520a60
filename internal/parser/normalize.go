package parser

import "strings"

// NormalizePhone reduces a raw phone match to its canonical digit string.
// All non-digit characters are stripped; a leading country code marked with
// "+" keeps its digits at the front. Idempotent: normalizing an already
// normalized number returns it unchanged. Returns "" when the match has too
// few digits to be a phone number.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 7 {
		return ""
	}
	return digits
}

// normalizeWebsite lowercases a URL-shaped token and ensures a scheme.
func normalizeWebsite(raw string) string {
	url := strings.ToLower(strings.TrimSpace(raw))
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return url
}

// emailDomain extracts the domain part of an email address, "" if malformed.
func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
