// Package parser turns ordered OCR line sequences into structured contact
// records with per-field confidence. Parsing is pure: no I/O, no external
// calls.
package parser

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/cardscan/internal/model"
)

// ClaimOrder is the fixed precedence in which detectors claim lines. A line
// is consumed by exactly one field: the first detector in this order that
// matches it wins. Test reproducibility depends on this exact sequence.
var ClaimOrder = []string{
	model.FieldEmail,
	model.FieldPhone,
	model.FieldWebsite,
	model.FieldLinkedIn,
	model.FieldAddress,
	model.FieldTitle,
	model.FieldName,
	model.FieldCompany,
}

type parseState struct {
	lines   []model.RecognizedLine
	claimed []bool

	record model.ContactRecord
	fc     model.FieldConfidence

	titleLine int // index of the claimed title line, -1 if none
}

// Parse extracts a ContactRecord and per-field confidence from recognized
// lines. Empty input yields an empty record with confidence 0.0 and no
// error: absence of data is a valid outcome.
func Parse(lines []model.RecognizedLine) (model.ContactRecord, model.FieldConfidence) {
	st := &parseState{
		lines:     lines,
		claimed:   make([]bool, len(lines)),
		fc:        model.NewFieldConfidence(),
		titleLine: -1,
	}
	st.record.Phone = []string{}

	if len(lines) == 0 {
		return st.record, st.fc
	}

	for _, field := range ClaimOrder {
		switch field {
		case model.FieldEmail:
			st.claimEmail()
		case model.FieldPhone:
			st.claimPhones()
		case model.FieldWebsite:
			st.claimWebsite()
		case model.FieldLinkedIn:
			st.claimLinkedIn()
		case model.FieldAddress:
			st.claimAddress()
		case model.FieldTitle:
			st.claimTitle()
		case model.FieldName:
			st.claimName()
		case model.FieldCompany:
			st.claimCompany()
		}
	}

	st.record.SplitName()
	st.record.ConfidenceScore = overallConfidence(st.record, st.fc)
	st.fc.Overall = st.record.ConfidenceScore

	return st.record, st.fc
}

// claimEmail takes the first email-shaped match as the primary email. Later
// email lines are still claimed so they cannot leak into name or company,
// but only the first is kept.
func (st *parseState) claimEmail() {
	for i, ln := range st.lines {
		if st.claimed[i] {
			continue
		}
		match := emailRe.FindString(ln.Text)
		if match == "" {
			continue
		}
		st.claimed[i] = true
		if st.record.Email == "" {
			st.record.Email = strings.ToLower(match)
			st.fc.Set(model.FieldEmail, ln.Confidence, model.QualityValidFormat)
		}
	}
	if st.record.Email == "" {
		st.fc.Set(model.FieldEmail, 0, model.QualityMissing)
	}
}

// claimPhones collects all distinct normalized numbers across the card,
// preserving first-seen order.
func (st *parseState) claimPhones() {
	seen := make(map[string]struct{})
	var confSum float64
	var confN int
	maxDigits := 0

	for i, ln := range st.lines {
		if st.claimed[i] {
			continue
		}
		matches := phoneRe.FindAllString(ln.Text, -1)
		lineClaimed := false
		for _, m := range matches {
			norm := NormalizePhone(m)
			if norm == "" {
				continue
			}
			lineClaimed = true
			if _, dup := seen[norm]; dup {
				continue
			}
			seen[norm] = struct{}{}
			st.record.Phone = append(st.record.Phone, norm)
			if len(norm) > maxDigits {
				maxDigits = len(norm)
			}
		}
		if lineClaimed {
			st.claimed[i] = true
			confSum += ln.Confidence
			confN++
		}
	}

	if len(st.record.Phone) == 0 {
		st.fc.Set(model.FieldPhone, 0, model.QualityMissing)
		return
	}
	quality := model.QualityPartial
	if maxDigits >= 10 {
		quality = model.QualityComplete
	}
	st.fc.Set(model.FieldPhone, confSum/float64(confN), quality)
}

// claimWebsite picks the first URL- or domain-shaped token that is not the
// email's own domain and not a social profile.
func (st *parseState) claimWebsite() {
	skipDomain := emailDomain(st.record.Email)

	for i, ln := range st.lines {
		if st.claimed[i] {
			continue
		}
		match := websiteRe.FindString(ln.Text)
		if match == "" {
			continue
		}
		lower := strings.ToLower(match)
		// Leave LinkedIn lines for the linkedin detector.
		if strings.Contains(lower, "linkedin.com") {
			continue
		}
		// The email's own domain and other social links are consumed here so
		// they cannot leak into name or company, but never become the website.
		if skipDomain != "" && strings.Contains(lower, skipDomain) {
			st.claimed[i] = true
			continue
		}
		if strings.Contains(lower, "twitter.com") || strings.Contains(lower, "facebook.com") {
			st.claimed[i] = true
			continue
		}
		st.claimed[i] = true
		if st.record.Website == "" {
			st.record.Website = normalizeWebsite(match)
			st.fc.Set(model.FieldWebsite, ln.Confidence, model.QualityValidFormat)
		}
	}
	if st.record.Website == "" {
		st.fc.Set(model.FieldWebsite, 0, model.QualityMissing)
	}
}

func (st *parseState) claimLinkedIn() {
	for i, ln := range st.lines {
		if st.claimed[i] {
			continue
		}
		m := linkedinRe.FindStringSubmatch(ln.Text)
		if m == nil {
			continue
		}
		st.claimed[i] = true
		if st.record.LinkedIn == "" {
			st.record.LinkedIn = "https://linkedin.com/in/" + m[1]
			st.fc.Set(model.FieldLinkedIn, ln.Confidence, model.QualityValidFormat)
		}
	}
}

// claimAddress gathers every unclaimed address-shaped line and joins them in
// card order: street, unit, and city/state/zip usually span several lines.
// Claiming them here keeps digit-heavy lines out of the company pick.
func (st *parseState) claimAddress() {
	var parts []string
	var confSum float64

	for i, ln := range st.lines {
		if st.claimed[i] {
			continue
		}
		if !looksLikeAddress(ln.Text) {
			continue
		}
		st.claimed[i] = true
		parts = append(parts, strings.TrimSpace(ln.Text))
		confSum += ln.Confidence
	}

	if len(parts) == 0 {
		return
	}
	st.record.Address = strings.Join(parts, ", ")
	st.fc.Set(model.FieldAddress, confSum/float64(len(parts)), model.QualityUnverified)
}

func (st *parseState) claimTitle() {
	for i, ln := range st.lines {
		if st.claimed[i] {
			continue
		}
		if !hasTitleKeyword(ln.Text) {
			continue
		}
		// Lines with company indicators belong to the company detector even
		// when they contain a role word ("Consulting Group").
		if hasCompanyIndicator(ln.Text) {
			continue
		}
		st.claimed[i] = true
		st.titleLine = i
		st.record.Title = strings.TrimSpace(ln.Text)
		st.fc.Set(model.FieldTitle, ln.Confidence, model.QualityUnverified)
		return
	}
	st.fc.Set(model.FieldTitle, 0, model.QualityMissing)
}

// claimName selects the unclaimed digit-free line with the highest OCR
// confidence, preferring lines nearer the top of the card on ties (names
// usually appear first or largest).
func (st *parseState) claimName() {
	best := -1
	for i, ln := range st.lines {
		if st.claimed[i] {
			continue
		}
		text := strings.TrimSpace(ln.Text)
		if text == "" || digitRe.MatchString(text) {
			continue
		}
		if hasCompanyIndicator(text) || hasTitleKeyword(text) {
			continue
		}
		if best < 0 || ln.Confidence > st.lines[best].Confidence {
			best = i
		}
	}
	if best < 0 {
		st.fc.Set(model.FieldName, 0, model.QualityMissing)
		return
	}
	st.claimed[best] = true
	st.record.Name = strings.TrimSpace(st.lines[best].Text)
	st.fc.Set(model.FieldName, st.lines[best].Confidence, model.QualityUnverified)
}

// claimCompany takes the remaining unclaimed line with the highest
// confidence. When a title line exists, the line adjacent to it in the
// original order is preferred: cards commonly stack company next to role.
// Falls back to inferring the company from a business email domain.
func (st *parseState) claimCompany() {
	pick := -1

	if st.titleLine >= 0 {
		for _, adj := range []int{st.titleLine + 1, st.titleLine - 1} {
			if adj >= 0 && adj < len(st.lines) && !st.claimed[adj] &&
				strings.TrimSpace(st.lines[adj].Text) != "" {
				pick = adj
				break
			}
		}
	}

	if pick < 0 {
		for i, ln := range st.lines {
			if st.claimed[i] || strings.TrimSpace(ln.Text) == "" {
				continue
			}
			if pick < 0 || ln.Confidence > st.lines[pick].Confidence {
				pick = i
			}
		}
	}

	if pick >= 0 {
		st.claimed[pick] = true
		st.record.Company = strings.TrimSpace(st.lines[pick].Text)
		st.fc.Set(model.FieldCompany, st.lines[pick].Confidence, model.QualityUnverified)
		return
	}

	if domain := emailDomain(st.record.Email); domain != "" && !IsPersonalDomain(domain) {
		label, _, _ := strings.Cut(domain, ".")
		if label != "" {
			st.record.Company = cases.Title(language.English).String(label)
			st.fc.Set(model.FieldCompany, 0.5, model.QualityPartial)
			return
		}
	}
	st.fc.Set(model.FieldCompany, 0, model.QualityMissing)
}

// ParseText splits free text into synthetic recognized lines (confidence
// 1.0, the text is assumed transcribed, not OCR'd) and parses them.
func ParseText(text string) (model.ContactRecord, model.FieldConfidence) {
	var lines []model.RecognizedLine
	for _, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		lines = append(lines, model.RecognizedLine{Text: trimmed, Confidence: 1.0})
	}
	return Parse(lines)
}
