package ocr

import (
	"regexp"
	"strings"

	"github.com/sells-group/cardscan/internal/model"
)

// OCR engines confuse visually similar glyphs. These patterns fix the two
// dominant confusions (digit 1 for letter l, digit 0 for letter o) only in
// positions where letters surround the digit, so real numbers are untouched.
var (
	oneMidWordRe   = regexp.MustCompile(`([a-zA-Z])1([a-zA-Z])`)
	oneWordStartRe = regexp.MustCompile(`\b1([a-zA-Z]{2,})`)
	oneWordEndRe   = regexp.MustCompile(`([a-zA-Z]{2,})1\b`)
	doubleOneRe    = regexp.MustCompile(`([a-zA-Z])11([a-zA-Z]|\b)`)
	zeroMidWordRe  = regexp.MustCompile(`([a-zA-Z])0([a-zA-Z])`)

	// Email and URL gluing: OCR splits "@acme.com" into "@acme . com" or
	// reads ".com" as ".c0m".
	emailDotSpaceRe = regexp.MustCompile(`(?i)@(\w+)\s*\.\s*com\b`)
	emailMissingDot = regexp.MustCompile(`(?i)@(\w+)\s+com\b`)
	comConfusionRe  = regexp.MustCompile(`(?i)\.c[o0]m\b`)
	wwwSpaceRe      = regexp.MustCompile(`(?i)www\s*\.\s*`)
	alphanumericRe  = regexp.MustCompile(`[a-zA-Z0-9]`)
)

// CorrectText applies glyph-confusion and gluing fixes to a single line.
func CorrectText(text string) string {
	// Double-1 first so "Wi11iam" becomes "William", not "Wiliiam".
	text = doubleOneRe.ReplaceAllString(text, "${1}ll${2}")
	text = oneMidWordRe.ReplaceAllString(text, "${1}l${2}")
	text = oneWordStartRe.ReplaceAllString(text, "l${1}")
	text = oneWordEndRe.ReplaceAllString(text, "${1}l")
	text = zeroMidWordRe.ReplaceAllString(text, "${1}o${2}")

	text = emailDotSpaceRe.ReplaceAllString(text, "@${1}.com")
	text = emailMissingDot.ReplaceAllString(text, "@${1}.com")
	text = comConfusionRe.ReplaceAllString(text, ".com")
	text = wwwSpaceRe.ReplaceAllString(text, "www.")

	return strings.Join(strings.Fields(text), " ")
}

// CleanLines corrects each line and drops the ones too short or too noisy
// to carry contact information.
func CleanLines(lines []model.RecognizedLine) []model.RecognizedLine {
	out := make([]model.RecognizedLine, 0, len(lines))
	for _, ln := range lines {
		text := CorrectText(ln.Text)
		if !keepLine(text) {
			continue
		}
		out = append(out, model.RecognizedLine{Text: text, Confidence: ln.Confidence})
	}
	return out
}

// keepLine rejects lines under 2 characters and lines that are mostly
// punctuation or decoration.
func keepLine(text string) bool {
	if len(text) < 2 {
		return false
	}
	alnum := len(alphanumericRe.FindAllString(text, -1))
	return alnum*2 >= len(text)
}
