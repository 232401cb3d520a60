package pipeline

import (
	"github.com/sells-group/cardscan/internal/model"
	"github.com/sells-group/cardscan/internal/parser"
)

// sufficient judges primary OCR output. The fallback engine costs money per
// card, so it only runs when the primary result is unusable: too few lines,
// low mean confidence, or nothing that looks like a reachable contact.
func sufficient(lines []model.RecognizedLine, minLines int, minConfidence float64) (bool, string) {
	if len(lines) < minLines {
		return false, "too few lines"
	}

	var sum float64
	for _, ln := range lines {
		sum += ln.Confidence
	}
	if sum/float64(len(lines)) < minConfidence {
		return false, "low mean confidence"
	}

	for _, ln := range lines {
		if parser.LooksLikeEmail(ln.Text) || parser.LooksLikePhone(ln.Text) {
			return true, ""
		}
	}
	return false, "no email or phone pattern"
}
