package ocr

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/rotisserie/eris"

	"github.com/sells-group/cardscan/internal/model"
)

// Tesseract is the primary OCR engine, backed by the gosseract client. A
// fresh client is created per call: the client holds cgo state and is not
// safe for concurrent reuse.
type Tesseract struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseract creates a Tesseract engine for the given languages.
func NewTesseract(languages []string) *Tesseract {
	return &Tesseract{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

// Method reports the engine label recorded on pipeline results.
func (t *Tesseract) Method() model.OCRMethod { return model.OCRMethodFast }

// Recognize runs Tesseract over the image and returns cleaned text lines
// with per-line confidence in [0,1].
func (t *Tesseract) Recognize(ctx context.Context, image []byte) ([]model.RecognizedLine, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	c := t.clientFactory()
	defer c.Close() //nolint:errcheck

	if len(t.languages) > 0 {
		if err := c.SetLanguage(t.languages...); err != nil {
			return nil, eris.Wrap(err, "ocr: set languages")
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return nil, eris.Wrap(err, "ocr: set image")
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: recognize text")
	}

	lines := make([]model.RecognizedLine, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		lines = append(lines, model.RecognizedLine{
			Text:       text,
			Confidence: b.Confidence / 100.0,
		})
	}

	return CleanLines(lines), nil
}
