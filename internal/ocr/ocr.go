// Package ocr wraps the text recognition engines behind a single interface.
// The primary engine is fast and free; the fallback engine is slower and
// paid, and is only invoked when the orchestrator judges the primary output
// insufficient.
package ocr

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/cardscan/internal/config"
	"github.com/sells-group/cardscan/internal/model"
)

// Recognizer extracts text lines from a card image, top-to-bottom reading
// order preserved as the engine reports it.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) ([]model.RecognizedLine, error)
	Method() model.OCRMethod
}

// NewPrimary creates the fast primary engine. The gpu flag is accepted for
// config compatibility but tesseract has no GPU backend.
func NewPrimary(cfg config.OCRConfig) Recognizer {
	if cfg.GPU {
		zap.L().Warn("ocr: gpu acceleration configured but the primary engine is cpu only, ignoring")
	}
	return NewTesseract(cfg.Languages)
}

// NewFallback creates the high-accuracy fallback engine, or an error when it
// is not configured. Callers treat a missing fallback as "primary only".
func NewFallback(cfg config.OCRConfig) (Recognizer, error) {
	if cfg.AnthropicKey == "" {
		return nil, eris.New("ocr: fallback engine requires anthropic_api_key")
	}
	return NewClaude(cfg.AnthropicKey, cfg.FallbackModel,
		time.Duration(cfg.FallbackTimeout)*time.Second), nil
}
