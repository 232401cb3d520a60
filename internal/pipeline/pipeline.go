// Package pipeline sequences recognition, parsing, and enrichment for a
// card image and produces the final result object. Per-image processing is
// independent; the only shared state is the enrichment quota flags.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/cardscan/internal/config"
	"github.com/sells-group/cardscan/internal/enrich"
	"github.com/sells-group/cardscan/internal/model"
	"github.com/sells-group/cardscan/internal/ocr"
	"github.com/sells-group/cardscan/internal/parser"
	"github.com/sells-group/cardscan/internal/resilience"
	"github.com/sells-group/cardscan/internal/store"
)

// Enricher is the aggregator surface the pipeline needs.
type Enricher interface {
	Enrich(ctx context.Context, record model.ContactRecord) *model.CompanyEnrichment
}

// Pipeline orchestrates OCR, parsing, enrichment, and run logging.
type Pipeline struct {
	primary  ocr.Recognizer
	fallback ocr.Recognizer // nil when no fallback is configured
	enricher Enricher       // nil disables enrichment
	store    store.Store    // nil disables run logging

	minLines      int
	minConfidence float64
	batchLimit    int
}

// New wires the pipeline from config. The store may be nil.
func New(cfg *config.Config, st store.Store) (*Pipeline, error) {
	var fallback ocr.Recognizer
	if cfg.OCR.AnthropicKey != "" {
		fb, err := ocr.NewFallback(cfg.OCR)
		if err != nil {
			return nil, err
		}
		fallback = fb
	} else {
		zap.L().Info("pipeline: no fallback OCR configured, running primary only")
	}

	enricher, err := enrich.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	return NewWith(ocr.NewPrimary(cfg.OCR), fallback, enricher, st,
		cfg.OCR, cfg.Batch.MaxConcurrentImages), nil
}

// NewWith assembles a pipeline from explicit components.
func NewWith(primary, fallback ocr.Recognizer, enricher Enricher, st store.Store,
	ocrCfg config.OCRConfig, batchLimit int) *Pipeline {
	if batchLimit <= 0 {
		batchLimit = 4
	}
	return &Pipeline{
		primary:       primary,
		fallback:      fallback,
		enricher:      enricher,
		store:         st,
		minLines:      ocrCfg.MinLines,
		minConfidence: ocrCfg.MinConfidence,
		batchLimit:    batchLimit,
	}
}

// Option adjusts a single Process invocation.
type Option func(*options)

type options struct {
	skipEnrich    bool
	forceFallback bool
	imageName     string
}

// WithoutEnrichment skips the enrichment stage.
func WithoutEnrichment() Option {
	return func(o *options) { o.skipEnrich = true }
}

// ForceFallback routes recognition straight to the fallback engine.
func ForceFallback() Option {
	return func(o *options) { o.forceFallback = true }
}

// WithImageName labels the run in the store.
func WithImageName(name string) Option {
	return func(o *options) { o.imageName = name }
}

// Process runs the full pipeline for one image. Errors surface in the
// result, never as a Go error: a failed image is a data point, not a crash.
func (p *Pipeline) Process(ctx context.Context, image []byte, opts ...Option) model.PipelineResult {
	start := time.Now()
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	result := p.run(ctx, image, o)
	result.ProcessingTimeMS = time.Since(start).Milliseconds()
	result.ProcessedAt = time.Now().UTC()

	p.logRun(ctx, o.imageName, result)
	return result
}

func (p *Pipeline) run(ctx context.Context, image []byte, o options) model.PipelineResult {
	if err := checkDecodable(image); err != nil {
		return model.PipelineResult{Error: err.Error()}
	}

	lines, method, err := p.recognize(ctx, image, o.forceFallback)
	if err != nil {
		return model.PipelineResult{Error: err.Error(), OCRMethod: method}
	}

	record, fc := parser.Parse(lines)

	result := model.PipelineResult{
		Success:   true,
		OCRMethod: method,
	}

	if p.enricher != nil && !o.skipEnrich && enrich.Enrichable(record) {
		ce := p.enricher.Enrich(ctx, record)
		enrich.Apply(ce, &record, &fc)
		result.CompanyEnrichment = ce
	}

	result.ContactData = &record
	result.FieldConfidence = &fc
	return result
}

// recognize picks the OCR path. The fallback runs when forced, when the
// primary engine errors, or when its output fails the sufficiency check. A
// failing fallback falls back to whatever the primary produced; only both
// engines failing is a hard error.
func (p *Pipeline) recognize(ctx context.Context, image []byte, force bool) ([]model.RecognizedLine, model.OCRMethod, error) {
	if force {
		if p.fallback == nil {
			return nil, "", eris.New("pipeline: fallback forced but not configured")
		}
		lines, err := p.fallback.Recognize(ctx, image)
		if err != nil {
			return nil, p.fallback.Method(), eris.Wrap(err, "pipeline: fallback recognition failed")
		}
		return lines, p.fallback.Method(), nil
	}

	lines, primaryErr := p.primary.Recognize(ctx, image)
	if primaryErr == nil {
		ok, reason := sufficient(lines, p.minLines, p.minConfidence)
		if ok {
			return lines, p.primary.Method(), nil
		}
		zap.L().Debug("pipeline: primary OCR insufficient",
			zap.String("reason", reason),
			zap.Int("lines", len(lines)))
	} else {
		zap.L().Warn("pipeline: primary OCR failed", zap.Error(primaryErr))
	}

	if p.fallback == nil {
		if primaryErr != nil {
			return nil, p.primary.Method(), eris.Wrap(primaryErr, "pipeline: recognition failed")
		}
		return lines, p.primary.Method(), nil
	}

	fbLines, fbErr := p.fallback.Recognize(ctx, image)
	if fbErr != nil {
		if primaryErr != nil {
			return nil, p.fallback.Method(), eris.Wrapf(fbErr,
				"pipeline: both OCR engines failed (primary: %v)", primaryErr)
		}
		zap.L().Warn("pipeline: fallback OCR failed, keeping primary output", zap.Error(fbErr))
		return lines, p.primary.Method(), nil
	}
	return fbLines, p.fallback.Method(), nil
}

// Item is one batch input.
type Item struct {
	Name  string
	Image []byte
}

// ProcessBatch processes items with bounded concurrency. The output is
// order-preserving: results[i] always belongs to items[i], and one failed
// item never aborts the rest.
func (p *Pipeline) ProcessBatch(ctx context.Context, items []Item, opts ...Option) []model.PipelineResult {
	results := make([]model.PipelineResult, len(items))

	var g errgroup.Group
	g.SetLimit(p.batchLimit)
	for i, item := range items {
		g.Go(func() error {
			name := item.Name
			if name == "" {
				name = fmt.Sprintf("image_%d", i+1)
			}
			results[i] = p.Process(ctx, item.Image, append(opts, WithImageName(name))...)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ParseText bypasses OCR: raw transcribed text goes straight to the parser.
func (p *Pipeline) ParseText(text string) (model.ContactRecord, model.FieldConfidence) {
	return parser.ParseText(text)
}

// EnrichOnly enriches manually supplied fields without OCR or parsing.
func (p *Pipeline) EnrichOnly(ctx context.Context, record model.ContactRecord) *model.CompanyEnrichment {
	if p.enricher == nil {
		return &model.CompanyEnrichment{}
	}
	return p.enricher.Enrich(ctx, record)
}

func (p *Pipeline) logRun(ctx context.Context, imageName string, result model.PipelineResult) {
	if p.store == nil {
		return
	}
	run := &model.Run{
		ImageName:  imageName,
		Success:    result.Success,
		OCRMethod:  result.OCRMethod,
		DurationMS: result.ProcessingTimeMS,
		Contact:    result.ContactData,
		Error:      result.Error,
		CreatedAt:  result.ProcessedAt,
	}
	if result.ContactData != nil {
		run.Confidence = result.ContactData.ConfidenceScore
	}
	policy := resilience.Policy{Attempts: 2, BaseDelay: 200 * time.Millisecond,
		OnRetry: resilience.LogRetries("store", "save_run")}
	err := resilience.Do(ctx, policy, func(ctx context.Context) error {
		return p.store.SaveRun(ctx, run)
	})
	if err != nil {
		zap.L().Warn("pipeline: save run failed", zap.Error(err))
	}
}
