package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/cardscan/internal/enrich"
	"github.com/sells-group/cardscan/internal/export"
	"github.com/sells-group/cardscan/internal/ocr"
	"github.com/sells-group/cardscan/internal/pipeline"
	"github.com/sells-group/cardscan/internal/store"
)

// pipelineEnv holds the initialized store, enrichment aggregator, and
// pipeline shared by the process/batch/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Agg      *enrich.Aggregator
	Pipeline *pipeline.Pipeline
	Exporter *export.Exporter
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline opens the store, builds both OCR engines and the enrichment
// aggregator, and assembles the pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	var fallback ocr.Recognizer
	if cfg.OCR.AnthropicKey != "" {
		fallback, err = ocr.NewFallback(cfg.OCR)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
	} else {
		zap.L().Info("no fallback OCR configured, running primary only")
	}

	agg, err := enrich.NewFromConfig(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	exporter, err := export.NewExporter(cfg.Export.OutputDir)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	p := pipeline.NewWith(ocr.NewPrimary(cfg.OCR), fallback, agg, st,
		cfg.OCR, cfg.Batch.MaxConcurrentImages)

	return &pipelineEnv{
		Store:    st,
		Agg:      agg,
		Pipeline: p,
		Exporter: exporter,
	}, nil
}
