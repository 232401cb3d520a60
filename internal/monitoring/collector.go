// Package monitoring summarizes recent run health and raises webhook alerts
// when failure or fallback rates drift past configured thresholds.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cardscan/internal/model"
	"github.com/sells-group/cardscan/internal/store"
)

// MetricsSnapshot holds a point-in-time view of pipeline health over the
// most recent runs.
type MetricsSnapshot struct {
	RunsTotal     int     `json:"runs_total"`
	RunsSucceeded int     `json:"runs_succeeded"`
	RunsFailed    int     `json:"runs_failed"`
	FailRate      float64 `json:"fail_rate"`

	// FallbackRate is the share of successful runs that needed the slower
	// fallback OCR engine.
	FallbackRate float64 `json:"fallback_rate"`

	AvgConfidence float64 `json:"avg_confidence"`
	AvgDurationMS int64   `json:"avg_duration_ms"`

	// ExhaustedSources lists enrichment sources whose quota ran out.
	ExhaustedSources []string `json:"exhausted_sources,omitempty"`

	SampleSize  int       `json:"sample_size"`
	CollectedAt time.Time `json:"collected_at"`
}

// QuotaReporter reports which enrichment sources are out of quota.
type QuotaReporter interface {
	ExhaustedNames() []string
}

// Collector gathers metrics from the run store and the enrichment quota
// state.
type Collector struct {
	store store.Store
	quota QuotaReporter
}

// NewCollector creates a metrics collector. The quota reporter may be nil.
func NewCollector(st store.Store, quota QuotaReporter) *Collector {
	return &Collector{store: st, quota: quota}
}

// Collect summarizes the most recent sampleSize runs.
func (c *Collector) Collect(ctx context.Context, sampleSize int) (*MetricsSnapshot, error) {
	if sampleSize <= 0 {
		sampleSize = 200
	}
	snap := &MetricsSnapshot{
		SampleSize:  sampleSize,
		CollectedAt: time.Now().UTC(),
	}

	runs, err := c.store.ListRuns(ctx, sampleSize)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	var confidenceSum float64
	var durationSum int64
	var fallbackRuns int
	for _, r := range runs {
		snap.RunsTotal++
		durationSum += r.DurationMS
		if r.Success {
			snap.RunsSucceeded++
			confidenceSum += r.Confidence
			if r.OCRMethod == model.OCRMethodFallback {
				fallbackRuns++
			}
		} else {
			snap.RunsFailed++
		}
	}

	if snap.RunsTotal > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(snap.RunsTotal)
		snap.AvgDurationMS = durationSum / int64(snap.RunsTotal)
	}
	if snap.RunsSucceeded > 0 {
		snap.AvgConfidence = confidenceSum / float64(snap.RunsSucceeded)
		snap.FallbackRate = float64(fallbackRuns) / float64(snap.RunsSucceeded)
	}

	if c.quota != nil {
		snap.ExhaustedSources = c.quota.ExhaustedNames()
	}

	return snap, nil
}
