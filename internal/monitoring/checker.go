package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/cardscan/internal/config"
)

// Checker sweeps the run log on a fixed cadence, comparing the latest
// extraction metrics against the alert thresholds. One sweep runs right at
// startup so a server restarted into a degraded state alerts immediately
// instead of after the first full interval.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig
}

// NewChecker creates a run-log health checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
	}
}

// Run blocks until ctx is cancelled, sweeping once at startup and then every
// configured interval.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("watching run log",
		zap.Duration("interval", interval),
		zap.Int("run_sample", c.cfg.SampleSize),
		zap.Float64("failure_rate_threshold", c.cfg.FailureRateThreshold),
		zap.Float64("fallback_rate_threshold", c.cfg.FallbackRateThreshold),
	)

	c.sweep(ctx, log)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("run-log checker stopped")
			return
		case <-ticker.C:
			c.sweep(ctx, log)
		}
	}
}

// sweep takes one metrics snapshot and dispatches whatever alerts it trips.
func (c *Checker) sweep(ctx context.Context, log *zap.Logger) {
	snap, err := c.collector.Collect(ctx, c.cfg.SampleSize)
	if err != nil {
		log.Error("run-log sweep failed", zap.Error(err))
		return
	}

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		log.Debug("run-log sweep clean",
			zap.Int("runs", snap.RunsTotal),
			zap.Float64("failure_rate", snap.FailRate),
		)
		return
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	log.Warn("extraction quality degraded",
		zap.Int("alerts_triggered", len(alerts)),
		zap.Int("alerts_sent", sent),
		zap.Float64("failure_rate", snap.FailRate),
		zap.Float64("fallback_rate", snap.FallbackRate),
	)
}
