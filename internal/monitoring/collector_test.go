package monitoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cardscan/internal/model"
)

type stubStore struct {
	runs []model.Run
	err  error
}

func (s *stubStore) SaveRun(context.Context, *model.Run) error { return nil }

func (s *stubStore) GetRun(context.Context, string) (*model.Run, error) { return nil, nil }

func (s *stubStore) ListRuns(context.Context, int) ([]model.Run, error) { return s.runs, s.err }

func (s *stubStore) Migrate(context.Context) error { return nil }

func (s *stubStore) Close() error { return nil }

type stubQuota struct{ names []string }

func (s *stubQuota) ExhaustedNames() []string { return s.names }

func TestCollector_Collect(t *testing.T) {
	runs := []model.Run{
		{Success: true, OCRMethod: model.OCRMethodFast, Confidence: 0.9, DurationMS: 100},
		{Success: true, OCRMethod: model.OCRMethodFallback, Confidence: 0.7, DurationMS: 300},
		{Success: false, OCRMethod: model.OCRMethodFast, DurationMS: 50, Error: "no text"},
		{Success: true, OCRMethod: model.OCRMethodFast, Confidence: 0.8, DurationMS: 150},
	}
	c := NewCollector(&stubStore{runs: runs}, &stubQuota{names: []string{"hunter"}})

	snap, err := c.Collect(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, 4, snap.RunsTotal)
	assert.Equal(t, 3, snap.RunsSucceeded)
	assert.Equal(t, 1, snap.RunsFailed)
	assert.InDelta(t, 0.25, snap.FailRate, 1e-9)
	assert.InDelta(t, 1.0/3.0, snap.FallbackRate, 1e-9)
	assert.InDelta(t, 0.8, snap.AvgConfidence, 1e-9)
	assert.Equal(t, int64(150), snap.AvgDurationMS)
	assert.Equal(t, []string{"hunter"}, snap.ExhaustedSources)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollector_Collect_Empty(t *testing.T) {
	c := NewCollector(&stubStore{}, nil)

	snap, err := c.Collect(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.RunsTotal)
	assert.Zero(t, snap.FailRate)
	assert.Zero(t, snap.AvgConfidence)
	assert.Equal(t, 200, snap.SampleSize)
	assert.Empty(t, snap.ExhaustedSources)
}

func TestCollector_Collect_StoreError(t *testing.T) {
	c := NewCollector(&stubStore{err: assert.AnError}, nil)

	_, err := c.Collect(context.Background(), 10)
	assert.ErrorContains(t, err, "monitoring: list runs")
}
