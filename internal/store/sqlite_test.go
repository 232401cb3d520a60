package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cardscan/internal/config"
	"github.com/sells-group/cardscan/internal/model"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := Open(context.Background(), config.StoreConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "cardscan.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_SaveAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &model.Run{
		ImageName:  "card.jpg",
		Success:    true,
		OCRMethod:  model.OCRMethodFast,
		DurationMS: 412,
		Confidence: 0.83,
		Contact: &model.ContactRecord{
			Name:  "Jane Smith",
			Email: "jane@acme.com",
			Phone: []string{"5551234567"},
		},
	}
	require.NoError(t, s.SaveRun(ctx, run))
	require.NotEmpty(t, run.ID)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "card.jpg", got.ImageName)
	assert.True(t, got.Success)
	assert.Equal(t, model.OCRMethodFast, got.OCRMethod)
	assert.Equal(t, int64(412), got.DurationMS)
	require.NotNil(t, got.Contact)
	assert.Equal(t, "Jane Smith", got.Contact.Name)
	assert.Equal(t, []string{"5551234567"}, got.Contact.Phone)
}

func TestSQLite_SaveFailedRunWithoutContact(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &model.Run{
		ImageName: "blurry.png",
		Success:   false,
		Error:     "ocr: recognition failed",
	}
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.False(t, got.Success)
	assert.Nil(t, got.Contact)
	assert.Equal(t, "ocr: recognition failed", got.Error)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun(context.Background(), "nonexistent")
	require.Error(t, err)
}

func TestSQLite_ListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveRun(ctx, &model.Run{Success: true}))
	}

	runs, err := s.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	runs, err = s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 5)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "oracle"`)
}
