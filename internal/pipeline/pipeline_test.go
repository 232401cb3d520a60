package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cardscan/internal/config"
	"github.com/sells-group/cardscan/internal/model"
)

type stubRecognizer struct {
	method model.OCRMethod
	lines  []model.RecognizedLine
	err    error
	calls  int
}

func (s *stubRecognizer) Recognize(context.Context, []byte) ([]model.RecognizedLine, error) {
	s.calls++
	return s.lines, s.err
}

func (s *stubRecognizer) Method() model.OCRMethod { return s.method }

type stubEnricher struct {
	ce    *model.CompanyEnrichment
	calls int
}

func (s *stubEnricher) Enrich(context.Context, model.ContactRecord) *model.CompanyEnrichment {
	s.calls++
	if s.ce != nil {
		return s.ce
	}
	return &model.CompanyEnrichment{}
}

type memStore struct {
	mu   sync.Mutex
	runs []model.Run
}

func (m *memStore) SaveRun(_ context.Context, run *model.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memStore) GetRun(context.Context, string) (*model.Run, error) { return nil, nil }

func (m *memStore) ListRuns(context.Context, int) ([]model.Run, error) { return nil, nil }

func (m *memStore) Migrate(context.Context) error { return nil }

func (m *memStore) Close() error { return nil }

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}

var goodLines = []model.RecognizedLine{
	{Text: "Jane Smith", Confidence: 0.95},
	{Text: "Sales Director", Confidence: 0.9},
	{Text: "jane@acme.com", Confidence: 0.92},
	{Text: "555-123-4567", Confidence: 0.88},
}

var ocrCfg = config.OCRConfig{MinLines: 3, MinConfidence: 0.70}

func TestProcess_PrimarySufficient(t *testing.T) {
	primary := &stubRecognizer{method: model.OCRMethodFast, lines: goodLines}
	fallback := &stubRecognizer{method: model.OCRMethodFallback}
	enricher := &stubEnricher{ce: &model.CompanyEnrichment{Industry: "Manufacturing"}}
	p := NewWith(primary, fallback, enricher, nil, ocrCfg, 0)

	result := p.Process(context.Background(), tinyPNG(t))

	require.True(t, result.Success)
	assert.Equal(t, model.OCRMethodFast, result.OCRMethod)
	assert.Equal(t, 0, fallback.calls)
	assert.Equal(t, 1, enricher.calls)
	require.NotNil(t, result.ContactData)
	assert.Equal(t, "Jane Smith", result.ContactData.Name)
	assert.Equal(t, "jane@acme.com", result.ContactData.Email)
	// Enrichment gap-fill is reflected on the record.
	assert.Equal(t, "Manufacturing", result.ContactData.Industry)
	assert.GreaterOrEqual(t, result.ProcessingTimeMS, int64(0))
	assert.False(t, result.ProcessedAt.IsZero())
}

func TestProcess_NotAnImage(t *testing.T) {
	primary := &stubRecognizer{method: model.OCRMethodFast, lines: goodLines}
	p := NewWith(primary, nil, nil, nil, ocrCfg, 0)

	result := p.Process(context.Background(), []byte("not an image"))

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not a decodable image")
	assert.Equal(t, 0, primary.calls)
}

func TestProcess_InsufficientTriggersFallback(t *testing.T) {
	// Low mean confidence drives the sufficiency check below threshold.
	primary := &stubRecognizer{method: model.OCRMethodFast, lines: []model.RecognizedLine{
		{Text: "J@ne Sm1th", Confidence: 0.3},
		{Text: "jane@acme.com", Confidence: 0.4},
		{Text: "555-123-4567", Confidence: 0.35},
	}}
	fallback := &stubRecognizer{method: model.OCRMethodFallback, lines: goodLines}
	p := NewWith(primary, fallback, nil, nil, ocrCfg, 0)

	result := p.Process(context.Background(), tinyPNG(t))

	require.True(t, result.Success)
	assert.Equal(t, model.OCRMethodFallback, result.OCRMethod)
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, "Jane Smith", result.ContactData.Name)
}

func TestProcess_TooFewLinesTriggersFallback(t *testing.T) {
	primary := &stubRecognizer{method: model.OCRMethodFast, lines: []model.RecognizedLine{
		{Text: "jane@acme.com", Confidence: 0.99},
	}}
	fallback := &stubRecognizer{method: model.OCRMethodFallback, lines: goodLines}
	p := NewWith(primary, fallback, nil, nil, ocrCfg, 0)

	result := p.Process(context.Background(), tinyPNG(t))
	assert.Equal(t, model.OCRMethodFallback, result.OCRMethod)
}

func TestProcess_FallbackFailureKeepsPrimaryOutput(t *testing.T) {
	primary := &stubRecognizer{method: model.OCRMethodFast, lines: []model.RecognizedLine{
		{Text: "Jane Smith", Confidence: 0.5},
		{Text: "jane@acme.com", Confidence: 0.5},
		{Text: "Acme Widgets", Confidence: 0.5},
	}}
	fallback := &stubRecognizer{method: model.OCRMethodFallback, err: assert.AnError}
	p := NewWith(primary, fallback, nil, nil, ocrCfg, 0)

	result := p.Process(context.Background(), tinyPNG(t))

	require.True(t, result.Success)
	assert.Equal(t, model.OCRMethodFast, result.OCRMethod)
	assert.Equal(t, "jane@acme.com", result.ContactData.Email)
}

func TestProcess_BothEnginesFail(t *testing.T) {
	primary := &stubRecognizer{method: model.OCRMethodFast, err: assert.AnError}
	fallback := &stubRecognizer{method: model.OCRMethodFallback, err: assert.AnError}
	p := NewWith(primary, fallback, nil, nil, ocrCfg, 0)

	result := p.Process(context.Background(), tinyPNG(t))

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "both OCR engines failed")
	assert.Nil(t, result.ContactData)
}

func TestProcess_PrimaryFailsNoFallback(t *testing.T) {
	primary := &stubRecognizer{method: model.OCRMethodFast, err: assert.AnError}
	p := NewWith(primary, nil, nil, nil, ocrCfg, 0)

	result := p.Process(context.Background(), tinyPNG(t))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "recognition failed")
}

func TestProcess_InsufficientWithoutFallbackIsBestEffort(t *testing.T) {
	primary := &stubRecognizer{method: model.OCRMethodFast, lines: []model.RecognizedLine{
		{Text: "jane@acme.com", Confidence: 0.9},
	}}
	p := NewWith(primary, nil, nil, nil, ocrCfg, 0)

	result := p.Process(context.Background(), tinyPNG(t))
	require.True(t, result.Success)
	assert.Equal(t, "jane@acme.com", result.ContactData.Email)
}

func TestProcess_ForceFallback(t *testing.T) {
	primary := &stubRecognizer{method: model.OCRMethodFast, lines: goodLines}
	fallback := &stubRecognizer{method: model.OCRMethodFallback, lines: goodLines}
	p := NewWith(primary, fallback, nil, nil, ocrCfg, 0)

	result := p.Process(context.Background(), tinyPNG(t), ForceFallback())
	assert.Equal(t, model.OCRMethodFallback, result.OCRMethod)
	assert.Equal(t, 0, primary.calls)

	noFallback := NewWith(primary, nil, nil, nil, ocrCfg, 0)
	result = noFallback.Process(context.Background(), tinyPNG(t), ForceFallback())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "fallback forced but not configured")
}

func TestProcess_WithoutEnrichment(t *testing.T) {
	primary := &stubRecognizer{method: model.OCRMethodFast, lines: goodLines}
	enricher := &stubEnricher{}
	p := NewWith(primary, nil, enricher, nil, ocrCfg, 0)

	result := p.Process(context.Background(), tinyPNG(t), WithoutEnrichment())
	require.True(t, result.Success)
	assert.Equal(t, 0, enricher.calls)
	assert.Nil(t, result.CompanyEnrichment)
}

func TestProcess_LogsRun(t *testing.T) {
	primary := &stubRecognizer{method: model.OCRMethodFast, lines: goodLines}
	st := &memStore{}
	p := NewWith(primary, nil, nil, st, ocrCfg, 0)

	p.Process(context.Background(), tinyPNG(t), WithImageName("card.jpg"))

	require.Len(t, st.runs, 1)
	assert.Equal(t, "card.jpg", st.runs[0].ImageName)
	assert.True(t, st.runs[0].Success)
	assert.Equal(t, model.OCRMethodFast, st.runs[0].OCRMethod)
	require.NotNil(t, st.runs[0].Contact)
	assert.Equal(t, "Jane Smith", st.runs[0].Contact.Name)
}

func TestProcessBatch_OrderPreservedAndIsolated(t *testing.T) {
	primary := &stubRecognizer{method: model.OCRMethodFast, lines: goodLines}
	p := NewWith(primary, nil, nil, nil, ocrCfg, 2)

	img := tinyPNG(t)
	items := []Item{
		{Name: "a.png", Image: img},
		{Name: "broken.bin", Image: []byte("garbage")},
		{Name: "c.png", Image: img},
	}

	results := p.ProcessBatch(context.Background(), items)

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "not a decodable image")
	assert.True(t, results[2].Success)
}

func TestParseText(t *testing.T) {
	p := NewWith(&stubRecognizer{}, nil, nil, nil, ocrCfg, 0)

	record, fc := p.ParseText("John Doe\nSoftware Engineer\njohn@company.com")
	assert.Equal(t, "John Doe", record.Name)
	assert.Equal(t, "john@company.com", record.Email)
	assert.Equal(t, model.QualityValidFormat, fc.QualityOf(model.FieldEmail))
}

func TestEnrichOnly(t *testing.T) {
	enricher := &stubEnricher{ce: &model.CompanyEnrichment{Industry: "consulting"}}
	p := NewWith(&stubRecognizer{}, nil, enricher, nil, ocrCfg, 0)

	ce := p.EnrichOnly(context.Background(), model.ContactRecord{Company: "Acme Consulting"})
	assert.Equal(t, "consulting", ce.Industry)
	assert.Equal(t, 1, enricher.calls)

	bare := NewWith(&stubRecognizer{}, nil, nil, nil, ocrCfg, 0)
	ce = bare.EnrichOnly(context.Background(), model.ContactRecord{Company: "Acme"})
	assert.False(t, ce.HasData())
}

func TestSufficient(t *testing.T) {
	ok, _ := sufficient(goodLines, 3, 0.70)
	assert.True(t, ok)

	ok, reason := sufficient(goodLines[:2], 3, 0.70)
	assert.False(t, ok)
	assert.Equal(t, "too few lines", reason)

	low := []model.RecognizedLine{
		{Text: "jane@acme.com", Confidence: 0.2},
		{Text: "Jane Smith", Confidence: 0.3},
		{Text: "Acme", Confidence: 0.2},
	}
	ok, reason = sufficient(low, 3, 0.70)
	assert.False(t, ok)
	assert.Equal(t, "low mean confidence", reason)

	noContact := []model.RecognizedLine{
		{Text: "Jane Smith", Confidence: 0.9},
		{Text: "Acme Widgets", Confidence: 0.9},
		{Text: "Some Street", Confidence: 0.9},
	}
	ok, reason = sufficient(noContact, 3, 0.70)
	assert.False(t, ok)
	assert.Equal(t, "no email or phone pattern", reason)
}
