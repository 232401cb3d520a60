package ocr

import (
	"context"
	"testing"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/cardscan/internal/config"
	"github.com/sells-group/cardscan/internal/model"
)

func TestNewPrimary(t *testing.T) {
	rec := NewPrimary(config.OCRConfig{Languages: []string{"eng"}})
	require.IsType(t, &Tesseract{}, rec)
	assert.Equal(t, model.OCRMethodFast, rec.Method())
}

func TestNewPrimary_GPUFlagWarnsAndFallsBackToCPU(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	rec := NewPrimary(config.OCRConfig{Languages: []string{"eng"}, GPU: true})
	require.IsType(t, &Tesseract{}, rec)
	assert.Equal(t, 1, logs.FilterMessageSnippet("gpu").Len())

	logs.TakeAll()
	NewPrimary(config.OCRConfig{Languages: []string{"eng"}})
	assert.Zero(t, logs.Len())
}

func TestNewFallback_MissingKey(t *testing.T) {
	_, err := NewFallback(config.OCRConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires anthropic_api_key")
}

func TestNewFallback_WithKey(t *testing.T) {
	rec, err := NewFallback(config.OCRConfig{AnthropicKey: "test-key"})
	require.NoError(t, err)
	require.IsType(t, &Claude{}, rec)
	assert.Equal(t, model.OCRMethodFallback, rec.Method())
}

func TestNewClaude_DefaultModel(t *testing.T) {
	c := NewClaude("key", "", 30*time.Second)
	assert.Equal(t, defaultClaudeModel, c.model)

	c = NewClaude("key", "custom-model", 30*time.Second)
	assert.Equal(t, "custom-model", c.model)
}

func TestParseTranscript_JSONArray(t *testing.T) {
	lines, err := parseTranscript(`["Jane Smith", "Sales Director", "jane@acme.com"]`)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "Jane Smith", lines[0].Text)
	assert.Equal(t, claudeLineConfidence, lines[0].Confidence)
}

func TestParseTranscript_CodeFence(t *testing.T) {
	lines, err := parseTranscript("```json\n[\"Jane Smith\", \"jane@acme.com\"]\n```")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "jane@acme.com", lines[1].Text)
}

func TestParseTranscript_PlainTextFallback(t *testing.T) {
	lines, err := parseTranscript("Jane Smith\nSales Director\n\njane@acme.com")
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "Sales Director", lines[1].Text)
}

func TestParseTranscript_Empty(t *testing.T) {
	_, err := parseTranscript("")
	require.Error(t, err)

	_, err = parseTranscript("```\n```")
	require.Error(t, err)
}

type stubMessages struct {
	params sdk.MessageNewParams
	resp   *sdk.Message
	err    error
}

func (s *stubMessages) New(_ context.Context, params sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	s.params = params
	return s.resp, s.err
}

// pngHeader is enough for content-type sniffing; no full image needed.
var pngHeader = []byte("\x89PNG\r\n\x1a\n")

func TestClaude_Recognize(t *testing.T) {
	stub := &stubMessages{
		resp: &sdk.Message{
			Content: []sdk.ContentBlockUnion{
				{Type: "text", Text: `["Jane Smith", "jane@acme . com"]`},
			},
		},
	}
	c := &Claude{messages: stub, model: "test-model", timeout: time.Second}

	lines, err := c.Recognize(context.Background(), pngHeader)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Jane Smith", lines[0].Text)
	// Cleanup applies to fallback output too.
	assert.Equal(t, "jane@acme.com", lines[1].Text)
	assert.Equal(t, sdk.Model("test-model"), stub.params.Model)
}

func TestClaude_Recognize_NotAnImage(t *testing.T) {
	c := &Claude{messages: &stubMessages{}, model: "test-model"}

	_, err := c.Recognize(context.Background(), []byte("plain text, not an image"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported media type")
}
