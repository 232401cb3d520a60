package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/sells-group/cardscan/internal/model"
	"github.com/sells-group/cardscan/internal/resilience"
)

const defaultClaudeModel = "claude-haiku-4-5-20251001"

// transcribePrompt asks for a plain transcription, not field extraction:
// field attribution stays in the parser so both engines feed the same code
// path.
const transcribePrompt = `Transcribe every visible line of text on this business card image.

Return ONLY a JSON array of strings, one element per line of text, in
top-to-bottom reading order. Transcribe exactly what you see; do not invent,
merge, or reorder lines. No markdown, no explanation.`

// Vision output carries no per-line confidence; the model either reads a
// line or omits it. A flat high score keeps downstream weighting meaningful.
const claudeLineConfidence = 0.9

// messageCreator is the slice of the SDK client the engine needs. Satisfied
// by sdk.Client.Messages, stubbed in tests.
type messageCreator interface {
	New(ctx context.Context, params sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Claude is the fallback OCR engine, backed by Claude vision.
type Claude struct {
	messages messageCreator
	model    string
	timeout  time.Duration
	retry    resilience.Policy
}

// NewClaude creates the Claude vision engine. If model is empty, the default
// is used.
func NewClaude(apiKey, modelID string, timeout time.Duration) *Claude {
	if modelID == "" {
		modelID = defaultClaudeModel
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))

	retry := resilience.DefaultPolicy()
	retry.Retryable = claudeRetryable
	retry.OnRetry = resilience.LogRetries("anthropic", "messages.create")

	return &Claude{
		messages: &client.Messages,
		model:    modelID,
		timeout:  timeout,
		retry:    retry,
	}
}

// claudeRetryable retries overloaded and server-side API errors. Auth and
// validation failures return immediately.
func claudeRetryable(err error) bool {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return resilience.IsTransient(err)
}

// Method reports the engine label recorded on pipeline results.
func (c *Claude) Method() model.OCRMethod { return model.OCRMethodFallback }

// Recognize sends the image to Claude and parses the returned transcription
// into recognized lines.
func (c *Claude) Recognize(ctx context.Context, image []byte) ([]model.RecognizedLine, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	mediaType := http.DetectContentType(image)
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, eris.Errorf("ocr: unsupported media type %q", mediaType)
	}
	encoded := base64.StdEncoding.EncodeToString(image)

	msg, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*sdk.Message, error) {
		return c.messages.New(ctx, sdk.MessageNewParams{
			Model:     sdk.Model(c.model),
			MaxTokens: 1024,
			Messages: []sdk.MessageParam{
				sdk.NewUserMessage(
					sdk.NewImageBlockBase64(mediaType, encoded),
					sdk.NewTextBlock(transcribePrompt),
				),
			},
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "ocr: claude vision call")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	lines, err := parseTranscript(sb.String())
	if err != nil {
		return nil, err
	}
	return CleanLines(lines), nil
}

// parseTranscript decodes the model output into recognized lines. The model
// is asked for a bare JSON array but sometimes wraps it in a code fence or
// falls back to plain text, both are tolerated.
func parseTranscript(raw string) ([]model.RecognizedLine, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" {
		return nil, eris.New("ocr: empty claude transcription")
	}

	var items []string
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		// Plain-text fallback: one line per newline.
		items = strings.Split(text, "\n")
	}

	lines := make([]model.RecognizedLine, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		lines = append(lines, model.RecognizedLine{
			Text:       trimmed,
			Confidence: claudeLineConfidence,
		})
	}
	if len(lines) == 0 {
		return nil, eris.New("ocr: claude transcription yielded no lines")
	}
	return lines, nil
}
