// Package google adapts the Google GenAI SDK to the lazygen Invoker
// interface. Structured output uses the Gemini API's native JSON response
// mode with a converted response schema.
package google

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	ai "github.com/spetersoncode/lazygen"
	"github.com/spetersoncode/lazygen/internal/partialjson"
)

// DefaultModel is used when a request does not name a model.
const DefaultModel = "gemini-2.5-flash"

// Client wraps the Google GenAI SDK to implement [ai.Invoker].
type Client struct {
	client *genai.Client
	model  string
}

// New creates a new Google GenAI client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c := &Client{
		client: client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientOption configures the Google client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

func (c *Client) prepare(req ai.Request, structured bool) (string, []*genai.Content, *genai.GenerateContentConfig) {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	config := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if structured && len(req.Schema) > 0 {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = toGenaiSchema(req.Schema)
	}

	return model, genai.Text(req.Prompt), config
}

// GenerateObject performs a schema-constrained call and returns the parsed object.
func (c *Client) GenerateObject(ctx context.Context, req ai.Request) (map[string]any, error) {
	model, contents, config := c.prepare(req, true)
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}

	content := collectText(resp)
	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return nil, fmt.Errorf("google: decoding structured output: %w", err)
	}
	return obj, nil
}

// GenerateText performs a plain text call.
func (c *Client) GenerateText(ctx context.Context, req ai.Request) (string, error) {
	model, contents, config := c.prepare(req, false)
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", wrapError(err)
	}
	return collectText(resp), nil
}

// StreamText performs a text call and streams deltas.
func (c *Client) StreamText(ctx context.Context, req ai.Request) (<-chan ai.TextEvent, error) {
	model, contents, config := c.prepare(req, false)
	ch := make(chan ai.TextEvent)

	go func() {
		defer close(ch)

		for resp, err := range c.client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				ch <- ai.TextEvent{Err: wrapError(err)}
				return
			}
			if blocked := blockError(resp); blocked != nil {
				ch <- ai.TextEvent{Err: blocked}
				return
			}
			if delta := collectText(resp); delta != "" {
				ch <- ai.TextEvent{Delta: delta}
			}
		}

		ch <- ai.TextEvent{Done: true}
	}()

	return ch, nil
}

// StreamObject performs a schema-constrained call and streams partial objects.
func (c *Client) StreamObject(ctx context.Context, req ai.Request) (<-chan ai.ObjectEvent, error) {
	model, contents, config := c.prepare(req, true)
	ch := make(chan ai.ObjectEvent)

	go func() {
		defer close(ch)
		var buf []byte

		for resp, err := range c.client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				ch <- ai.ObjectEvent{Err: wrapError(err)}
				return
			}
			if blocked := blockError(resp); blocked != nil {
				ch <- ai.ObjectEvent{Err: blocked}
				return
			}
			if delta := collectText(resp); delta != "" {
				buf = append(buf, delta...)
				partial, _ := partialjson.Parse(buf)
				ch <- ai.ObjectEvent{Delta: delta, Partial: partial}
			}
		}

		var final map[string]any
		if err := json.Unmarshal(buf, &final); err != nil {
			ch <- ai.ObjectEvent{Err: fmt.Errorf("google: decoding structured output: %w", err)}
			return
		}

		ch <- ai.ObjectEvent{Done: true, Partial: final}
	}()

	return ch, nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	content := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		content += part.Text
	}
	return content
}

func blockError(resp *genai.GenerateContentResponse) error {
	if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}
	}
	return nil
}

// BlockedError indicates the request was blocked by content filtering.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("google: prompt blocked: %s", e.Reason)
}

var _ ai.Invoker = (*Client)(nil)
