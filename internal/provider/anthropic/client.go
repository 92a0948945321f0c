// Package anthropic adapts the official Anthropic SDK to the lazygen
// Invoker interface. Structured output uses a forced synthetic tool whose
// input schema is the request schema, since the Messages API has no native
// JSON response mode.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	ai "github.com/spetersoncode/lazygen"
	"github.com/spetersoncode/lazygen/internal/partialjson"
)

// jsonResponseToolName is the name of the synthetic tool used for structured output.
const jsonResponseToolName = "__lazygen_json_response__"

// DefaultModel is used when a request does not name a model.
const DefaultModel = "claude-sonnet-4-5"

// Client wraps the Anthropic SDK to implement [ai.Invoker].
type Client struct {
	client *anthropic.Client
	model  string
}

// New creates a new Anthropic client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client: &client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

func (c *Client) params(req ai.Request) anthropic.MessageNewParams {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	maxTokens := int64(4096)
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	if len(req.Schema) > 0 {
		tool, choice := buildJSONTool(req.Schema)
		params.Tools = []anthropic.ToolUnionParam{tool}
		params.ToolChoice = choice
	}

	return params
}

// GenerateObject performs a schema-constrained call and returns the parsed object.
func (c *Client) GenerateObject(ctx context.Context, req ai.Request) (map[string]any, error) {
	resp, err := c.client.Messages.New(ctx, c.params(req))
	if err != nil {
		return nil, wrapError(err)
	}

	raw := extractJSON(resp.Content)
	if raw == "" {
		return nil, ai.NewPermanentError("anthropic: response contained no structured output", 0, nil)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("anthropic: decoding structured output: %w", err)
	}
	return obj, nil
}

// GenerateText performs a plain text call.
func (c *Client) GenerateText(ctx context.Context, req ai.Request) (string, error) {
	plain := req
	plain.Schema = nil
	resp, err := c.client.Messages.New(ctx, c.params(plain))
	if err != nil {
		return "", wrapError(err)
	}

	content := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	return content, nil
}

// StreamText performs a text call and streams deltas.
func (c *Client) StreamText(ctx context.Context, req ai.Request) (<-chan ai.TextEvent, error) {
	plain := req
	plain.Schema = nil
	stream := c.client.Messages.NewStreaming(ctx, c.params(plain))
	ch := make(chan ai.TextEvent)

	go func() {
		defer close(ch)

		for stream.Next() {
			event := stream.Current()
			if event.Type == "content_block_delta" {
				delta := event.AsContentBlockDelta()
				if textDelta := delta.Delta.AsTextDelta(); textDelta.Type == "text_delta" {
					ch <- ai.TextEvent{Delta: textDelta.Text}
				}
			}
		}

		if err := stream.Err(); err != nil {
			ch <- ai.TextEvent{Err: wrapError(err)}
			return
		}

		ch <- ai.TextEvent{Done: true}
	}()

	return ch, nil
}

// StreamObject performs a schema-constrained call and streams partial objects.
// Deltas arrive as input_json_delta fragments of the forced tool call.
func (c *Client) StreamObject(ctx context.Context, req ai.Request) (<-chan ai.ObjectEvent, error) {
	stream := c.client.Messages.NewStreaming(ctx, c.params(req))
	ch := make(chan ai.ObjectEvent)

	go func() {
		defer close(ch)
		var acc anthropic.Message
		var buf []byte

		for stream.Next() {
			event := stream.Current()
			acc.Accumulate(event)

			if event.Type == "content_block_delta" {
				delta := event.AsContentBlockDelta()
				if jsonDelta := delta.Delta.AsInputJSONDelta(); jsonDelta.Type == "input_json_delta" {
					buf = append(buf, jsonDelta.PartialJSON...)
					partial, _ := partialjson.Parse(buf)
					ch <- ai.ObjectEvent{Delta: jsonDelta.PartialJSON, Partial: partial}
				}
			}
		}

		if err := stream.Err(); err != nil {
			ch <- ai.ObjectEvent{Err: wrapError(err)}
			return
		}

		raw := extractJSON(acc.Content)
		var final map[string]any
		if err := json.Unmarshal([]byte(raw), &final); err != nil {
			ch <- ai.ObjectEvent{Err: fmt.Errorf("anthropic: decoding structured output: %w", err)}
			return
		}

		ch <- ai.ObjectEvent{Done: true, Partial: final}
	}()

	return ch, nil
}

// extractJSON pulls the structured payload out of a response: the forced
// tool's input when present, otherwise any text content.
func extractJSON(content []anthropic.ContentBlockUnion) string {
	text := ""
	for _, block := range content {
		switch block.Type {
		case "tool_use":
			if block.Name == jsonResponseToolName {
				return string(block.Input)
			}
		case "text":
			text += block.Text
		}
	}
	return text
}

func buildJSONTool(schemaJSON json.RawMessage) (anthropic.ToolUnionParam, anthropic.ToolChoiceUnionParam) {
	var schema map[string]any
	if err := json.Unmarshal(schemaJSON, &schema); err != nil || schema == nil {
		schema = map[string]any{"type": "object", "additionalProperties": true}
	}

	var required []string
	if reqVal, ok := schema["required"].([]any); ok {
		for _, r := range reqVal {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
	}

	tool := anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        jsonResponseToolName,
			Description: anthropic.String("Record the response as structured JSON"),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema["properties"],
				Required:   required,
			},
		},
	}

	choice := anthropic.ToolChoiceUnionParam{
		OfTool: &anthropic.ToolChoiceToolParam{
			Name: jsonResponseToolName,
		},
	}

	return tool, choice
}

var _ ai.Invoker = (*Client)(nil)
