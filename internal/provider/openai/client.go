// Package openai adapts the official OpenAI SDK to the lazygen Invoker
// interface. Structured output uses the json_schema response format in
// strict mode.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	ai "github.com/spetersoncode/lazygen"
	"github.com/spetersoncode/lazygen/internal/partialjson"
)

// DefaultModel is used when a request does not name a model.
const DefaultModel = "gpt-4o"

// Client wraps the OpenAI SDK to implement [ai.Invoker].
type Client struct {
	client *openai.Client
	model  string
}

// New creates a new OpenAI client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client: &client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

func (c *Client) params(req ai.Request) openai.ChatCompletionNewParams {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if len(req.Schema) > 0 {
		params.ResponseFormat = buildSchemaFormat(req.Schema)
	}

	return params
}

// GenerateObject performs a schema-constrained call and returns the parsed object.
func (c *Client) GenerateObject(ctx context.Context, req ai.Request) (map[string]any, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.params(req))
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, ai.NewPermanentError("openai: response contained no choices", 0, nil)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &obj); err != nil {
		return nil, fmt.Errorf("openai: decoding structured output: %w", err)
	}
	return obj, nil
}

// GenerateText performs a plain text call.
func (c *Client) GenerateText(ctx context.Context, req ai.Request) (string, error) {
	plain := req
	plain.Schema = nil
	resp, err := c.client.Chat.Completions.New(ctx, c.params(plain))
	if err != nil {
		return "", wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ai.NewPermanentError("openai: response contained no choices", 0, nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// StreamText performs a text call and streams deltas.
func (c *Client) StreamText(ctx context.Context, req ai.Request) (<-chan ai.TextEvent, error) {
	plain := req
	plain.Schema = nil
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(plain))
	ch := make(chan ai.TextEvent)

	go func() {
		defer close(ch)

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				ch <- ai.TextEvent{Delta: chunk.Choices[0].Delta.Content}
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
func (c *Client) StreamObject(ctx context.Context, req ai.Request) (<-chan ai.ObjectEvent, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(req))
	ch := make(chan ai.ObjectEvent)

	go func() {
		defer close(ch)
		var acc openai.ChatCompletionAccumulator
		var buf []byte

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				delta := chunk.Choices[0].Delta.Content
				buf = append(buf, delta...)
				partial, _ := partialjson.Parse(buf)
				ch <- ai.ObjectEvent{Delta: delta, Partial: partial}
			}
		}

		if err := stream.Err(); err != nil {
			ch <- ai.ObjectEvent{Err: wrapError(err)}
			return
		}

		if len(acc.Choices) == 0 {
			ch <- ai.ObjectEvent{Err: ai.NewPermanentError("openai: stream contained no choices", 0, nil)}
			return
		}

		var final map[string]any
		if err := json.Unmarshal([]byte(acc.Choices[0].Message.Content), &final); err != nil {
			ch <- ai.ObjectEvent{Err: fmt.Errorf("openai: decoding structured output: %w", err)}
			return
		}

		ch <- ai.ObjectEvent{Done: true, Partial: final}
	}()

	return ch, nil
}

var _ ai.Invoker = (*Client)(nil)
