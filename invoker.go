package lazygen

import (
	"context"
	"encoding/json"
)

// Request carries everything an Invoker needs to perform one model call.
type Request struct {
	// Model is the model identifier, resolved to a provider by the
	// invocation layer. Empty means the invoker's default.
	Model string

	// Prompt is the fully substituted prompt text.
	Prompt string

	// System is an optional system prompt.
	System string

	// Schema constrains structured calls. Nil for plain text calls.
	Schema json.RawMessage

	// Temperature is the sampling temperature, nil for the provider default.
	Temperature *float64

	// MaxTokens limits generation length. Zero means the provider default.
	MaxTokens int
}

// TextEvent is a single event in a streaming text response.
type TextEvent struct {
	// Delta contains the incremental text for this event.
	Delta string
	// Done indicates the stream completed.
	Done bool
	// Err contains any error that occurred during streaming.
	Err error
}

// ObjectEvent is a single event in a streaming structured response.
type ObjectEvent struct {
	// Delta contains the incremental raw text for this event.
	Delta string
	// Partial is a best-effort parse of the accumulated output so far.
	// May be nil when the accumulated text is not yet parseable.
	Partial map[string]any
	// Done indicates the stream completed; Partial then holds the final object.
	Done bool
	// Err contains any error that occurred during streaming.
	Err error
}

// Invoker is the model-call collaborator. Implementations live in the
// invocation layer (see the client package); the core makes no assumption
// about how model strings are routed to providers.
type Invoker interface {
	// GenerateObject performs a structured call constrained by req.Schema
	// and returns the parsed object.
	GenerateObject(ctx context.Context, req Request) (map[string]any, error)

	// GenerateText performs a plain text call.
	GenerateText(ctx context.Context, req Request) (string, error)

	// StreamObject performs a structured call and streams partial results.
	// The channel is closed when the stream completes or fails; callers
	// must check ObjectEvent.Err.
	StreamObject(ctx context.Context, req Request) (<-chan ObjectEvent, error)

	// StreamText performs a text call and streams deltas. The channel is
	// closed when the stream completes or fails; callers must check
	// TextEvent.Err.
	StreamText(ctx context.Context, req Request) (<-chan TextEvent, error)
}
