package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/lazygen"
	"github.com/spetersoncode/lazygen/models"
)

func TestRouting(t *testing.T) {
	ctx := context.Background()

	t.Run("no model and no default", func(t *testing.T) {
		c := New(Config{})
		_, err := c.GenerateText(ctx, ai.Request{Prompt: "hi"})
		var noModel *ErrNoModel
		assert.ErrorAs(t, err, &noModel)
	})

	t.Run("unknown model prefix", func(t *testing.T) {
		c := New(Config{})
		_, err := c.GenerateText(ctx, ai.Request{Model: "llama-3", Prompt: "hi"})
		var unknown *ErrUnknownModel
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "llama-3", unknown.Model)
	})

	t.Run("missing api key names model", func(t *testing.T) {
		c := New(Config{})
		_, err := c.GenerateText(ctx, ai.Request{Model: "claude-sonnet-4-5", Prompt: "hi"})
		var missing *ErrMissingAPIKey
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, models.ProviderAnthropic, missing.Provider)
		assert.Equal(t, "claude-sonnet-4-5", missing.Model)
	})

	t.Run("default model fills empty request", func(t *testing.T) {
		c := New(Config{DefaultModel: models.GPT52})
		_, err := c.GenerateText(ctx, ai.Request{Prompt: "hi"})
		var missing *ErrMissingAPIKey
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, models.ProviderOpenAI, missing.Provider)
		assert.Equal(t, "gpt-5.2", missing.Model)
	})

	t.Run("streams route the same way", func(t *testing.T) {
		c := New(Config{})
		_, err := c.StreamObject(ctx, ai.Request{Model: "gemini-2.5-flash", Prompt: "hi"})
		var missing *ErrMissingAPIKey
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, models.ProviderGoogle, missing.Provider)

		_, err = c.StreamText(ctx, ai.Request{Model: "llama-3", Prompt: "hi"})
		var unknown *ErrUnknownModel
		assert.ErrorAs(t, err, &unknown)
	})
}

func TestEvents(t *testing.T) {
	events := make(chan Event, 10)
	c := New(Config{
		APIKeys: APIKeys{Anthropic: "test-key"},
		Events:  events,
	})
	// No network call happens: the key check passes but we never reach
	// the API because the routing error path is what we exercise here.
	_, err := c.GenerateObject(context.Background(), ai.Request{Model: "llama-3", Prompt: "hi"})
	assert.Error(t, err)

	// Routing failures happen before EventRequestStart, so nothing
	// should have been emitted.
	select {
	case e := <-events:
		t.Fatalf("unexpected event: %+v", e)
	default:
	}
}

func TestEmitNonBlocking(t *testing.T) {
	full := make(chan Event) // unbuffered, no reader
	done := make(chan struct{})
	go func() {
		emit(full, Event{Type: EventRequestStart})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full channel")
	}

	emit(nil, Event{Type: EventRequestStart}) // nil channel is a no-op
}

func TestRetryConfigHelpers(t *testing.T) {
	assert.Equal(t, 10, DefaultRetryConfig().MaxAttempts)
	assert.Equal(t, 1, DisabledRetryConfig().MaxAttempts)
	assert.True(t, IsTransientError(ai.NewTransientError("x", 429, nil)))
	assert.False(t, IsTransientError(ai.NewPermanentError("x", 401, nil)))
}
