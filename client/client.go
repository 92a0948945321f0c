package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	ai "github.com/spetersoncode/lazygen"
	"github.com/spetersoncode/lazygen/internal/provider/anthropic"
	"github.com/spetersoncode/lazygen/internal/provider/google"
	"github.com/spetersoncode/lazygen/internal/provider/openai"
	"github.com/spetersoncode/lazygen/models"
	"github.com/spetersoncode/lazygen/retry"
)

// APIKeys holds API keys for different providers.
// Only configure keys for providers you intend to use.
type APIKeys struct {
	Anthropic string
	OpenAI    string
	Google    string
}

// Config holds configuration for creating a unified client.
type Config struct {
	// APIKeys contains authentication keys for each provider.
	APIKeys APIKeys

	// DefaultModel is used when a request does not name a model.
	DefaultModel models.Model

	// RetryConfig configures retry behavior for transient errors.
	// If nil, uses the default configuration (10 attempts with
	// exponential backoff).
	RetryConfig *retry.Config

	// Events is an optional channel for receiving client operation events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- Event
}

// ErrMissingAPIKey is returned when a model is used but no API key
// is configured for that model's provider.
type ErrMissingAPIKey struct {
	Provider models.Provider
	Model    string
}

func (e *ErrMissingAPIKey) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("no API key configured for %s (required by model %q)", e.Provider, e.Model)
	}
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// ErrUnknownModel is returned when a model identifier does not map to
// any supported provider.
type ErrUnknownModel struct {
	Model string
}

func (e *ErrUnknownModel) Error() string {
	return fmt.Sprintf("model %q does not match any supported provider", e.Model)
}

// ErrNoModel is returned when a request names no model and no default
// is configured.
type ErrNoModel struct{}

func (e *ErrNoModel) Error() string {
	return "no model specified: set Config.DefaultModel or use lazygen.WithModel()"
}

// Client routes lazygen requests to provider backends by model identifier
// and retries transient failures. Provider clients are lazily initialized
// when first needed. It implements [ai.Invoker].
type Client struct {
	apiKeys      APIKeys
	defaultModel models.Model
	retryConfig  retry.Config
	events       chan<- Event

	// Lazy-initialized providers (protected by mutex)
	mu              sync.RWMutex
	anthropicClient *anthropic.Client
	openaiClient    *openai.Client
	googleClient    *google.Client
	googleInitErr   error
}

// New creates a unified client with the given configuration.
func New(cfg Config) *Client {
	retryConfig := retry.DefaultConfig()
	if cfg.RetryConfig != nil {
		retryConfig = *cfg.RetryConfig
	}

	return &Client{
		apiKeys:      cfg.APIKeys,
		defaultModel: cfg.DefaultModel,
		retryConfig:  retryConfig,
		events:       cfg.Events,
	}
}

// getAnthropicClient returns the Anthropic client, initializing it if needed.
func (c *Client) getAnthropicClient() (*anthropic.Client, error) {
	c.mu.RLock()
	if c.anthropicClient != nil {
		defer c.mu.RUnlock()
		return c.anthropicClient, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.anthropicClient != nil {
		return c.anthropicClient, nil
	}

	if c.apiKeys.Anthropic == "" {
		return nil, &ErrMissingAPIKey{Provider: models.ProviderAnthropic}
	}

	c.anthropicClient = anthropic.New(c.apiKeys.Anthropic)
	return c.anthropicClient, nil
}

// getOpenAIClient returns the OpenAI client, initializing it if needed.
func (c *Client) getOpenAIClient() (*openai.Client, error) {
	c.mu.RLock()
	if c.openaiClient != nil {
		defer c.mu.RUnlock()
		return c.openaiClient, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openaiClient != nil {
		return c.openaiClient, nil
	}

	if c.apiKeys.OpenAI == "" {
		return nil, &ErrMissingAPIKey{Provider: models.ProviderOpenAI}
	}

	c.openaiClient = openai.New(c.apiKeys.OpenAI)
	return c.openaiClient, nil
}

// getGoogleClient returns the Google client, initializing it if needed.
// Initialization can fail, and the failure is cached.
func (c *Client) getGoogleClient(ctx context.Context) (*google.Client, error) {
	c.mu.RLock()
	if c.googleClient != nil {
		defer c.mu.RUnlock()
		return c.googleClient, nil
	}
	if c.googleInitErr != nil {
		defer c.mu.RUnlock()
		return nil, c.googleInitErr
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.googleClient != nil {
		return c.googleClient, nil
	}
	if c.googleInitErr != nil {
		return nil, c.googleInitErr
	}

	if c.apiKeys.Google == "" {
		return nil, &ErrMissingAPIKey{Provider: models.ProviderGoogle}
	}

	client, err := google.New(ctx, c.apiKeys.Google)
	if err != nil {
		c.googleInitErr = fmt.Errorf("failed to initialize Google client: %w", err)
		return nil, c.googleInitErr
	}

	c.googleClient = client
	return c.googleClient, nil
}

// route fills in the default model and returns the backend for it.
func (c *Client) route(ctx context.Context, req *ai.Request) (ai.Invoker, models.Provider, error) {
	if req.Model == "" {
		req.Model = c.defaultModel.String()
	}
	if req.Model == "" {
		return nil, "", &ErrNoModel{}
	}

	provider := models.Detect(req.Model)
	var backend ai.Invoker
	var err error

	switch provider {
	case models.ProviderAnthropic:
		backend, err = c.getAnthropicClient()
	case models.ProviderOpenAI:
		backend, err = c.getOpenAIClient()
	case models.ProviderGoogle:
		backend, err = c.getGoogleClient(ctx)
	default:
		return nil, "", &ErrUnknownModel{Model: req.Model}
	}

	if err != nil {
		var missing *ErrMissingAPIKey
		if errors.As(err, &missing) {
			missing.Model = req.Model
		}
		return nil, "", err
	}
	return backend, provider, nil
}

// GenerateObject routes a structured call to the model's provider.
// Automatically retries on transient errors.
func (c *Client) GenerateObject(ctx context.Context, req ai.Request) (map[string]any, error) {
	backend, provider, err := c.route(ctx, &req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	emit(c.events, Event{Type: EventRequestStart, Operation: "generate_object", Provider: provider, Model: req.Model})

	obj, err := retry.Do(ctx, c.retryConfig, func() (map[string]any, error) {
		return backend.GenerateObject(ctx, req)
	})

	c.finish(start, "generate_object", provider, req.Model, err)
	return obj, err
}

// GenerateText routes a plain text call to the model's provider.
// Automatically retries on transient errors.
func (c *Client) GenerateText(ctx context.Context, req ai.Request) (string, error) {
	backend, provider, err := c.route(ctx, &req)
	if err != nil {
		return "", err
	}

	start := time.Now()
	emit(c.events, Event{Type: EventRequestStart, Operation: "generate_text", Provider: provider, Model: req.Model})

	text, err := retry.Do(ctx, c.retryConfig, func() (string, error) {
		return backend.GenerateText(ctx, req)
	})

	c.finish(start, "generate_text", provider, req.Model, err)
	return text, err
}

// StreamObject routes a structured streaming call to the model's provider.
// Retries apply to establishing the stream, not to individual events.
func (c *Client) StreamObject(ctx context.Context, req ai.Request) (<-chan ai.ObjectEvent, error) {
	backend, provider, err := c.route(ctx, &req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	emit(c.events, Event{Type: EventRequestStart, Operation: "stream_object", Provider: provider, Model: req.Model})

	ch, err := retry.DoStream(ctx, c.retryConfig, func() (<-chan ai.ObjectEvent, error) {
		return backend.StreamObject(ctx, req)
	})

	c.finish(start, "stream_object", provider, req.Model, err)
	return ch, err
}

// StreamText routes a text streaming call to the model's provider.
// Retries apply to establishing the stream, not to individual events.
func (c *Client) StreamText(ctx context.Context, req ai.Request) (<-chan ai.TextEvent, error) {
	backend, provider, err := c.route(ctx, &req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	emit(c.events, Event{Type: EventRequestStart, Operation: "stream_text", Provider: provider, Model: req.Model})

	ch, err := retry.DoStream(ctx, c.retryConfig, func() (<-chan ai.TextEvent, error) {
		return backend.StreamText(ctx, req)
	})

	c.finish(start, "stream_text", provider, req.Model, err)
	return ch, err
}

func (c *Client) finish(start time.Time, op string, provider models.Provider, model string, err error) {
	event := Event{
		Type:      EventRequestComplete,
		Operation: op,
		Provider:  provider,
		Model:     model,
		Duration:  time.Since(start),
	}
	if err != nil {
		event.Type = EventRequestError
		event.Error = err
	}
	emit(c.events, event)
}

var _ ai.Invoker = (*Client)(nil)
