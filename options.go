package lazygen

import (
	"sync"

	"github.com/spetersoncode/lazygen/schema"
)

// Options contains configuration for a generation.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float64
	System      string

	// Shape is an explicit schema hint. It takes precedence over field
	// inference for the fields it declares.
	Shape schema.Shape

	// Strict makes malformed unwraps and leftover prompt placeholders
	// fail instead of degrading to the raw value.
	Strict bool

	// Invoker overrides the package default invoker for this generation.
	Invoker Invoker
}

// Option is a functional option for configuring generations.
type Option func(*Options)

// WithModel sets the model to use for the generation.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature (0.0 to 2.0).
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = &t
	}
}

// WithSystem sets the system prompt for the generation.
func WithSystem(system string) Option {
	return func(o *Options) {
		o.System = system
	}
}

// WithShape declares the expected result shape explicitly. Declared
// fields win over name-based inference.
func WithShape(shape schema.Shape) Option {
	return func(o *Options) {
		o.Shape = shape
	}
}

// WithStrict makes malformed unwraps and leftover placeholders fail
// instead of silently degrading.
func WithStrict() Option {
	return func(o *Options) {
		o.Strict = true
	}
}

// WithInvoker overrides the package default invoker for this generation.
func WithInvoker(inv Invoker) Option {
	return func(o *Options) {
		o.Invoker = inv
	}
}

// ApplyOptions applies functional options to an Options struct.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

var (
	defaultInvokerMu sync.RWMutex
	defaultInvoker   Invoker
)

// SetDefaultInvoker installs the invoker used by generations that carry
// no per-generation override. Typically called once at startup with a
// configured client.
func SetDefaultInvoker(inv Invoker) {
	defaultInvokerMu.Lock()
	defer defaultInvokerMu.Unlock()
	defaultInvoker = inv
}

// DefaultInvoker returns the package default invoker, or nil.
func DefaultInvoker() Invoker {
	defaultInvokerMu.RLock()
	defer defaultInvokerMu.RUnlock()
	return defaultInvoker
}
