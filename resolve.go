package lazygen

import (
	"context"
	"encoding/json"
	"fmt"
)

// Resolve settles the generation and returns its value, performing at
// most one model call no matter how many times or from how many
// goroutines it is called. The first caller commits the generation and
// runs the resolution; concurrent callers wait for the same settlement.
//
// Once resolution begins it runs to completion or failure; cancelling
// the context of a waiting caller abandons the wait, not the call.
func (g *Generation) Resolve(ctx context.Context) (any, error) {
	g.mu.Lock()
	switch g.state {
	case stateResolved:
		value, err := g.value, g.err
		g.mu.Unlock()
		return value, err
	case stateCommitted:
		g.mu.Unlock()
		select {
		case <-g.done:
			return g.value, g.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	g.state = stateCommitted
	g.mu.Unlock()

	value, err := g.run(ctx)

	g.mu.Lock()
	g.value, g.err = value, err
	g.state = stateResolved
	g.mu.Unlock()
	close(g.done)
	unregister(g)

	return value, err
}

// run performs the actual resolution: navigation for derived generations,
// the full prepare-invoke-unwrap pipeline for roots.
func (g *Generation) run(ctx context.Context) (any, error) {
	if g.parent != nil {
		parentValue, err := g.parent.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		return navigate(parentValue, g.path), nil
	}

	prep, err := g.prepare(ctx)
	if err != nil {
		return nil, err
	}

	inv := g.invoker()
	if inv == nil {
		return nil, ErrNoInvoker
	}

	obj, err := inv.GenerateObject(ctx, g.request(prep))
	if err != nil {
		return nil, err
	}
	return unwrap(g.kind, obj, g.opts.Strict)
}

// prepared holds the request inputs fixed when resolution starts.
type prepared struct {
	prompt string
	schema json.RawMessage
}

// prepare resolves dependencies sequentially in registration order,
// substitutes their values into the prompt, and synthesizes the schema.
// The accessed-field snapshot is taken up front: fields touched after
// resolution starts have no effect on the schema.
func (g *Generation) prepare(ctx context.Context) (*prepared, error) {
	g.mu.Lock()
	accessed := make([]string, len(g.order))
	copy(accessed, g.order)
	deps := make([]dependency, len(g.deps))
	copy(deps, g.deps)
	g.mu.Unlock()

	subs := make(map[string]string, len(deps))
	for i, dep := range deps {
		value, err := dep.gen.Resolve(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving dependency %d: %w", i, err)
		}
		key := dep.key
		if key == "" {
			key = fmt.Sprintf("dep_%d", i)
		}
		subs[key] = stringify(value)
	}

	prompt := substitute(g.prompt, subs)
	if g.opts.Strict {
		if leftover := leftoverPlaceholders(prompt); len(leftover) > 0 {
			return nil, &PlaceholderError{Placeholders: leftover}
		}
	}

	schemaJSON, err := synthesizeSchema(accessed, g.opts.Shape, g.kind)
	if err != nil {
		return nil, err
	}
	return &prepared{prompt: prompt, schema: schemaJSON}, nil
}

// request assembles the collaborator request from prepared inputs.
func (g *Generation) request(prep *prepared) Request {
	return Request{
		Model:       g.opts.Model,
		Prompt:      prep.prompt,
		System:      g.opts.System,
		Schema:      prep.schema,
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	}
}

// navigate walks a path of keys into a resolved value. A missing key at
// any step yields nil, not an error.
func navigate(v any, path []string) any {
	for _, key := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v, ok = m[key]
		if !ok {
			return nil
		}
	}
	return v
}

// unwrap converts the raw structured result into the caller-visible value
// for the given output kind. A result missing the expected field degrades
// to the raw object, unless strict mode makes that an UnwrapError.
func unwrap(kind OutputKind, obj map[string]any, strict bool) (any, error) {
	switch kind {
	case KindText:
		if v, ok := obj["text"]; ok {
			return v, nil
		}
		return degrade(kind, "text", obj, strict)
	case KindBool:
		switch answer := obj["answer"].(type) {
		case bool:
			return answer, nil
		case string:
			if answer == "true" {
				return true, nil
			}
			if answer == "false" {
				return false, nil
			}
		}
		return degrade(kind, "answer", obj, strict)
	case KindList, KindExtract:
		if v, ok := obj["items"]; ok {
			return v, nil
		}
		return degrade(kind, "items", obj, strict)
	default:
		// object and lists kinds use the structured result as-is
		return obj, nil
	}
}

func degrade(kind OutputKind, field string, obj map[string]any, strict bool) (any, error) {
	if strict {
		return nil, &UnwrapError{Kind: kind, Field: field}
	}
	return obj, nil
}

// ForEach resolves the generation fully, then invokes fn for each element
// if the value is a slice, or exactly once with the whole value otherwise.
func (g *Generation) ForEach(ctx context.Context, fn func(item any) error) error {
	value, err := g.Resolve(ctx)
	if err != nil {
		return err
	}
	if items, ok := value.([]any); ok {
		for _, item := range items {
			if err := fn(item); err != nil {
				return err
			}
		}
		return nil
	}
	return fn(value)
}

// DecodeError is returned when a resolved value cannot be decoded into
// the requested Go type.
type DecodeError struct {
	TargetType string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode resolved value into %s: %v", e.TargetType, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// As resolves the generation and decodes its value into type T, going
// through JSON for structured values:
//
//	person, err := lazygen.As[Person](ctx, gen)
func As[T any](ctx context.Context, g *Generation) (T, error) {
	var zero T
	value, err := g.Resolve(ctx)
	if err != nil {
		return zero, err
	}
	if typed, ok := value.(T); ok {
		return typed, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return zero, &DecodeError{TargetType: fmt.Sprintf("%T", zero), Err: err}
	}
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return zero, &DecodeError{TargetType: fmt.Sprintf("%T", zero), Err: err}
	}
	return result, nil
}
