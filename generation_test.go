package lazygen

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInvoker is a test double counting collaborator calls.
type fakeInvoker struct {
	mu sync.Mutex

	objectCalls       int
	textCalls         int
	streamObjectCalls int
	streamTextCalls   int
	requests          []Request

	object   map[string]any
	objectFn func(req Request) (map[string]any, error)
	err      error

	textChunks   []string
	textEvents   []TextEvent // overrides textChunks when set
	objectEvents []ObjectEvent
}

func (f *fakeInvoker) GenerateObject(_ context.Context, req Request) (map[string]any, error) {
	f.mu.Lock()
	f.objectCalls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.objectFn != nil {
		return f.objectFn(req)
	}
	return f.object, nil
}

func (f *fakeInvoker) GenerateText(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	f.textCalls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "", nil
}

func (f *fakeInvoker) StreamObject(_ context.Context, req Request) (<-chan ObjectEvent, error) {
	f.mu.Lock()
	f.streamObjectCalls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan ObjectEvent)
	go func() {
		defer close(ch)
		for _, ev := range f.objectEvents {
			ch <- ev
		}
	}()
	return ch, nil
}

func (f *fakeInvoker) StreamText(_ context.Context, req Request) (<-chan TextEvent, error) {
	f.mu.Lock()
	f.streamTextCalls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan TextEvent)
	go func() {
		defer close(ch)
		if f.textEvents != nil {
			for _, ev := range f.textEvents {
				ch <- ev
			}
			return
		}
		for _, chunk := range f.textChunks {
			ch <- TextEvent{Delta: chunk}
		}
		ch <- TextEvent{Done: true}
	}()
	return ch, nil
}

// lastSchema parses the schema of the most recent request.
func (f *fakeInvoker) lastSchema(t *testing.T) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	var m map[string]any
	require.NoError(t, json.Unmarshal(f.requests[len(f.requests)-1].Schema, &m))
	return m
}

func (f *fakeInvoker) lastPrompt(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1].Prompt
}

func TestResolveAtMostOnce(t *testing.T) {
	t.Run("repeated resolves trigger one invocation", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{"text": "hi"}}
		g := Text("say hi", WithInvoker(inv))

		for i := 0; i < 5; i++ {
			v, err := g.Resolve(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "hi", v)
		}
		assert.Equal(t, 1, inv.objectCalls)
	})

	t.Run("concurrent resolves share one settlement", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{"text": "hello"}}
		g := Text("say hello", WithInvoker(inv))

		var wg sync.WaitGroup
		results := make([]any, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], _ = g.Resolve(context.Background())
			}()
		}
		wg.Wait()

		for _, v := range results {
			assert.Equal(t, "hello", v)
		}
		assert.Equal(t, 1, inv.objectCalls)
	})

	t.Run("failed resolution is memoized too", func(t *testing.T) {
		boom := errors.New("boom")
		inv := &fakeInvoker{err: boom}
		g := Text("fail", WithInvoker(inv))

		_, err1 := g.Resolve(context.Background())
		_, err2 := g.Resolve(context.Background())
		require.ErrorIs(t, err1, boom)
		require.ErrorIs(t, err2, boom)
		assert.Equal(t, 1, inv.objectCalls)
	})

	t.Run("missing invoker fails", func(t *testing.T) {
		g := Text("no invoker anywhere")
		_, err := g.Resolve(context.Background())
		assert.ErrorIs(t, err, ErrNoInvoker)
	})
}

func TestDerivedNavigation(t *testing.T) {
	t.Run("navigates nested path", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{"a": map[string]any{"b": float64(5)}}}
		g := Object("produce a", WithInvoker(inv))

		b := g.Field("a").Field("b")
		v, err := b.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, float64(5), v)
		assert.Equal(t, 1, inv.objectCalls, "derived objects never invoke the model")
	})

	t.Run("missing path resolves to nil not error", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{"a": "x"}}
		g := Object("produce a", WithInvoker(inv))

		v, err := g.Field("a").Field("missing").Field("deeper").Resolve(context.Background())
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("derived object resolves parent first", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{"summary": "short"}}
		g := Object("write", WithInvoker(inv))
		child := g.Field("summary")

		v, err := child.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "short", v)
		assert.True(t, g.IsResolved())
	})

	t.Run("field accesses accumulate on the root", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{}}
		g := Object("write", WithInvoker(inv))
		g.Field("summary")
		g.Field("keyPoints").Field("first")
		g.Field("summary") // duplicate is deduplicated

		assert.Equal(t, []string{"summary", "keyPoints", "first"}, g.AccessedFields())
	})

	t.Run("reserved names are not recorded", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{}}
		g := Object("write", WithInvoker(inv))
		g.Field("then")
		g.Field("stream")
		g.Field("summary")

		assert.Equal(t, []string{"summary"}, g.AccessedFields())
	})
}

func TestDependencySubstitution(t *testing.T) {
	t.Run("positional placeholder is replaced", func(t *testing.T) {
		depInv := &fakeInvoker{object: map[string]any{"text": "World"}}
		dep := Text("name something", WithInvoker(depInv))

		inv := &fakeInvoker{object: map[string]any{"text": "greeting"}}
		g := Text("Hello ", dep, WithInvoker(inv))

		_, err := g.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Hello World", inv.lastPrompt(t))
	})

	t.Run("explicit dependency key", func(t *testing.T) {
		depInv := &fakeInvoker{object: map[string]any{"text": "Vermeer"}}
		dep := Text("pick a painter", WithInvoker(depInv))

		inv := &fakeInvoker{object: map[string]any{"text": "ok"}}
		g := Text("Describe ${painter} briefly", WithInvoker(inv))
		g.AddDependency(dep, "painter")

		_, err := g.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Describe Vermeer briefly", inv.lastPrompt(t))
	})

	t.Run("unmatched placeholders are left verbatim", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{"text": "ok"}}
		g := Text("Hello ${dep_0}", WithInvoker(inv))

		_, err := g.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Hello ${dep_0}", inv.lastPrompt(t))
	})

	t.Run("strict mode rejects unmatched placeholders", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{"text": "ok"}}
		g := Text("Hello ${dep_0}", WithInvoker(inv), WithStrict())

		_, err := g.Resolve(context.Background())
		var placeholderErr *PlaceholderError
		require.ErrorAs(t, err, &placeholderErr)
		assert.Equal(t, []string{"${dep_0}"}, placeholderErr.Placeholders)
		assert.Zero(t, inv.objectCalls)
	})

	t.Run("dependency failure propagates", func(t *testing.T) {
		boom := errors.New("dep failed")
		dep := Text("fail", WithInvoker(&fakeInvoker{err: boom}))
		inv := &fakeInvoker{object: map[string]any{"text": "ok"}}
		g := Text("Hello ", dep, WithInvoker(inv))

		_, err := g.Resolve(context.Background())
		require.ErrorIs(t, err, boom)
		assert.Zero(t, inv.objectCalls)
	})

	t.Run("shared dependency resolves once", func(t *testing.T) {
		depInv := &fakeInvoker{object: map[string]any{"text": "shared"}}
		dep := Text("pick", WithInvoker(depInv))

		invA := &fakeInvoker{object: map[string]any{"text": "a"}}
		invB := &fakeInvoker{object: map[string]any{"text": "b"}}
		a := Text("A: ", dep, WithInvoker(invA))
		b := Text("B: ", dep, WithInvoker(invB))

		_, err := a.Resolve(context.Background())
		require.NoError(t, err)
		_, err = b.Resolve(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, depInv.objectCalls)
		assert.Equal(t, "A: shared", invA.lastPrompt(t))
		assert.Equal(t, "B: shared", invB.lastPrompt(t))
	})
}

func TestUnwrapPerKind(t *testing.T) {
	tests := []struct {
		name     string
		factory  func(segments ...any) *Generation
		object   map[string]any
		expected any
	}{
		{
			name:     "text unwraps text field",
			factory:  Text,
			object:   map[string]any{"text": "plain"},
			expected: "plain",
		},
		{
			name:     "boolean string true",
			factory:  Bool,
			object:   map[string]any{"answer": "true"},
			expected: true,
		},
		{
			name:     "boolean string false",
			factory:  Bool,
			object:   map[string]any{"answer": "false"},
			expected: false,
		},
		{
			name:     "boolean native",
			factory:  Bool,
			object:   map[string]any{"answer": true},
			expected: true,
		},
		{
			name:     "list unwraps items",
			factory:  List,
			object:   map[string]any{"items": []any{"a", "b"}},
			expected: []any{"a", "b"},
		},
		{
			name:     "extract unwraps items",
			factory:  Extract,
			object:   map[string]any{"items": []any{"x"}},
			expected: []any{"x"},
		},
		{
			name:     "lists keeps whole object",
			factory:  Lists,
			object:   map[string]any{"categories": []any{"c"}, "data": map[string]any{}},
			expected: map[string]any{"categories": []any{"c"}, "data": map[string]any{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvoker{object: tt.object}
			g := tt.factory("prompt", WithInvoker(inv))
			v, err := g.Resolve(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}

	t.Run("malformed unwrap degrades to raw object", func(t *testing.T) {
		raw := map[string]any{"unexpected": "shape"}
		inv := &fakeInvoker{object: raw}
		g := List("list things", WithInvoker(inv))

		v, err := g.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, raw, v)
	})

	t.Run("strict mode raises on malformed unwrap", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{"unexpected": "shape"}}
		g := List("list things", WithInvoker(inv), WithStrict())

		_, err := g.Resolve(context.Background())
		var unwrapErr *UnwrapError
		require.ErrorAs(t, err, &unwrapErr)
		assert.Equal(t, KindList, unwrapErr.Kind)
		assert.Equal(t, "items", unwrapErr.Field)
	})
}

func TestPendingSet(t *testing.T) {
	inv := &fakeInvoker{object: map[string]any{"text": "done"}}
	g := Text("track me", WithInvoker(inv))

	ids := func() map[string]bool {
		out := make(map[string]bool)
		for _, p := range Pending() {
			out[p.ID()] = true
		}
		return out
	}

	assert.True(t, ids()[g.ID()], "constructed generation is pending")

	_, err := g.Resolve(context.Background())
	require.NoError(t, err)
	assert.False(t, ids()[g.ID()], "resolved generation leaves the pending set")
}

func TestForEach(t *testing.T) {
	t.Run("iterates slice values element-wise", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{"items": []any{"a", "b", "c"}}}
		g := List("list letters", WithInvoker(inv))

		var seen []any
		err := g.ForEach(context.Background(), func(item any) error {
			seen = append(seen, item)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b", "c"}, seen)
	})

	t.Run("invokes once for non-slice values", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{"text": "whole"}}
		g := Text("say it", WithInvoker(inv))

		calls := 0
		err := g.ForEach(context.Background(), func(item any) error {
			calls++
			assert.Equal(t, "whole", item)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on callback error", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{"items": []any{"a", "b"}}}
		g := List("list", WithInvoker(inv))

		stop := errors.New("stop")
		calls := 0
		err := g.ForEach(context.Background(), func(any) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})
}

func TestAs(t *testing.T) {
	type review struct {
		Summary string  `json:"summary"`
		Score   float64 `json:"score"`
	}

	t.Run("decodes structured value", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{"summary": "fine", "score": 7.5}}
		g := Object("review", WithInvoker(inv))

		r, err := As[review](context.Background(), g)
		require.NoError(t, err)
		assert.Equal(t, review{Summary: "fine", Score: 7.5}, r)
	})

	t.Run("passes through matching type", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{"text": "direct"}}
		g := Text("say", WithInvoker(inv))

		s, err := As[string](context.Background(), g)
		require.NoError(t, err)
		assert.Equal(t, "direct", s)
	})

	t.Run("reports decode failures", func(t *testing.T) {
		inv := &fakeInvoker{object: map[string]any{"text": "not a number"}}
		g := Text("say", WithInvoker(inv))

		_, err := As[int](context.Background(), g)
		var decodeErr *DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})
}

func TestIsGeneration(t *testing.T) {
	g := Text("x", WithInvoker(&fakeInvoker{}))
	assert.True(t, IsGeneration(g))
	assert.False(t, IsGeneration("x"))
	assert.False(t, IsGeneration(nil))
}

func TestDefaultInvoker(t *testing.T) {
	prev := DefaultInvoker()
	defer SetDefaultInvoker(prev)

	inv := &fakeInvoker{object: map[string]any{"text": "default"}}
	SetDefaultInvoker(inv)

	g := Text("use the default")
	v, err := g.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "default", v)
	assert.Equal(t, 1, inv.objectCalls)
}
