package lazygen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drainText collects every event from a text surface.
func drainText(ch <-chan TextEvent) (deltas []string, done bool, err error) {
	for ev := range ch {
		if ev.Err != nil {
			err = ev.Err
		}
		if ev.Done {
			done = true
		}
		if ev.Delta != "" {
			deltas = append(deltas, ev.Delta)
		}
	}
	return deltas, done, err
}

// drainPartials collects every event from a partial-value surface.
func drainPartials(ch <-chan PartialEvent) (values []any, done bool, err error) {
	for ev := range ch {
		if ev.Err != nil {
			err = ev.Err
		}
		if ev.Done {
			done = true
		}
		if ev.Value != nil {
			values = append(values, ev.Value)
		}
	}
	return values, done, err
}

func TestStreamText(t *testing.T) {
	t.Run("result is the chunk concatenation", func(t *testing.T) {
		inv := &fakeInvoker{textChunks: []string{"Hel", "lo"}}
		s := Text("greet", WithInvoker(inv)).Stream(context.Background())

		v, err := s.Result()
		require.NoError(t, err)
		assert.Equal(t, "Hello", v)
		assert.Equal(t, 1, inv.streamTextCalls)
	})

	t.Run("text surface yields chunks then done", func(t *testing.T) {
		inv := &fakeInvoker{textChunks: []string{"Hel", "lo"}}
		s := Text("greet", WithInvoker(inv)).Stream(context.Background())

		deltas, done, err := drainText(s.Text())
		require.NoError(t, err)
		assert.True(t, done)
		assert.Equal(t, []string{"Hel", "lo"}, deltas)
	})

	t.Run("replay yields the same chunks without a second call", func(t *testing.T) {
		inv := &fakeInvoker{textChunks: []string{"a", "b", "c"}}
		s := Text("list", WithInvoker(inv)).Stream(context.Background())

		first, _, err := drainText(s.Text())
		require.NoError(t, err)
		second, _, err := drainText(s.Text())
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, inv.streamTextCalls)
	})

	t.Run("stream and resolve are independent executions", func(t *testing.T) {
		inv := &fakeInvoker{
			object:     map[string]any{"text": "resolved"},
			textChunks: []string{"streamed"},
		}
		g := Text("both paths", WithInvoker(inv))

		v, err := g.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "resolved", v)

		sv, err := g.Stream(context.Background()).Result()
		require.NoError(t, err)
		assert.Equal(t, "streamed", sv)

		assert.Equal(t, 1, inv.objectCalls)
		assert.Equal(t, 1, inv.streamTextCalls)
	})

	t.Run("lazy start on first surface touch", func(t *testing.T) {
		inv := &fakeInvoker{textChunks: []string{"x"}}
		s := Text("lazy", WithInvoker(inv)).Stream(context.Background())

		assert.Zero(t, inv.streamTextCalls)
		_, err := s.Result()
		require.NoError(t, err)
		assert.Equal(t, 1, inv.streamTextCalls)
	})

	t.Run("dependencies are substituted before streaming", func(t *testing.T) {
		depInv := &fakeInvoker{object: map[string]any{"text": "World"}}
		dep := Text("pick", WithInvoker(depInv))

		inv := &fakeInvoker{textChunks: []string{"ok"}}
		s := Text("Hello ", dep, WithInvoker(inv)).Stream(context.Background())

		_, err := s.Result()
		require.NoError(t, err)
		assert.Equal(t, "Hello World", inv.lastPrompt(t))
	})
}

func TestStreamObject(t *testing.T) {
	t.Run("partials yield successive snapshots", func(t *testing.T) {
		inv := &fakeInvoker{objectEvents: []ObjectEvent{
			{Partial: map[string]any{"summary": "dr"}},
			{Partial: map[string]any{"summary": "draft"}},
			{Partial: map[string]any{"summary": "draft", "score": 7.0}, Done: true},
		}}
		s := Object("review", WithInvoker(inv)).Stream(context.Background())

		values, done, err := drainPartials(s.Partials())
		require.NoError(t, err)
		assert.True(t, done)
		require.Len(t, values, 3)
		assert.Equal(t, map[string]any{"summary": "dr"}, values[0])

		v, err := s.Result()
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"summary": "draft", "score": 7.0}, v)
	})

	t.Run("list kind yields newly completed items", func(t *testing.T) {
		inv := &fakeInvoker{objectEvents: []ObjectEvent{
			{Partial: map[string]any{"items": []any{"a"}}},
			{Partial: map[string]any{"items": []any{"a", "b"}}},
			{Partial: map[string]any{"items": []any{"a", "b", "c"}}, Done: true},
		}}
		s := List("letters", WithInvoker(inv)).Stream(context.Background())

		values, done, err := drainPartials(s.Partials())
		require.NoError(t, err)
		assert.True(t, done)
		assert.Equal(t, []any{"a", "b", "c"}, values)

		v, err := s.Result()
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b", "c"}, v)
		assert.Equal(t, 1, inv.streamObjectCalls)
	})

	t.Run("raw deltas appear on the text surface", func(t *testing.T) {
		inv := &fakeInvoker{objectEvents: []ObjectEvent{
			{Delta: `{"summary":`},
			{Delta: `"ok"}`, Partial: map[string]any{"summary": "ok"}, Done: true},
		}}
		s := Object("review", WithInvoker(inv)).Stream(context.Background())

		deltas, done, err := drainText(s.Text())
		require.NoError(t, err)
		assert.True(t, done)
		assert.Equal(t, []string{`{"summary":`, `"ok"}`}, deltas)
	})

	t.Run("derived generation streams its root call", func(t *testing.T) {
		inv := &fakeInvoker{objectEvents: []ObjectEvent{
			{Partial: map[string]any{"summary": "s"}, Done: true},
		}}
		g := Object("review", WithInvoker(inv))
		child := g.Field("summary")

		v, err := child.Stream(context.Background()).Result()
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"summary": "s"}, v)
		assert.Equal(t, 1, inv.streamObjectCalls)
	})
}

func TestStreamErrors(t *testing.T) {
	t.Run("mid-stream error rejects result", func(t *testing.T) {
		boom := errors.New("stream broke")
		inv := &fakeInvoker{textEvents: []TextEvent{
			{Delta: "par"},
			{Err: boom},
		}}
		s := Text("fail midway", WithInvoker(inv)).Stream(context.Background())

		_, err := s.Result()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("error re-raises on every iteration", func(t *testing.T) {
		boom := errors.New("stream broke")
		inv := &fakeInvoker{textEvents: []TextEvent{
			{Delta: "par"},
			{Err: boom},
		}}
		s := Text("fail midway", WithInvoker(inv)).Stream(context.Background())

		deltas, _, err := drainText(s.Text())
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"par"}, deltas)

		deltas, _, err = drainText(s.Text())
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"par"}, deltas)
		assert.Equal(t, 1, inv.streamTextCalls)
	})

	t.Run("stream start failure surfaces everywhere", func(t *testing.T) {
		boom := errors.New("no connection")
		inv := &fakeInvoker{err: boom}
		s := Text("never starts", WithInvoker(inv)).Stream(context.Background())

		_, err := s.Result()
		assert.ErrorIs(t, err, boom)

		_, _, err = drainText(s.Text())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("dependency failure rejects the stream", func(t *testing.T) {
		boom := errors.New("dep failed")
		dep := Text("fail", WithInvoker(&fakeInvoker{err: boom}))
		inv := &fakeInvoker{textChunks: []string{"never"}}
		s := Text("Hello ", dep, WithInvoker(inv)).Stream(context.Background())

		_, err := s.Result()
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, inv.streamTextCalls)
	})

	t.Run("missing invoker rejects the stream", func(t *testing.T) {
		s := Text("nothing configured").Stream(context.Background())
		_, err := s.Result()
		assert.ErrorIs(t, err, ErrNoInvoker)
	})
}
