package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildShape(t *testing.T, shape Shape) map[string]any {
	t.Helper()
	raw, err := FromShape(shape).Build()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func prop(t *testing.T, m map[string]any, name string) map[string]any {
	t.Helper()
	props, ok := m["properties"].(map[string]any)
	require.True(t, ok, "schema has no properties")
	p, ok := props[name].(map[string]any)
	require.True(t, ok, "schema has no property %q", name)
	return p
}

func TestFromShape(t *testing.T) {
	t.Run("string leaf becomes described string field", func(t *testing.T) {
		m := buildShape(t, Shape{"title": "Article title"})
		p := prop(t, m, "title")
		assert.Equal(t, "string", p["type"])
		assert.Equal(t, "Article title", p["description"])
	})

	t.Run("trailing type annotation is honored", func(t *testing.T) {
		tests := []struct {
			leaf     string
			wantType string
			wantDesc string
		}{
			{"Word count (number)", "number", "Word count"},
			{"Age in years (integer)", "integer", "Age in years"},
			{"Whether urgent (boolean)", "boolean", "Whether urgent"},
			{"Plain name (string)", "string", "Plain name"},
			{"Name (unknown)", "string", "Name (unknown)"},
		}
		for _, tt := range tests {
			t.Run(tt.leaf, func(t *testing.T) {
				m := buildShape(t, Shape{"f": tt.leaf})
				p := prop(t, m, "f")
				assert.Equal(t, tt.wantType, p["type"])
				assert.Equal(t, tt.wantDesc, p["description"])
			})
		}
	})

	t.Run("pipe-separated options become an enum", func(t *testing.T) {
		m := buildShape(t, Shape{"status": "draft | review | published"})
		p := prop(t, m, "status")
		assert.Equal(t, "string", p["type"])
		assert.Equal(t, []any{"draft", "review", "published"}, p["enum"])
	})

	t.Run("single-element array describes item type", func(t *testing.T) {
		m := buildShape(t, Shape{"tags": []any{"A short tag"}})
		p := prop(t, m, "tags")
		assert.Equal(t, "array", p["type"])
		items := p["items"].(map[string]any)
		assert.Equal(t, "string", items["type"])
		assert.Equal(t, "A short tag", items["description"])
	})

	t.Run("nested map becomes nested object", func(t *testing.T) {
		m := buildShape(t, Shape{
			"author": Shape{
				"name": "Full name",
				"age":  "Age (number)",
			},
		})
		p := prop(t, m, "author")
		assert.Equal(t, "object", p["type"])
		nested := p["properties"].(map[string]any)
		assert.Equal(t, "string", nested["name"].(map[string]any)["type"])
		assert.Equal(t, "number", nested["age"].(map[string]any)["type"])
	})

	t.Run("plain map literal works like Shape", func(t *testing.T) {
		m := buildShape(t, Shape{
			"meta": map[string]any{"source": "Where it came from"},
		})
		p := prop(t, m, "meta")
		assert.Equal(t, "object", p["type"])
	})
}
