package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Shape is a human-readable description of an object schema.
//
// Leaf values are interpreted as follows:
//   - "Some description": a string field with that description
//   - "Some description (number)": the trailing parenthetical names the
//     type: number, integer, boolean, or string
//   - "draft | review | published": a string field restricted to the
//     listed enum options
//   - []any{leaf}: an array whose items follow the single element
//   - Shape or map[string]any: a nested object
type Shape map[string]any

// FromShape converts a shape description into an object schema builder.
// Field order follows sorted key order so the output is deterministic.
func FromShape(shape Shape) *ObjectBuilder {
	obj := Object()
	keys := make([]string, 0, len(shape))
	for k := range shape {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		obj.Field(k, FieldFromValue(shape[k]))
	}
	return obj
}

// FieldFromValue converts a single shape leaf into a schema builder.
// Unrecognized values fall back to a plain string field.
func FieldFromValue(v any) Builder {
	switch val := v.(type) {
	case string:
		return fieldFromString(val)
	case []any:
		if len(val) == 1 {
			return Array(FieldFromValue(val[0]))
		}
		return Array(String())
	case []string:
		if len(val) == 1 {
			return Array(fieldFromString(val[0]))
		}
		return Array(String())
	case Shape:
		return FromShape(val)
	case map[string]any:
		return FromShape(Shape(val))
	default:
		return String().Desc(fmt.Sprintf("%v", v))
	}
}

// fieldFromString interprets a string leaf: enum options separated by
// pipes, or a description with an optional trailing type annotation.
func fieldFromString(s string) Builder {
	if strings.Contains(s, "|") {
		parts := strings.Split(s, "|")
		options := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				options = append(options, trimmed)
			}
		}
		if len(options) > 1 {
			return String().Enum(options...)
		}
	}

	desc, typ := splitTypeAnnotation(s)
	switch typ {
	case "number", "float":
		return Number().Desc(desc)
	case "integer", "int":
		return Integer().Desc(desc)
	case "boolean", "bool":
		return Bool().Desc(desc)
	default:
		return String().Desc(desc)
	}
}

// splitTypeAnnotation splits "Word count (number)" into ("Word count", "number").
// Returns an empty type when no trailing parenthetical annotation is present.
func splitTypeAnnotation(s string) (desc, typ string) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasSuffix(trimmed, ")") {
		return trimmed, ""
	}
	open := strings.LastIndex(trimmed, "(")
	if open < 0 {
		return trimmed, ""
	}
	candidate := strings.ToLower(strings.TrimSpace(trimmed[open+1 : len(trimmed)-1]))
	switch candidate {
	case "number", "float", "integer", "int", "boolean", "bool", "string":
		return strings.TrimSpace(trimmed[:open]), candidate
	}
	return trimmed, ""
}
