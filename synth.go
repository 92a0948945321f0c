package lazygen

import (
	"encoding/json"
	"strings"

	"github.com/spetersoncode/lazygen/schema"
)

// synthesizeSchema produces the JSON Schema requested from the model for
// a given invocation. Pure and deterministic: the result is fixed by the
// accessed field names, the declared base shape, and the output kind.
//
// An explicit shape wins outright when no fields were accessed. Accessed
// fields are looked up in the shape first and classified by name pattern
// otherwise. With neither accesses nor a shape, the output kind alone
// determines a minimal schema.
func synthesizeSchema(accessed []string, base schema.Shape, kind OutputKind) (json.RawMessage, error) {
	if len(accessed) == 0 {
		if len(base) > 0 {
			return schema.FromShape(base).Build()
		}
		return kindSchema(kind)
	}

	obj := schema.Object()
	for _, name := range accessed {
		if declared, ok := base[name]; ok {
			obj.Field(name, schema.FieldFromValue(declared))
			continue
		}
		obj.Field(name, classifyField(name))
	}
	return obj.Build()
}

// kindSchema is the fallback schema when nothing was accessed or declared.
func kindSchema(kind OutputKind) (json.RawMessage, error) {
	switch kind {
	case KindList, KindExtract:
		return schema.Object().
			Field("items", schema.Array(schema.String()).Required()).
			Build()
	case KindLists:
		return schema.Object().
			Field("categories", schema.Array(schema.String()).Required()).
			Field("data", schema.Object().Required()).
			Build()
	case KindBool:
		return schema.Object().
			Field("answer", schema.String().Desc("Either true or false").Required()).
			Build()
	case KindText:
		return schema.Object().
			Field("text", schema.String().Required()).
			Build()
	default:
		return schema.Object().
			Field("result", schema.String().Required()).
			Build()
	}
}

// classifyField guesses a field type from its name. Plural and list-like
// names become string arrays, question-like names become booleans,
// quantity-like names become numbers, everything else a string.
func classifyField(name string) schema.Builder {
	lower := strings.ToLower(name)

	if strings.HasSuffix(lower, "s") ||
		containsAny(lower, "list", "items", "array") {
		return schema.Array(schema.String())
	}
	if containsAny(lower, "is", "has", "can", "should") {
		return schema.Bool()
	}
	if containsAny(lower, "count", "number", "total", "amount") {
		return schema.Number()
	}
	return schema.String()
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
