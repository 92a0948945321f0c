package lazygen

import (
	"reflect"
	"strings"

	"github.com/spetersoncode/lazygen/schema"
)

// ShapeOf builds a shape description by reflecting on a struct type.
// Field names are taken from json tags, types become shape annotations,
// and an optional desc tag supplies the field description:
//
//	type Review struct {
//	    Summary  string   `json:"summary" desc:"One-paragraph summary"`
//	    Score    float64  `json:"score" desc:"Quality from 0 to 10"`
//	    Keywords []string `json:"keywords"`
//	}
//	shape := lazygen.ShapeOf[Review]()
func ShapeOf[T any]() schema.Shape {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return schema.Shape{}
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return schema.Shape{}
	}
	return shapeFromStruct(t)
}

// ObjectOf creates a deferred structured generation whose shape is
// derived from the struct type T, unless the segments already declare one
// with WithShape. Combine with As to get a typed result:
//
//	gen := lazygen.ObjectOf[Review]("Review this article: ", article)
//	review, err := lazygen.As[Review](ctx, gen)
func ObjectOf[T any](segments ...any) *Generation {
	g := Object(segments...)
	if len(g.opts.Shape) == 0 {
		g.opts.Shape = ShapeOf[T]()
	}
	return g
}

func shapeFromStruct(t reflect.Type) schema.Shape {
	shape := make(schema.Shape)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := strings.Split(jsonTag, ",")[0]
		if name == "" {
			name = field.Name
		}
		shape[name] = shapeLeaf(field.Type, field.Tag.Get("desc"))
	}
	return shape
}

// shapeLeaf maps a Go type to its shape leaf, carrying the description
// and a type annotation the shape converter understands.
func shapeLeaf(t reflect.Type, desc string) any {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return desc
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return desc + " (integer)"
	case reflect.Float32, reflect.Float64:
		return desc + " (number)"
	case reflect.Bool:
		return desc + " (boolean)"
	case reflect.Slice, reflect.Array:
		return []any{shapeLeaf(t.Elem(), desc)}
	case reflect.Struct:
		return shapeFromStruct(t)
	case reflect.Map:
		return schema.Shape{}
	default:
		return desc
	}
}
