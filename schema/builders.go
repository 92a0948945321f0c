package schema

import (
	"encoding/json"
	"fmt"
)

// RequiredField wraps a builder to mark it required inside an object.
type RequiredField struct {
	builder Builder
}

// Object creates a new object schema builder.
func Object() *ObjectBuilder {
	return &ObjectBuilder{
		node: &node{
			Type:       "object",
			Properties: make(map[string]*node),
		},
	}
}

// ObjectBuilder constructs object type schemas.
type ObjectBuilder struct {
	node  *node
	order []string
}

// Desc sets the description for the object itself.
func (b *ObjectBuilder) Desc(description string) *ObjectBuilder {
	b.node.Description = description
	return b
}

// Field adds a property with its schema.
// The field argument can be a Builder or a *RequiredField.
func (b *ObjectBuilder) Field(name string, field any) *ObjectBuilder {
	switch f := field.(type) {
	case *RequiredField:
		b.setProperty(name, f.builder.schema())
		b.addRequired(name)
	case Builder:
		b.setProperty(name, f.schema())
	default:
		panic(fmt.Sprintf("schema: Field %q requires a Builder or *RequiredField, got %T", name, field))
	}
	return b
}

// Properties returns the property names in insertion order.
func (b *ObjectBuilder) Properties() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// AdditionalProperties controls whether extra properties are allowed.
// OpenAI strict mode requires this to be false.
func (b *ObjectBuilder) AdditionalProperties(allowed bool) *ObjectBuilder {
	b.node.AdditionalProperties = ptr(allowed)
	return b
}

// Required marks this object as required when nested in another object.
func (b *ObjectBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}

// Build serializes the schema to json.RawMessage.
func (b *ObjectBuilder) Build() (json.RawMessage, error) {
	if err := b.node.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(b.node)
}

// MustBuild is like Build but panics on error.
func (b *ObjectBuilder) MustBuild() json.RawMessage {
	data, err := b.Build()
	if err != nil {
		panic(err)
	}
	return data
}

func (b *ObjectBuilder) schema() *node { return b.node }

func (b *ObjectBuilder) setProperty(name string, n *node) {
	if _, exists := b.node.Properties[name]; !exists {
		b.order = append(b.order, name)
	}
	b.node.Properties[name] = n
}

func (b *ObjectBuilder) addRequired(name string) {
	for _, r := range b.node.Required {
		if r == name {
			return
		}
	}
	b.node.Required = append(b.node.Required, name)
}

// String creates a new string schema builder.
func String() *ScalarBuilder {
	return &ScalarBuilder{node: &node{Type: "string"}}
}

// Number creates a new number schema builder.
func Number() *ScalarBuilder {
	return &ScalarBuilder{node: &node{Type: "number"}}
}

// Integer creates a new integer schema builder.
func Integer() *ScalarBuilder {
	return &ScalarBuilder{node: &node{Type: "integer"}}
}

// Bool creates a new boolean schema builder.
func Bool() *ScalarBuilder {
	return &ScalarBuilder{node: &node{Type: "boolean"}}
}

// ScalarBuilder constructs string, number, integer, and boolean schemas.
type ScalarBuilder struct {
	node *node
}

// Desc sets the description for this field.
func (b *ScalarBuilder) Desc(description string) *ScalarBuilder {
	b.node.Description = description
	return b
}

// Enum restricts the value to one of the provided options.
func (b *ScalarBuilder) Enum(values ...string) *ScalarBuilder {
	b.node.Enum = make([]any, len(values))
	for i, v := range values {
		b.node.Enum[i] = v
	}
	return b
}

// Required marks this field as required when used in an object.
func (b *ScalarBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}

// Build serializes the schema to json.RawMessage.
func (b *ScalarBuilder) Build() (json.RawMessage, error) {
	if err := b.node.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(b.node)
}

// MustBuild is like Build but panics on error.
func (b *ScalarBuilder) MustBuild() json.RawMessage {
	data, err := b.Build()
	if err != nil {
		panic(err)
	}
	return data
}

func (b *ScalarBuilder) schema() *node { return b.node }

// Array creates a new array schema builder with the specified item type.
func Array(items Builder) *ArrayBuilder {
	return &ArrayBuilder{
		node: &node{Type: "array", Items: items.schema()},
	}
}

// ArrayBuilder constructs array type schemas.
type ArrayBuilder struct {
	node *node
}

// Desc sets the description.
func (b *ArrayBuilder) Desc(description string) *ArrayBuilder {
	b.node.Description = description
	return b
}

// Required marks this field as required when used in an object.
func (b *ArrayBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}

// Build serializes the schema to json.RawMessage.
func (b *ArrayBuilder) Build() (json.RawMessage, error) {
	if err := b.node.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(b.node)
}

// MustBuild is like Build but panics on error.
func (b *ArrayBuilder) MustBuild() json.RawMessage {
	data, err := b.Build()
	if err != nil {
		panic(err)
	}
	return data
}

func (b *ArrayBuilder) schema() *node { return b.node }
