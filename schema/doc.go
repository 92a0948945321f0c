// Package schema provides a fluent API for building the JSON Schema
// objects that structured generation requests are constrained by, plus
// a converter from human-readable shape descriptions to those schemas.
//
// # Builders
//
// Create schemas programmatically with the type constructors and chain
// constraint methods:
//
//	s, err := schema.Object().
//	    Field("title", schema.String().Desc("Article title").Required()).
//	    Field("tags", schema.Array(schema.String())).
//	    Build()
//
// # Shapes
//
// A [Shape] describes the same thing in data: string leaves are field
// descriptions (with an optional trailing type annotation or a set of
// enum options), single-element slices are arrays, and nested maps are
// nested objects:
//
//	shape := schema.Shape{
//	    "title":    "Article title",
//	    "words":    "Approximate word count (number)",
//	    "audience": "general | technical | executive",
//	    "tags":     []any{"A short tag"},
//	}
//	s, err := schema.FromShape(shape).Build()
//
// Shapes are what callers pass to the generation factories as an explicit
// schema hint; builders are what the rest of the library composes with.
package schema
