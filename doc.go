// Package lazygen provides deferred generation: model calls represented
// as lazy values that learn their own output schema from how the caller
// uses them before they run.
//
// A [Generation] is both a future over an eventual model result and a
// navigable handle on that result before it exists. It is created by one
// of the kind factories, resolved at most once, and memoized forever:
//
//	topic := lazygen.Text("Pick a surprising deep-sea creature")
//	facts := lazygen.List("List five facts about ", topic)
//
//	items, err := facts.Resolve(ctx)
//
// Embedding one generation inside another registers it as a dependency:
// its resolved value is substituted into the outer prompt before the
// outer call runs, so a chain of calls is described up front and executed
// lazily in dependency order.
//
// # Field inference
//
// Accessing fields of a structured generation before resolving it teaches
// the generation what shape to request. Each access returns a derived
// generation that resolves by navigating into the parent's value, and the
// union of accessed fields becomes the schema of the single model call:
//
//	article := lazygen.Object("Write about ", topic)
//	summary := article.Field("summary")
//	urgent := article.Field("isUrgent")
//
//	s, _ := summary.Resolve(ctx) // one call requesting {summary, isUrgent}
//	u, _ := urgent.Resolve(ctx)  // navigation only, no second call
//
// Shapes can also be declared explicitly with [WithShape], or derived
// from a struct type with [ObjectOf] and decoded back with [As].
//
// # Streaming
//
// [Generation.Stream] is the incremental consumption path: text chunks,
// partial-value snapshots, and a result future. It runs its own model
// call and does not share the generation's resolution cache; use one
// path or the other for a given generation.
//
// # Invocation
//
// The actual model call is behind the [Invoker] interface. Configure one
// globally with [SetDefaultInvoker] or per generation with [WithInvoker];
// the client package provides an implementation that routes model names
// to Anthropic, OpenAI, and Google backends.
package lazygen
