package lazygen

import (
	"sync"

	"github.com/google/uuid"
)

// genState tracks a generation through its lifecycle: it accepts field
// accesses and dependency registrations while building, is in flight once
// committed, and is immutable once resolved.
type genState int

const (
	stateBuilding genState = iota
	stateCommitted
	stateResolved
)

// dependency is another generation whose resolved value is substituted
// into this generation's prompt before invocation.
type dependency struct {
	gen *Generation
	key string // substitution key; empty means positional dep_<index>
}

// Generation represents a deferred model call: a future over the eventual
// result that is also navigable before the result exists. Accessing fields
// with [Generation.Field] teaches the generation which properties the
// caller needs, and the union of accessed fields determines the schema of
// the single model call made when the generation is first resolved.
//
// A generation resolves at most once. Derived generations (returned by
// Field) resolve by navigating into their parent's resolved value and
// never perform a model call of their own.
type Generation struct {
	id     string
	kind   OutputKind
	prompt string
	opts   *Options

	// parent and path are set iff this generation was derived via Field.
	parent *Generation
	path   []string

	mu       sync.Mutex
	state    genState
	accessed map[string]struct{}
	order    []string // accessed field names in first-touch order
	deps     []dependency

	value any
	err   error
	done  chan struct{} // closed when state reaches stateResolved
}

// reservedFields are names bound to the generation itself in the source
// interface; they are never recorded as inferred schema fields.
var reservedFields = map[string]struct{}{
	"then":          {},
	"catch":         {},
	"finally":       {},
	"resolve":       {},
	"forEach":       {},
	"stream":        {},
	"addDependency": {},
	"prompt":        {},
	"path":          {},
	"isResolved":    {},
	"accessedProps": {},
}

// newGeneration builds a root generation from template segments and
// registers it in the pending set.
func newGeneration(kind OutputKind, segments []any) *Generation {
	prompt, deps, opts := parseSegments(segments)
	g := &Generation{
		id:       uuid.New().String(),
		kind:     kind,
		prompt:   prompt,
		opts:     opts,
		deps:     deps,
		accessed: make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	register(g)
	return g
}

// Text creates a deferred text generation. Segments are concatenated in
// order: strings and other plain values are inlined, *Generation values
// become dependencies substituted at resolution time, and Option values
// configure the call:
//
//	topic := lazygen.Text("Pick a surprising atmospheric topic")
//	poem := lazygen.Text("Write a haiku about ", topic, lazygen.WithTemperature(0.9))
func Text(segments ...any) *Generation {
	return newGeneration(KindText, segments)
}

// Object creates a deferred structured generation. The result shape is
// declared with WithShape or inferred from the fields accessed before the
// first resolution.
func Object(segments ...any) *Generation {
	return newGeneration(KindObject, segments)
}

// List creates a deferred generation that resolves to a slice of items.
func List(segments ...any) *Generation {
	return newGeneration(KindList, segments)
}

// Lists creates a deferred generation that resolves to categorized lists:
// an object holding the category names and the per-category data.
func Lists(segments ...any) *Generation {
	return newGeneration(KindLists, segments)
}

// Bool creates a deferred generation that resolves to a yes/no answer.
func Bool(segments ...any) *Generation {
	return newGeneration(KindBool, segments)
}

// Extract creates a deferred generation that pulls a slice of items out
// of the supplied text.
func Extract(segments ...any) *Generation {
	return newGeneration(KindExtract, segments)
}

// Field records the access on the root of the derivation chain and
// returns a derived generation for the named field of the eventual value.
// The derived generation shares the root's options and resolves by
// navigation only. Reserved names (promise and instance method names from
// the source interface) are never recorded as schema fields.
//
// Accesses made before the first Resolve or Stream call are guaranteed to
// be visible to schema synthesis; later accesses are not.
func (g *Generation) Field(name string) *Generation {
	if _, reserved := reservedFields[name]; !reserved {
		g.Root().recordAccess(name)
	}
	child := &Generation{
		id:       uuid.New().String(),
		kind:     g.kind,
		opts:     g.opts,
		parent:   g,
		path:     append(append([]string{}, g.path...), name),
		accessed: make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	register(child)
	return child
}

// recordAccess adds a field name to the accessed set. Accesses after the
// generation commits are recorded but have no effect on the schema, which
// is fixed when resolution starts.
func (g *Generation) recordAccess(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, seen := g.accessed[name]; seen {
		return
	}
	g.accessed[name] = struct{}{}
	g.order = append(g.order, name)
}

// AddDependency registers another generation whose resolved value will be
// substituted for ${key} in this generation's prompt. An empty key binds
// the positional placeholder ${dep_<index>}. Returns g for chaining.
func (g *Generation) AddDependency(dep *Generation, key string) *Generation {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deps = append(g.deps, dependency{gen: dep, key: key})
	return g
}

// ID returns the unique identifier of this generation.
func (g *Generation) ID() string { return g.id }

// Kind returns the output kind of this generation.
func (g *Generation) Kind() OutputKind { return g.kind }

// Prompt returns the raw prompt template, with dependency placeholders
// unsubstituted.
func (g *Generation) Prompt() string { return g.prompt }

// Path returns the navigation path from the parent's resolved value, or
// nil for a root generation.
func (g *Generation) Path() []string {
	out := make([]string, len(g.path))
	copy(out, g.path)
	return out
}

// Root returns the root of the derivation chain; for a root generation it
// returns the receiver.
func (g *Generation) Root() *Generation {
	root := g
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// IsResolved reports whether the generation has settled.
func (g *Generation) IsResolved() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == stateResolved
}

// AccessedFields returns the field names recorded on this generation, in
// first-touch order.
func (g *Generation) AccessedFields() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// invoker returns the effective invoker for this generation.
func (g *Generation) invoker() Invoker {
	if g.opts != nil && g.opts.Invoker != nil {
		return g.opts.Invoker
	}
	return DefaultInvoker()
}

// IsGeneration reports whether v is a deferred generation.
func IsGeneration(v any) bool {
	_, ok := v.(*Generation)
	return ok
}

// Process-wide pending set. Append-on-construction, remove-on-resolution;
// bookkeeping only, nothing in the core reads it to make decisions.
var (
	pendingMu sync.Mutex
	pendingM  = make(map[string]*Generation)
)

func register(g *Generation) {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	pendingM[g.id] = g
}

func unregister(g *Generation) {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	delete(pendingM, g.id)
}

// Pending returns the generations constructed but not yet resolved.
// Intended for introspection and tests.
func Pending() []*Generation {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	out := make([]*Generation, 0, len(pendingM))
	for _, g := range pendingM {
		out = append(out, g)
	}
	return out
}
