package lazygen

import (
	"context"
	"strings"
	"sync"
)

// PartialEvent is a single event on the partial-value surface of a Stream.
type PartialEvent struct {
	// Value is a partial-object snapshot, or a newly completed item for
	// the list and extract kinds.
	Value any
	// Done indicates the surface is drained.
	Done bool
	// Err contains the streaming error, if any.
	Err error
}

// Stream is the incremental consumption path for a generation. It
// performs its own dependency resolution and schema synthesis and does
// not share the generation's resolution cache: consuming a stream and
// separately resolving the same generation are two independent model
// calls. Use one path or the other.
//
// The underlying call starts on the first touch of any surface. Later
// touches replay already-seen chunks from an internal buffer, so
// consumption is idempotent: iterating a surface twice never triggers a
// second model call.
type Stream struct {
	g   *Generation
	ctx context.Context

	mu       sync.Mutex
	started  bool
	notify   chan struct{} // closed and remade on every buffer append
	text     []string      // raw deltas, in arrival order
	partials []any         // snapshots, or new items for list kinds
	finished bool
	final    any
	err      error

	resultDone chan struct{} // closed when final/err are settled
}

// Stream returns the incremental consumption path for this generation.
// For a derived generation the stream is taken over the root of its
// derivation chain, since only roots perform model calls. The context
// covers the whole streaming call and is the cancellation signal passed
// through to the collaborator.
func (g *Generation) Stream(ctx context.Context) *Stream {
	return &Stream{
		g:          g.Root(),
		ctx:        ctx,
		notify:     make(chan struct{}),
		resultDone: make(chan struct{}),
	}
}

// Text returns a channel of raw text chunks. For the text kind these are
// the generated text deltas and concatenate to the final result; for
// structured kinds they are the raw incremental output. Each call starts
// from the first chunk; errors are re-raised at the end of every
// iteration.
func (s *Stream) Text() <-chan TextEvent {
	out := make(chan TextEvent)
	s.start()
	go func() {
		defer close(out)
		i := 0
		for {
			s.mu.Lock()
			for i >= len(s.text) && !s.finished {
				wait := s.notify
				s.mu.Unlock()
				select {
				case <-wait:
				case <-s.ctx.Done():
					out <- TextEvent{Err: s.ctx.Err()}
					return
				}
				s.mu.Lock()
			}
			if i < len(s.text) {
				delta := s.text[i]
				i++
				s.mu.Unlock()
				out <- TextEvent{Delta: delta}
				continue
			}
			err := s.err
			s.mu.Unlock()
			if err != nil {
				out <- TextEvent{Err: err}
			} else {
				out <- TextEvent{Done: true}
			}
			return
		}
	}()
	return out
}

// Partials returns a channel of partial values: successive partial-object
// snapshots for structured kinds, or newly completed items for the list
// and extract kinds. Each call starts from the first value; errors are
// re-raised at the end of every iteration.
func (s *Stream) Partials() <-chan PartialEvent {
	out := make(chan PartialEvent)
	s.start()
	go func() {
		defer close(out)
		i := 0
		for {
			s.mu.Lock()
			for i >= len(s.partials) && !s.finished {
				wait := s.notify
				s.mu.Unlock()
				select {
				case <-wait:
				case <-s.ctx.Done():
					out <- PartialEvent{Err: s.ctx.Err()}
					return
				}
				s.mu.Lock()
			}
			if i < len(s.partials) {
				value := s.partials[i]
				i++
				s.mu.Unlock()
				out <- PartialEvent{Value: value}
				continue
			}
			err := s.err
			s.mu.Unlock()
			if err != nil {
				out <- PartialEvent{Err: err}
			} else {
				out <- PartialEvent{Done: true}
			}
			return
		}
	}()
	return out
}

// Result settles to the same fully-unwrapped value the non-streaming
// path would produce: the chunk concatenation for the text kind, the
// unwrap of the last partial snapshot otherwise. Touching Result starts
// the stream if nothing else has.
func (s *Stream) Result() (any, error) {
	s.start()
	select {
	case <-s.resultDone:
		return s.final, s.err
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	}
}

// start launches the collector exactly once.
func (s *Stream) start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()
	go s.collect()
}

// collect drives the underlying incremental call and fills the replay
// buffers.
func (s *Stream) collect() {
	prep, err := s.g.prepare(s.ctx)
	if err != nil {
		s.fail(err)
		return
	}
	inv := s.g.invoker()
	if inv == nil {
		s.fail(ErrNoInvoker)
		return
	}
	req := s.g.request(prep)

	if s.g.kind == KindText {
		s.collectText(inv, req)
		return
	}
	s.collectObject(inv, req)
}

func (s *Stream) collectText(inv Invoker, req Request) {
	ch, err := inv.StreamText(s.ctx, req)
	if err != nil {
		s.fail(err)
		return
	}
	var sb strings.Builder
	for ev := range ch {
		if ev.Err != nil {
			s.fail(ev.Err)
			return
		}
		if ev.Delta != "" {
			sb.WriteString(ev.Delta)
			s.appendText(ev.Delta)
		}
	}
	s.finish(sb.String())
}

func (s *Stream) collectObject(inv Invoker, req Request) {
	ch, err := inv.StreamObject(s.ctx, req)
	if err != nil {
		s.fail(err)
		return
	}

	isListKind := s.g.kind == KindList || s.g.kind == KindExtract
	var last map[string]any
	itemsSeen := 0

	for ev := range ch {
		if ev.Err != nil {
			s.fail(ev.Err)
			return
		}
		if ev.Delta != "" {
			s.appendText(ev.Delta)
		}
		if ev.Partial == nil {
			continue
		}
		last = ev.Partial
		if isListKind {
			if items, ok := ev.Partial["items"].([]any); ok {
				for ; itemsSeen < len(items); itemsSeen++ {
					s.appendPartial(items[itemsSeen])
				}
			}
			continue
		}
		s.appendPartial(ev.Partial)
	}

	if last == nil {
		last = map[string]any{}
	}
	value, err := unwrap(s.g.kind, last, s.g.opts.Strict)
	if err != nil {
		s.fail(err)
		return
	}
	s.finish(value)
}

func (s *Stream) appendText(delta string) {
	s.mu.Lock()
	s.text = append(s.text, delta)
	s.wake()
	s.mu.Unlock()
}

func (s *Stream) appendPartial(value any) {
	s.mu.Lock()
	s.partials = append(s.partials, value)
	s.wake()
	s.mu.Unlock()
}

func (s *Stream) finish(value any) {
	s.mu.Lock()
	s.final = value
	s.finished = true
	s.wake()
	s.mu.Unlock()
	close(s.resultDone)
}

func (s *Stream) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.finished = true
	s.wake()
	s.mu.Unlock()
	close(s.resultDone)
}

// wake releases every surface waiting for new buffer content.
// Callers must hold s.mu.
func (s *Stream) wake() {
	close(s.notify)
	s.notify = make(chan struct{})
}
