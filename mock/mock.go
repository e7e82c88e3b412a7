// Package mock provides recording test doubles for pipeline.Processor,
// pipeline.Classifier, and pipeline.Dispatcher, generalized from
// brunotm-streams' ContextData call-counting fake to the generic function
// types links are built from.
package mock

import "sync"

// Recorder tracks every value a fake function was called with, safe for
// concurrent use since a runnable driving it may migrate across worker
// goroutines between polls.
type Recorder[T any] struct {
	mu   sync.Mutex
	Seen []T
}

func (r *Recorder[T]) record(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Seen = append(r.Seen, v)
}

// Calls returns a snapshot of every recorded value, in call order.
func (r *Recorder[T]) Calls() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.Seen))
	copy(out, r.Seen)
	return out
}

// Count returns the number of recorded calls.
func (r *Recorder[T]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Seen)
}

// Processor wraps a pipeline.Processor[A,B]-shaped function, recording every
// input it is called with. When Fn is nil, Call drops every input: it
// returns the zero B and false.
type Processor[A, B any] struct {
	Recorder[A]
	Fn func(A) (B, bool)
}

// Call implements the pipeline.Processor[A,B] function signature.
func (p *Processor[A, B]) Call(v A) (B, bool) {
	p.record(v)
	if p.Fn == nil {
		var zero B
		return zero, false
	}
	return p.Fn(v)
}

// Classifier wraps a pipeline.Classifier[T,C]-shaped function, recording
// every input it is called with.
type Classifier[T any, C comparable] struct {
	Recorder[T]
	Fn func(T) C
}

// Call implements the pipeline.Classifier[T,C] function signature.
func (c *Classifier[T, C]) Call(v T) C {
	c.record(v)
	return c.Fn(v)
}

// Dispatcher wraps a pipeline.Dispatcher[C]-shaped function, recording every
// class it is called with.
type Dispatcher[C comparable] struct {
	Recorder[C]
	Fn func(C) int
}

// Call implements the pipeline.Dispatcher[C] function signature.
func (d *Dispatcher[C]) Call(c C) int {
	d.record(c)
	return d.Fn(c)
}
