// Package process implements the process link: a zero-buffer, pull-through
// transformation with no internal task.
package process

import (
	"github.com/brunotm/routeflow/pipeline"
	"github.com/brunotm/routeflow/stream"
	"github.com/brunotm/routeflow/task"
)

// Builder accumulates configuration for a process link. Build is single-use.
type Builder[A, B any] struct {
	ingresses []stream.Stream[A]
	processor pipeline.Processor[A, B]
	built     bool
}

// NewBuilder returns an empty process link builder.
func NewBuilder[A, B any]() *Builder[A, B] {
	return &Builder[A, B]{}
}

// Ingressor supplies the single ingress stream.
func (b *Builder[A, B]) Ingressor(s stream.Stream[A]) *Builder[A, B] {
	b.ingresses = append(b.ingresses, s)
	return b
}

// Processor supplies the per-packet transform.
func (b *Builder[A, B]) Processor(p pipeline.Processor[A, B]) *Builder[A, B] {
	b.processor = p
	return b
}

// BuildLink validates configuration and returns the built link. Building
// twice returns ErrAlreadyBuilt.
func (b *Builder[A, B]) BuildLink() (pipeline.Link[B], error) {
	if b.built {
		return pipeline.Link[B]{}, pipeline.ErrAlreadyBuilt
	}
	b.built = true

	if len(b.ingresses) == 0 {
		return pipeline.Link[B]{}, pipeline.ErrMissingIngress
	}
	if len(b.ingresses) > 1 {
		return pipeline.Link[B]{}, pipeline.ErrTooManyIngresses
	}
	if b.processor == nil {
		return pipeline.Link[B]{}, pipeline.ErrMissingProcessor
	}

	egress := &pullStream[A, B]{ingress: b.ingresses[0], processor: b.processor}
	return pipeline.Link[B]{Egresses: []stream.Stream[B]{egress}}, nil
}

// pullStream is the egress of a process link: polling it polls the ingress
// and, on a ready value, applies the processor inline. No per-packet
// allocation occurs beyond the processor's own return value.
type pullStream[A, B any] struct {
	ingress   stream.Stream[A]
	processor pipeline.Processor[A, B]
}

// Poll implements stream.Stream.
func (p *pullStream[A, B]) Poll(w task.Waker) (B, stream.State) {
	for {
		v, st := p.ingress.Poll(w)

		switch st {
		case stream.Ready:
			out, ok := p.processor(v)
			if !ok {
				// Filtered: the documented drop semantics, not an error.
				continue
			}
			return out, stream.Ready

		case stream.Pending:
			var zero B
			return zero, stream.Pending

		default: // stream.Exhausted
			var zero B
			return zero, stream.Exhausted
		}
	}
}
