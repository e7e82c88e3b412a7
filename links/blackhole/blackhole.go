// Package blackhole implements the black-hole link: a sink that discards
// every value from its ingress.
package blackhole

import (
	"github.com/brunotm/routeflow/pipeline"
	"github.com/brunotm/routeflow/stream"
	"github.com/brunotm/routeflow/task"
)

// Builder accumulates configuration for a black-hole link. Build is
// single-use.
type Builder[T any] struct {
	ingresses []stream.Stream[T]
	built     bool
}

// NewBuilder returns an empty black-hole link builder.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{}
}

// Ingressor supplies the single ingress stream.
func (b *Builder[T]) Ingressor(s stream.Stream[T]) *Builder[T] {
	b.ingresses = append(b.ingresses, s)
	return b
}

// BuildLink validates configuration and returns the built link: zero egress
// streams and one runnable that drains the ingress until exhaustion.
func (b *Builder[T]) BuildLink() (pipeline.Link[T], error) {
	if b.built {
		return pipeline.Link[T]{}, pipeline.ErrAlreadyBuilt
	}
	b.built = true

	if len(b.ingresses) == 0 {
		return pipeline.Link[T]{}, pipeline.ErrMissingIngress
	}
	if len(b.ingresses) > 1 {
		return pipeline.Link[T]{}, pipeline.ErrTooManyIngresses
	}

	return pipeline.Link[T]{
		Runnables: []pipeline.Runnable{&sink[T]{ingress: b.ingresses[0]}},
	}, nil
}

type sink[T any] struct {
	ingress stream.Stream[T]
}

// Poll implements pipeline.Runnable.
func (s *sink[T]) Poll(w task.Waker) task.RunState {
	for {
		_, st := s.ingress.Poll(w)
		switch st {
		case stream.Ready:
			continue
		case stream.Pending:
			return task.Pending
		default: // stream.Exhausted
			return task.Complete
		}
	}
}
