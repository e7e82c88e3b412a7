// Package composite implements two higher-level links built by wiring
// primitives together: the M-to-N replicator and the M-transform-N pipeline.
// Composites expose no semantics beyond the sum of the primitives they
// contain; they own those primitives and return their aggregated runnables.
package composite

import (
	"github.com/brunotm/routeflow/links/fork"
	"github.com/brunotm/routeflow/links/join"
	"github.com/brunotm/routeflow/links/process"
	"github.com/brunotm/routeflow/pipeline"
	"github.com/brunotm/routeflow/stream"
)

// ReplicatorBuilder accumulates configuration for an M-to-N replicator: M
// ingresses joined into one stream, then forked into N identical copies.
type ReplicatorBuilder[T any] struct {
	ingresses    []stream.Stream[T]
	joinCapacity int
	numEgress    int
	forkCapacity int
	built        bool
}

// NewReplicatorBuilder returns an empty replicator builder.
func NewReplicatorBuilder[T any]() *ReplicatorBuilder[T] {
	return &ReplicatorBuilder[T]{}
}

// Ingressor appends one of the M input streams.
func (b *ReplicatorBuilder[T]) Ingressor(s stream.Stream[T]) *ReplicatorBuilder[T] {
	b.ingresses = append(b.ingresses, s)
	return b
}

// Ingressors appends several input streams at once.
func (b *ReplicatorBuilder[T]) Ingressors(streams ...stream.Stream[T]) *ReplicatorBuilder[T] {
	b.ingresses = append(b.ingresses, streams...)
	return b
}

// JoinQueueCapacity sets the capacity of the internal join's shared queue.
func (b *ReplicatorBuilder[T]) JoinQueueCapacity(n int) *ReplicatorBuilder[T] {
	b.joinCapacity = n
	return b
}

// NumEgressors sets N, the number of output copies, which must be >= 2.
func (b *ReplicatorBuilder[T]) NumEgressors(n int) *ReplicatorBuilder[T] {
	b.numEgress = n
	return b
}

// ForkQueueCapacity sets the capacity of each of the internal fork's N
// per-egress queues.
func (b *ReplicatorBuilder[T]) ForkQueueCapacity(n int) *ReplicatorBuilder[T] {
	b.forkCapacity = n
	return b
}

// BuildLink assembles the join and fork primitives and returns their
// aggregated runnables and N egress streams.
func (b *ReplicatorBuilder[T]) BuildLink() (pipeline.Link[T], error) {
	if b.built {
		return pipeline.Link[T]{}, pipeline.ErrAlreadyBuilt
	}
	b.built = true

	joinLink, err := join.NewBuilder[T]().
		Ingressors(b.ingresses...).
		QueueCapacity(orDefault(b.joinCapacity, 64)).
		BuildLink()
	if err != nil {
		return pipeline.Link[T]{}, err
	}

	forkLink, err := fork.NewBuilder[T]().
		Ingressor(joinLink.Egresses[0]).
		NumEgressors(b.numEgress).
		QueueCapacity(orDefault(b.forkCapacity, 64)).
		BuildLink()
	if err != nil {
		return pipeline.Link[T]{}, err
	}

	return pipeline.Link[T]{
		Runnables: pipeline.Flatten(joinLink, forkLink),
		Egresses:  forkLink.Egresses,
	}, nil
}

// TransformBuilder accumulates configuration for an M-transform-N pipeline:
// M ingresses joined, passed through a user processor, then forked into N
// copies.
type TransformBuilder[A, B any] struct {
	ingresses    []stream.Stream[A]
	processor    pipeline.Processor[A, B]
	joinCapacity int
	numEgress    int
	forkCapacity int
	built        bool
}

// NewTransformBuilder returns an empty transform builder.
func NewTransformBuilder[A, B any]() *TransformBuilder[A, B] {
	return &TransformBuilder[A, B]{}
}

// Ingressor appends one of the M input streams.
func (b *TransformBuilder[A, B]) Ingressor(s stream.Stream[A]) *TransformBuilder[A, B] {
	b.ingresses = append(b.ingresses, s)
	return b
}

// Ingressors appends several input streams at once.
func (b *TransformBuilder[A, B]) Ingressors(streams ...stream.Stream[A]) *TransformBuilder[A, B] {
	b.ingresses = append(b.ingresses, streams...)
	return b
}

// Processor supplies the transform run between join and fork.
func (b *TransformBuilder[A, B]) Processor(p pipeline.Processor[A, B]) *TransformBuilder[A, B] {
	b.processor = p
	return b
}

// JoinQueueCapacity sets the capacity of the internal join's shared queue.
func (b *TransformBuilder[A, B]) JoinQueueCapacity(n int) *TransformBuilder[A, B] {
	b.joinCapacity = n
	return b
}

// NumEgressors sets N, the number of output copies, which must be >= 2.
func (b *TransformBuilder[A, B]) NumEgressors(n int) *TransformBuilder[A, B] {
	b.numEgress = n
	return b
}

// ForkQueueCapacity sets the capacity of each of the internal fork's N
// per-egress queues.
func (b *TransformBuilder[A, B]) ForkQueueCapacity(n int) *TransformBuilder[A, B] {
	b.forkCapacity = n
	return b
}

// BuildLink assembles the join, process, and fork primitives and returns
// their aggregated runnables and N egress streams.
func (b *TransformBuilder[A, B]) BuildLink() (pipeline.Link[B], error) {
	if b.built {
		return pipeline.Link[B]{}, pipeline.ErrAlreadyBuilt
	}
	b.built = true

	joinLink, err := join.NewBuilder[A]().
		Ingressors(b.ingresses...).
		QueueCapacity(orDefault(b.joinCapacity, 64)).
		BuildLink()
	if err != nil {
		return pipeline.Link[B]{}, err
	}

	procLink, err := process.NewBuilder[A, B]().
		Ingressor(joinLink.Egresses[0]).
		Processor(b.processor).
		BuildLink()
	if err != nil {
		return pipeline.Link[B]{}, err
	}

	forkLink, err := fork.NewBuilder[B]().
		Ingressor(procLink.Egresses[0]).
		NumEgressors(b.numEgress).
		QueueCapacity(orDefault(b.forkCapacity, 64)).
		BuildLink()
	if err != nil {
		return pipeline.Link[B]{}, err
	}

	var runnables []pipeline.Runnable
	runnables = append(runnables, joinLink.Runnables...)
	runnables = append(runnables, procLink.Runnables...)
	runnables = append(runnables, forkLink.Runnables...)

	return pipeline.Link[B]{
		Runnables: runnables,
		Egresses:  forkLink.Egresses,
	}, nil
}

func orDefault(n, def int) int {
	if n < 1 {
		return def
	}
	return n
}
