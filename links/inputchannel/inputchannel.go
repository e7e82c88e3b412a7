// Package inputchannel implements the input-channel link: adapting an
// external channel.Receiver into a stream suitable as an ingress.
package inputchannel

import (
	"github.com/brunotm/routeflow/channel"
	"github.com/brunotm/routeflow/pipeline"
	"github.com/brunotm/routeflow/stream"
	"github.com/brunotm/routeflow/task"
)

// Builder accumulates configuration for an input-channel link. Build is
// single-use.
type Builder[T any] struct {
	receiver *channel.Receiver[T]
	built    bool
}

// NewBuilder returns an empty input-channel link builder.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{}
}

// Channel supplies the external receiver this link adapts.
func (b *Builder[T]) Channel(r channel.Receiver[T]) *Builder[T] {
	b.receiver = &r
	return b
}

// BuildLink validates configuration and returns the built link: one egress
// stream, zero runnables.
func (b *Builder[T]) BuildLink() (pipeline.Link[T], error) {
	if b.built {
		return pipeline.Link[T]{}, pipeline.ErrAlreadyBuilt
	}
	b.built = true

	if b.receiver == nil {
		return pipeline.Link[T]{}, pipeline.ErrMissingChannel
	}

	return pipeline.Link[T]{
		Egresses: []stream.Stream[T]{&egress[T]{receiver: *b.receiver}},
	}, nil
}

type egress[T any] struct {
	receiver channel.Receiver[T]
}

// Poll implements stream.Stream.
func (e *egress[T]) Poll(w task.Waker) (T, stream.State) {
	v, err := e.receiver.TryRecv()
	if err == nil {
		return v, stream.Ready
	}
	if err == channel.ErrDisconnected {
		var zero T
		return zero, stream.Exhausted
	}
	e.receiver.ParkRecv(w)
	var zero T
	return zero, stream.Pending
}
