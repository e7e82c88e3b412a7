// Package outputchannel implements the output-channel link: adapting one
// stream into packets pushed onto an external channel.Sender.
package outputchannel

import (
	"github.com/brunotm/routeflow/channel"
	"github.com/brunotm/routeflow/pipeline"
	"github.com/brunotm/routeflow/stream"
	"github.com/brunotm/routeflow/task"
)

// Builder accumulates configuration for an output-channel link. Build is
// single-use.
type Builder[T any] struct {
	ingresses []stream.Stream[T]
	sender    *channel.Sender[T]
	built     bool
}

// NewBuilder returns an empty output-channel link builder.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{}
}

// Ingressor supplies the single ingress stream.
func (b *Builder[T]) Ingressor(s stream.Stream[T]) *Builder[T] {
	b.ingresses = append(b.ingresses, s)
	return b
}

// Channel supplies the external sender this link pushes to.
func (b *Builder[T]) Channel(s channel.Sender[T]) *Builder[T] {
	b.sender = &s
	return b
}

// BuildLink validates configuration and returns the built link: zero
// egresses, one runnable that polls the ingress and pushes to the sender.
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
	if b.sender == nil {
		return pipeline.Link[T]{}, pipeline.ErrMissingChannel
	}

	r := &runnable[T]{ingress: b.ingresses[0], sender: *b.sender}
	return pipeline.Link[T]{Runnables: []pipeline.Runnable{r}}, nil
}

type runnable[T any] struct {
	ingress  stream.Stream[T]
	sender   channel.Sender[T]
	pending  T
	havePend bool
}

// Poll implements pipeline.Runnable.
func (r *runnable[T]) Poll(w task.Waker) task.RunState {
	for {
		if r.havePend {
			err := r.sender.TrySend(r.pending)
			switch err {
			case nil:
				r.havePend = false
			case channel.ErrFull:
				r.sender.ParkSend(w)
				return task.Pending
			default: // ErrClosed: the consumer went away
				return task.Complete
			}
			continue
		}

		v, st := r.ingress.Poll(w)
		switch st {
		case stream.Ready:
			err := r.sender.TrySend(v)
			switch err {
			case nil:
				// sent
			case channel.ErrFull:
				r.pending = v
				r.havePend = true
				r.sender.ParkSend(w)
				return task.Pending
			default: // ErrClosed
				return task.Complete
			}

		case stream.Pending:
			return task.Pending

		default: // stream.Exhausted
			r.sender.Close()
			return task.Complete
		}
	}
}
