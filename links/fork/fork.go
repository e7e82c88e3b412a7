// Package fork implements the fork link: delivering an exact copy of every
// ingress packet to each of K egresses.
package fork

import (
	"github.com/brunotm/routeflow/channel"
	"github.com/brunotm/routeflow/config"
	"github.com/brunotm/routeflow/log"
	"github.com/brunotm/routeflow/pipeline"
	"github.com/brunotm/routeflow/stream"
	"github.com/brunotm/routeflow/task"
)

const defaultCapacity = 64

var logger = log.New("link", "fork")

// Builder accumulates configuration for a fork link. Build is single-use.
type Builder[T any] struct {
	ingresses []stream.Stream[T]
	numEgress int
	capacity  int
	built     bool
}

// NewBuilder returns a fork link builder with the default per-egress
// capacity.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{capacity: defaultCapacity}
}

// Ingressor supplies the single ingress stream.
func (b *Builder[T]) Ingressor(s stream.Stream[T]) *Builder[T] {
	b.ingresses = append(b.ingresses, s)
	return b
}

// NumEgressors sets K, the number of egress copies, which must be >= 2.
func (b *Builder[T]) NumEgressors(k int) *Builder[T] {
	b.numEgress = k
	return b
}

// QueueCapacity sets the capacity of each of the K per-egress queues.
func (b *Builder[T]) QueueCapacity(n int) *Builder[T] {
	b.capacity = n
	return b
}

// Config applies the "capacity" and "num_egressors" keys recognized for this
// link, overriding defaults when set. Unset keys leave prior configuration
// untouched.
func (b *Builder[T]) Config(cfg config.Config) *Builder[T] {
	if cfg.IsSet("capacity") {
		b.capacity = cfg.Get("capacity").Int(b.capacity)
	}
	if cfg.IsSet("num_egressors") {
		b.numEgress = cfg.Get("num_egressors").Int(b.numEgress)
	}
	return b
}

// BuildLink validates configuration and returns the built link: K egress
// streams and one ingressor runnable that clones each input K times.
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
	if b.numEgress < 2 {
		return pipeline.Link[T]{}, pipeline.ErrInvalidEgressorCount
	}
	if b.capacity < 1 {
		return pipeline.Link[T]{}, pipeline.ErrInvalidCapacity
	}

	channels := make([]*channel.Channel[T], b.numEgress)
	egresses := make([]stream.Stream[T], b.numEgress)
	for i := range channels {
		channels[i] = channel.New[T](b.capacity)
		egresses[i] = &egress[T]{ch: channels[i]}
	}

	ing := &ingressor[T]{ingress: b.ingresses[0], channels: channels, accepted: make([]bool, b.numEgress)}

	return pipeline.Link[T]{
		Runnables: []pipeline.Runnable{ing},
		Egresses:  egresses,
	}, nil
}

// ingressor clones each ingress value into every egress queue. A full queue
// on any one egress stalls the packet for all egresses until every copy has
// been accepted, which is fork's documented lossless-copy semantics.
type ingressor[T any] struct {
	ingress  stream.Stream[T]
	channels []*channel.Channel[T]
	pending  T
	havePend bool
	accepted []bool
}

// Poll implements pipeline.Runnable.
func (r *ingressor[T]) Poll(w task.Waker) task.RunState {
	for {
		if !r.havePend {
			v, st := r.ingress.Poll(w)
			switch st {
			case stream.Ready:
				r.pending = v
				r.havePend = true
				for i := range r.accepted {
					r.accepted[i] = false
				}

			case stream.Pending:
				return task.Pending

			default: // stream.Exhausted
				for _, ch := range r.channels {
					ch.Close()
				}
				return task.Complete
			}
		}

		stalled := false
		for i, ch := range r.channels {
			if r.accepted[i] {
				continue
			}
			if err := ch.TrySend(r.pending); err != nil {
				logger.Debugw("egress full, copy stalling", "egress", i, "capacity", ch.Cap())
				ch.ParkSend(w)
				stalled = true
				continue
			}
			r.accepted[i] = true
		}

		if stalled {
			return task.Pending
		}
		r.havePend = false
	}
}

// egress is one of fork's K consumer-facing streams, each seeing every
// ingress value exactly once.
type egress[T any] struct {
	ch *channel.Channel[T]
}

// Poll implements stream.Stream.
func (e *egress[T]) Poll(w task.Waker) (T, stream.State) {
	v, err := e.ch.TryRecv()
	if err == nil {
		return v, stream.Ready
	}
	if err == channel.ErrDisconnected {
		var zero T
		return zero, stream.Exhausted
	}
	e.ch.ParkRecv(w)
	var zero T
	return zero, stream.Pending
}
