// Package join implements the join link: fair fan-in of M ingress streams
// into one egress.
package join

import (
	"sync/atomic"

	"github.com/brunotm/routeflow/channel"
	"github.com/brunotm/routeflow/config"
	"github.com/brunotm/routeflow/log"
	"github.com/brunotm/routeflow/pipeline"
	"github.com/brunotm/routeflow/stream"
	"github.com/brunotm/routeflow/task"
)

const defaultCapacity = 64

var logger = log.New("link", "join")

// Builder accumulates configuration for a join link. Build is single-use.
type Builder[T any] struct {
	ingresses []stream.Stream[T]
	capacity  int
	built     bool
}

// NewBuilder returns a join link builder with the default shared-queue
// capacity.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{capacity: defaultCapacity}
}

// Ingressor appends one ingress stream.
func (b *Builder[T]) Ingressor(s stream.Stream[T]) *Builder[T] {
	b.ingresses = append(b.ingresses, s)
	return b
}

// Ingressors appends several ingress streams at once.
func (b *Builder[T]) Ingressors(streams ...stream.Stream[T]) *Builder[T] {
	b.ingresses = append(b.ingresses, streams...)
	return b
}

// QueueCapacity sets the shared queue's exact capacity.
func (b *Builder[T]) QueueCapacity(n int) *Builder[T] {
	b.capacity = n
	return b
}

// Config applies the "capacity" key recognized for this link, overriding the
// default when set. Unset keys leave prior configuration untouched.
func (b *Builder[T]) Config(cfg config.Config) *Builder[T] {
	if cfg.IsSet("capacity") {
		b.capacity = cfg.Get("capacity").Int(b.capacity)
	}
	return b
}

// BuildLink validates configuration and returns the built link: one egress
// stream and M ingressor runnables, one per input, all writing into one
// shared queue.
func (b *Builder[T]) BuildLink() (pipeline.Link[T], error) {
	if b.built {
		return pipeline.Link[T]{}, pipeline.ErrAlreadyBuilt
	}
	b.built = true

	if len(b.ingresses) == 0 {
		return pipeline.Link[T]{}, pipeline.ErrMissingIngresses
	}
	if b.capacity < 1 {
		return pipeline.Link[T]{}, pipeline.ErrInvalidCapacity
	}

	ch := channel.New[T](b.capacity)
	live := &atomic.Int64{}
	live.Store(int64(len(b.ingresses)))

	runnables := make([]pipeline.Runnable, len(b.ingresses))
	for i, s := range b.ingresses {
		runnables[i] = &ingressor[T]{ingress: s, ch: ch, live: live}
	}

	return pipeline.Link[T]{
		Runnables: runnables,
		Egresses:  []stream.Stream[T]{&egress[T]{ch: ch}},
	}, nil
}

// ingressor is one of join's M input-draining runnables, all feeding the same
// shared queue. Fairness among producers falls out of the shared bound: a
// full queue stalls whichever producer tries to enqueue next, regardless of
// which ingress it is reading.
type ingressor[T any] struct {
	ingress  stream.Stream[T]
	ch       *channel.Channel[T]
	live     *atomic.Int64
	pending  *T
	havePend bool
	done     bool
}

// Poll implements pipeline.Runnable.
func (r *ingressor[T]) Poll(w task.Waker) task.RunState {
	if r.done {
		return task.Complete
	}

	for {
		if r.havePend {
			if err := r.ch.TrySend(*r.pending); err != nil {
				logger.Debugw("shared queue full, producer stalling", "capacity", r.ch.Cap())
				r.ch.ParkSend(w)
				return task.Pending
			}
			r.havePend = false
			r.pending = nil
			continue
		}

		v, st := r.ingress.Poll(w)
		switch st {
		case stream.Ready:
			if err := r.ch.TrySend(v); err != nil {
				r.pending = &v
				r.havePend = true
				logger.Debugw("shared queue full, producer stalling", "capacity", r.ch.Cap())
				r.ch.ParkSend(w)
				return task.Pending
			}

		case stream.Pending:
			return task.Pending

		default: // stream.Exhausted
			r.done = true
			if r.live.Add(-1) == 0 {
				r.ch.Close()
			}
			return task.Complete
		}
	}
}

// egress is join's single consumer-facing stream.
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
