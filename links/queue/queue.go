// Package queue implements the queue link: a task boundary with bounded
// buffering and backpressure between a producer and a consumer.
package queue

import (
	"github.com/brunotm/routeflow/channel"
	"github.com/brunotm/routeflow/config"
	"github.com/brunotm/routeflow/log"
	"github.com/brunotm/routeflow/pipeline"
	"github.com/brunotm/routeflow/stream"
	"github.com/brunotm/routeflow/task"
)

const defaultCapacity = 64

var logger = log.New("link", "queue")

// Builder accumulates configuration for a queue link. Build is single-use.
type Builder[A, B any] struct {
	ingresses []stream.Stream[A]
	processor pipeline.Processor[A, B]
	capacity  int
	built     bool
}

// NewBuilder returns a queue link builder with the default capacity.
func NewBuilder[A, B any]() *Builder[A, B] {
	return &Builder[A, B]{capacity: defaultCapacity}
}

// Ingressor supplies the single ingress stream.
func (b *Builder[A, B]) Ingressor(s stream.Stream[A]) *Builder[A, B] {
	b.ingresses = append(b.ingresses, s)
	return b
}

// Processor supplies the per-packet transform run before enqueueing.
func (b *Builder[A, B]) Processor(p pipeline.Processor[A, B]) *Builder[A, B] {
	b.processor = p
	return b
}

// QueueCapacity sets the exact buffer capacity, which must be >= 1.
func (b *Builder[A, B]) QueueCapacity(n int) *Builder[A, B] {
	b.capacity = n
	return b
}

// Config applies the "capacity" key recognized for this link, overriding the
// default when set. Unset keys leave prior configuration untouched.
func (b *Builder[A, B]) Config(cfg config.Config) *Builder[A, B] {
	if cfg.IsSet("capacity") {
		b.capacity = cfg.Get("capacity").Int(b.capacity)
	}
	return b
}

// BuildLink validates configuration and returns the built link: one egress
// stream and one ingressor runnable that drains the ingress into the queue.
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
	if b.capacity < 1 {
		return pipeline.Link[B]{}, pipeline.ErrInvalidCapacity
	}

	ch := channel.New[B](b.capacity)
	ing := &ingressor[A, B]{ingress: b.ingresses[0], processor: b.processor, ch: ch}
	eg := &egress[B]{ch: ch}

	return pipeline.Link[B]{
		Runnables: []pipeline.Runnable{ing},
		Egresses:  []stream.Stream[B]{eg},
	}, nil
}

// ingressor drains the ingress stream, applies the processor, and enqueues
// into the shared channel. It is the one runnable a queue link contributes.
type ingressor[A, B any] struct {
	ingress   stream.Stream[A]
	processor pipeline.Processor[A, B]
	ch        *channel.Channel[B]
	pending   *B
	havePend  bool
}

// Poll implements pipeline.Runnable.
func (r *ingressor[A, B]) Poll(w task.Waker) task.RunState {
	for {
		if r.havePend {
			if err := r.ch.TrySend(*r.pending); err != nil {
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
			out, ok := r.processor(v)
			if !ok {
				continue
			}
			if err := r.ch.TrySend(out); err != nil {
				logger.Debugw("queue full, ingressor stalling", "capacity", r.ch.Cap())
				r.pending = &out
				r.havePend = true
				r.ch.ParkSend(w)
				return task.Pending
			}

		case stream.Pending:
			return task.Pending

		default: // stream.Exhausted
			r.ch.Close()
			return task.Complete
		}
	}
}

// egress is the consumer-facing stream of a queue link.
type egress[B any] struct {
	ch *channel.Channel[B]
}

// Poll implements stream.Stream.
func (e *egress[B]) Poll(w task.Waker) (B, stream.State) {
	v, err := e.ch.TryRecv()
	if err == nil {
		return v, stream.Ready
	}
	if err == channel.ErrDisconnected {
		var zero B
		return zero, stream.Exhausted
	}

	// ErrEmpty: store the waker. If a Close races in concurrently, the
	// channel's own Dead-park semantics notify w immediately rather than
	// losing the wakeup, so no re-check of TryRecv is needed here.
	e.ch.ParkRecv(w)
	var zero B
	return zero, stream.Pending
}
