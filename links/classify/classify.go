// Package classify implements the classify link: demultiplexing a single
// ingress into K egresses by user-supplied classification.
package classify

import (
	"github.com/brunotm/routeflow/channel"
	"github.com/brunotm/routeflow/config"
	"github.com/brunotm/routeflow/log"
	"github.com/brunotm/routeflow/pipeline"
	"github.com/brunotm/routeflow/stream"
	"github.com/brunotm/routeflow/task"
)

const defaultCapacity = 64

var logger = log.New("link", "classify")

// Builder accumulates configuration for a classify link. Build is single-use.
type Builder[T any, C comparable] struct {
	ingresses  []stream.Stream[T]
	classifier pipeline.Classifier[T, C]
	dispatcher pipeline.Dispatcher[C]
	numEgress  int
	capacity   int
	built      bool
}

// NewBuilder returns a classify link builder with the default per-egress
// capacity.
func NewBuilder[T any, C comparable]() *Builder[T, C] {
	return &Builder[T, C]{capacity: defaultCapacity}
}

// Ingressor supplies the single ingress stream.
func (b *Builder[T, C]) Ingressor(s stream.Stream[T]) *Builder[T, C] {
	b.ingresses = append(b.ingresses, s)
	return b
}

// Classifier supplies the value-to-class function.
func (b *Builder[T, C]) Classifier(c pipeline.Classifier[T, C]) *Builder[T, C] {
	b.classifier = c
	return b
}

// Dispatcher supplies the class-to-egress-index function.
func (b *Builder[T, C]) Dispatcher(d pipeline.Dispatcher[C]) *Builder[T, C] {
	b.dispatcher = d
	return b
}

// NumEgressors sets K, the number of egress streams, which must be >= 1.
func (b *Builder[T, C]) NumEgressors(k int) *Builder[T, C] {
	b.numEgress = k
	return b
}

// QueueCapacity sets the capacity of each of the K per-egress queues.
func (b *Builder[T, C]) QueueCapacity(n int) *Builder[T, C] {
	b.capacity = n
	return b
}

// Config applies the "capacity" and "num_egressors" keys recognized for this
// link, overriding defaults when set. Unset keys leave prior configuration
// untouched.
func (b *Builder[T, C]) Config(cfg config.Config) *Builder[T, C] {
	if cfg.IsSet("capacity") {
		b.capacity = cfg.Get("capacity").Int(b.capacity)
	}
	if cfg.IsSet("num_egressors") {
		b.numEgress = cfg.Get("num_egressors").Int(b.numEgress)
	}
	return b
}

// BuildLink validates configuration and returns the built link: K egress
// streams and one ingressor runnable.
func (b *Builder[T, C]) BuildLink() (pipeline.Link[T], error) {
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
	if b.classifier == nil {
		return pipeline.Link[T]{}, pipeline.ErrMissingClassifier
	}
	if b.dispatcher == nil {
		return pipeline.Link[T]{}, pipeline.ErrMissingDispatcher
	}
	if b.numEgress < 1 {
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

	ing := &ingressor[T, C]{
		ingress:    b.ingresses[0],
		classifier: b.classifier,
		dispatcher: b.dispatcher,
		channels:   channels,
	}

	return pipeline.Link[T]{
		Runnables: []pipeline.Runnable{ing},
		Egresses:  egresses,
	}, nil
}

// ingressor polls the ingress, classifies and dispatches each value, and
// enqueues it on the selected egress's queue. A single stalled egress stalls
// the whole ingressor; this is classify's documented non-load-balancing
// semantics.
type ingressor[T any, C comparable] struct {
	ingress    stream.Stream[T]
	classifier pipeline.Classifier[T, C]
	dispatcher pipeline.Dispatcher[C]
	channels   []*channel.Channel[T]
	pending    *T
	pendingIdx int
	havePend   bool
}

// Poll implements pipeline.Runnable.
func (r *ingressor[T, C]) Poll(w task.Waker) task.RunState {
	for {
		if r.havePend {
			ch := r.channels[r.pendingIdx]
			if err := ch.TrySend(*r.pending); err != nil {
				ch.ParkSend(w)
				return task.Pending
			}
			r.havePend = false
			r.pending = nil
			continue
		}

		v, st := r.ingress.Poll(w)
		switch st {
		case stream.Ready:
			class := r.classifier(v)
			idx := r.dispatcher(class)
			if idx < 0 || idx >= len(r.channels) {
				// Out-of-range dispatch: silently dropped per the
				// classifier's own contract.
				continue
			}
			ch := r.channels[idx]
			if err := ch.TrySend(v); err != nil {
				logger.Debugw("egress queue full, ingressor stalling", "egress", idx)
				r.pending = &v
				r.pendingIdx = idx
				r.havePend = true
				ch.ParkSend(w)
				return task.Pending
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
}

// egress is one of classify's K consumer-facing streams.
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
