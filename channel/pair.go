package channel

import "github.com/brunotm/routeflow/task"

// Sender is the producer-only view of a Channel, handed to user code that
// feeds packets into the graph from outside it.
type Sender[T any] struct {
	ch *Channel[T]
}

// TrySend forwards to the underlying Channel.
func (s Sender[T]) TrySend(v T) error { return s.ch.TrySend(v) }

// ParkSend forwards to the underlying Channel.
func (s Sender[T]) ParkSend(w task.Waker) bool { return s.ch.ParkSend(w) }

// Close forwards to the underlying Channel.
func (s Sender[T]) Close() { s.ch.Close() }

// Receiver is the consumer-only view of a Channel, handed to an
// input-channel link.
type Receiver[T any] struct {
	ch *Channel[T]
}

// TryRecv forwards to the underlying Channel.
func (r Receiver[T]) TryRecv() (T, error) { return r.ch.TryRecv() }

// ParkRecv forwards to the underlying Channel.
func (r Receiver[T]) ParkRecv(w task.Waker) bool { return r.ch.ParkRecv(w) }

// Close marks the channel's consumer side as gone, the documented effect of
// dropping this end: any output-channel runnable still pushing to the
// paired Sender sees ErrClosed and terminates.
func (r Receiver[T]) Close() { r.ch.CloseRecv() }

// NewPair creates a Channel of the given capacity and returns its restricted
// Sender/Receiver views. This is the "external channel" built by the caller
// outside the graph, then handed in as an input-channel or output-channel
// link's channel configuration.
func NewPair[T any](capacity int) (Sender[T], Receiver[T]) {
	ch := New[T](capacity)
	return Sender[T]{ch}, Receiver[T]{ch}
}
