package channel

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"errors"
	"sync/atomic"

	"code.hybscloud.com/lfq"

	"github.com/brunotm/routeflow/task"
)

var (
	// ErrFull is returned by TrySend when the channel is at capacity.
	ErrFull = errors.New("channel: full")
	// ErrEmpty is returned by TryRecv when no value is available yet.
	ErrEmpty = errors.New("channel: empty")
	// ErrClosed is returned by TrySend once Close has been called.
	ErrClosed = errors.New("channel: closed")
	// ErrDisconnected is returned by TryRecv once the channel has been
	// closed and fully drained.
	ErrDisconnected = errors.New("channel: disconnected")
)

// Channel is the pipeline's "Queue edge": a bounded multi-producer/multi-consumer
// FIFO of exact, configurable capacity, with one task.Park the producer side
// may sleep on (unblocked by a dequeue) and one the consumer side may sleep
// on (unblocked by an enqueue or a Close). It is the single primitive reused
// both as the internal buffer of queue/classify/join/fork links and, via
// Sender/Receiver, as the external channel handed to input-/output-channel
// links.
//
// The ring storage is a code.hybscloud.com/lfq lock-free MPMC queue; because
// that implementation requires a minimum physical capacity of 2 and rounds up
// to a power of two, Channel tracks its own exact occupancy count so the
// capacity this type advertises is never exceeded even when the backing ring
// has spare physical slots.
type Channel[T any] struct {
	ring     *lfq.MPMC[T]
	capacity int64
	occupied atomic.Int64
	recvPark *task.Park
	sendPark *task.Park
	closed   atomic.Bool
	recvGone atomic.Bool
}

// New creates a Channel with the given exact capacity, which must be >= 1.
func New[T any](capacity int) *Channel[T] {
	if capacity < 1 {
		panic("channel: capacity must be >= 1")
	}

	ringCapacity := capacity
	if ringCapacity < 2 {
		ringCapacity = 2
	}

	return &Channel[T]{
		ring:     lfq.NewMPMC[T](ringCapacity),
		capacity: int64(capacity),
		recvPark: task.NewPark(),
		sendPark: task.NewPark(),
	}
}

// Cap returns the exact, user-visible capacity.
func (c *Channel[T]) Cap() int { return int(c.capacity) }

// Len returns the current exact occupancy. Intended for tests and
// diagnostics; under concurrent use it is a snapshot, not a guarantee.
func (c *Channel[T]) Len() int { return int(c.occupied.Load()) }

// TrySend attempts a nonblocking enqueue. Returns ErrClosed if Close has been
// called, ErrFull if the channel is at capacity, nil on success. A
// successful send unparks the consumer side.
func (c *Channel[T]) TrySend(v T) error {
	if c.closed.Load() || c.recvGone.Load() {
		return ErrClosed
	}

	for {
		cur := c.occupied.Load()
		if cur >= c.capacity {
			return ErrFull
		}
		if c.occupied.CompareAndSwap(cur, cur+1) {
			break
		}
	}

	if err := c.ring.Enqueue(&v); err != nil {
		c.occupied.Add(-1)
		return ErrFull
	}

	c.recvPark.UnparkAndNotify()
	return nil
}

// TryRecv attempts a nonblocking dequeue. Returns ErrDisconnected once the
// channel is closed and empty, ErrEmpty if a value may still arrive, the
// value and nil on success. A successful receive unparks the producer side.
func (c *Channel[T]) TryRecv() (T, error) {
	v, err := c.ring.Dequeue()
	if err == nil {
		c.occupied.Add(-1)
		c.sendPark.UnparkAndNotify()
		return v, nil
	}

	var zero T
	if c.closed.Load() {
		return zero, ErrDisconnected
	}
	return zero, ErrEmpty
}

// Close marks the channel disconnected. Producers see ErrClosed immediately;
// consumers continue to drain whatever is already buffered and then see
// ErrDisconnected. Both parked sides are notified so neither sleeps forever.
func (c *Channel[T]) Close() {
	c.closed.Store(true)
	c.recvPark.DieAndNotify()
	c.sendPark.DieAndNotify()
}

// Closed reports whether Close has been called.
func (c *Channel[T]) Closed() bool { return c.closed.Load() }

// ParkRecv stores w on the consumer-side park, to be notified by the next
// successful TrySend or by Close.
func (c *Channel[T]) ParkRecv(w task.Waker) bool { return c.recvPark.StoreWaker(w) }

// ParkSend stores w on the producer-side park, to be notified by the next
// successful TryRecv or by Close.
func (c *Channel[T]) ParkSend(w task.Waker) bool { return c.sendPark.StoreWaker(w) }

// IndirectParkRecv installs a Shared waker on the consumer-side park, for a
// fan-in waiter that places the same Shared cell into many Channels'
// consumer-side parks and wants to be woken exactly once.
func (c *Channel[T]) IndirectParkRecv(shared *task.Shared) bool {
	return c.recvPark.IndirectStore(shared)
}

// DieRecv marks the consumer-side park Dead, notifying whatever waker was
// parked there. Used by a producer that is dropping its end of the channel.
func (c *Channel[T]) DieRecv() { c.recvPark.DieAndNotify() }

// DieSend marks the producer-side park Dead. Used by a consumer that is
// dropping its end of the channel.
func (c *Channel[T]) DieSend() { c.sendPark.DieAndNotify() }

// CloseRecv marks the channel as having a gone consumer: every later TrySend
// returns ErrClosed, and the producer-side park is notified immediately so a
// sender currently parked on backpressure wakes up to observe it.
func (c *Channel[T]) CloseRecv() {
	c.recvGone.Store(true)
	c.sendPark.DieAndNotify()
}
