package task

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

import "sync/atomic"

// Waker reschedules whatever task parked it. Runners hand out wakers that
// re-enqueue a Runnable; tests may hand out a no-op or a counting waker.
type Waker func()

// State names the logical state of a Park cell.
type State uint8

const (
	// Empty: no parked waker, neither side waiting.
	Empty State = iota
	// Parked: one side stored its waker and is sleeping.
	Parked
	// IndirectParked: a Shared waker cell, drained at most once.
	IndirectParked
	// Dead: the counterpart has dropped; future stores self-notify.
	Dead
)

// Shared is a waker cell that may be installed into many Parks by one waiter
// that fans in on all of them. Whichever Park notifies
// first wins; the rest find the cell already drained.
type Shared struct {
	waker atomic.Pointer[Waker]
}

// NewShared wraps w in a cell that notifies at most once.
func NewShared(w Waker) *Shared {
	s := &Shared{}
	s.waker.Store(&w)
	return s
}

// take drains the cell, returning nil on every call after the first.
func (s *Shared) take() Waker {
	p := s.waker.Swap(nil)
	if p == nil {
		return nil
	}
	return *p
}

// entry is the immutable value stored in a Park's cell. Every transition
// replaces the whole entry with a single atomic swap; there is no direct
// field mutation, so this is the only path by which the cell's state can
// change.
type entry struct {
	state  State
	waker  Waker
	shared *Shared
}

var emptyEntry = &entry{state: Empty}
var deadEntry = &entry{state: Dead}

// Park is the task_park coordination primitive: a single cell shared between
// two cooperating tasks (typically the producer and consumer side of one
// queue). At most one waker is stored at a time; storing a new one notifies
// whatever was previously parked there.
type Park struct {
	cell atomic.Pointer[entry]
}

// NewPark returns a Park in the Empty state.
func NewPark() *Park {
	p := &Park{}
	p.cell.Store(emptyEntry)
	return p
}

// State reports the Park's current state. Useful for tests and diagnostics;
// never branch production logic on a racy read of this value.
func (p *Park) State() State {
	return p.cell.Load().state
}

// StoreWaker atomically installs w as the parked waker. If the cell held a
// Parked or IndirectParked waker, that waker is notified (displaced). If the
// cell was Dead, Dead is restored and w is notified immediately so the caller
// never deadlocks on a counterpart that already dropped. Returns false only
// when the cell was Dead at entry.
func (p *Park) StoreWaker(w Waker) bool {
	old := p.cell.Swap(&entry{state: Parked, waker: w})
	return p.settle(old, w)
}

// IndirectStore is StoreWaker for a waiter that shares one Shared cell across
// many Parks and wants to be woken exactly once, however many of those Parks
// fire. Identical transition rules to StoreWaker.
func (p *Park) IndirectStore(shared *Shared) bool {
	old := p.cell.Swap(&entry{state: IndirectParked, shared: shared})
	return p.settle(old, wakerOf(shared))
}

func (p *Park) settle(old *entry, self Waker) bool {
	switch old.state {
	case Parked:
		notify(old.waker)
		return true
	case IndirectParked:
		notify(old.shared.take())
		return true
	case Dead:
		p.cell.Store(deadEntry)
		notify(self)
		return false
	default: // Empty
		return true
	}
}

// UnparkAndNotify atomically swaps Empty into the cell, notifying whatever
// waker was present. A prior Dead state is preserved rather than overwritten:
// once dead, a Park never returns to a live state.
func (p *Park) UnparkAndNotify() {
	for {
		old := p.cell.Load()
		if old.state == Dead {
			return
		}
		if !p.cell.CompareAndSwap(old, emptyEntry) {
			continue
		}
		switch old.state {
		case Parked:
			notify(old.waker)
		case IndirectParked:
			notify(old.shared.take())
		}
		return
	}
}

// DieAndNotify atomically swaps Dead into the cell, notifying whatever waker
// was present. Entering Dead is terminal: every later store settles
// immediately via the Dead branch of settle.
func (p *Park) DieAndNotify() {
	old := p.cell.Swap(deadEntry)
	switch old.state {
	case Parked:
		notify(old.waker)
	case IndirectParked:
		notify(old.shared.take())
	}
}

func notify(w Waker) {
	if w != nil {
		w()
	}
}

func wakerOf(s *Shared) Waker {
	return func() { notify(s.take()) }
}

// RunState is the outcome of one Runnable.Poll call.
type RunState uint8

const (
	// Complete means the runnable has finished and will not be polled again.
	Complete RunState = iota
	// Pending means the runnable made no progress this poll and has stored
	// its waker somewhere that will eventually call it back.
	Pending
)

func (s RunState) String() string {
	if s == Complete {
		return "complete"
	}
	return "pending"
}

