package stream

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

import "github.com/brunotm/routeflow/task"

// State is the outcome of one Poll call.
type State uint8

const (
	// Ready means the returned value is valid.
	Ready State = iota
	// Pending means no value is available yet; the caller's waker has been
	// stored somewhere that will eventually notify it.
	Pending
	// Exhausted means the stream will never produce another value.
	Exhausted
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Pending:
		return "pending"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Stream is a lazy, finite, single-consumer sequence of values of type T.
// Polling it returns a value, pending, or exhaustion; streams are not
// restartable and ownership of one is exclusive to whoever holds it.
type Stream[T any] interface {
	// Poll makes one attempt at producing the next value. On Pending the
	// implementation has already arranged for w to be called when polling
	// again might make progress; the caller must not spin without waiting
	// for that call.
	Poll(w task.Waker) (T, State)
}

// Func adapts a plain poll function to the Stream interface.
type Func[T any] func(w task.Waker) (T, State)

// Poll implements Stream.
func (f Func[T]) Poll(w task.Waker) (T, State) { return f(w) }
