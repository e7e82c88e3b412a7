package pipeline

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
	"github.com/brunotm/routeflow/stream"
	"github.com/brunotm/routeflow/task"
)

// Runnable is a suspendable task that, when scheduled, makes forward
// progress on some portion of a link and either completes or yields pending
// with the guarantee that some waker will wake it later.
type Runnable interface {
	Poll(w task.Waker) task.RunState
}

// RunnableFunc adapts a plain poll function to the Runnable interface.
type RunnableFunc func(w task.Waker) task.RunState

// Poll implements Runnable.
func (f RunnableFunc) Poll(w task.Waker) task.RunState { return f(w) }

// Link is the value every builder produces: zero or more background
// runnables that must be scheduled for data to flow, and zero or more
// egress streams that the next link in the graph consumes as its ingress.
type Link[T any] struct {
	Runnables []Runnable
	Egresses  []stream.Stream[T]
}

// Flatten concatenates the Runnables of several links, the way a composite
// link or a graph's final assembly gathers every background task for the
// runner.
func Flatten[T any](links ...Link[T]) []Runnable {
	var out []Runnable
	for _, l := range links {
		out = append(out, l.Runnables...)
	}
	return out
}

// Processor transforms a packet of type A into an optional packet of type B.
// Returning ok == false drops the input; this is the documented filter
// semantics, not an error. Processors must be pure with respect to the
// packet (no side channel other than its own internal state) and must never
// suspend.
type Processor[A, B any] func(A) (B, bool)

// Classifier maps a packet to a class value. Must be pure; receives the
// packet by value since Go passes aggregates efficiently by reference only
// when the caller chooses a pointer type for A.
type Classifier[T any, C comparable] func(T) C

// Dispatcher maps a class value to an egress index in [0, K). An
// out-of-range result causes the dispatched packet to be silently dropped;
// the classifier owns its own contract, not the dispatcher.
type Dispatcher[C comparable] func(C) int
