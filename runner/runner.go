// Package runner drives a pipeline's runnables to completion on a fixed pool
// of worker goroutines.
package runner

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
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/brunotm/routeflow/config"
	"github.com/brunotm/routeflow/log"
	"github.com/brunotm/routeflow/pipeline"
	"github.com/brunotm/routeflow/task"
)

var logger = log.New("component", "runner")

// Runner is a fixed-size pool of worker goroutines draining a shared ready
// queue of pipeline.Runnables. Any runnable may execute on any worker; a
// runnable yielding Pending is rescheduled only once its stored waker fires,
// and may then resume on a different worker. There is no pinning.
type Runner struct {
	ready   chan pipeline.Runnable
	workers int
}

// New returns a Runner with the given number of worker goroutines. A
// workers value < 1 defaults to runtime.GOMAXPROCS(0), mirroring
// brunotm-streams' default task scale of one worker per node.
func New(workers int) *Runner {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{workers: workers}
}

// NewFromConfig returns a Runner sized from cfg's "workers" key, falling
// back to runtime.GOMAXPROCS(0) when that key is unset, matching New's
// zero-value default.
func NewFromConfig(cfg config.Config) *Runner {
	workers := 0
	if cfg.IsSet("workers") {
		workers = cfg.Get("workers").Int(0)
	}
	return New(workers)
}

// Run schedules every runnable and blocks until all of them reach Complete
// or ctx is cancelled. A runnable's Poll panicking propagates: panics are not
// recovered, matching the supplemented fail-fast policy in SPEC_FULL.md
// (grounded in the reference runtime's task-abort-on-panic behavior).
func (r *Runner) Run(ctx context.Context, runnables []pipeline.Runnable) error {
	if len(runnables) == 0 {
		return nil
	}

	capacity := len(runnables) * 4
	r.ready = make(chan pipeline.Runnable, capacity)

	var pending atomic.Int64
	pending.Store(int64(len(runnables)))
	done := make(chan struct{})

	logger.Debugw("starting runner", "runnables", len(runnables), "workers", r.workers)

	for _, rn := range runnables {
		r.ready <- rn
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.workers; i++ {
		g.Go(func() error {
			return r.worker(gctx, &pending, done)
		})
	}

	select {
	case <-done:
	case <-gctx.Done():
	}

	close(r.ready)
	return g.Wait()
}

func (r *Runner) worker(ctx context.Context, pending *atomic.Int64, done chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rn, ok := <-r.ready:
			if !ok {
				return nil
			}

			scheduled := make(chan struct{}, 1)
			var fired atomic.Bool

			waker := task.Waker(func() {
				if !fired.CompareAndSwap(false, true) {
					return
				}
				select {
				case scheduled <- struct{}{}:
				default:
				}
			})

			st := rn.Poll(waker)
			switch st {
			case task.Complete:
				if pending.Add(-1) == 0 {
					close(done)
				}
			case task.Pending:
				go r.rescheduleOnWake(rn, scheduled, &fired)
			}
		}
	}
}

// rescheduleOnWake waits for the runnable's waker to fire (or for it to have
// already fired before this goroutine started watching) and re-enqueues the
// runnable onto the ready queue.
func (r *Runner) rescheduleOnWake(rn pipeline.Runnable, scheduled chan struct{}, fired *atomic.Bool) {
	if !fired.Load() {
		<-scheduled
	}

	defer func() {
		// The ready queue is closed once every runnable has completed; a
		// wake that races past that point has nothing left to deliver to.
		recover()
	}()
	r.ready <- rn
}
