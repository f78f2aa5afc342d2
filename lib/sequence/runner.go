// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sequence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrStopped is returned by Invoke when the Runner has stopped before the
// task could run.
var ErrStopped = errors.New("sequence runner stopped")

// DefaultQueueSize is the task queue capacity used by NewRunner when the
// caller passes zero.
const DefaultQueueSize = 256

// Runner serializes tasks onto one goroutine. Create with NewRunner, start
// with Run, and hand it work with Post or Invoke.
type Runner struct {
	tasks chan func()

	// inTask is true while a task is executing.
	inTask atomic.Bool

	// owner is the goroutine ID of Run. Zero until Run starts.
	owner atomic.Uint64

	stopped  chan struct{}
	stopOnce sync.Once
}

// NewRunner creates a Runner with the given queue capacity. A zero or
// negative queueSize selects DefaultQueueSize.
func NewRunner(queueSize int) *Runner {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Runner{
		tasks:   make(chan func(), queueSize),
		stopped: make(chan struct{}),
	}
}

// Run executes posted tasks until ctx is cancelled or Stop is called.
// Tasks still queued at that point are discarded. Run must be called at
// most once.
func (r *Runner) Run(ctx context.Context) {
	defer r.Stop()
	if !r.owner.CompareAndSwap(0, goroutineID()) {
		panic("sequence: Run called more than once")
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopped:
			return
		case task := <-r.tasks:
			r.runTask(task)
		}
	}
}

func (r *Runner) runTask(task func()) {
	r.inTask.Store(true)
	defer r.inTask.Store(false)
	task()
}

// Post queues task for execution and returns immediately. Returns false
// if the Runner has stopped. Post blocks while the queue is full, so a
// task must never Post to its own Runner in a loop without bound.
func (r *Runner) Post(task func()) bool {
	select {
	case <-r.stopped:
		return false
	default:
	}
	select {
	case r.tasks <- task:
		return true
	case <-r.stopped:
		return false
	}
}

// Invoke posts task and waits for it to finish. Returns ErrStopped if the
// Runner stops first, or ctx.Err() if ctx is cancelled first (the task
// may still run later in that case). Invoke must not be called from a
// task on the same Runner: the task would wait on itself.
func (r *Runner) Invoke(ctx context.Context, task func()) error {
	done := make(chan struct{})
	if !r.Post(func() {
		defer close(done)
		task()
	}) {
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-r.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop ends Run after the current task. Safe to call more than once and
// from any goroutine.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stopped) })
}

// Done returns a channel that is closed once the Runner stops.
func (r *Runner) Done() <-chan struct{} {
	return r.stopped
}

// OnSequence reports whether the caller is running inside a task: a task
// is executing and the caller is the goroutine executing it.
func (r *Runner) OnSequence() bool {
	if !r.inTask.Load() {
		return false
	}
	owner := r.owner.Load()
	return owner != 0 && goroutineID() == owner
}

// Check panics unless the caller is running inside a task. A goroutine
// calling in while another goroutine's task is running panics too.
func (r *Runner) Check() {
	if !r.OnSequence() {
		panic("sequence: called outside the runner's sequence")
	}
}
