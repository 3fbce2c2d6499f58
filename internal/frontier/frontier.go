// Package frontier implements the FIFO of pending crawl tasks. The queue
// has no capacity limit.
package frontier

import (
	"context"
	"net/url"
	"sync"
)

// Task is one pending (url, depth, parent) unit of work. Equality and
// identity across the crawl are by CanonicalURL alone.
type Task struct {
	CanonicalURL url.URL
	Depth        int
	Parent       *url.URL
}

// Frontier is a thread-safe FIFO of Tasks. Discipline is BFS: depth is
// carried on the task, not derived from queue position.
type Frontier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []Task
	pending int // tasks dequeued but not yet marked done
	closed  bool
}

// New returns an empty Frontier.
func New() *Frontier {
	f := &Frontier{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Enqueue appends a task to the back of the queue.
func (f *Frontier) Enqueue(t Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.tasks = append(f.tasks, t)
	f.cond.Signal()
}

// Dequeue blocks until a task is available, ctx is cancelled, or the
// frontier is closed. ok is false only on cancellation/close with no task
// available.
func (f *Frontier) Dequeue(ctx context.Context) (Task, bool) {
	// Wake the condvar promptly on cancellation instead of leaving the
	// worker blocked until the next Enqueue/Close.
	stop := context.AfterFunc(ctx, func() {
		f.mu.Lock()
		f.cond.Broadcast()
		f.mu.Unlock()
	})
	defer stop()

	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.tasks) == 0 && !f.closed && ctx.Err() == nil {
		f.cond.Wait()
	}
	if len(f.tasks) == 0 {
		return Task{}, false
	}

	t := f.tasks[0]
	f.tasks = f.tasks[1:]
	f.pending++
	return t, true
}

// TaskDone marks one previously dequeued task as fully processed.
func (f *Frontier) TaskDone() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending > 0 {
		f.pending--
	}
}

// Size returns the number of tasks currently queued (not counting
// in-flight dequeued-but-not-done tasks).
func (f *Frontier) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// Pending returns the number of tasks dequeued but not yet marked done.
func (f *Frontier) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Idle reports whether the frontier has neither queued nor in-flight
// tasks — the natural-exhaustion stop condition.
func (f *Frontier) Idle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks) == 0 && f.pending == 0
}

// Close unblocks any waiting Dequeue calls; further Enqueue calls are
// no-ops. Used to force workers out at shutdown.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cond.Broadcast()
}
