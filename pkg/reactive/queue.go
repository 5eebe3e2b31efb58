package reactive

import (
	"context"
	"sync"
)

// TaskQueue is a goroutine-safe FIFO of callbacks.
//
// It is the only suspension point of the reactive graph: deferred work
// (such as a resource's first fetch) and results arriving from other
// goroutines are posted here and executed by whoever drives the queue.
// Tasks run one at a time on the driving goroutine.
type TaskQueue struct {
	mu     sync.Mutex
	tasks  []func()
	notify chan struct{}
}

// NewTaskQueue creates an empty queue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{notify: make(chan struct{}, 1)}
}

// Post appends fn to the queue. It never blocks.
func (q *TaskQueue) Post(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *TaskQueue) pop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, false
	}
	fn := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return fn, true
}

// RunPending runs tasks until the queue is empty, including tasks posted
// while draining. It returns the number of tasks run.
func (q *TaskQueue) RunPending() int {
	n := 0
	for {
		fn, ok := q.pop()
		if !ok {
			return n
		}
		fn()
		n++
	}
}

// Next blocks until a task is available, runs it, and returns.
// It returns ctx.Err() if ctx is done first.
func (q *TaskQueue) Next(ctx context.Context) error {
	for {
		if fn, ok := q.pop(); ok {
			fn()
			return nil
		}
		select {
		case <-q.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Serve runs tasks as they arrive until ctx is done.
func (q *TaskQueue) Serve(ctx context.Context) error {
	for {
		if err := q.Next(ctx); err != nil {
			return err
		}
	}
}
