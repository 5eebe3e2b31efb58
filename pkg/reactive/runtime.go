package reactive

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/msig-dev/msig/internal/errors"
)

// DefaultMaxDepth is the default limit on nested effect execution.
const DefaultMaxDepth = 100

// ErrCascadeDepth is wrapped by the error reported when a write cascades
// through more nested effect runs than the runtime allows.
var ErrCascadeDepth = stderrors.New("reactive: effect cascade depth exceeded")

// frame is the tracking context: what a signal read consults to decide
// whether and whom to subscribe.
type frame struct {
	effect   *Effect
	scope    *Scope
	tracking bool
}

// Runtime owns one reactive graph: the effect registry and the tracking
// context. It is not safe for concurrent use; see TaskQueue.
type Runtime struct {
	reg    *registry
	queue  *TaskQueue
	global *Scope

	// current is the active tracking context. It is only ever changed via
	// enter, which hands back the restore function.
	current frame
	depth   int

	maxDepth int
	logger   *slog.Logger
	observer Observer
	onError  func(error)

	disposing atomic.Bool
	disposed  atomic.Bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithMaxDepth bounds nested effect execution. Values < 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(rt *Runtime) {
		if n > 0 {
			rt.maxDepth = n
		}
	}
}

// WithObserver installs an Observer, e.g. the Prometheus collector from
// package metrics.
func WithObserver(o Observer) Option {
	return func(rt *Runtime) {
		if o != nil {
			rt.observer = o
		}
	}
}

// WithErrorHandler receives runtime errors (cascade aborts, task panics).
// Default: log at Error level.
func WithErrorHandler(fn func(error)) Option {
	return func(rt *Runtime) {
		rt.onError = fn
	}
}

// WithQueue shares an existing TaskQueue, letting several runtimes be
// driven by one loop.
func WithQueue(q *TaskQueue) Option {
	return func(rt *Runtime) {
		if q != nil {
			rt.queue = q
		}
	}
}

// NewRuntime creates an independent reactive graph.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		reg:      newRegistry(),
		queue:    NewTaskQueue(),
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.global = newScope(rt)
	rt.current = frame{scope: rt.global, tracking: true}
	return rt
}

var (
	defaultRuntime     *Runtime
	defaultRuntimeOnce sync.Once
)

// Default returns the process-wide runtime, creating it on first use.
// It is never torn down.
func Default() *Runtime {
	defaultRuntimeOnce.Do(func() {
		defaultRuntime = NewRuntime()
	})
	return defaultRuntime
}

// enter installs f as the tracking context and returns the function that
// restores the previous one. Use as: defer rt.enter(f)().
func (rt *Runtime) enter(f frame) func() {
	prev := rt.current
	rt.current = f
	return func() {
		rt.current = prev
	}
}

// track subscribes the running effect, if any, to c.
func (rt *Runtime) track(c *cell) {
	e := rt.current.effect
	if e == nil || !rt.current.tracking || e.disposed {
		return
	}
	rt.reg.link(c, e)
}

// trigger synchronously runs every effect subscribed to c, in subscription
// order. Effects unsubscribed or disposed by an earlier sibling are skipped.
func (rt *Runtime) trigger(c *cell) {
	for _, e := range rt.reg.listeners(c) {
		if e.disposed || !rt.reg.linked(c, e) {
			continue
		}
		e.run()
	}
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Observer returns the runtime's observer.
func (rt *Runtime) Observer() Observer {
	return rt.observer
}

// Queue returns the runtime's task queue.
func (rt *Runtime) Queue() *TaskQueue {
	return rt.queue
}

// Global returns the scope effects belong to when no root is active.
func (rt *Runtime) Global() *Scope {
	return rt.global
}

// CurrentScope returns the scope that newly created effects will join.
func (rt *Runtime) CurrentScope() *Scope {
	return rt.current.scope
}

// Tracking reports whether a read right now would create a subscription.
func (rt *Runtime) Tracking() bool {
	return rt.current.effect != nil && rt.current.tracking
}

// Stats returns registry counters. Safe to call from any goroutine.
func (rt *Runtime) Stats() Stats {
	return rt.reg.stats()
}

// report hands err to the error handler.
func (rt *Runtime) report(err error) {
	if rt.onError != nil {
		rt.onError(err)
		return
	}
	rt.logger.Error("reactive runtime error", "error", err, "code", errors.Code(err))
}

// Dispatch posts fn onto the runtime's queue. Safe from any goroutine.
// A panic inside fn is recovered and reported.
func (rt *Runtime) Dispatch(fn func()) {
	rt.queue.Post(func() {
		rt.exec(fn)
	})
}

// exec runs fn with panic recovery.
func (rt *Runtime) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			rt.report(errors.New("E009").
				WithDetail(fmt.Sprintf("panic: %v\n%s", r, debug.Stack())))
		}
	}()
	fn()
}

// Tick drains the queue on the calling goroutine and returns the number of
// tasks run.
func (rt *Runtime) Tick() int {
	return rt.queue.RunPending()
}

// Serve drives the queue until ctx is done. Run it on the goroutine that owns
// the graph.
func (rt *Runtime) Serve(ctx context.Context) error {
	return rt.queue.Serve(ctx)
}

// Call runs fn on the runtime's queue and waits for it to finish.
// It must not be called from the goroutine driving the queue.
//
// If ctx is done before the queue reaches fn, fn is skipped and Call returns
// E202: a caller that gave up never has its work applied later. Once fn has
// started, Call waits for it regardless of ctx.
func (rt *Runtime) Call(ctx context.Context, fn func()) error {
	const (
		pending int32 = iota
		running
		abandoned
	)
	var state atomic.Int32
	done := make(chan struct{})
	var panicked any
	rt.queue.Post(func() {
		defer close(done)
		if ctx.Err() != nil || !state.CompareAndSwap(pending, running) {
			return
		}
		defer func() {
			panicked = recover()
		}()
		fn()
	})

	select {
	case <-done:
	case <-ctx.Done():
		if state.CompareAndSwap(pending, abandoned) {
			return errors.New("E202").Wrap(ctx.Err())
		}
		<-done
	}
	if state.Load() != running {
		return errors.New("E202").Wrap(ctx.Err())
	}
	if panicked != nil {
		return errors.New("E009").WithDetail(fmt.Sprint(panicked))
	}
	return nil
}

// Dispose disposes every live scope, including the global one.
// Writes made by cleanups during Dispose behave normally; writes after it
// still store their value but notify no one and report E001.
func (rt *Runtime) Dispose() {
	if rt.disposing.Swap(true) {
		return
	}
	for _, s := range rt.reg.liveScopes() {
		s.Dispose()
	}
	rt.disposed.Store(true)
}

// Disposed reports whether Dispose has been called.
func (rt *Runtime) Disposed() bool {
	return rt.disposed.Load()
}
