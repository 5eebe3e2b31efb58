package resource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/msig-dev/msig/internal/errors"
	"github.com/msig-dev/msig/pkg/reactive"
)

const tracerName = "github.com/msig-dev/msig/pkg/resource"

// Fetcher loads a value. It runs on its own goroutine and should honor ctx.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Resource is a signal-backed asynchronous value.
// All methods except the option setters must be called on the goroutine
// driving the runtime.
type Resource[T any] struct {
	rt *reactive.Runtime

	// bind reads the source (tracked or not) and returns the fetch for its
	// current value.
	bind func(tracked bool) Fetcher[T]

	state  *reactive.Signal[State]
	value  *reactive.Signal[slot[T]]
	latest *reactive.Signal[slot[T]]
	err    *reactive.Signal[error]

	// token identifies the most recently started fetch.
	token  uint64
	cancel context.CancelFunc
	driver *reactive.Effect

	// Options
	mu         sync.Mutex
	name       string
	baseCtx    context.Context
	retryCount int
	retryDelay time.Duration
	tracer     trace.Tracer
	onSuccess  func(T)
	onError    func(error)
}

// New creates a resource around fetcher. The first fetch starts one task
// after construction.
func New[T any](rt *reactive.Runtime, fetcher Fetcher[T]) *Resource[T] {
	return newResource(rt, func(bool) Fetcher[T] { return fetcher })
}

// NewWithSource creates a resource that fetches with source's value and
// fetches again whenever source changes.
func NewWithSource[T, U any](rt *reactive.Runtime, source reactive.Reader[U], fetcher func(ctx context.Context, src U) (T, error)) *Resource[T] {
	return newResource(rt, func(tracked bool) Fetcher[T] {
		var v U
		if tracked {
			v = source.Get()
		} else {
			v = source.Peek()
		}
		return func(ctx context.Context) (T, error) {
			return fetcher(ctx, v)
		}
	})
}

// slot pairs a value with whether one has been stored, so that presence
// changes notify like value changes.
type slot[T any] struct {
	v  T
	ok bool
}

func sameSlot[T any](a, b slot[T]) bool {
	return a.ok == b.ok && reactive.Identical(a.v, b.v)
}

func newResource[T any](rt *reactive.Runtime, bind func(bool) Fetcher[T]) *Resource[T] {
	r := &Resource[T]{
		rt:      rt,
		bind:    bind,
		state:   reactive.NewSignal(rt, Unresolved),
		value:   reactive.NewSignal(rt, slot[T]{}, reactive.WithEquals(sameSlot[T])),
		latest:  reactive.NewSignal(rt, slot[T]{}, reactive.WithEquals(sameSlot[T])),
		err:     reactive.NewSignal[error](rt, nil),
		name:    "resource",
		baseCtx: context.Background(),
		tracer:  otel.Tracer(tracerName),
	}

	scope := rt.CurrentScope()
	rt.Dispatch(func() {
		if scope.Disposed() {
			return
		}
		rt.Run(scope, func() {
			r.driver = reactive.CreateEffect(rt, func() {
				r.start(r.bind(true))
			})
		})
	})
	return r
}

// start begins a fetch, superseding any fetch in flight.
func (r *Resource[T]) start(fetch Fetcher[T]) {
	r.token++
	token := r.token
	if r.cancel != nil {
		r.cancel()
	}

	r.mu.Lock()
	name, base := r.name, r.baseCtx
	retries, delay := r.retryCount, r.retryDelay
	tracer := r.tracer
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(base)
	r.cancel = cancel

	r.err.Set(nil)
	r.state.Set(Pending)

	started := time.Now()
	go func() {
		ctx, span := tracer.Start(ctx, "resource.fetch",
			trace.WithAttributes(attribute.String("resource.name", name)))
		v, attempts, err := attempt(ctx, fetch, retries, delay)
		span.SetAttributes(attribute.Int("resource.attempts", attempts))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()

		r.rt.Dispatch(func() {
			r.settle(token, v, err, time.Since(started))
		})
	}()
}

// attempt calls fetch up to 1+retries times, waiting delay between tries.
func attempt[T any](ctx context.Context, fetch Fetcher[T], retries int, delay time.Duration) (T, int, error) {
	var (
		v   T
		err error
		n   int
	)
	for n < 1+retries {
		if n > 0 && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return v, n, ctx.Err()
			}
		}
		n++
		v, err = safeFetch(ctx, fetch)
		if err == nil || ctx.Err() != nil {
			break
		}
	}
	return v, n, err
}

// safeFetch runs fetch, turning a panic into an E009 error.
func safeFetch[T any](ctx context.Context, fetch Fetcher[T]) (v T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.New("E009").WithDetail(fmt.Sprintf("fetcher panicked: %v", p))
		}
	}()
	return fetch(ctx)
}

// settle applies a finished fetch. Runs on the runtime's goroutine.
func (r *Resource[T]) settle(token uint64, v T, err error, d time.Duration) {
	obs := r.rt.Observer()
	if token != r.token {
		obs.ResourceFetch("superseded", d)
		return
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}

	r.mu.Lock()
	name, onSuccess, onError := r.name, r.onSuccess, r.onError
	r.mu.Unlock()

	if err != nil {
		ferr := errors.New("E007").
			WithDetail(fmt.Sprintf("resource %q failed after %s", name, d.Round(time.Millisecond))).
			Wrap(err)
		r.err.Set(ferr)
		r.state.Set(Errored)
		obs.ResourceFetch("errored", d)
		if onError != nil {
			onError(ferr)
		}
		return
	}

	r.value.Set(slot[T]{v: v, ok: true})
	r.latest.Set(slot[T]{v: v, ok: true})
	r.state.Set(Ready)
	obs.ResourceFetch("ready", d)
	if onSuccess != nil {
		onSuccess(v)
	}
}

// Get returns the current value (zero if none) and subscribes the running
// effect.
func (r *Resource[T]) Get() T {
	return r.value.Get().v
}

// Peek returns the current value without subscribing.
func (r *Resource[T]) Peek() T {
	return r.value.Peek().v
}

// Lookup returns the current value and whether there is one.
// It is false until the first successful fetch or Mutate. Becoming true
// re-runs subscribers even when the value equals the zero value.
func (r *Resource[T]) Lookup() (T, bool) {
	cur := r.value.Get()
	return cur.v, cur.ok
}

// State returns the lifecycle state and subscribes the running effect.
func (r *Resource[T]) State() State {
	return r.state.Get()
}

// Loading reports whether a fetch is in flight.
func (r *Resource[T]) Loading() bool {
	return r.state.Get() == Pending
}

// Latest returns the most recently resolved (or mutated) value.
// Failed fetches leave it untouched.
func (r *Resource[T]) Latest() (T, bool) {
	cur := r.latest.Get()
	return cur.v, cur.ok
}

// Error returns the failure of the latest fetch while Errored, nil otherwise.
// The fetcher's error is reachable with errors.Is/As.
func (r *Resource[T]) Error() error {
	return r.err.Get()
}

// Mutate overrides the value and latest without fetching. State is left as is.
func (r *Resource[T]) Mutate(v T) T {
	r.value.Set(slot[T]{v: v, ok: true})
	r.latest.Set(slot[T]{v: v, ok: true})
	return v
}

// Refetch starts a new fetch with the source's current value. The result is
// observed through the resource's signals.
func (r *Resource[T]) Refetch() {
	r.start(r.bind(false))
}

// Driver returns the effect that triggers fetches, or nil before the first
// tick.
func (r *Resource[T]) Driver() *reactive.Effect {
	return r.driver
}

var _ reactive.Reader[int] = (*Resource[int])(nil)
