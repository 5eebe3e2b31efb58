package resource

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/msig-dev/msig/internal/errors"
	"github.com/msig-dev/msig/pkg/reactive"
)

type outcome[T any] struct {
	v   T
	err error
}

// call is one in-flight invocation of a fakeFetcher.
type call[U, T any] struct {
	arg    U
	ctx    context.Context
	result chan outcome[T]
}

func (c *call[U, T]) resolve(v T)      { c.result <- outcome[T]{v: v} }
func (c *call[U, T]) reject(err error) { c.result <- outcome[T]{err: err} }

// fakeFetcher blocks every call until the test resolves it. It ignores ctx so
// that superseded calls can still complete.
type fakeFetcher[U, T any] struct {
	calls chan *call[U, T]
}

func newFakeFetcher[U, T any]() *fakeFetcher[U, T] {
	return &fakeFetcher[U, T]{calls: make(chan *call[U, T], 16)}
}

func (f *fakeFetcher[U, T]) fetch(ctx context.Context, arg U) (T, error) {
	c := &call[U, T]{arg: arg, ctx: ctx, result: make(chan outcome[T], 1)}
	f.calls <- c
	o := <-c.result
	return o.v, o.err
}

func (f *fakeFetcher[U, T]) plain(ctx context.Context) (T, error) {
	var zero U
	return f.fetch(ctx, zero)
}

func (f *fakeFetcher[U, T]) next(t *testing.T) *call[U, T] {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for fetch")
		return nil
	}
}

func (f *fakeFetcher[U, T]) expectIdle(t *testing.T) {
	t.Helper()
	select {
	case c := <-f.calls:
		t.Fatalf("unexpected fetch with %v", c.arg)
	case <-time.After(20 * time.Millisecond):
	}
}

// settle runs the next task posted to the runtime, which is a fetch completion.
func settle(t *testing.T, rt *reactive.Runtime) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rt.Queue().Next(ctx); err != nil {
		t.Fatalf("no completion posted: %v", err)
	}
}

func TestStateString(t *testing.T) {
	want := map[State]string{
		Unresolved: "unresolved",
		Pending:    "pending",
		Ready:      "ready",
		Errored:    "errored",
		State(42):  "unknown",
	}
	for s, name := range want {
		if s.String() != name {
			t.Errorf("State(%d).String() = %q, want %q", int(s), s.String(), name)
		}
	}
}

func TestResourceFirstFetchDeferred(t *testing.T) {
	rt := reactive.NewRuntime()
	f := newFakeFetcher[struct{}, string]()
	r := New(rt, f.plain)

	if r.State() != Unresolved {
		t.Errorf("expected unresolved before tick, got %s", r.State())
	}
	if r.Loading() {
		t.Error("should not be loading before tick")
	}
	if _, ok := r.Lookup(); ok {
		t.Error("should have no value before tick")
	}
	f.expectIdle(t)

	rt.Tick()
	c := f.next(t)
	if r.State() != Pending || !r.Loading() {
		t.Errorf("expected pending after tick, got %s", r.State())
	}

	c.resolve("Foo")
	settle(t, rt)

	if r.State() != Ready {
		t.Errorf("expected ready, got %s", r.State())
	}
	if r.Loading() {
		t.Error("should not be loading after resolve")
	}
	if v, ok := r.Lookup(); !ok || v != "Foo" {
		t.Errorf("expected Foo, got %q (ok=%v)", v, ok)
	}
	if v, ok := r.Latest(); !ok || v != "Foo" {
		t.Errorf("expected latest Foo, got %q (ok=%v)", v, ok)
	}
	if r.Error() != nil {
		t.Errorf("expected no error, got %v", r.Error())
	}
	if r.Driver() == nil {
		t.Error("driver effect should exist after tick")
	}
}

func TestResourceFailure(t *testing.T) {
	rt := reactive.NewRuntime()
	f := newFakeFetcher[struct{}, string]()
	r := New(rt, f.plain).Named("profile")

	rt.Tick()
	boom := stderrors.New("boom")
	f.next(t).reject(boom)
	settle(t, rt)

	if r.State() != Errored {
		t.Errorf("expected errored, got %s", r.State())
	}
	if r.Loading() {
		t.Error("should not be loading after failure")
	}
	if _, ok := r.Lookup(); ok {
		t.Error("failed first fetch should leave no value")
	}
	if _, ok := r.Latest(); ok {
		t.Error("failed first fetch should leave no latest")
	}
	err := r.Error()
	if !stderrors.Is(err, boom) {
		t.Errorf("error should wrap the fetch error, got %v", err)
	}
	if errors.Code(err) != "E007" {
		t.Errorf("expected E007, got %q", errors.Code(err))
	}
}

func TestResourcePresenceIsReactiveForZeroValue(t *testing.T) {
	rt := reactive.NewRuntime()
	f := newFakeFetcher[struct{}, int]()
	r := New(rt, f.plain)

	var found, latest []bool
	reactive.CreateEffect(rt, func() {
		_, ok := r.Lookup()
		found = append(found, ok)
	})
	reactive.CreateEffect(rt, func() {
		_, ok := r.Latest()
		latest = append(latest, ok)
	})

	rt.Tick()
	f.next(t).resolve(0)
	settle(t, rt)

	if len(found) != 2 || found[0] || !found[1] {
		t.Errorf("Lookup subscriber saw %v, want [false true]", found)
	}
	if len(latest) != 2 || latest[0] || !latest[1] {
		t.Errorf("Latest subscriber saw %v, want [false true]", latest)
	}

	// Resolving the same value again changes nothing.
	r.Refetch()
	f.next(t).resolve(0)
	settle(t, rt)
	if len(found) != 2 {
		t.Errorf("identical result should not re-run Lookup subscribers, got %v", found)
	}
}

func TestResourceMutateZeroValueNotifies(t *testing.T) {
	rt := reactive.NewRuntime()
	f := newFakeFetcher[struct{}, string]()
	r := New(rt, f.plain)

	var found []bool
	reactive.CreateEffect(rt, func() {
		_, ok := r.Lookup()
		found = append(found, ok)
	})
	r.Mutate("")
	if len(found) != 2 || !found[1] {
		t.Errorf("Mutate to the zero value should mark presence, saw %v", found)
	}
}

func TestResourceRecoversFetcherPanic(t *testing.T) {
	rt := reactive.NewRuntime()
	r := New(rt, func(context.Context) (int, error) {
		panic("fetcher exploded")
	})

	rt.Tick()
	settle(t, rt)

	if r.State() != Errored {
		t.Fatalf("expected errored, got %s", r.State())
	}
	err := r.Error()
	if errors.Code(err) != "E007" {
		t.Errorf("expected E007, got %q", errors.Code(err))
	}
	if !stderrors.Is(err, errors.New("E009")) {
		t.Errorf("panic should surface as E009, got %v", err)
	}
	if _, ok := r.Lookup(); ok {
		t.Error("panicked fetch should leave no value")
	}
}

func TestResourceFailureKeepsPreviousValue(t *testing.T) {
	rt := reactive.NewRuntime()
	f := newFakeFetcher[struct{}, int]()
	r := New(rt, f.plain)

	rt.Tick()
	f.next(t).resolve(7)
	settle(t, rt)

	r.Refetch()
	if r.Error() != nil {
		t.Error("error should be cleared when a new fetch starts")
	}
	f.next(t).reject(stderrors.New("down"))
	settle(t, rt)

	if r.State() != Errored {
		t.Errorf("expected errored, got %s", r.State())
	}
	if v, ok := r.Lookup(); !ok || v != 7 {
		t.Errorf("value should be untouched, got %d (ok=%v)", v, ok)
	}
	if v, ok := r.Latest(); !ok || v != 7 {
		t.Errorf("latest should be untouched, got %d (ok=%v)", v, ok)
	}
}

func TestResourceFollowsSource(t *testing.T) {
	rt := reactive.NewRuntime()
	id := reactive.NewSignal(rt, 1)
	f := newFakeFetcher[int, string]()
	r := NewWithSource(rt, id, f.fetch)

	rt.Tick()
	c1 := f.next(t)
	if c1.arg != 1 {
		t.Errorf("expected fetch with 1, got %d", c1.arg)
	}
	c1.resolve("item1")
	settle(t, rt)
	if r.Get() != "item1" {
		t.Errorf("expected item1, got %q", r.Get())
	}

	id.Set(2)
	if r.State() != Pending {
		t.Errorf("source change should start a fetch, state %s", r.State())
	}
	c2 := f.next(t)
	if c2.arg != 2 {
		t.Errorf("expected fetch with 2, got %d", c2.arg)
	}
	c2.resolve("item2")
	settle(t, rt)
	if r.Get() != "item2" {
		t.Errorf("expected item2, got %q", r.Get())
	}

	// Identical write does not refetch.
	id.Set(2)
	f.expectIdle(t)
}

func TestResourceDropsSupersededFetch(t *testing.T) {
	rt := reactive.NewRuntime()
	id := reactive.NewSignal(rt, 1)
	f := newFakeFetcher[int, string]()
	r := NewWithSource(rt, id, f.fetch)

	rt.Tick()
	f.next(t).resolve("item1")
	settle(t, rt)

	id.Set(2)
	c2 := f.next(t)
	id.Set(3)
	c3 := f.next(t)

	if c2.ctx.Err() == nil {
		t.Error("superseded fetch context should be cancelled")
	}
	if c3.ctx.Err() != nil {
		t.Error("current fetch context should be live")
	}

	c3.resolve("item3")
	settle(t, rt)
	c2.resolve("item2")
	settle(t, rt)

	if r.Get() != "item3" {
		t.Errorf("late result of an older fetch overwrote the value: %q", r.Get())
	}
	if r.State() != Ready {
		t.Errorf("expected ready, got %s", r.State())
	}
}

func TestResourceMutate(t *testing.T) {
	rt := reactive.NewRuntime()
	f := newFakeFetcher[struct{}, string]()
	r := New(rt, f.plain)

	rt.Tick()
	f.next(t).resolve("server")
	settle(t, rt)

	seen := ""
	reactive.CreateEffect(rt, func() {
		seen = r.Get()
	})

	if got := r.Mutate("local"); got != "local" {
		t.Errorf("Mutate returned %q", got)
	}
	if seen != "local" {
		t.Errorf("effect should observe mutation, saw %q", seen)
	}
	if v, _ := r.Latest(); v != "local" {
		t.Errorf("latest should follow mutation, got %q", v)
	}
	if r.State() != Ready {
		t.Errorf("mutate should not change state, got %s", r.State())
	}
	f.expectIdle(t)
}

func TestResourceMutateBeforeFetch(t *testing.T) {
	rt := reactive.NewRuntime()
	f := newFakeFetcher[struct{}, string]()
	r := New(rt, f.plain)

	r.Mutate("optimistic")
	if r.State() != Unresolved {
		t.Errorf("mutate should not change state, got %s", r.State())
	}
	if v, ok := r.Lookup(); !ok || v != "optimistic" {
		t.Errorf("expected optimistic value, got %q (ok=%v)", v, ok)
	}
}

func TestResourceRefetchUsesCurrentSource(t *testing.T) {
	rt := reactive.NewRuntime()
	id := reactive.NewSignal(rt, 5)
	f := newFakeFetcher[int, int]()
	r := NewWithSource(rt, id, f.fetch)

	rt.Tick()
	f.next(t).resolve(50)
	settle(t, rt)

	r.Refetch()
	c := f.next(t)
	if c.arg != 5 {
		t.Errorf("refetch should use current source, got %d", c.arg)
	}
	if !r.Loading() {
		t.Error("refetch should set loading")
	}
	c.resolve(51)
	settle(t, rt)
	if r.Get() != 51 {
		t.Errorf("expected 51, got %d", r.Get())
	}
}

func TestResourceStateIsReactive(t *testing.T) {
	rt := reactive.NewRuntime()
	f := newFakeFetcher[struct{}, string]()
	r := New(rt, f.plain)

	var states []State
	reactive.CreateEffect(rt, func() {
		states = append(states, r.State())
	})

	rt.Tick()
	f.next(t).resolve("x")
	settle(t, rt)

	want := []State{Unresolved, Pending, Ready}
	if len(states) != len(want) {
		t.Fatalf("expected states %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("state %d: expected %s, got %s", i, want[i], states[i])
		}
	}
}

func TestResourceRetry(t *testing.T) {
	rt := reactive.NewRuntime()
	var attempts atomic.Int32
	r := New(rt, func(ctx context.Context) (string, error) {
		if attempts.Add(1) < 3 {
			return "", stderrors.New("flaky")
		}
		return "ok", nil
	}).RetryOnError(2, 0)

	rt.Tick()
	settle(t, rt)

	if r.State() != Ready {
		t.Errorf("expected ready after retries, got %s (%v)", r.State(), r.Error())
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestResourceRetryExhausted(t *testing.T) {
	rt := reactive.NewRuntime()
	var attempts atomic.Int32
	r := New(rt, func(ctx context.Context) (int, error) {
		attempts.Add(1)
		return 0, stderrors.New("down")
	}).RetryOnError(1, time.Millisecond)

	rt.Tick()
	settle(t, rt)

	if r.State() != Errored {
		t.Errorf("expected errored, got %s", r.State())
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestResourceCallbacks(t *testing.T) {
	rt := reactive.NewRuntime()
	f := newFakeFetcher[struct{}, string]()

	var succeeded string
	var failed error
	r := New(rt, f.plain).
		OnSuccess(func(v string) { succeeded = v }).
		OnError(func(err error) { failed = err })

	rt.Tick()
	f.next(t).resolve("yay")
	settle(t, rt)
	if succeeded != "yay" {
		t.Errorf("OnSuccess not called with value, got %q", succeeded)
	}

	r.Refetch()
	f.next(t).reject(stderrors.New("nay"))
	settle(t, rt)
	if failed == nil || errors.Code(failed) != "E007" {
		t.Errorf("OnError should receive E007, got %v", failed)
	}
}

func TestResourceWithContext(t *testing.T) {
	rt := reactive.NewRuntime()
	type key struct{}
	parent := context.WithValue(context.Background(), key{}, "tenant")
	f := newFakeFetcher[struct{}, int]()
	New(rt, f.plain).WithContext(parent)

	rt.Tick()
	c := f.next(t)
	if c.ctx.Value(key{}) != "tenant" {
		t.Error("fetch context should derive from WithContext")
	}
	c.resolve(1)
	settle(t, rt)
}

func TestResourceDisposedBeforeFirstFetch(t *testing.T) {
	rt := reactive.NewRuntime()
	f := newFakeFetcher[struct{}, int]()

	var r *Resource[int]
	reactive.CreateRoot(rt, func(dispose func()) struct{} {
		r = New(rt, f.plain)
		dispose()
		return struct{}{}
	})

	rt.Tick()
	f.expectIdle(t)
	if r.State() != Unresolved {
		t.Errorf("expected unresolved, got %s", r.State())
	}
}

func TestResourceStopsFollowingSourceAfterDispose(t *testing.T) {
	rt := reactive.NewRuntime()
	id := reactive.NewSignal(rt, 1)
	f := newFakeFetcher[int, int]()

	var dispose func()
	var r *Resource[int]
	reactive.CreateRoot(rt, func(d func()) struct{} {
		dispose = d
		r = NewWithSource(rt, id, f.fetch)
		return struct{}{}
	})

	rt.Tick()
	c := f.next(t)
	if r.Driver().Scope().Disposed() {
		t.Fatal("driver should be owned by the live root")
	}

	dispose()
	// The in-flight fetch still settles.
	c.resolve(10)
	settle(t, rt)
	if r.Get() != 10 {
		t.Errorf("in-flight fetch should still settle, got %d", r.Get())
	}

	id.Set(2)
	f.expectIdle(t)
}

type fetchObserver struct {
	reactive.NopObserver
	mu       sync.Mutex
	outcomes []string
}

func (o *fetchObserver) ResourceFetch(outcome string, _ time.Duration) {
	o.mu.Lock()
	o.outcomes = append(o.outcomes, outcome)
	o.mu.Unlock()
}

func TestResourceReportsOutcomes(t *testing.T) {
	obs := &fetchObserver{}
	rt := reactive.NewRuntime(reactive.WithObserver(obs))
	id := reactive.NewSignal(rt, 1)
	f := newFakeFetcher[int, int]()
	NewWithSource(rt, id, f.fetch)

	rt.Tick()
	c1 := f.next(t)
	id.Set(2)
	c2 := f.next(t)
	c2.reject(stderrors.New("x"))
	settle(t, rt)
	c1.resolve(1)
	settle(t, rt)

	want := []string{"errored", "superseded"}
	if len(obs.outcomes) != len(want) {
		t.Fatalf("expected %v, got %v", want, obs.outcomes)
	}
	for i := range want {
		if obs.outcomes[i] != want[i] {
			t.Errorf("outcome %d: expected %q, got %q", i, want[i], obs.outcomes[i])
		}
	}
}

type recordingTracer struct {
	trace.Tracer
	mu    sync.Mutex
	spans []string
}

func (tr *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	tr.mu.Lock()
	tr.spans = append(tr.spans, name)
	tr.mu.Unlock()
	return tr.Tracer.Start(ctx, name, opts...)
}

func TestResourceTracesFetches(t *testing.T) {
	rt := reactive.NewRuntime()
	tr := &recordingTracer{Tracer: noop.NewTracerProvider().Tracer("test")}
	f := newFakeFetcher[struct{}, int]()
	r := New(rt, f.plain).WithTracer(tr)

	rt.Tick()
	f.next(t).resolve(1)
	settle(t, rt)
	r.Refetch()
	f.next(t).resolve(2)
	settle(t, rt)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.spans) != 2 || tr.spans[0] != "resource.fetch" {
		t.Errorf("expected two resource.fetch spans, got %v", tr.spans)
	}
}
