package reactive

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/msig-dev/msig/internal/errors"
)

// Accessor is the read half of a signal as a plain function.
type Accessor[T any] func() T

// Reader is anything that can be read reactively: Signal, Memo, and
// resource.Resource all implement it.
type Reader[T any] interface {
	// Get returns the value and subscribes the running effect.
	Get() T
	// Peek returns the value without subscribing.
	Peek() T
}

// Signal is a reactive value container.
// Reading it with Get while an effect runs subscribes that effect; writing a
// value that is not identical to the current one re-runs every subscriber
// before the write returns.
type Signal[T any] struct {
	rt   *Runtime
	cell *cell

	value T
	mu    sync.RWMutex

	// equal overrides identity-based change detection.
	equal func(T, T) bool
}

// SignalOption configures a Signal.
type SignalOption[T any] func(*Signal[T])

// WithEquals replaces identity-based change detection with fn.
func WithEquals[T any](fn func(T, T) bool) SignalOption[T] {
	return func(s *Signal[T]) {
		s.equal = fn
	}
}

// NewSignal creates a signal in rt holding initial.
func NewSignal[T any](rt *Runtime, initial T, opts ...SignalOption[T]) *Signal[T] {
	s := &Signal[T]{
		rt:    rt,
		cell:  newCell(),
		value: initial,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSignal returns the read and write halves of a new signal as plain
// functions, for code that prefers the accessor/setter style.
func CreateSignal[T any](rt *Runtime, initial T, opts ...SignalOption[T]) (Accessor[T], func(T) T) {
	s := NewSignal(rt, initial, opts...)
	return s.Get, s.Set
}

// Get returns the current value and subscribes the running effect, if any.
// Reads outside an effect or inside Untrack never subscribe.
func (s *Signal[T]) Get() T {
	s.rt.track(s.cell)
	return s.Peek()
}

// Peek returns the current value without subscribing.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Accessor returns Get as a plain function.
func (s *Signal[T]) Accessor() Accessor[T] {
	return s.Get
}

// Set stores v and notifies subscribers, unless v is identical to the current
// value. It returns the value actually stored.
func (s *Signal[T]) Set(v T) T {
	return s.write(func(T) T { return v })
}

// Update computes the next value from the current one with fn, then behaves
// like Set.
func (s *Signal[T]) Update(fn func(prev T) T) T {
	return s.write(fn)
}

// Apply performs either kind of write described by w.
func (s *Signal[T]) Apply(w Write[T]) T {
	if w.update != nil {
		return s.write(w.update)
	}
	return s.Set(w.value)
}

func (s *Signal[T]) write(next func(T) T) T {
	prev := s.Peek()
	v := next(prev)
	if s.equals(prev, v) {
		s.rt.observer.SignalWrite(false)
		return prev
	}

	s.mu.Lock()
	s.value = v
	s.mu.Unlock()

	s.rt.observer.SignalWrite(true)
	if s.rt.Disposed() {
		s.rt.report(errors.New("E001").
			WithDetail(fmt.Sprintf("write to signal %d after runtime dispose", s.cell.id)))
		return v
	}
	s.rt.trigger(s.cell)
	return v
}

// ID returns the unique identifier of the signal's cell.
func (s *Signal[T]) ID() uint64 {
	return s.cell.id
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return Identical(a, b)
}

// Write is a tagged signal write: either a literal value or an updater.
// Build one with Value or Updater.
type Write[T any] struct {
	value  T
	update func(T) T
}

// Value describes a literal write, even when T is itself a function type.
func Value[T any](v T) Write[T] {
	return Write[T]{value: v}
}

// Updater describes a write computed from the previous value.
// It panics if fn is nil.
func Updater[T any](fn func(prev T) T) Write[T] {
	if fn == nil {
		panic("reactive: Updater called with nil function")
	}
	return Write[T]{update: fn}
}

// Identical reports whether a and b are the same value by identity:
//   - comparable values (numbers, strings, arrays and structs of those) by ==
//   - pointers, maps, and channels by address
//   - slices when they share the backing array and length
//   - interfaces by their dynamic values, under the same rules
//
// Functions and non-comparable structs are never identical, except two nil
// functions. NaN is never identical to itself.
func Identical[T any](a, b T) bool {
	return IdenticalValues(reflect.ValueOf(&a).Elem(), reflect.ValueOf(&b).Elem())
}

// IdenticalValues is Identical for reflected values of the same type.
func IdenticalValues(va, vb reflect.Value) bool {
	if va.Kind() == reflect.Interface {
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		va, vb = va.Elem(), vb.Elem()
		if va.Type() != vb.Type() {
			return false
		}
	}

	switch va.Kind() {
	case reflect.Slice:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Func:
		return va.IsNil() && vb.IsNil()
	}

	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}
