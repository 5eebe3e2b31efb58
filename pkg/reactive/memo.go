package reactive

// Memo is a read-only derived value. An internal effect recomputes it
// whenever something the computation read changes and stores the result in
// an output signal, so a recomputation yielding an identical value does not
// notify anyone downstream.
type Memo[T any] struct {
	out    *Signal[T]
	effect *Effect
}

// CreateMemo derives a value from fn, which receives the previous result
// (initial on the first run). The computation runs immediately.
func CreateMemo[T any](rt *Runtime, fn func(prev T) T, initial T, opts ...SignalOption[T]) *Memo[T] {
	m := &Memo[T]{out: NewSignal(rt, initial, opts...)}
	m.effect = CreateEffectWith(rt, func(prev T) T {
		next := fn(prev)
		m.out.Set(next)
		return next
	}, initial)
	return m
}

// NewMemo derives a value from fn.
//
//	product := NewMemo(rt, func() int { return a.Get() * b.Get() })
func NewMemo[T any](rt *Runtime, fn func() T, opts ...SignalOption[T]) *Memo[T] {
	var zero T
	return CreateMemo(rt, func(T) T { return fn() }, zero, opts...)
}

// Get returns the derived value and subscribes the running effect.
func (m *Memo[T]) Get() T {
	return m.out.Get()
}

// Peek returns the derived value without subscribing.
func (m *Memo[T]) Peek() T {
	return m.out.Peek()
}

// Accessor returns Get as a plain function.
func (m *Memo[T]) Accessor() Accessor[T] {
	return m.out.Get
}

// ID returns the unique identifier of the memo's output cell.
func (m *Memo[T]) ID() uint64 {
	return m.out.ID()
}

// Effect returns the effect that keeps the memo up to date.
func (m *Memo[T]) Effect() *Effect {
	return m.effect
}

var (
	_ Reader[int] = (*Signal[int])(nil)
	_ Reader[int] = (*Memo[int])(nil)
)
