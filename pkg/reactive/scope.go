package reactive

import (
	"sync"
	"sync/atomic"
)

// Scope is a disposable lifetime boundary. Effects created while a scope is
// active belong to it and stop being notified when it is disposed.
type Scope struct {
	id uint64
	rt *Runtime

	cleanups   []func()
	cleanupsMu sync.Mutex

	disposed atomic.Bool
}

func newScope(rt *Runtime) *Scope {
	s := &Scope{id: nextID(), rt: rt}
	rt.reg.addScope(s)
	return s
}

// NewScope creates a detached scope. Most callers want CreateRoot.
func (rt *Runtime) NewScope() *Scope {
	return newScope(rt)
}

// ID returns the unique identifier for this scope.
func (s *Scope) ID() uint64 {
	return s.id
}

// Disposed reports whether the scope has been disposed.
func (s *Scope) Disposed() bool {
	return s.disposed.Load()
}

// OnCleanup registers fn to run when the scope is disposed.
// If the scope is already disposed, fn runs immediately.
func (s *Scope) OnCleanup(fn func()) {
	if s.disposed.Load() {
		fn()
		return
	}
	s.cleanupsMu.Lock()
	defer s.cleanupsMu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

// Dispose unsubscribes every effect created under the scope from every
// signal, then runs cleanups in reverse registration order.
// Disposing twice is a no-op.
func (s *Scope) Dispose() {
	if s.disposed.Swap(true) {
		return
	}

	effects := s.rt.reg.dropScope(s)
	for _, e := range effects {
		e.disposed = true
	}

	s.cleanupsMu.Lock()
	cleanups := s.cleanups
	s.cleanups = nil
	s.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	s.rt.observer.ScopeDisposed(len(effects))
}

// Run runs fn with s as the active scope, restoring the previous scope
// afterwards even if fn panics.
func (rt *Runtime) Run(s *Scope, fn func()) {
	f := rt.current
	f.scope = s
	defer rt.enter(f)()
	fn()
}

// CreateRoot runs fn under a fresh scope and passes it the scope's dispose
// function. The previous scope is restored when fn returns.
//
//	dispose := CreateRoot(rt, func(dispose func()) func() {
//	    CreateEffect(rt, func() { render(count.Get()) })
//	    return dispose
//	})
func CreateRoot[T any](rt *Runtime, fn func(dispose func()) T) T {
	s := newScope(rt)
	var result T
	rt.Run(s, func() {
		result = fn(s.Dispose)
	})
	return result
}

// OnCleanup registers fn on the active scope.
func OnCleanup(rt *Runtime, fn func()) {
	rt.current.scope.OnCleanup(fn)
}

// Untrack runs fn with dependency registration disabled and returns its
// result. Reads inside fn never subscribe the running effect. The previous
// tracking state is restored however fn exits.
func Untrack[T any](rt *Runtime, fn func() T) T {
	f := rt.current
	f.tracking = false
	defer rt.enter(f)()
	return fn()
}

// Untracked is Untrack for functions without a result.
func (rt *Runtime) Untracked(fn func()) {
	Untrack(rt, func() struct{} {
		fn()
		return struct{}{}
	})
}
