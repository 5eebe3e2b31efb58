package reactive

import (
	"fmt"

	"github.com/msig-dev/msig/internal/errors"
)

// Effect is a computation that re-runs whenever a signal it read during its
// latest run changes. Only reads from the latest run stay subscribed.
type Effect struct {
	id    uint64
	rt    *Runtime
	scope *Scope

	// body runs the user function and threads the accumulator.
	body func()

	// disposed is set when the owning scope is disposed. Only touched on the
	// runtime's goroutine.
	disposed bool
	runs     int
}

// CreateEffect runs fn now and again whenever a signal it read changes.
// The effect belongs to the active scope.
//
//	CreateEffect(rt, func() {
//	    fmt.Println("count is", count.Get())
//	})
func CreateEffect(rt *Runtime, fn func()) *Effect {
	return newEffect(rt, fn)
}

// CreateEffectWith is CreateEffect with an accumulator: fn receives the value
// it returned on its previous run, starting with initial.
//
//	CreateEffectWith(rt, func(sum int) int {
//	    total := sum + delta.Get()
//	    fmt.Println("running total", total)
//	    return total
//	}, 0)
func CreateEffectWith[T any](rt *Runtime, fn func(prev T) T, initial T) *Effect {
	acc := initial
	return newEffect(rt, func() {
		acc = fn(acc)
	})
}

func newEffect(rt *Runtime, body func()) *Effect {
	scope := rt.current.scope
	e := &Effect{
		id:    nextID(),
		rt:    rt,
		scope: scope,
		body:  body,
	}
	rt.reg.own(scope, e)

	e.run()

	if scope.Disposed() {
		// The scope went away before (or while) the effect first ran.
		rt.reg.release(e)
		e.disposed = true
		rt.logger.Debug("effect created under disposed scope",
			"effect", e.id, "scope", scope.id, "code", "E005")
	}
	return e
}

// run executes the effect body with fresh dependency tracking.
func (e *Effect) run() {
	if e.disposed {
		return
	}
	rt := e.rt
	if rt.depth >= rt.maxDepth {
		rt.observer.CascadeAborted()
		rt.report(errors.New("E006").
			WithDetail(fmt.Sprintf("effect %d skipped at depth %d", e.id, rt.depth)).
			WithSuggestion("Check for effects that write to signals they (or their writers) read").
			Wrap(ErrCascadeDepth))
		return
	}

	rt.depth++
	defer func() { rt.depth-- }()

	rt.reg.unlinkAll(e)
	defer rt.enter(frame{effect: e, scope: e.scope, tracking: true})()

	e.runs++
	rt.observer.EffectRun()
	e.body()
}

// ID returns the unique identifier for this effect.
func (e *Effect) ID() uint64 {
	return e.id
}

// Scope returns the scope the effect belongs to.
func (e *Effect) Scope() *Scope {
	return e.scope
}

// Runs returns how many times the effect body has executed.
func (e *Effect) Runs() int {
	return e.runs
}

// Disposed reports whether the effect will never run again.
func (e *Effect) Disposed() bool {
	return e.disposed
}

// Dispose unsubscribes this single effect and removes it from its scope.
func (e *Effect) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.rt.reg.release(e)
}

// OnMount runs fn once, untracked, under the active scope.
func OnMount(rt *Runtime, fn func()) {
	CreateEffect(rt, func() {
		rt.Untracked(fn)
	})
}

// OnUpdate calls deps on every run to establish dependencies, and callback
// on every run except the first.
//
//	OnUpdate(rt,
//	    func() { _ = count.Get() },
//	    func() { fmt.Println("count changed") },
//	)
func OnUpdate(rt *Runtime, deps func(), callback func()) {
	first := true
	CreateEffect(rt, func() {
		deps()
		if first {
			first = false
			return
		}
		rt.Untracked(callback)
	})
}
