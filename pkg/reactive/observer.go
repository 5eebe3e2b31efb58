package reactive

import "time"

// Observer receives notifications about runtime activity.
// Implementations must be cheap; they are called on the hot path.
type Observer interface {
	// EffectRun is called every time an effect body executes.
	EffectRun()

	// SignalWrite is called for every write; changed is false when
	// the write was dropped by change detection.
	SignalWrite(changed bool)

	// CascadeAborted is called when an effect run is skipped because the
	// cascade depth limit was reached.
	CascadeAborted()

	// ScopeDisposed is called when a scope is disposed with the number of
	// effects it owned.
	ScopeDisposed(effects int)

	// ResourceFetch is called when a resource fetch settles. Outcome is
	// "ready", "errored", or "superseded".
	ResourceFetch(outcome string, d time.Duration)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) EffectRun()                          {}
func (NopObserver) SignalWrite(bool)                    {}
func (NopObserver) CascadeAborted()                     {}
func (NopObserver) ScopeDisposed(int)                   {}
func (NopObserver) ResourceFetch(string, time.Duration) {}

var _ Observer = NopObserver{}
