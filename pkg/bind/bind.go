// Package bind adapts reactive values to the subscribe/snapshot protocol used
// by view layers that render from external stores.
//
// A Store is read with Snapshot and observed with Subscribe. Subscribe runs
// onChange once immediately and again after every change of the underlying
// value, until the returned function is called.
package bind

import (
	"github.com/msig-dev/msig/pkg/reactive"
)

// Store is an external store a view can render from.
type Store[T any] interface {
	Subscribe(onChange func()) (unsubscribe func())
	Snapshot() T
}

// External exposes src as a Store.
func External[T any](rt *reactive.Runtime, src reactive.Reader[T]) Store[T] {
	return &external[T]{rt: rt, src: src}
}

type external[T any] struct {
	rt  *reactive.Runtime
	src reactive.Reader[T]
}

func (s *external[T]) Subscribe(onChange func()) func() {
	return reactive.CreateRoot(s.rt, func(dispose func()) func() {
		reactive.CreateEffect(s.rt, func() {
			s.src.Get()
			s.rt.Untracked(onChange)
		})
		return dispose
	})
}

func (s *external[T]) Snapshot() T {
	return s.src.Get()
}

// Select exposes a slice of src as a Store. onChange only fires when the
// selected value changes according to equal. A nil equal means identity.
func Select[T, U any](rt *reactive.Runtime, src reactive.Reader[T], selector func(T) U, equal func(a, b U) bool) Store[U] {
	return &selected[T, U]{rt: rt, src: src, selector: selector, equal: equal}
}

type selected[T, U any] struct {
	rt       *reactive.Runtime
	src      reactive.Reader[T]
	selector func(T) U
	equal    func(a, b U) bool
}

func (s *selected[T, U]) Subscribe(onChange func()) func() {
	return reactive.CreateRoot(s.rt, func(dispose func()) func() {
		var opts []reactive.SignalOption[U]
		if s.equal != nil {
			opts = append(opts, reactive.WithEquals(s.equal))
		}
		slice := reactive.NewMemo(s.rt, func() U {
			return s.selector(s.src.Get())
		}, opts...)
		reactive.CreateEffect(s.rt, func() {
			slice.Get()
			s.rt.Untracked(onChange)
		})
		return dispose
	})
}

func (s *selected[T, U]) Snapshot() U {
	return s.selector(s.src.Get())
}
