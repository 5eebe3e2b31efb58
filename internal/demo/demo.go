// Package demo wires the sample stores served by `msig serve` and walked
// through by `msig demo`.
package demo

import (
	"strings"

	"github.com/msig-dev/msig/pkg/bind"
	"github.com/msig-dev/msig/pkg/live"
	"github.com/msig-dev/msig/pkg/reactive"
	"github.com/msig-dev/msig/pkg/resource"
	"github.com/msig-dev/msig/pkg/resource/s3source"
)

// Stores holds the demo graph.
type Stores struct {
	rt *reactive.Runtime

	Count   *reactive.Signal[int]
	Doubled *reactive.Memo[int]
	Input   *reactive.Signal[string]
	Shout   *reactive.Memo[string]
	Clock   *reactive.Signal[int]
}

// New creates the demo stores on rt. Call it on the runtime's goroutine.
func New(rt *reactive.Runtime) *Stores {
	s := &Stores{
		rt:    rt,
		Count: reactive.NewSignal(rt, 0),
		Input: reactive.NewSignal(rt, ""),
		Clock: reactive.NewSignal(rt, 0),
	}
	s.Doubled = reactive.NewMemo(rt, func() int {
		return s.Count.Get() * 2
	})
	s.Shout = reactive.NewMemo(rt, func() string {
		return strings.ToUpper(s.Input.Get())
	})
	return s
}

// Increment adds one to the counter.
func (s *Stores) Increment() int {
	return s.Count.Update(func(v int) int { return v + 1 })
}

// Decrement subtracts one from the counter.
func (s *Stores) Decrement() int {
	return s.Count.Update(func(v int) int { return v - 1 })
}

// Tick advances the clock.
func (s *Stores) Tick() int {
	return s.Clock.Update(func(v int) int { return v + 1 })
}

// Publish exposes the stores on srv.
func (s *Stores) Publish(srv *live.Server) {
	live.PublishWritable(srv, "count", bind.External[int](s.rt, s.Count), func(v int) {
		s.Count.Set(v)
	})
	live.Publish(srv, "doubled", bind.External[int](s.rt, s.Doubled))
	live.PublishWritable(srv, "input", bind.External[string](s.rt, s.Input), func(v string) {
		s.Input.Set(v)
	})
	live.Publish(srv, "shout", bind.External[string](s.rt, s.Shout))
	live.Publish(srv, "clock", bind.External[int](s.rt, s.Clock))
}

// ObjectStatus is the published view of an S3-backed resource.
type ObjectStatus struct {
	Key   string `json:"key"`
	State string `json:"state"`
	Size  int    `json:"size"`
	Error string `json:"error,omitempty"`
}

// PublishObject exposes an S3 object as the "object" store, keyed by the
// writable "object-key" store. Call it on the runtime's goroutine.
func PublishObject(rt *reactive.Runtime, srv *live.Server, client s3source.ObjectGetter, bucket, key string) *resource.Resource[[]byte] {
	keySig := reactive.NewSignal(rt, key)
	obj := s3source.NewObject(rt, client, bucket, keySig)

	status := reactive.NewMemo(rt, func() ObjectStatus {
		st := ObjectStatus{Key: keySig.Get(), State: obj.State().String()}
		if data, ok := obj.Latest(); ok {
			st.Size = len(data)
		}
		if err := obj.Error(); err != nil {
			st.Error = err.Error()
		}
		return st
	})

	live.PublishWritable(srv, "object-key", bind.External[string](rt, keySig), func(v string) {
		keySig.Set(v)
	})
	live.Publish(srv, "object", bind.External[ObjectStatus](rt, status))
	return obj
}
