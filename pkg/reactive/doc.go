// Package reactive provides msig's fine-grained reactive core.
//
// Dependencies are discovered at runtime: reading a signal while an effect
// runs subscribes that effect to the signal, and writing a different value
// re-runs every subscribed effect synchronously before the write returns.
//
// # Core Types
//
// A Runtime owns one reactive graph. Default returns a process-wide one;
// independent graphs can be created with NewRuntime.
//
// Signal[T] is a reactive value container:
//
//	rt := reactive.Default()
//	count := reactive.NewSignal(rt, 0)
//	value := count.Get()                          // read (subscribes the running effect)
//	count.Set(5)                                  // literal write
//	count.Update(func(n int) int { return n + 1 }) // updater write
//
// Effects re-run when anything they read changes:
//
//	reactive.CreateEffect(rt, func() {
//	    fmt.Println("count is", count.Get())
//	})
//
// Memo[T] is a read-only derived value kept up to date by an internal effect:
//
//	doubled := reactive.NewMemo(rt, func() int { return count.Get() * 2 })
//
// # Scopes
//
// Effects belong to the scope that was active when they were created.
// CreateRoot opens a fresh scope and hands out its dispose function:
//
//	dispose := reactive.CreateRoot(rt, func(dispose func()) func() {
//	    reactive.CreateEffect(rt, func() { log.Println(count.Get()) })
//	    return dispose
//	})
//	dispose() // the effect above never runs again
//
// # Threading
//
// A Runtime is single-threaded: signal writes and effect runs are plain
// synchronous calls. Work arriving from other goroutines enters the graph
// through the runtime's TaskQueue with Dispatch or Call, and is executed by
// whoever drives the queue (Tick, Serve).
package reactive
