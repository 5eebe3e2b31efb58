// Package live serves reactive stores over HTTP and WebSocket.
//
// Each published store is reachable under /stores/{name}:
//
//	GET  /stores              names of published stores
//	GET  /stores/{name}       JSON snapshot
//	POST /stores/{name}       replace the value (writable stores only)
//	GET  /stores/{name}/ws    WebSocket stream of snapshot frames
//
// A WebSocket subscriber receives the current snapshot on connect and a new
// frame after every change of the store. Slow subscribers skip intermediate
// frames and always see the latest value.
//
// Every read, write, and subscription runs on the runtime's goroutine via
// Runtime.Call, so the runtime loop must be running (Runtime.Serve).
//
//	srv := live.New(rt, nil)
//	live.Publish(srv, "count", bind.External[int](rt, count))
//	go rt.Serve(ctx)
//	http.ListenAndServe(":8080", srv.Handler())
package live
