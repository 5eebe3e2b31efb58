// Package errors provides structured, coded errors for msig.
//
// Every error raised by the runtime, resources, the live server, or the CLI
// carries a stable code (e.g. "E006") that maps to a short message, a longer
// explanation, and a documentation link.
//
// # Categories
//
//   - runtime: reactive graph failures (cascade depth, disposed scopes)
//   - resource: asynchronous fetch failures
//   - transport: live snapshot server errors
//   - config: msig.json loading and validation
//
// # Usage
//
//	err := errors.New("E007").
//	    WithDetail("GET /users/42 returned 503").
//	    Wrap(cause)
//
//	fmt.Println(err.Format())
//	// ERROR E007: Resource fetch failed
//	//
//	//   GET /users/42 returned 503
//	//
//	//   Learn more: https://msig.dev/docs/errors/E007
package errors
