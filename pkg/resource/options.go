package resource

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Named sets the name used in errors, logs, and trace attributes.
func (r *Resource[T]) Named(name string) *Resource[T] {
	r.mu.Lock()
	r.name = name
	r.mu.Unlock()
	return r
}

// WithContext sets the parent context of every fetch.
func (r *Resource[T]) WithContext(ctx context.Context) *Resource[T] {
	r.mu.Lock()
	r.baseCtx = ctx
	r.mu.Unlock()
	return r
}

// RetryOnError sets the number of retries and delay between them.
func (r *Resource[T]) RetryOnError(count int, delay time.Duration) *Resource[T] {
	r.mu.Lock()
	r.retryCount = count
	r.retryDelay = delay
	r.mu.Unlock()
	return r
}

// WithTracer sets the tracer used for fetch spans.
// Default: the global OpenTelemetry tracer provider.
func (r *Resource[T]) WithTracer(t trace.Tracer) *Resource[T] {
	r.mu.Lock()
	r.tracer = t
	r.mu.Unlock()
	return r
}

// OnSuccess registers a callback run on the runtime's goroutine when a
// fetch succeeds.
func (r *Resource[T]) OnSuccess(fn func(T)) *Resource[T] {
	r.mu.Lock()
	r.onSuccess = fn
	r.mu.Unlock()
	return r
}

// OnError registers a callback run on the runtime's goroutine when a fetch
// fails.
func (r *Resource[T]) OnError(fn func(error)) *Resource[T] {
	r.mu.Lock()
	r.onError = fn
	r.mu.Unlock()
	return r
}
