// Package mutation runs writes against the backend and exposes their
// transient state. Nothing here is cached or retried.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/intakehq/intake/internal/log"
	"github.com/intakehq/intake/internal/query"
	"github.com/intakehq/intake/internal/tracing"
)

// ErrClosed is returned by Mutate after Close.
var ErrClosed = errors.New("mutation executor closed")

// WriteFunc performs one write.
type WriteFunc[P, R any] func(ctx context.Context, params P) (R, error)

// Handlers are completion callbacks. Either may be nil.
type Handlers[P, R any] struct {
	// OnSuccess runs once per successful write, after it settles.
	OnSuccess func(result R, params P)

	// OnError runs once per failed write. It is diagnostic only.
	OnError func(err error, params P)
}

// State is the observable state of the most recent invocation.
type State[P, R any] struct {
	Status    query.Status
	IsLoading bool
	Err       error
	Params    P
	Result    R
}

// Error is a failed write.
type Error struct {
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Executor triggers writes and tracks the latest one.
type Executor[P, R any] struct {
	name     string
	write    WriteFunc[P, R]
	handlers Handlers[P, R]

	mu      sync.Mutex
	state   State[P, R]
	current uint64
	closed  bool
}

// New returns an idle executor. name labels logs and spans.
func New[P, R any](name string, write WriteFunc[P, R], handlers Handlers[P, R]) *Executor[P, R] {
	return &Executor[P, R]{
		name:     name,
		write:    write,
		handlers: handlers,
	}
}

// Mutate performs the write once and waits for it. Calling it twice writes
// twice; callers that must not resubmit check IsLoading first.
//
// The write runs on a context that ignores ctx's cancellation. A newer
// invocation takes over the observable state, but the older one still runs
// its handlers when it settles. After Close nothing is updated and no
// handler runs.
func (e *Executor[P, R]) Mutate(ctx context.Context, params P) (R, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		var zero R
		return zero, ErrClosed
	}
	e.current++
	id := e.current
	e.state = State[P, R]{Status: query.StatusLoading, IsLoading: true, Params: params}
	e.mu.Unlock()

	log.Debug(log.CatMutation, "write started", "name", e.name, "invocation", id)

	wctx, span := tracing.Start(context.WithoutCancel(ctx), tracing.SpanMutationExecute,
		attribute.String(tracing.AttrMutationName, e.name),
		attribute.Int64(tracing.AttrMutationID, int64(id)),
	)
	result, err := e.write(wctx, params)
	tracing.End(span, err)

	e.mu.Lock()
	closed := e.closed
	if !closed && id == e.current {
		if err != nil {
			e.state = State[P, R]{Status: query.StatusError, Err: err, Params: params}
		} else {
			e.state = State[P, R]{Status: query.StatusSuccess, Params: params, Result: result}
		}
	}
	e.mu.Unlock()

	if err != nil {
		log.ErrorErr(log.CatMutation, "write failed", err, "name", e.name, "invocation", id)
		if !closed && e.handlers.OnError != nil {
			e.handlers.OnError(err, params)
		}
		return result, &Error{Name: e.name, Err: err}
	}

	log.Debug(log.CatMutation, "write succeeded", "name", e.name, "invocation", id)
	if !closed && e.handlers.OnSuccess != nil {
		e.handlers.OnSuccess(result, params)
	}
	return result, nil
}

// State returns a snapshot of the latest invocation.
func (e *Executor[P, R]) State() State[P, R] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsLoading reports whether the latest invocation is in flight.
func (e *Executor[P, R]) IsLoading() bool {
	return e.State().IsLoading
}

// Reset returns to idle. An invocation still in flight no longer updates state.
func (e *Executor[P, R]) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current++
	e.state = State[P, R]{}
}

// Close detaches the executor from its owner.
func (e *Executor[P, R]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}
