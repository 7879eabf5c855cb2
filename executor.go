package crumbz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"
)

// Executor runs submitted tasks on goroutines it manages.
//
// Execute is the only submission entry point; the generic helpers Submit,
// SubmitResult, SubmitCallable, InvokeAll and InvokeAny are built on it, so
// decorating Execute decorates every way of submitting work.
type Executor interface {
	// Execute schedules task. It returns ErrRejected after Shutdown, or
	// ctx's error if ctx ends while waiting for queue space.
	Execute(ctx context.Context, task Task) error

	// Shutdown stops accepting tasks; queued tasks still run.
	Shutdown()

	// ShutdownNow stops accepting tasks and returns the queued ones that
	// will never run.
	ShutdownNow() []Task

	IsShutdown() bool

	// IsTerminated reports whether all tasks finished after a shutdown.
	IsTerminated() bool

	// AwaitTermination blocks until termination or timeout, reporting
	// whether the executor terminated.
	AwaitTermination(timeout time.Duration) bool
}

// clocked executors provide the clock used for timed helpers.
type clocked interface {
	Clock() clockz.Clock
}

// identified executors provide submission ids.
type identified interface {
	NewID() uuid.UUID
}

func clockOf(ex Executor) clockz.Clock {
	if c, ok := ex.(clocked); ok {
		return c.Clock()
	}
	return clockz.RealClock
}

func idOf(ex Executor) uuid.UUID {
	if i, ok := ex.(identified); ok {
		return i.NewID()
	}
	return uuid.New()
}

// ContextExecutor decorates an Executor so every task runs under the
// breadcrumbs of the goroutine that submitted it. Lifecycle methods are
// passed through unchanged.
type ContextExecutor struct {
	delegate Executor
}

// Decorate wraps ex.
func Decorate(ex Executor) *ContextExecutor {
	return &ContextExecutor{delegate: ex}
}

// Execute wraps task with the breadcrumbs bound to ctx and delegates.
func (c *ContextExecutor) Execute(ctx context.Context, task Task) error {
	return c.delegate.Execute(ctx, WrapTask(ctx, task))
}

func (c *ContextExecutor) Shutdown()           { c.delegate.Shutdown() }
func (c *ContextExecutor) ShutdownNow() []Task { return c.delegate.ShutdownNow() }
func (c *ContextExecutor) IsShutdown() bool    { return c.delegate.IsShutdown() }
func (c *ContextExecutor) IsTerminated() bool  { return c.delegate.IsTerminated() }

func (c *ContextExecutor) AwaitTermination(timeout time.Duration) bool {
	return c.delegate.AwaitTermination(timeout)
}

// Clock returns the delegate's clock.
func (c *ContextExecutor) Clock() clockz.Clock { return clockOf(c.delegate) }

// NewID returns the delegate's next submission id.
func (c *ContextExecutor) NewID() uuid.UUID { return idOf(c.delegate) }

// Unwrap returns the decorated executor.
func (c *ContextExecutor) Unwrap() Executor { return c.delegate }

// Submit schedules task and returns a Future that completes when it returns.
func Submit(ctx context.Context, ex Executor, task Task) (*Future[struct{}], error) {
	return SubmitResult(ctx, ex, task, struct{}{})
}

// SubmitResult schedules task and returns a Future yielding result once
// task returns.
func SubmitResult[T any](ctx context.Context, ex Executor, task Task, result T) (*Future[T], error) {
	return SubmitCallable(ctx, ex, func(wctx context.Context) (T, error) {
		task(wctx)
		return result, nil
	})
}

// SubmitCallable schedules c and returns its Future.
func SubmitCallable[T any](ctx context.Context, ex Executor, c Callable[T]) (*Future[T], error) {
	f := newFuture[T](idOf(ex))
	if err := ex.Execute(ctx, func(wctx context.Context) { f.run(wctx, c) }); err != nil {
		return nil, err
	}
	return f, nil
}

// InvokeAll submits every task and waits for all of them.
// If ctx ends first, unstarted tasks are cancelled and ctx's error returned.
func InvokeAll[T any](ctx context.Context, ex Executor, tasks []Callable[T]) ([]*Future[T], error) {
	futures, err := submitAll(ctx, ex, tasks)
	if err != nil {
		return nil, err
	}
	for _, f := range futures {
		select {
		case <-f.Done():
		case <-ctx.Done():
			cancelAll(futures)
			return futures, ctx.Err()
		}
	}
	return futures, nil
}

// InvokeAllTimeout is InvokeAll bounded by timeout on the executor's clock.
// Tasks that have not started when the timeout fires are cancelled; the
// futures are returned either way.
func InvokeAllTimeout[T any](ctx context.Context, ex Executor, tasks []Callable[T], timeout time.Duration) ([]*Future[T], error) {
	futures, err := submitAll(ctx, ex, tasks)
	if err != nil {
		return nil, err
	}
	deadline := clockOf(ex).After(timeout)
	for _, f := range futures {
		select {
		case <-f.Done():
		case <-deadline:
			cancelAll(futures)
			return futures, nil
		case <-ctx.Done():
			cancelAll(futures)
			return futures, ctx.Err()
		}
	}
	return futures, nil
}

// InvokeAny submits every task and returns the first successful result.
// Remaining unstarted tasks are cancelled. If all fail, the last failure
// is returned.
func InvokeAny[T any](ctx context.Context, ex Executor, tasks []Callable[T]) (T, error) {
	return invokeAny(ctx, ex, tasks, nil)
}

// InvokeAnyTimeout is InvokeAny bounded by timeout on the executor's clock.
// It returns an error wrapping ErrTimeout when no task succeeds in time.
func InvokeAnyTimeout[T any](ctx context.Context, ex Executor, tasks []Callable[T], timeout time.Duration) (T, error) {
	return invokeAny(ctx, ex, tasks, clockOf(ex).After(timeout))
}

type outcome[T any] struct {
	value T
	err   error
}

func invokeAny[T any](ctx context.Context, ex Executor, tasks []Callable[T], deadline <-chan time.Time) (T, error) {
	var zero T
	if len(tasks) == 0 {
		return zero, fmt.Errorf("%w: no tasks", ErrInvalidArgument)
	}

	results := make(chan outcome[T], len(tasks))
	reporting := make([]Callable[T], len(tasks))
	for i, c := range tasks {
		reporting[i] = func(wctx context.Context) (v T, err error) {
			defer func() {
				if r := recover(); r != nil {
					v, err = zero, newPanicError(r)
				}
				results <- outcome[T]{value: v, err: err}
			}()
			return c(wctx)
		}
	}

	futures, err := submitAll(ctx, ex, reporting)
	if err != nil {
		return zero, err
	}
	defer cancelAll(futures)

	var last error
	for range futures {
		select {
		case o := <-results:
			if o.err == nil {
				return o.value, nil
			}
			last = o.err
		case <-deadline:
			return zero, fmt.Errorf("%w: no task completed successfully", ErrTimeout)
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, last
}

func submitAll[T any](ctx context.Context, ex Executor, tasks []Callable[T]) ([]*Future[T], error) {
	futures := make([]*Future[T], 0, len(tasks))
	for _, c := range tasks {
		f, err := SubmitCallable(ctx, ex, c)
		if err != nil {
			cancelAll(futures)
			return nil, err
		}
		futures = append(futures, f)
	}
	return futures, nil
}

func cancelAll[T any](futures []*Future[T]) {
	for _, f := range futures {
		f.Cancel()
	}
}

var _ Executor = (*ContextExecutor)(nil)
