package crumbz

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

const (
	futurePending int32 = iota
	futureRunning
	futureDone
	futureCancelled
)

// Future is the pending result of submitted work.
// Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Field order optimized for readability
type Future[T any] struct {
	id    uuid.UUID
	done  chan struct{}
	value T
	err   error
	state atomic.Int32
	once  sync.Once
}

func newFuture[T any](id uuid.UUID) *Future[T] {
	return &Future[T]{
		id:   id,
		done: make(chan struct{}),
	}
}

// ID identifies the submission.
func (f *Future[T]) ID() uuid.UUID {
	return f.id
}

// Done is closed once the work has completed or been cancelled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the work completed or was cancelled.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// IsCancelled reports whether Cancel succeeded.
func (f *Future[T]) IsCancelled() bool {
	return f.state.Load() == futureCancelled
}

// Cancel prevents work that has not started yet from running.
// Returns false once the work is running or finished.
func (f *Future[T]) Cancel() bool {
	if !f.state.CompareAndSwap(futurePending, futureCancelled) {
		return false
	}
	var zero T
	f.finish(zero, ErrCancelled)
	return true
}

// Get waits for the result or for ctx to end.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// run executes c unless the future was cancelled first.
// A panic in c completes the future with a *PanicError.
func (f *Future[T]) run(ctx context.Context, c Callable[T]) {
	if !f.state.CompareAndSwap(futurePending, futureRunning) {
		return
	}

	var (
		value T
		err   error
	)
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, err = zero, newPanicError(r)
		}
		f.state.Store(futureDone)
		f.finish(value, err)
	}()

	value, err = c(ctx)
}

func (f *Future[T]) finish(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}
