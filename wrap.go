package crumbz

import (
	"context"
)

// Task is a unit of deferred work run with the executing goroutine's context.
type Task func(ctx context.Context)

// Callable is a unit of deferred work that produces a value or fails.
type Callable[T any] func(ctx context.Context) (T, error)

// WrapTask captures the breadcrumbs bound to ctx now and returns a Task that
// runs task under them, whichever goroutine eventually runs it.
func WrapTask(ctx context.Context, task Task) Task {
	return WrapTaskWith(Current(ctx), task)
}

// WrapTaskWith returns a Task that runs task under snap.
//
// The running goroutine's own stack is saved, replaced by snap for the
// duration of task, and restored afterwards even if task panics. A nil
// snap is treated as empty.
func WrapTaskWith(snap Snapshot, task Task) Task {
	snap = normalize(snap)
	return func(ctx context.Context) {
		ctx, restore := install(ctx, snap)
		defer restore()
		task(ctx)
	}
}

// WrapCallable captures the breadcrumbs bound to ctx now and returns a
// Callable that runs c under them.
func WrapCallable[T any](ctx context.Context, c Callable[T]) Callable[T] {
	return WrapCallableWith(Current(ctx), c)
}

// WrapCallableWith returns a Callable that runs c under snap.
// The running goroutine's stack is restored before c's result is returned.
func WrapCallableWith[T any](snap Snapshot, c Callable[T]) Callable[T] {
	snap = normalize(snap)
	return func(ctx context.Context) (T, error) {
		ctx, restore := install(ctx, snap)
		defer restore()
		return c(ctx)
	}
}

// Go runs task on a new goroutine that owns a fresh stack preloaded with the
// breadcrumbs bound to ctx. The returned channel is closed when task returns.
func Go(ctx context.Context, task Task) <-chan struct{} {
	wrapped := WrapTask(ctx, task)
	done := make(chan struct{})
	go func() {
		defer close(done)
		wctx, _ := Start(ctx)
		wrapped(wctx)
	}()
	return done
}

// install puts snap on the stack bound to ctx, binding one if needed, and
// returns the context to run under plus the restore step.
func install(ctx context.Context, snap Snapshot) (context.Context, func()) {
	s := FromContext(ctx)
	if s == nil {
		ctx, s = Start(ctx)
	}

	prior := s.Snapshot()
	_ = s.Replace(snap) // snap is never nil here.

	return ctx, func() {
		_ = s.Replace(prior)
	}
}

func normalize(snap Snapshot) Snapshot {
	if snap == nil {
		return Snapshot{}
	}
	return snap.clone()
}
