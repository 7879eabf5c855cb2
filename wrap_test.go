package crumbz

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWrapTaskInstallsAndRestores(t *testing.T) {
	wctx, worker := Start(context.Background())
	worker.Push(Text("w1"))

	var seen []string
	task := WrapTaskWith(Snapshot{Text("a"), Text("b")}, func(ctx context.Context) {
		seen = Current(ctx).Strings()
	})

	task(wctx)

	if !equalStrings(seen, []string{"a", "b"}) {
		t.Errorf("Expected task to see [a b], got %v", seen)
	}
	if got := crumbStrings(worker); !equalStrings(got, []string{"w1"}) {
		t.Errorf("Expected worker restored to [w1], got %v", got)
	}
}

func TestWrapTaskRestoresOnPanic(t *testing.T) {
	wctx, worker := Start(context.Background())
	worker.Push(Text("w1"))

	task := WrapTaskWith(Snapshot{Text("a")}, func(context.Context) {
		panic("task failed")
	})

	func() {
		defer func() {
			if r := recover(); r != "task failed" {
				t.Errorf("Expected panic to propagate, got %v", r)
			}
		}()
		task(wctx)
	}()

	if got := crumbStrings(worker); !equalStrings(got, []string{"w1"}) {
		t.Errorf("Expected worker restored to [w1], got %v", got)
	}
}

func TestWrapTaskCapturesAtWrapTime(t *testing.T) {
	ctx, s := Start(context.Background())
	s.Push(Text("submitted"))

	var seen []string
	task := WrapTask(ctx, func(ctx context.Context) {
		seen = Current(ctx).Strings()
	})

	// Later changes on the submitting side are not seen.
	s.Push(Text("after"))

	wctx, _ := Start(context.Background())
	task(wctx)

	if !equalStrings(seen, []string{"submitted"}) {
		t.Errorf("Expected [submitted], got %v", seen)
	}
}

func TestWrapTaskBindsStackWhenAbsent(t *testing.T) {
	var seen []string
	task := WrapTaskWith(Snapshot{Text("a")}, func(ctx context.Context) {
		seen = Current(ctx).Strings()
	})

	task(context.Background())

	if !equalStrings(seen, []string{"a"}) {
		t.Errorf("Expected [a], got %v", seen)
	}
}

func TestWrapTaskWithNilSnapshot(t *testing.T) {
	wctx, worker := Start(context.Background())
	worker.Push(Text("w1"))

	depth := -1
	WrapTaskWith(nil, func(ctx context.Context) {
		depth = FromContext(ctx).Len()
	})(wctx)

	if depth != 0 {
		t.Errorf("Expected task to run with an empty stack, got depth %d", depth)
	}
	if worker.Len() != 1 {
		t.Errorf("Expected worker restored, got depth %d", worker.Len())
	}
}

func TestWrapCallable(t *testing.T) {
	wctx, worker := Start(context.Background())
	worker.Push(Text("w1"))

	sentinel := errors.New("failed")
	c := WrapCallableWith(Snapshot{Text("a"), Text("b")}, func(ctx context.Context) (string, error) {
		return "", New(ctx, "boom", WithCause(sentinel))
	})

	_, err := c(wctx)
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected wrapped error, got %v", err)
	}

	snap, ok := ContextOf(err)
	if !ok || !equalStrings(snap.Strings(), []string{"a", "b"}) {
		t.Errorf("Expected error captured [a b], got %v", snap.Strings())
	}
	if got := crumbStrings(worker); !equalStrings(got, []string{"w1"}) {
		t.Errorf("Expected worker restored to [w1], got %v", got)
	}
}

func TestWrapCallableResult(t *testing.T) {
	ctx, s := Start(context.Background())
	s.Push(Text("caller"))

	c := WrapCallable(ctx, func(ctx context.Context) (int, error) {
		return Current(ctx).Len(), nil
	})

	wctx, _ := Start(context.Background())
	n, err := c(wctx)
	if err != nil || n != 1 {
		t.Errorf("Expected (1, nil), got (%d, %v)", n, err)
	}
}

func TestWrappedTaskInsideTask(t *testing.T) {
	wctx, worker := Start(context.Background())
	worker.Push(Text("w1"))

	var inner, outer []string
	WrapTaskWith(Snapshot{Text("a")}, func(ctx context.Context) {
		WrapTaskWith(Snapshot{Text("x"), Text("y")}, func(ctx context.Context) {
			inner = Current(ctx).Strings()
		})(ctx)
		outer = Current(ctx).Strings()
	})(wctx)

	if !equalStrings(inner, []string{"x", "y"}) {
		t.Errorf("Expected inner [x y], got %v", inner)
	}
	if !equalStrings(outer, []string{"a"}) {
		t.Errorf("Expected outer restored to [a], got %v", outer)
	}
	if got := crumbStrings(worker); !equalStrings(got, []string{"w1"}) {
		t.Errorf("Expected worker restored to [w1], got %v", got)
	}
}

func TestGo(t *testing.T) {
	ctx, s := Start(context.Background())
	s.Push(Text("parent"))

	var (
		seen  []string
		owned bool
	)
	done := Go(ctx, func(gctx context.Context) {
		owned = FromContext(gctx) != s
		seen = Current(gctx).Strings()
		// Pushes in the child never reach the parent.
		FromContext(gctx).Push(Text("child"))
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for goroutine")
	}

	if !owned {
		t.Error("Expected child goroutine to own its stack")
	}
	if !equalStrings(seen, []string{"parent"}) {
		t.Errorf("Expected child to see [parent], got %v", seen)
	}
	if got := crumbStrings(s); !equalStrings(got, []string{"parent"}) {
		t.Errorf("Expected parent unchanged, got %v", got)
	}
}
