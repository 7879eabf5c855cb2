package crumbz

import (
	"context"
	"fmt"
)

// stackKeyType is a private type for context keys to avoid collisions.
type stackKeyType string

const (
	stackKey stackKeyType = "crumbz"
)

// Stack is an ordered sequence of breadcrumbs owned by a single goroutine.
// Stacks are NOT thread-safe - never mutate one from another goroutine.
type Stack struct {
	crumbs []Breadcrumb
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{crumbs: make([]Breadcrumb, 0, 8)}
}

// Push appends a breadcrumb. It is not evaluated.
func (s *Stack) Push(b Breadcrumb) {
	s.crumbs = append(s.crumbs, b)
}

// Pop removes the most recent breadcrumb.
// Popping an empty stack is a caller bug and panics with an error
// wrapping ErrPrecondition.
func (s *Stack) Pop() {
	n := len(s.crumbs)
	if n == 0 {
		panic(fmt.Errorf("%w: pop on empty stack", ErrPrecondition))
	}
	s.crumbs[n-1] = nil // Release the closure.
	s.crumbs = s.crumbs[:n-1]
}

// Reset empties the stack.
func (s *Stack) Reset() {
	clear(s.crumbs)
	s.crumbs = s.crumbs[:0]
}

// Replace substitutes the whole contents with a copy of snap.
// A nil snap is rejected and the stack is left untouched.
func (s *Stack) Replace(snap Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidArgument)
	}
	clear(s.crumbs)
	s.crumbs = append(s.crumbs[:0], snap...)
	return nil
}

// Snapshot returns an independent copy of the current contents.
// Later pushes and pops never affect the returned value.
func (s *Stack) Snapshot() Snapshot {
	return Snapshot(s.crumbs).clone()
}

// Len returns the current depth.
func (s *Stack) Len() int {
	return len(s.crumbs)
}

// Enter pushes b and returns the matching pop.
//
//	defer stack.Enter(crumbz.Text("loading config"))()
func (s *Stack) Enter(b Breadcrumb) func() {
	s.Push(b)
	return s.Pop
}

// WithStack returns a copy of parent carrying s.
func WithStack(parent context.Context, s *Stack) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithValue(parent, stackKey, s)
}

// FromContext extracts the stack bound to ctx.
// Returns nil if no stack is present.
func FromContext(ctx context.Context) *Stack {
	if ctx == nil {
		return nil
	}

	if s, ok := ctx.Value(stackKey).(*Stack); ok {
		return s
	}

	return nil
}

// Start binds a fresh, empty stack to ctx.
// Call it once at the top of every goroutine that records breadcrumbs.
func Start(ctx context.Context) (context.Context, *Stack) {
	s := NewStack()
	return WithStack(ctx, s), s
}

// Enter pushes b onto the stack bound to ctx, binding a new stack when
// there is none, and returns the context to use plus the matching pop.
func Enter(ctx context.Context, b Breadcrumb) (context.Context, func()) {
	s := FromContext(ctx)
	if s == nil {
		ctx, s = Start(ctx)
	}
	return ctx, s.Enter(b)
}

// In is Enter with a Template breadcrumb.
//
//	ctx, done := crumbz.In(ctx, "in method 2 with params {0} and {1}", foo, bar)
//	defer done()
func In(ctx context.Context, template string, args ...any) (context.Context, func()) {
	return Enter(ctx, Template(template, args...))
}

// Reset empties the stack bound to ctx, or binds a fresh one.
func Reset(ctx context.Context) context.Context {
	if s := FromContext(ctx); s != nil {
		s.Reset()
		return ctx
	}
	ctx, _ = Start(ctx)
	return ctx
}

// Current returns a snapshot of the stack bound to ctx.
// The snapshot is empty, never nil, when no stack is bound.
func Current(ctx context.Context) Snapshot {
	if s := FromContext(ctx); s != nil {
		return s.Snapshot()
	}
	return Snapshot{}
}
