// Package crumbz provides cheap business-context breadcrumbs for errors.
//
// crumbz keeps a per-goroutine stack of lazily evaluated descriptions of what
// the code is doing ("in checkout for order 42", "while charging card"). When
// an application error is built, the stack is snapshotted into the error and
// can be rendered instead of a technical stack trace.
//
// Core Components:
//   - Stack: Ordered breadcrumbs owned by one goroutine.
//   - Error: Captures a Snapshot of the Stack at construction.
//   - WrapTask / WrapCallable: Carry a Snapshot onto another goroutine.
//   - ContextExecutor: Wraps every task submitted to an Executor.
//
// Basic Usage:
//
//	ctx, _ := crumbz.Start(ctx)
//
//	ctx, done := crumbz.In(ctx, "checking out order {0}", orderID)
//	defer done()
//
//	if err := charge(ctx); err != nil {
//		return crumbz.Wrap(ctx, err, "payment declined")
//	}
//
//	// Later, at the boundary.
//	var ce *crumbz.Error
//	if errors.As(err, &ce) {
//		ce.Print()
//	}
//
// Goroutine Ownership:
//
// A Stack is NOT safe for concurrent use. It belongs to the goroutine that
// created it. Goroutines started with the same ctx share the same *Stack, so
// hand work to other goroutines through Go, Group, WrapTask or a decorated
// Executor, which give the new goroutine its own copy.
//
// Lazy Evaluation:
//
// Breadcrumbs are only evaluated when an error is rendered. Pushing one costs
// a slice append. Breadcrumbs must not touch the Stack themselves.
//
// Technical Traces:
//
// Errors skip the runtime stack walk unless WithTrace is passed.
package crumbz

// Breadcrumb lazily produces one line of business context.
type Breadcrumb func() string

// String evaluates the breadcrumb. A nil Breadcrumb yields "".
func (b Breadcrumb) String() string {
	if b == nil {
		return ""
	}
	return b()
}

// Snapshot is an immutable copy of a Stack's contents, oldest first.
// A nil Snapshot means "absent" and is rejected by Stack.Replace;
// use Snapshot{} for an empty one.
type Snapshot []Breadcrumb

// Len returns the number of breadcrumbs.
func (s Snapshot) Len() int {
	return len(s)
}

// Strings evaluates every breadcrumb once, in order.
func (s Snapshot) Strings() []string {
	out := make([]string, len(s))
	for i, b := range s {
		out[i] = b.String()
	}
	return out
}

// clone returns a fresh, non-nil copy.
func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// DefaultSeparator precedes every breadcrumb when rendering with Print.
const DefaultSeparator = "\n while "
