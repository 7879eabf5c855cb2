package crumbz

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Group is an errgroup.Group whose goroutines start with the breadcrumbs of
// the goroutine that called Go. Each goroutine owns a fresh Stack.
type Group struct {
	eg  *errgroup.Group
	ctx context.Context
}

// NewGroup returns a Group and a derived context cancelled when the first
// function fails or Wait returns. The derived context keeps ctx's stack.
func NewGroup(ctx context.Context) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	eg, gctx := errgroup.WithContext(ctx)
	return &Group{eg: eg, ctx: gctx}, gctx
}

// Go snapshots the breadcrumbs bound to ctx and runs fn on a new goroutine
// under them. fn receives the group's context with its own Stack bound.
func (g *Group) Go(ctx context.Context, fn func(ctx context.Context) error) {
	g.eg.Go(g.bind(ctx, fn))
}

// TryGo is Go that respects SetLimit, reporting whether fn was started.
func (g *Group) TryGo(ctx context.Context, fn func(ctx context.Context) error) bool {
	return g.eg.TryGo(g.bind(ctx, fn))
}

// SetLimit bounds the number of active goroutines. A negative n removes the limit.
func (g *Group) SetLimit(n int) {
	g.eg.SetLimit(n)
}

// Wait blocks until every function returned and yields the first error.
func (g *Group) Wait() error {
	return g.eg.Wait()
}

func (g *Group) bind(ctx context.Context, fn func(ctx context.Context) error) func() error {
	wrapped := WrapCallable(ctx, func(wctx context.Context) (struct{}, error) {
		return struct{}{}, fn(wctx)
	})
	return func() error {
		wctx, _ := Start(g.ctx)
		_, err := wrapped(wctx)
		return err
	}
}
