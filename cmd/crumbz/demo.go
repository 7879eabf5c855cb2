package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zoobzio/crumbz"
)

type scenario struct {
	name  string
	short string
	run   func(ctx context.Context, rt *runtimeContext) error
}

var scenarios = []scenario{
	{"api", "nested calls raising a context-capturing error", runAPI},
	{"goroutine", "a job on a goroutine started with crumbz.Go", runGoroutine},
	{"pool", "a job submitted to a decorated worker pool", runPool},
	{"group", "an errgroup fan-out where one shard fails", runGroup},
}

// allScenarios selects every scenario.
const allScenarios = "all"

func newDemoCmd() *cobra.Command {
	var names []string
	for _, s := range scenarios {
		names = append(names, fmt.Sprintf("  %-10s %s", s.name, s.short))
	}

	return &cobra.Command{
		Use:       "demo [scenario...|all]",
		Short:     "Run breadcrumb scenarios",
		Long:      "Run breadcrumb scenarios, all of them when none is named or with \"all\":\n" + strings.Join(names, "\n"),
		ValidArgs: append(scenarioNames(), allScenarios),
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtimeFrom(cmd)
			if len(args) == 0 || slices.Contains(args, allScenarios) {
				args = scenarioNames()
			}

			for _, name := range args {
				s, _ := findScenario(name)
				rt.Log.Info("running scenario", zap.String("scenario", s.name))

				// Every scenario starts on a clean stack.
				ctx := crumbz.Reset(cmd.Context())
				if err := s.run(ctx, rt); err != nil {
					return fmt.Errorf("%s: %w", s.name, err)
				}
			}
			return nil
		},
	}
}

func scenarioNames() []string {
	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.name
	}
	return names
}

func findScenario(name string) (scenario, bool) {
	for _, s := range scenarios {
		if s.name == name {
			return s, true
		}
	}
	return scenario{}, false
}

func runAPI(ctx context.Context, rt *runtimeContext) error {
	if err := method1(ctx, rt.Config, "hello"); err != nil {
		rt.render(err)
	}
	return nil
}

func method1(ctx context.Context, cfg crumbz.Config, foo string) error {
	ctx, done := crumbz.In(ctx, "In method 1 with param {0}", foo)
	defer done()
	return method2(ctx, cfg, foo, 42)
}

func method2(ctx context.Context, cfg crumbz.Config, foo string, bar int) error {
	ctx, done := crumbz.In(ctx, "In method 2 with params {0} and {1}", foo, bar)
	defer done()
	return failBusiness(ctx, cfg)
}

func failBusiness(ctx context.Context, cfg crumbz.Config) error {
	ctx, done := crumbz.Enter(ctx, crumbz.Text("In a method raising a business error"))
	defer done()
	return crumbz.New(ctx, "Oh noes ! A business problem !", cfg.ErrorOptions()...)
}

// job is the unit of async work shared by the concurrent scenarios.
func job(rt *runtimeContext) crumbz.Task {
	return func(ctx context.Context) {
		ctx, done := crumbz.In(ctx, "In foobar with param {0}", 42)
		defer done()

		rt.Log.Debug("doing some async work")
		rt.render(crumbz.New(ctx, "Oh noes ! A business problem !", rt.Config.ErrorOptions()...))
	}
}

func runGoroutine(ctx context.Context, rt *runtimeContext) error {
	ctx, done := crumbz.Enter(ctx, crumbz.Text("In a method launching a new goroutine"))
	defer done()

	<-crumbz.Go(ctx, job(rt))
	return nil
}

func runPool(ctx context.Context, rt *runtimeContext) error {
	ctx, done := crumbz.Enter(ctx, crumbz.Text("In a method using a worker pool"))
	defer done()

	pool, err := crumbz.NewPoolFromConfig(rt.Config)
	if err != nil {
		return err
	}
	pool.OnFailure(func(f crumbz.Failure) {
		rt.Log.Error("task failed",
			zap.Stringer("id", f.ID),
			zap.Int("worker", f.WorkerID),
			zap.Strings("context", f.Context.Strings()),
			zap.Error(f.Err),
		)
	})

	ex := crumbz.Decorate(pool)
	if _, err := crumbz.Submit(ctx, ex, job(rt)); err != nil {
		return err
	}

	ex.Shutdown()
	if !ex.AwaitTermination(time.Minute) {
		return crumbz.New(ctx, "pool did not terminate", crumbz.WithCause(crumbz.ErrTimeout))
	}
	return nil
}

func runGroup(ctx context.Context, rt *runtimeContext) error {
	ctx, done := crumbz.Enter(ctx, crumbz.Text("In a method fanning out over shards"))
	defer done()

	g, gctx := crumbz.NewGroup(ctx)
	g.SetLimit(rt.Config.Workers)
	for shard := 0; shard < 3; shard++ {
		shard := shard
		g.Go(gctx, func(wctx context.Context) error {
			wctx, done := crumbz.In(wctx, "loading shard {0}", shard)
			defer done()
			if shard == 1 {
				return crumbz.New(wctx, "shard unavailable", rt.Config.ErrorOptions()...)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		rt.render(err)
	}
	return nil
}
