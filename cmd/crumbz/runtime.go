package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zoobzio/crumbz"
)

// contextKey is an unexported type used for storing the runtime in a command context.
type contextKey struct {
	name string
}

var runtimeKey = &contextKey{"crumbz-runtime"}

// runtimeContext holds what every subcommand needs once flags are parsed.
type runtimeContext struct {
	Log    *zap.Logger   // Operational logging, a no-op unless --verbose
	Config crumbz.Config // Env, then file, then flags
	Out    io.Writer
	sep    string
}

func withRuntime(ctx context.Context, rt *runtimeContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runtimeKey, rt)
}

func runtimeFrom(cmd *cobra.Command) *runtimeContext {
	if cmd.Context() == nil {
		return nil
	}
	rt, _ := cmd.Context().Value(runtimeKey).(*runtimeContext)
	return rt
}

func newRuntime(cmd *cobra.Command) (*runtimeContext, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Root().PersistentFlags()
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return nil, err
	}
	log, err := newLogger(verbose)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return nil, err
	}
	out := cmd.OutOrStdout()
	useColor, err := wantColor(colorFlag, out)
	if err != nil {
		return nil, err
	}

	log.Debug("runtime ready",
		zap.String("separator", cfg.Separator),
		zap.Bool("trace", cfg.Trace),
		zap.Int("workers", cfg.Workers),
		zap.Bool("color", useColor),
	)

	return &runtimeContext{
		Log:    log,
		Config: cfg,
		Out:    out,
		sep:    colorize(cfg.Separator, useColor),
	}, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func wantColor(flag string, out io.Writer) (bool, error) {
	switch flag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		f, ok := out.(*os.File)
		return ok && isTerminal(f), nil
	default:
		return false, fmt.Errorf("unsupported color mode %q (must be auto, on or off)", flag)
	}
}

// colorize highlights the breadcrumb marker of a separator.
func colorize(sep string, enabled bool) string {
	c := color.New(color.FgYellow, color.Faint)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(sep)
}

// render writes err with its breadcrumbs. A captured technical trace is
// printed first, in the verbose form.
func (rt *runtimeContext) render(err error) {
	snap, ok := crumbz.ContextOf(err)
	if !ok {
		fmt.Fprintln(rt.Out, err)
		return
	}

	var ce *crumbz.Error
	if errors.As(err, &ce) && ce.HasTrace() {
		fmt.Fprintf(rt.Out, "%+v\n", ce)
	}

	out := crumbz.Wrap(context.Background(), err, "", crumbz.WithSnapshot(snap))
	if werr := out.Render(rt.Out, rt.sep); werr != nil {
		rt.Log.Warn("render failed", zap.Error(werr))
	}
}
