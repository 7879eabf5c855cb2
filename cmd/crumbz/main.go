package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// newRootCmd builds the command tree. Each call returns independent state.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "crumbz",
		Short:         "Business-context breadcrumbs for Go errors",
		Long:          `crumbz renders the business context an error was raised in, across goroutines and worker pools.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(withRuntime(cmd.Context(), rt))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if rt := runtimeFrom(cmd); rt != nil {
				_ = rt.Log.Sync()
			}
		},
	}

	rootCmd.AddCommand(newDemoCmd())
	rootCmd.AddCommand(newVersionCmd())

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path to a TOML configuration file")
	flags.String("separator", "", "text rendered before every breadcrumb")
	flags.Bool("trace", false, "capture technical traces")
	flags.Int("workers", 0, "worker goroutines for pooled scenarios")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("verbose", false, "log what the demo is doing")

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Stderr.WriteString("crumbz: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
