package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X main.Version=...".
var Version = "dev"

type versionPayload struct {
	Tool    string `json:"tool"`
	Version string `json:"version"`
}

func newVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the crumbz version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := strings.TrimSpace(Version)
			if v == "" {
				v = "dev"
			}

			switch strings.ToLower(format) {
			case "pretty":
				fmt.Fprintf(cmd.OutOrStdout(), "crumbz %s\n", v)
				return nil
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(versionPayload{Tool: "crumbz", Version: v})
			default:
				return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json)")

	return cmd
}
