package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/zoobzio/crumbz"
)

// resolveConfig layers the environment, the --config file and explicit flags,
// later layers winning.
func resolveConfig(cmd *cobra.Command) (crumbz.Config, error) {
	cfg := crumbz.ConfigFromEnv()
	flags := cmd.Root().PersistentFlags()

	path, err := flags.GetString("config")
	if err != nil {
		return cfg, err
	}
	if path != "" {
		if cfg, err = loadConfigFile(path, cfg); err != nil {
			return cfg, err
		}
	}

	if flags.Changed("separator") {
		if cfg.Separator, err = flags.GetString("separator"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("trace") {
		if cfg.Trace, err = flags.GetBool("trace"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return cfg, err
		}
	}

	if cfg.Workers <= 0 {
		return cfg, fmt.Errorf("workers must be > 0, got %d", cfg.Workers)
	}
	return cfg, nil
}

// loadConfigFile decodes path over base. Keys absent from the file keep
// their base value; unknown keys are rejected.
func loadConfigFile(path string, base crumbz.Config) (crumbz.Config, error) {
	cfg := base
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return base, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return base, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}
