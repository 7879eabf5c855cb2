package crumbz

import (
	"os"
	"runtime"
	"strconv"
)

// Config holds the tunables shared by errors and pools.
type Config struct {
	Separator  string `toml:"separator"`   // Rendered before every breadcrumb
	Trace      bool   `toml:"trace"`       // Capture technical traces
	TraceDepth int    `toml:"trace_depth"` // Maximum captured frames
	Workers    int    `toml:"workers"`     // Pool worker goroutines
	QueueSize  int    `toml:"queue_size"`  // Pool queue capacity
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	workers := runtime.NumCPU()
	if workers <= 0 {
		workers = 4
	}
	return Config{
		Separator:  DefaultSeparator,
		TraceDepth: defaultTraceDepth,
		Workers:    workers,
		QueueSize:  64,
	}
}

// ConfigFromEnv reads configuration from CRUMBZ_* environment variables,
// falling back to DefaultConfig for anything unset or unparsable.
func ConfigFromEnv() Config {
	def := DefaultConfig()
	return Config{
		Separator:  getEnv("CRUMBZ_SEPARATOR", def.Separator),
		Trace:      parseBool(os.Getenv("CRUMBZ_TRACE"), def.Trace),
		TraceDepth: parseInt(os.Getenv("CRUMBZ_TRACE_DEPTH"), def.TraceDepth),
		Workers:    parseInt(os.Getenv("CRUMBZ_WORKERS"), def.Workers),
		QueueSize:  parseInt(os.Getenv("CRUMBZ_QUEUE_SIZE"), def.QueueSize),
	}
}

// ErrorOptions turns the trace settings into constructor options.
func (c Config) ErrorOptions() []Option {
	if !c.Trace {
		return nil
	}
	if c.TraceDepth > 0 {
		return []Option{WithTraceDepth(c.TraceDepth)}
	}
	return []Option{WithTrace()}
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, fallback int) int {
	if value, err := strconv.Atoi(s); err == nil {
		return value
	}
	return fallback
}

func parseBool(s string, fallback bool) bool {
	if value, err := strconv.ParseBool(s); err == nil {
		return value
	}
	return fallback
}
