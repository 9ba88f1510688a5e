package dwpack

import (
	"io"
	"log/slog"
)

// DefaultParallelism bounds concurrent input loading when no option is set.
const DefaultParallelism = 4

// config holds configuration for a package build.
type config struct {
	parallelism int
	logger      *slog.Logger
}

// Option configures a package build.
type Option func(*config)

// WithLogger sets the logger used during the build. The default discards
// all output.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// WithParallelism bounds how many input objects are loaded concurrently.
// Zero or negative uses DefaultParallelism. Loading is the only parallel
// phase; string merging is inherently sequential.
func WithParallelism(n int) Option {
	return func(cfg *config) {
		cfg.parallelism = n
	}
}

// log returns the logger, falling back to a discard logger if nil.
func (c *config) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.logger
}
