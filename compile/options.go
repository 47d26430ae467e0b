package compile

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultBinaryGlobs match file paths treated as binary regardless of their
// content.
var DefaultBinaryGlobs = []string{
	"**/*.{png,jpg,jpeg,gif,ico,webp,woff,woff2,ttf,eot}",
}

// Option configures a Compiler.
type Option func(*config) error

type config struct {
	logger      *slog.Logger
	vars        map[string]string
	binaryGlobs []string
}

// WithLogger sets a structured logger for compile diagnostics.
// If not set, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}

// WithVars sets project-wide placeholder values such as projectName. An
// add-on option of the same name takes precedence inside that add-on.
func WithVars(vars map[string]string) Option {
	return func(c *config) error {
		if c.vars == nil {
			c.vars = make(map[string]string, len(vars))
		}
		maps.Copy(c.vars, vars)
		return nil
	}
}

// WithBinaryGlobs replaces DefaultBinaryGlobs.
func WithBinaryGlobs(globs ...string) Option {
	return func(c *config) error {
		for _, g := range globs {
			if !doublestar.ValidatePattern(g) {
				return fmt.Errorf("invalid binary glob %q", g)
			}
		}
		c.binaryGlobs = globs
		return nil
	}
}

func newConfig(opts ...Option) (*config, error) {
	c := &config{binaryGlobs: DefaultBinaryGlobs}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
