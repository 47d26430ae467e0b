package startkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/albertocavalcante/go-startkit/compile"
	"github.com/albertocavalcante/go-startkit/registry"
	"github.com/albertocavalcante/go-startkit/session"
)

// DefaultProjectName is used when WithProjectName is not set.
const DefaultProjectName = "my-start-app"

// CompileHook runs after every successful compile, before the result is
// published, and only while that compile is still the newest request. Its
// context is cancelled when a newer request supersedes it, and the result is
// then dropped. A hook error turns the result into a failure. Hooks run on
// the compile goroutine, one at a time.
type CompileHook func(ctx context.Context, seq uint64, project *compile.Project) error

// Option configures a Builder.
type Option func(*config) error

// config holds all builder configuration.
type config struct {
	logger      *slog.Logger
	projectName string
	vars        map[string]string
	binaryGlobs []string
	sink        session.EventSink
	sessionID   string
	hooks       []CompileHook
	client      *registry.Client
}

// WithLogger sets a structured logger for session diagnostics.
// If not set, logging is disabled (silent mode).
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("component", "startkit")
//	b, err := startkit.Open(cat, starter, startkit.WithLogger(logger))
func WithLogger(l *slog.Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}

// WithProjectName sets the projectName placeholder value.
func WithProjectName(name string) Option {
	return func(c *config) error {
		if name == "" {
			return errors.New("project name must not be empty")
		}
		c.projectName = name
		return nil
	}
}

// WithVars adds project-wide placeholder values. projectName is always set
// from WithProjectName.
func WithVars(vars map[string]string) Option {
	return func(c *config) error {
		if c.vars == nil {
			c.vars = make(map[string]string, len(vars))
		}
		maps.Copy(c.vars, vars)
		return nil
	}
}

// WithBinaryGlobs replaces the globs that mark files as binary.
func WithBinaryGlobs(globs ...string) Option {
	return func(c *config) error {
		c.binaryGlobs = globs
		return nil
	}
}

// WithEventSink mirrors every compile outcome as a CloudEvent.
func WithEventSink(sink session.EventSink) Option {
	return func(c *config) error {
		c.sink = sink
		return nil
	}
}

// WithSessionID sets the CloudEvents source of emitted events.
func WithSessionID(id string) Option {
	return func(c *config) error {
		if id == "" {
			return errors.New("session id must not be empty")
		}
		c.sessionID = id
		return nil
	}
}

// WithCompileHook appends a hook run after every successful compile.
func WithCompileHook(hook CompileHook) Option {
	return func(c *config) error {
		if hook == nil {
			return errors.New("compile hook must not be nil")
		}
		c.hooks = append(c.hooks, hook)
		return nil
	}
}

// WithRegistryClient enables Import.
func WithRegistryClient(client *registry.Client) Option {
	return func(c *config) error {
		c.client = client
		return nil
	}
}

func newConfig(opts ...Option) (*config, error) {
	c := &config{projectName: DefaultProjectName}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *config) compileOptions() []compile.Option {
	vars := maps.Clone(c.vars)
	if vars == nil {
		vars = make(map[string]string, 1)
	}
	vars["projectName"] = c.projectName

	opts := []compile.Option{compile.WithVars(vars), compile.WithLogger(c.logger)}
	if c.binaryGlobs != nil {
		opts = append(opts, compile.WithBinaryGlobs(c.binaryGlobs...))
	}
	return opts
}

func (c *config) sessionOptions() []session.Option {
	opts := []session.Option{session.WithLogger(c.logger)}
	if c.sink != nil {
		opts = append(opts, session.WithEventSink(c.sink))
	}
	if c.sessionID != "" {
		opts = append(opts, session.WithSource(c.sessionID))
	}
	for _, hook := range c.hooks {
		opts = append(opts, session.WithPublishHook(func(ctx context.Context, r session.Result) error {
			if err := hook(ctx, r.Seq, r.Project); err != nil {
				return fmt.Errorf("compile hook: %w", err)
			}
			return nil
		}))
	}
	return opts
}
