package session

import (
	"errors"
	"log/slog"
)

// Option configures a Controller.
type Option func(*config) error

type config struct {
	logger *slog.Logger
	sink   EventSink
	source string
	hooks  []PublishHook
}

// WithLogger sets a structured logger. If not set, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}

// WithEventSink mirrors every compile outcome as a CloudEvent.
func WithEventSink(sink EventSink) Option {
	return func(c *config) error {
		c.sink = sink
		return nil
	}
}

// WithPublishHook appends a hook run on every result about to be
// published.
func WithPublishHook(hook PublishHook) Option {
	return func(c *config) error {
		if hook == nil {
			return errors.New("publish hook must not be nil")
		}
		c.hooks = append(c.hooks, hook)
		return nil
	}
}

// WithSource sets the CloudEvents source attribute, for example a session
// id.
func WithSource(source string) Option {
	return func(c *config) error {
		if source == "" {
			return errors.New("event source must not be empty")
		}
		c.source = source
		return nil
	}
}

func newConfig(opts ...Option) (*config, error) {
	c := &config{source: DefaultSource}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
