// Package logutil holds the silent-by-default logger shared by the library
// packages. Libraries never write to stderr unless a caller passes a logger.
package logutil

import (
	"context"
	"log/slog"
)

// OrDiscard returns l, or a logger that drops every record when l is nil.
// Internal code can then log without nil checks.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
