package logutil

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrDiscard(t *testing.T) {
	silent := OrDiscard(nil)
	assert.False(t, silent.Enabled(context.Background(), slog.LevelError))
	silent.With("k", "v").WithGroup("g").Error("dropped")

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	assert.Same(t, l, OrDiscard(l))
	OrDiscard(l).Info("kept")
	assert.Contains(t, buf.String(), "kept")
}
