package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/albertocavalcante/go-startkit/compile"
	"github.com/albertocavalcante/go-startkit/internal/logutil"
)

// Update is an incremental change to a mounted file tree.
type Update struct {
	// Write maps each added or modified path to its flat content.
	Write map[string]string

	// Remove lists deleted paths, sorted.
	Remove []string
}

// Sandbox is a runtime that mounts a flat file map and accepts updates.
type Sandbox interface {
	// Mount replaces the whole tree.
	Mount(ctx context.Context, files map[string]string) error

	// Apply patches a tree previously mounted.
	Apply(ctx context.Context, update Update) error
}

// Syncer keeps a Sandbox in step with a sequence of compiled projects. The
// first project is mounted in full; later projects are sent as diffs.
// Syncer is safe for concurrent use.
type Syncer struct {
	sandbox Sandbox
	log     *slog.Logger

	mu   sync.Mutex
	last *compile.Project
}

// SyncOption configures a Syncer.
type SyncOption func(*Syncer)

// WithSyncLogger sets a structured logger. If not set, logging is disabled.
func WithSyncLogger(l *slog.Logger) SyncOption {
	return func(s *Syncer) {
		s.log = logutil.OrDiscard(l)
	}
}

// NewSyncer creates a Syncer for sandbox.
func NewSyncer(sandbox Sandbox, opts ...SyncOption) *Syncer {
	s := &Syncer{sandbox: sandbox, log: logutil.OrDiscard(nil)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync brings the sandbox to p and returns what changed. A failed Apply
// forgets the mounted tree, so the next Sync mounts in full.
func (s *Syncer) Sync(ctx context.Context, p *compile.Project) (*compile.Changes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changes := compile.Diff(s.last, p)
	if s.last == nil {
		if err := s.sandbox.Mount(ctx, Flat(p)); err != nil {
			return nil, fmt.Errorf("mount: %w", err)
		}
		s.last = p
		s.log.Debug("sandbox mounted", "files", len(p.Files))
		return changes, nil
	}
	if changes.IsEmpty() {
		return changes, nil
	}

	flat := Flat(p)
	update := Update{Write: make(map[string]string, len(changes.Added)+len(changes.Modified)), Remove: changes.Removed}
	for _, path := range changes.Written() {
		update.Write[path] = flat[path]
	}
	if err := s.sandbox.Apply(ctx, update); err != nil {
		s.last = nil
		return nil, fmt.Errorf("apply: %w", err)
	}
	s.last = p
	s.log.Debug("sandbox updated",
		"added", len(changes.Added),
		"modified", len(changes.Modified),
		"removed", len(changes.Removed))
	return changes, nil
}

// Reset forgets the mounted tree.
func (s *Syncer) Reset() {
	s.mu.Lock()
	s.last = nil
	s.mu.Unlock()
}

// DirSandbox mirrors the tree into a directory on disk.
type DirSandbox struct {
	Dir string
}

var _ Sandbox = DirSandbox{}

// Mount writes every file. Existing files not in files are kept.
func (d DirSandbox) Mount(ctx context.Context, files map[string]string) error {
	for name, content := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFile(d.Dir, name, content); err != nil {
			return err
		}
	}
	return nil
}

// Apply removes then writes.
func (d DirSandbox) Apply(ctx context.Context, update Update) error {
	for _, name := range update.Remove {
		if err := removeFile(d.Dir, name); err != nil {
			return err
		}
	}
	return d.Mount(ctx, update.Write)
}
