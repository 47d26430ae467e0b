// Package startkit composes projects from a starter skeleton and a catalog
// of add-ons.
//
// A Builder is one interactive session. It holds the selection, turns every
// change into a compile request and publishes the newest compiled project.
//
// # Quick Start
//
//	cat, err := catalog.LoadFile("catalog.yaml")
//	starter, err := catalog.LoadStarterFile("starter.yaml")
//
//	b, err := startkit.Open(cat, starter, startkit.WithProjectName("my-app"))
//	defer b.Close()
//
//	b.Toggle("auth-basic")
//	result, err := b.Wait(ctx)
//	fmt.Println(result.Project.Paths())
//
// # Selection
//
// Toggle and SetCapability never fail. Turning an add-on on pulls in its
// requirements and evicts add-ons that share an exclusive group with
// anything it brings; turning a capability off drops every add-on that
// needs it. Forced add-ons cannot be toggled.
//
// # Compilation
//
// Compiles run one at a time in the background. A change made while a
// compile runs replaces any change still waiting, and results of superseded
// compiles are dropped, so Results and Wait only ever report the newest
// state.
//
// # Thread Safety
//
// All methods of Builder are safe for concurrent use.
package startkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/albertocavalcante/go-startkit/addon"
	"github.com/albertocavalcante/go-startkit/catalog"
	"github.com/albertocavalcante/go-startkit/command"
	"github.com/albertocavalcante/go-startkit/compile"
	"github.com/albertocavalcante/go-startkit/graph"
	"github.com/albertocavalcante/go-startkit/internal/logutil"
	"github.com/albertocavalcante/go-startkit/lockfile"
	"github.com/albertocavalcante/go-startkit/selection"
	"github.com/albertocavalcante/go-startkit/session"
)

// Starter is a framework template: skeleton files plus the initial selection.
type Starter = catalog.Starter

// Builder is one project-building session.
type Builder struct {
	cfg     *config
	log     *slog.Logger
	starter *Starter
	ctrl    *session.Controller

	mu       sync.Mutex
	cat      *catalog.Catalog
	compiler *compile.Compiler
	state    selection.State
	raw      map[string]map[string]any
}

// Open starts a session over cat, seeded from starter, and requests the
// first compile.
func Open(cat *catalog.Catalog, starter *Starter, opts ...Option) (*Builder, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	if starter == nil {
		return nil, errors.New("starter is required")
	}
	if err := starter.Validate(); err != nil {
		return nil, fmt.Errorf("invalid starter: %w", err)
	}
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	compiler, err := compile.New(cat, cfg.compileOptions()...)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		cfg:      cfg,
		log:      logutil.OrDiscard(cfg.logger),
		starter:  starter,
		cat:      cat,
		compiler: compiler,
		raw:      make(map[string]map[string]any),
		state: selection.New(cat, selection.Init{
			UserSelected: starter.DefaultAddOns,
			Forced:       starter.Forced,
			Capabilities: starter.Capabilities,
		}),
	}
	b.ctrl, err = session.New(b.compile, cfg.sessionOptions()...)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.request()
	b.mu.Unlock()
	b.log.Info("session opened", "starter", starter.Name, "effective", b.state.Effective)
	return b, nil
}

// Toggle flips an add-on and returns the new selection.
func (b *Builder) Toggle(id string) selection.State {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := selection.Toggle(b.cat, b.state, id)
	if next.Equal(b.state) {
		return next.Clone()
	}
	b.state = next
	b.request()
	return next.Clone()
}

// SetCapability enables or disables a project capability and returns the
// new selection.
func (b *Builder) SetCapability(capability string, enabled bool) selection.State {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := selection.SetCapability(b.cat, b.state, capability, enabled)
	if next.Equal(b.state) {
		return next.Clone()
	}
	b.state = next
	b.request()
	return next.Clone()
}

// SetOption records an option value for an add-on. The value is checked
// against the option schema; it takes effect whenever the add-on is
// effective.
func (b *Builder) SetOption(id, name string, value any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	def, ok := b.cat.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAddOn, id)
	}
	field, ok := def.Options[name]
	if !ok {
		return fmt.Errorf("%w: %q has no option %q", ErrUnknownOption, id, name)
	}
	if _, err := field.Parse(value); err != nil {
		return fmt.Errorf("option %s.%s: %w", id, name, err)
	}
	if b.raw[id] == nil {
		b.raw[id] = make(map[string]any)
	}
	b.raw[id][name] = value
	if b.state.IsSelected(id) {
		b.request()
	}
	return nil
}

// AddAddOn adds a custom definition to the session catalog.
func (b *Builder) AddAddOn(def *addon.Definition) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := b.cat.With(def)
	if err != nil {
		return err
	}
	return b.swapCatalog(next)
}

// Import fetches a custom add-on through the registry client and adds it
// to the session catalog.
func (b *Builder) Import(ctx context.Context, url string) error {
	if b.cfg.client == nil {
		return ErrNoRegistry
	}
	def, err := b.cfg.client.FetchAddOn(ctx, url)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	next, err := b.cat.With(def)
	if err != nil {
		return err
	}
	if missing := next.Unresolved()[def.ID]; len(missing) > 0 {
		b.log.Warn("imported add-on has unresolved requirements", "addOn", def.ID, "missing", missing)
	}
	return b.swapCatalog(next)
}

// Reload replaces the session catalog, for example after the catalog file
// changed on disk. Custom add-ons of the current catalog that cat does not
// define are carried over. The selection is re-resolved against cat.
func (b *Builder) Reload(cat *catalog.Catalog) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := cat
	for _, def := range b.cat.Definitions() {
		if !def.Custom || next.Has(def.ID) {
			continue
		}
		var err error
		if next, err = next.With(def); err != nil {
			return err
		}
	}
	b.log.Info("catalog reloaded", "addOns", next.Len())
	return b.swapCatalog(next)
}

// swapCatalog must be called with b.mu held.
func (b *Builder) swapCatalog(next *catalog.Catalog) error {
	compiler, err := compile.New(next, b.cfg.compileOptions()...)
	if err != nil {
		return err
	}
	b.cat = next
	b.compiler = compiler
	b.state = selection.New(next, selection.Init{
		UserSelected: b.state.UserSelected,
		Forced:       b.state.Forced,
		Capabilities: b.state.Capabilities,
	})
	b.request()
	return nil
}

// State returns the current selection.
func (b *Builder) State() selection.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Clone()
}

// Disabled reports whether id cannot be turned on right now.
func (b *Builder) Disabled(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return selection.Disabled(b.cat, b.state, id)
}

// Catalog returns the session catalog, including custom add-ons.
func (b *Builder) Catalog() *catalog.Catalog {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cat
}

// Snapshot returns the selection and resolved options the next compile
// would use.
func (b *Builder) Snapshot() selection.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

// Results delivers compile results; see session.Controller.Results.
func (b *Builder) Results() <-chan session.Result {
	return b.ctrl.Results()
}

// Wait blocks until the newest change has compiled.
func (b *Builder) Wait(ctx context.Context) (session.Result, error) {
	return b.ctrl.Wait(ctx)
}

// Latest returns the newest published result, if any.
func (b *Builder) Latest() (session.Result, bool) {
	return b.ctrl.Latest()
}

// Explain describes why id is in the current selection.
func (b *Builder) Explain(id string) (*graph.Explanation, error) {
	b.mu.Lock()
	cat, roots := b.cat, append(slices.Clone(b.state.UserSelected), b.state.Forced...)
	b.mu.Unlock()

	g, err := graph.Build(cat, roots...)
	if err != nil {
		return nil, err
	}
	return g.Explain(id)
}

// Lockfile records a successful result as a project manifest.
func (b *Builder) Lockfile(r session.Result) (*lockfile.Lockfile, error) {
	if r.Err != nil {
		return nil, fmt.Errorf("result %d failed: %w", r.Seq, r.Err)
	}
	if r.Project == nil {
		return nil, fmt.Errorf("result %d has no project", r.Seq)
	}
	cat := r.Project.Catalog
	if cat == nil {
		cat = b.Catalog()
	}
	return lockfile.FromProject(b.cfg.projectName, r.Snapshot, cat, r.Project), nil
}

// Command formats the current selection as a scaffolding command line.
func (b *Builder) Command(packageManager string) (string, error) {
	return command.Format(command.FromSnapshot(b.cfg.projectName, b.Snapshot(), packageManager))
}

// Close stops the session. Results is closed once the running compile, if
// any, has returned.
func (b *Builder) Close() error {
	return b.ctrl.Close()
}

// snapshot must be called with b.mu held.
func (b *Builder) snapshot() selection.Snapshot {
	options, err := selection.ResolveOptions(b.cat, b.state.Effective, b.raw)
	if err != nil {
		b.log.Warn("option values rejected, using defaults", "error", err)
		options, _ = selection.ResolveOptions(b.cat, b.state.Effective, nil)
	}
	return selection.NewSnapshot(b.state, options)
}

// request must be called with b.mu held.
func (b *Builder) request() {
	seq := b.ctrl.RequestCompile(b.snapshot())
	b.log.Debug("compile requested", "seq", seq, "effective", b.state.Effective)
}

func (b *Builder) compile(_ context.Context, req session.Request) (*compile.Project, error) {
	b.mu.Lock()
	compiler := b.compiler
	b.mu.Unlock()

	return compiler.Compile(b.starter.Files, req.Snapshot.State.Effective, req.Snapshot.Options)
}
