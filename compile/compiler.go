package compile

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/albertocavalcante/go-startkit/addon"
	"github.com/albertocavalcante/go-startkit/catalog"
	"github.com/albertocavalcante/go-startkit/internal/logutil"
)

// Compiler turns a skeleton plus a selection into a Project. A Compiler is
// safe for concurrent use; Compile holds no state between calls.
type Compiler struct {
	cat *catalog.Catalog
	cfg *config
	log *slog.Logger
}

// New creates a Compiler over cat.
func New(cat *catalog.Catalog, opts ...Option) (*Compiler, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Compiler{cat: cat, cfg: cfg, log: logutil.OrDiscard(cfg.logger)}, nil
}

// Catalog returns the catalog the compiler reads definitions from.
func (c *Compiler) Catalog() *catalog.Catalog {
	return c.cat
}

// entry is one file of the working tree.
type entry struct {
	doc    *document
	raw    string
	binary bool
	owner  string
}

func (e *entry) content() string {
	if e.binary {
		return e.raw
	}
	return e.doc.String()
}

// run holds the working tree of one Compile call.
type run struct {
	files    map[string]*entry
	warnings []Warning
	ids      int
}

// Compile applies selected add-ons to skeleton. options holds resolved
// option values per add-on id and may be nil.
func (c *Compiler) Compile(skeleton map[string]string, selected []string, options map[string]addon.Values) (*Project, error) {
	if err := c.checkRegistry(selected); err != nil {
		c.log.Error("compile aborted", "error", err)
		return nil, err
	}

	r := &run{files: make(map[string]*entry, len(skeleton))}
	for _, path := range slices.Sorted(maps.Keys(skeleton)) {
		r.write(c, path, substitute(skeleton[path], c.cfg.vars), addon.Base)
	}

	order := c.cat.CompileOrder(selected)
	for _, id := range order {
		def, _ := c.cat.Get(id)
		c.apply(r, def, addOnVars(c.cfg.vars, options[id]))
	}

	project := &Project{
		Files:        make(map[string]string, len(r.files)),
		Attributions: make(map[string][]LineAttribution, len(r.files)),
		Owners:       make(map[string]string, len(r.files)),
		Warnings:     r.warnings,
		Order:        order,
		Catalog:      c.cat,
	}
	for path, e := range r.files {
		project.Files[path] = e.content()
		project.Owners[path] = e.owner
		if e.binary {
			project.Binary = append(project.Binary, path)
			continue
		}
		project.Attributions[path] = e.doc.attributions()
	}
	slices.Sort(project.Binary)

	c.log.Debug("compile finished",
		"addOns", len(order),
		"files", len(project.Files),
		"warnings", len(project.Warnings))
	return project, nil
}

// checkRegistry fails on the first selected id, or requirement of one, that
// the catalog does not contain. Ids are checked in sorted order so the
// reported error is stable.
func (c *Compiler) checkRegistry(selected []string) error {
	ids := slices.Clone(selected)
	slices.Sort(ids)
	for _, id := range slices.Compact(ids) {
		if !c.cat.Has(id) {
			return &RegistryInconsistencyError{Missing: id}
		}
	}
	closure, _ := c.cat.Closure(ids...)
	slices.Sort(closure)
	for _, id := range closure {
		def, _ := c.cat.Get(id)
		for _, req := range def.Requires {
			if !c.cat.Has(req) {
				return &RegistryInconsistencyError{RequiredBy: id, Missing: req}
			}
		}
	}
	return nil
}

func (c *Compiler) apply(r *run, def *addon.Definition, vars map[string]string) {
	for _, path := range def.FilePaths() {
		content := def.Files[path]
		if !c.isBinary(path, content) {
			content = substitute(content, vars)
		}
		if prev, ok := r.files[path]; ok {
			r.warn(c, Warning{Kind: WarningOverwrite, Path: path, AddOn: def.ID, Superseded: prev.owner})
		}
		r.write(c, path, content, def.ID)
	}

	for _, path := range def.InjectionTargets() {
		c.inject(r, def, path, vars)
	}
}

func (c *Compiler) inject(r *run, def *addon.Definition, path string, vars map[string]string) {
	injections := def.Injections[path]
	target, ok := r.files[path]
	switch {
	case !ok:
		r.warn(c, Warning{Kind: WarningTargetMissing, Path: path, AddOn: def.ID})
		return
	case target.binary:
		r.warn(c, Warning{Kind: WarningBinaryTarget, Path: path, AddOn: def.ID})
		return
	}

	// Resolve every marker before splicing so fragments cannot create
	// markers, then apply in file order.
	type located struct {
		markerID int
		index    int
		content  string
	}
	var found []located
	for _, inj := range injections {
		id, ok := target.doc.findMarker(inj.Marker)
		if !ok {
			r.warn(c, Warning{Kind: WarningMarkerNotFound, Path: path, AddOn: def.ID, Marker: inj.Marker})
			continue
		}
		found = append(found, located{markerID: id, index: target.doc.indexOf(id), content: substitute(inj.Content, vars)})
	}
	slices.SortStableFunc(found, func(a, b located) int {
		return a.index - b.index
	})
	for _, f := range found {
		target.doc.injectAfter(f.markerID, f.content, def.ID)
	}
}

func (r *run) write(c *Compiler, path, content, owner string) {
	if c.isBinary(path, content) {
		r.files[path] = &entry{raw: content, binary: true, owner: owner}
		return
	}
	r.files[path] = &entry{doc: newDocument(content, owner, &r.ids), owner: owner}
}

func (r *run) warn(c *Compiler, w Warning) {
	c.log.Debug("compile warning", "kind", string(w.Kind), "path", w.Path, "addOn", w.AddOn)
	r.warnings = append(r.warnings, w)
}
