// Package catalog holds the Feature Registry: a read-only snapshot of add-on
// definitions loaded at session start.
//
// A Catalog never changes after construction. Importing a custom add-on at
// runtime produces a new Catalog through With, so readers holding the old
// snapshot are never affected.
package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/albertocavalcante/go-startkit/addon"
)

// Sentinel errors for catalog construction.
var (
	// ErrDuplicateAddOn indicates two definitions share an id.
	ErrDuplicateAddOn = errors.New("duplicate add-on id")

	// ErrInvalidAddOn indicates a definition failed structural validation.
	ErrInvalidAddOn = errors.New("invalid add-on definition")
)

// DefaultCategoryOrder is the compile order of well-known categories.
var DefaultCategoryOrder = []string{
	"toolchain",
	"styling",
	"database",
	"orm",
	"auth",
	"api",
	"monitoring",
	"deployment",
	"example",
	"other",
}

// Catalog is an immutable set of add-on definitions.
// It is safe for concurrent use.
type Catalog struct {
	defs       map[string]*addon.Definition
	ids        []string
	order      []string
	categories []string
	rank       map[string]int
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithCategoryOrder overrides the category compile order.
func WithCategoryOrder(categories ...string) Option {
	return func(c *Catalog) {
		c.order = slices.Clone(categories)
	}
}

// New builds a catalog from definitions. Every definition is validated and
// cloned; the caller's values are never retained.
func New(defs []*addon.Definition, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		defs:  make(map[string]*addon.Definition, len(defs)),
		order: slices.Clone(DefaultCategoryOrder),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, def := range defs {
		if def == nil {
			continue
		}
		if err := c.insert(def); err != nil {
			return nil, err
		}
	}
	c.index()
	return c, nil
}

// MustNew is like New but panics on error. Intended for tests and static
// catalogs compiled into a binary.
func MustNew(defs []*addon.Definition, opts ...Option) *Catalog {
	c, err := New(defs, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) insert(def *addon.Definition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidAddOn, def.ID, err)
	}
	if _, exists := c.defs[def.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateAddOn, def.ID)
	}
	c.defs[def.ID] = def.Clone()
	return nil
}

func (c *Catalog) index() {
	c.ids = slices.Sorted(maps.Keys(c.defs))

	// Categories present in definitions but absent from the configured order
	// rank after it, alphabetically.
	c.categories = slices.Clone(c.order)
	known := make(map[string]bool, len(c.categories))
	for _, cat := range c.categories {
		known[cat] = true
	}
	var extra []string
	for _, id := range c.ids {
		cat := categoryOf(c.defs[id])
		if !known[cat] {
			known[cat] = true
			extra = append(extra, cat)
		}
	}
	slices.Sort(extra)
	c.categories = append(c.categories, extra...)

	c.rank = make(map[string]int, len(c.categories))
	for i, cat := range c.categories {
		if _, ok := c.rank[cat]; !ok {
			c.rank[cat] = i
		}
	}
}

// With returns a new catalog that also contains def. The receiver is left
// untouched. Used when a custom add-on is imported during a session.
func (c *Catalog) With(def *addon.Definition) (*Catalog, error) {
	next := &Catalog{
		defs:  maps.Clone(c.defs),
		order: c.order,
	}
	if next.defs == nil {
		next.defs = make(map[string]*addon.Definition)
	}
	if err := next.insert(def); err != nil {
		return nil, err
	}
	next.index()
	return next, nil
}

// Get returns the definition for id. The returned value must not be modified.
func (c *Catalog) Get(id string) (*addon.Definition, bool) {
	def, ok := c.defs[id]
	return def, ok
}

// Has reports whether the catalog contains id.
func (c *Catalog) Has(id string) bool {
	_, ok := c.defs[id]
	return ok
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// IDs returns every add-on id in sorted order.
func (c *Catalog) IDs() []string {
	return slices.Clone(c.ids)
}

// Definitions returns every definition in id order.
func (c *Catalog) Definitions() []*addon.Definition {
	out := make([]*addon.Definition, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.defs[id])
	}
	return out
}

// Categories returns the category order used for compilation.
func (c *Catalog) Categories() []string {
	return slices.Clone(c.categories)
}

// Conflicts reports whether a and b share an exclusivity group.
// Unknown ids never conflict.
func (c *Catalog) Conflicts(a, b string) bool {
	if a == b {
		return false
	}
	da, okA := c.defs[a]
	db, okB := c.defs[b]
	if !okA || !okB {
		return false
	}
	return da.SharesGroup(db)
}

// Dependents returns the add-ons that directly require id, sorted.
func (c *Catalog) Dependents(id string) []string {
	var out []string
	for _, other := range c.ids {
		if slices.Contains(c.defs[other].Requires, id) {
			out = append(out, other)
		}
	}
	return out
}

// Unresolved returns, for every add-on with dangling requirements, the
// required ids that are absent from the catalog.
func (c *Catalog) Unresolved() map[string][]string {
	out := make(map[string][]string)
	for _, id := range c.ids {
		for _, req := range c.defs[id].Requires {
			if _, ok := c.defs[req]; !ok {
				out[id] = append(out[id], req)
			}
		}
	}
	return out
}

func categoryOf(def *addon.Definition) string {
	if def.Category == "" {
		return "other"
	}
	return def.Category
}
