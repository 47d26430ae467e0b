package addon

import (
	"maps"
	"slices"
)

// Base is the owner recorded for content that came from the starter
// skeleton rather than from an add-on.
const Base = "base"

// Definition is an immutable catalog entry describing one add-on.
type Definition struct {
	// ID is the unique key of the add-on.
	ID string `json:"id" yaml:"id"`

	// Name is the display name.
	Name string `json:"name" yaml:"name"`

	// Description is a one-line summary shown next to the toggle.
	Description string `json:"description" yaml:"description"`

	// Category groups add-ons and drives the compile order.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Link points at the add-on documentation.
	Link string `json:"link,omitempty" yaml:"link,omitempty"`

	// Requires lists add-ons that must be selected whenever this one is.
	// The relation is transitive.
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`

	// ExclusiveGroups are tags; at most one selected add-on per tag may be
	// active at a time.
	ExclusiveGroups []string `json:"exclusiveGroups,omitempty" yaml:"exclusiveGroups,omitempty"`

	// RequiresCapability names a precondition of the hosting project (for
	// example "tailwind"). When it is unmet the add-on cannot be selected.
	RequiresCapability string `json:"requiresCapability,omitempty" yaml:"requiresCapability,omitempty"`

	// Options is the typed configuration schema, keyed by option name.
	Options map[string]OptionField `json:"options,omitempty" yaml:"options,omitempty"`

	// Files maps a project path to the full content this add-on writes there.
	Files map[string]string `json:"files,omitempty" yaml:"files,omitempty"`

	// Injections maps a project path to fragments spliced into that file.
	Injections map[string][]Injection `json:"injections,omitempty" yaml:"injections,omitempty"`

	// Custom marks add-ons imported at runtime from an external document.
	// Custom add-ons always compile after catalog add-ons.
	Custom bool `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// Injection is a content fragment placed right after the line holding Marker.
type Injection struct {
	Marker  string `json:"marker" yaml:"marker"`
	Content string `json:"content" yaml:"content"`
}

// HasGroup reports whether the definition carries the exclusivity tag.
func (d *Definition) HasGroup(group string) bool {
	return slices.Contains(d.ExclusiveGroups, group)
}

// SharesGroup reports whether two definitions carry a common exclusivity tag.
func (d *Definition) SharesGroup(other *Definition) bool {
	for _, g := range d.ExclusiveGroups {
		if other.HasGroup(g) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the definition.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	c := *d
	c.Requires = slices.Clone(d.Requires)
	c.ExclusiveGroups = slices.Clone(d.ExclusiveGroups)
	c.Files = maps.Clone(d.Files)
	if d.Options != nil {
		c.Options = make(map[string]OptionField, len(d.Options))
		for name, field := range d.Options {
			field.Values = slices.Clone(field.Values)
			c.Options[name] = field
		}
	}
	if d.Injections != nil {
		c.Injections = make(map[string][]Injection, len(d.Injections))
		for path, list := range d.Injections {
			c.Injections[path] = slices.Clone(list)
		}
	}
	return &c
}

// InjectionTargets returns the paths this add-on injects into, sorted.
func (d *Definition) InjectionTargets() []string {
	return slices.Sorted(maps.Keys(d.Injections))
}

// FilePaths returns the paths this add-on creates, sorted.
func (d *Definition) FilePaths() []string {
	return slices.Sorted(maps.Keys(d.Files))
}
