package compile

import (
	"maps"
	"slices"

	"github.com/albertocavalcante/go-startkit/catalog"
)

// LineAttribution records which add-on produced one line of a file.
type LineAttribution struct {
	Line  int    `json:"line"`
	AddOn string `json:"addOn"`
}

// Project is the immutable result of one compile. It is superseded wholesale
// by the next compile and never patched in place.
type Project struct {
	// Files maps a path to its final content. Binary content keeps its
	// BinaryPrefix encoding.
	Files map[string]string `json:"files"`

	// Attributions maps every text file to one record per line, in line
	// order. Binary files have no entry.
	Attributions map[string][]LineAttribution `json:"attributions"`

	// Owners maps every file to the add-on (or "base") that last wrote it
	// in full.
	Owners map[string]string `json:"owners"`

	// Warnings lists non-fatal events in the order they occurred.
	Warnings []Warning `json:"warnings,omitempty"`

	// Order is the add-on apply order.
	Order []string `json:"order"`

	// Binary lists the paths of binary files, sorted.
	Binary []string `json:"binary,omitempty"`

	// Catalog is the catalog the project was compiled against.
	Catalog *catalog.Catalog `json:"-"`
}

// Paths returns every file path, sorted.
func (p *Project) Paths() []string {
	return slices.Sorted(maps.Keys(p.Files))
}

// Lines returns the attribution of path, or nil for binary or unknown
// files.
func (p *Project) Lines(path string) []LineAttribution {
	return p.Attributions[path]
}

// Owner returns the add-on that last wrote path in full.
func (p *Project) Owner(path string) string {
	return p.Owners[path]
}

// IsBinary reports whether path holds binary content.
func (p *Project) IsBinary(path string) bool {
	_, ok := slices.BinarySearch(p.Binary, path)
	return ok
}

// Contributors returns the distinct add-ons that own at least one line of
// path, sorted.
func (p *Project) Contributors(path string) []string {
	seen := make(map[string]bool)
	for _, a := range p.Attributions[path] {
		seen[a.AddOn] = true
	}
	return slices.Sorted(maps.Keys(seen))
}

// FilesBy returns the paths where addOn owns at least one line or the
// whole binary file, sorted.
func (p *Project) FilesBy(addOn string) []string {
	var out []string
	for _, path := range p.Paths() {
		if p.IsBinary(path) {
			if p.Owners[path] == addOn {
				out = append(out, path)
			}
			continue
		}
		if slices.Contains(p.Contributors(path), addOn) {
			out = append(out, path)
		}
	}
	return out
}

// WarningsFor returns the warnings raised while applying addOn.
func (p *Project) WarningsFor(addOn string) []Warning {
	var out []Warning
	for _, w := range p.Warnings {
		if w.AddOn == addOn {
			out = append(out, w)
		}
	}
	return out
}
