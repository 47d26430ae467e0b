package compile

import (
	"slices"
)

// Changes describes how the file tree moved between two compiles.
//
// A sandbox that already mounted old only needs Changes to catch up:
//
//	changes := compile.Diff(previous, current)
//	for _, path := range changes.Removed {
//	    fs.Remove(path)
//	}
//	for _, path := range changes.Written() {
//	    fs.Write(path, current.Files[path])
//	}
type Changes struct {
	// Added contains paths present in new but not in old.
	Added []string `json:"added,omitempty"`

	// Removed contains paths present in old but not in new.
	Removed []string `json:"removed,omitempty"`

	// Modified contains paths present in both with different content.
	Modified []string `json:"modified,omitempty"`
}

// IsEmpty returns true if the file trees are identical.
func (c *Changes) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// TotalChanges returns the number of changed paths.
func (c *Changes) TotalChanges() int {
	return len(c.Added) + len(c.Removed) + len(c.Modified)
}

// Written returns Added and Modified merged, sorted.
func (c *Changes) Written() []string {
	out := append(slices.Clone(c.Added), c.Modified...)
	slices.Sort(out)
	return out
}

// Diff compares two projects. A nil project is treated as empty. Results
// are sorted by path.
func Diff(old, new *Project) *Changes {
	changes := &Changes{}

	var oldFiles, newFiles map[string]string
	if old != nil {
		oldFiles = old.Files
	}
	if new != nil {
		newFiles = new.Files
	}

	for path, content := range newFiles {
		prev, existed := oldFiles[path]
		switch {
		case !existed:
			changes.Added = append(changes.Added, path)
		case prev != content:
			changes.Modified = append(changes.Modified, path)
		}
	}
	for path := range oldFiles {
		if _, ok := newFiles[path]; !ok {
			changes.Removed = append(changes.Removed, path)
		}
	}

	slices.Sort(changes.Added)
	slices.Sort(changes.Removed)
	slices.Sort(changes.Modified)
	return changes
}
