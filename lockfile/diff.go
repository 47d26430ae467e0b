package lockfile

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// Diff describes what changed between two manifests.
type Diff struct {
	VersionChanged bool
	OldVersion     int
	NewVersion     int

	// AddedAddOns and RemovedAddOns compare the effective sets.
	AddedAddOns   []string
	RemovedAddOns []string

	// ChangedAddOns are add-ons present in both whose definition hash differs.
	ChangedAddOns []HashChange

	// OptionsChanged lists add-ons whose option values differ.
	OptionsChanged []string

	AddedFiles   []string
	RemovedFiles []string
	ChangedFiles []HashChange
}

// HashChange represents a hash change for a key.
type HashChange struct {
	Key     string
	OldHash string
	NewHash string
}

// IsEmpty returns true if there are no differences.
func (d *Diff) IsEmpty() bool {
	return !d.VersionChanged &&
		len(d.AddedAddOns) == 0 && len(d.RemovedAddOns) == 0 && len(d.ChangedAddOns) == 0 &&
		len(d.OptionsChanged) == 0 &&
		len(d.AddedFiles) == 0 && len(d.RemovedFiles) == 0 && len(d.ChangedFiles) == 0
}

// Summary returns a human-readable summary of the differences.
func (d *Diff) Summary() string {
	if d.IsEmpty() {
		return "no changes"
	}

	var b strings.Builder
	if d.VersionChanged {
		fmt.Fprintf(&b, "version: %d -> %d\n", d.OldVersion, d.NewVersion)
	}
	if len(d.AddedAddOns) > 0 {
		fmt.Fprintf(&b, "added add-ons: %s\n", strings.Join(d.AddedAddOns, ", "))
	}
	if len(d.RemovedAddOns) > 0 {
		fmt.Fprintf(&b, "removed add-ons: %s\n", strings.Join(d.RemovedAddOns, ", "))
	}
	if len(d.ChangedAddOns) > 0 {
		fmt.Fprintf(&b, "changed add-ons: %d\n", len(d.ChangedAddOns))
	}
	if len(d.OptionsChanged) > 0 {
		fmt.Fprintf(&b, "options changed: %s\n", strings.Join(d.OptionsChanged, ", "))
	}
	if len(d.AddedFiles) > 0 {
		fmt.Fprintf(&b, "added: %d files\n", len(d.AddedFiles))
	}
	if len(d.RemovedFiles) > 0 {
		fmt.Fprintf(&b, "removed: %d files\n", len(d.RemovedFiles))
	}
	if len(d.ChangedFiles) > 0 {
		fmt.Fprintf(&b, "changed: %d files\n", len(d.ChangedFiles))
	}
	return b.String()
}

// Compare compares two manifests and returns the differences.
func Compare(old, new *Lockfile) *Diff {
	diff := &Diff{}

	if old.Version != new.Version {
		diff.VersionChanged = true
		diff.OldVersion = old.Version
		diff.NewVersion = new.Version
	}

	diff.AddedAddOns, diff.RemovedAddOns = setDiff(old.Effective, new.Effective)
	for _, id := range new.Effective {
		oldHash, ok := old.AddOnHashes[id]
		newHash := new.AddOnHashes[id]
		if ok && slices.Contains(old.Effective, id) && oldHash != newHash {
			diff.ChangedAddOns = append(diff.ChangedAddOns, HashChange{Key: id, OldHash: oldHash, NewHash: newHash})
		}
	}

	ids := make(map[string]bool)
	for id := range old.Options {
		ids[id] = true
	}
	for id := range new.Options {
		ids[id] = true
	}
	for id := range ids {
		if !reflect.DeepEqual(old.Options[id], new.Options[id]) {
			diff.OptionsChanged = append(diff.OptionsChanged, id)
		}
	}

	diff.AddedFiles, diff.RemovedFiles = setDiff(slices.Collect(maps.Keys(old.FileHashes)), slices.Collect(maps.Keys(new.FileHashes)))
	for path, newHash := range new.FileHashes {
		if oldHash, ok := old.FileHashes[path]; ok && oldHash != newHash {
			diff.ChangedFiles = append(diff.ChangedFiles, HashChange{Key: path, OldHash: oldHash, NewHash: newHash})
		}
	}

	// Sort for deterministic output
	slices.Sort(diff.OptionsChanged)
	byKey := func(a, b HashChange) int { return strings.Compare(a.Key, b.Key) }
	slices.SortFunc(diff.ChangedAddOns, byKey)
	slices.SortFunc(diff.ChangedFiles, byKey)
	return diff
}

// setDiff returns the sorted elements only in b and only in a.
func setDiff(a, b []string) (added, removed []string) {
	inA := make(map[string]bool, len(a))
	for _, s := range a {
		inA[s] = true
	}
	inB := make(map[string]bool, len(b))
	for _, s := range b {
		inB[s] = true
		if !inA[s] {
			added = append(added, s)
		}
	}
	for _, s := range a {
		if !inB[s] {
			removed = append(removed, s)
		}
	}
	slices.Sort(added)
	slices.Sort(removed)
	return added, removed
}
