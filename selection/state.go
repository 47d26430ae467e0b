package selection

import (
	"slices"
)

// State is one consistent selection. See the package documentation for the
// meaning of each set.
type State struct {
	// UserSelected holds the add-ons the user picked, oldest first.
	UserSelected []string `json:"userSelected"`

	// Effective is the resolved set of active add-ons, sorted.
	Effective []string `json:"effective"`

	// Forced holds the pinned add-ons, sorted.
	Forced []string `json:"forced,omitempty"`

	// Capabilities holds the enabled capabilities, sorted.
	Capabilities []string `json:"capabilities,omitempty"`
}

// Init seeds a State, typically from a starter's defaults.
type Init struct {
	UserSelected []string
	Forced       []string
	Capabilities []string
}

// IsSelected reports whether id is effective.
func (s State) IsSelected(id string) bool {
	_, ok := slices.BinarySearch(s.Effective, id)
	return ok
}

// IsUserSelected reports whether the user picked id.
func (s State) IsUserSelected(id string) bool {
	return slices.Contains(s.UserSelected, id)
}

// IsForced reports whether id is pinned.
func (s State) IsForced(id string) bool {
	_, ok := slices.BinarySearch(s.Forced, id)
	return ok
}

// HasCapability reports whether capability is enabled.
func (s State) HasCapability(capability string) bool {
	_, ok := slices.BinarySearch(s.Capabilities, capability)
	return ok
}

// Implied returns the effective add-ons that are neither user-selected nor
// forced, i.e. the ones pulled in by requirements.
func (s State) Implied() []string {
	var out []string
	for _, id := range s.Effective {
		if !s.IsUserSelected(id) && !s.IsForced(id) {
			out = append(out, id)
		}
	}
	return out
}

// Equal reports whether two states hold the same sets, with UserSelected
// compared in order.
func (s State) Equal(other State) bool {
	return slices.Equal(s.UserSelected, other.UserSelected) &&
		slices.Equal(s.Effective, other.Effective) &&
		slices.Equal(s.Forced, other.Forced) &&
		slices.Equal(s.Capabilities, other.Capabilities)
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	return State{
		UserSelected: slices.Clone(s.UserSelected),
		Effective:    slices.Clone(s.Effective),
		Forced:       slices.Clone(s.Forced),
		Capabilities: slices.Clone(s.Capabilities),
	}
}

func sortedSet(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// orderedSet removes duplicates from ids, keeping the last occurrence of
// each so that a re-toggled id counts as the most recent.
func orderedSet(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if seen[ids[i]] {
			continue
		}
		seen[ids[i]] = true
		out = append(out, ids[i])
	}
	slices.Reverse(out)
	return out
}
