package selection

import (
	"slices"

	"github.com/albertocavalcante/go-startkit/catalog"
)

// New builds the initial state of a session. Unknown ids are kept so that
// a broken catalog surfaces at compile time rather than being hidden here.
func New(cat *catalog.Catalog, init Init) State {
	return resolve(cat, init.UserSelected, init.Forced, init.Capabilities)
}

// Toggle flips id and returns the resulting state. It is a no-op when id is
// forced, unknown to the catalog, or cannot be turned on because it needs a
// disabled capability or its closure conflicts with itself or with a forced
// add-on.
func Toggle(cat *catalog.Catalog, s State, id string) State {
	// Step 1: pinned and unknown add-ons never change.
	if s.IsForced(id) || !cat.Has(id) {
		return s.Clone()
	}

	// Step 2: turning off recomputes from the remaining roots.
	if s.IsUserSelected(id) {
		user := slices.DeleteFunc(slices.Clone(s.UserSelected), func(u string) bool { return u == id })
		return resolve(cat, user, s.Forced, s.Capabilities)
	}

	// Step 3: turning on evicts prior occupants of every exclusive group the
	// candidate closure touches.
	if Disabled(cat, s, id) {
		return s.Clone()
	}
	candidate, _ := cat.Closure(id)
	evicted := make(map[string]bool)
	for _, e := range s.Effective {
		if slices.Contains(candidate, e) {
			continue
		}
		for _, c := range candidate {
			if cat.Conflicts(c, e) {
				evicted[e] = true
				break
			}
		}
	}

	user := make([]string, 0, len(s.UserSelected)+1)
	for _, root := range s.UserSelected {
		if !needsAny(cat, root, evicted) {
			user = append(user, root)
		}
	}
	user = append(user, id)

	// Steps 4 and 5.
	return resolve(cat, user, s.Forced, s.Capabilities)
}

// SetCapability enables or disables a capability. Disabling silently evicts
// every user-selected add-on whose closure needs it.
func SetCapability(cat *catalog.Catalog, s State, capability string, enabled bool) State {
	caps := slices.DeleteFunc(slices.Clone(s.Capabilities), func(c string) bool { return c == capability })
	if enabled {
		caps = append(caps, capability)
	}
	return resolve(cat, s.UserSelected, s.Forced, caps)
}

// Disabled reports whether id cannot be turned on in s: its closure needs a
// capability that is not enabled, conflicts with itself, or conflicts with a
// forced add-on.
func Disabled(cat *catalog.Catalog, s State, id string) bool {
	if !cat.Has(id) {
		return true
	}
	if _, _, ok := cat.SelfConflict(id); ok {
		return true
	}
	closure, _ := cat.Closure(id)
	if !capabilitiesMet(cat, closure, s.Capabilities) {
		return true
	}
	pinned, _ := cat.Closure(s.Forced...)
	for _, c := range closure {
		for _, p := range pinned {
			if c != p && cat.Conflicts(c, p) {
				return true
			}
		}
	}
	return false
}

// resolve derives a consistent state from roots.
func resolve(cat *catalog.Catalog, user, forced, caps []string) State {
	forced = sortedSet(forced)
	caps = sortedSet(caps)
	user = orderedSet(slices.DeleteFunc(slices.Clone(user), func(id string) bool {
		_, pinned := slices.BinarySearch(forced, id)
		return pinned
	}))

	var accepted []string
	effective := make(map[string]bool)
	// A pinned add-on with an unmet capability stays in Forced but is not
	// effective.
	admit := func(root string, pinned bool) bool {
		closure, missing := cat.Closure(root)
		if !capabilitiesMet(cat, closure, caps) {
			return false
		}
		if !pinned && !compatible(cat, closure, effective) {
			return false
		}
		for _, id := range closure {
			effective[id] = true
		}
		for _, id := range missing {
			effective[id] = true
		}
		return true
	}

	for _, id := range forced {
		admit(id, true)
	}

	// Latest user-selected wins exclusivity ambiguities.
	for i := len(user) - 1; i >= 0; i-- {
		if admit(user[i], false) {
			accepted = append(accepted, user[i])
		}
	}
	slices.Reverse(accepted)

	out := State{
		UserSelected: accepted,
		Effective:    make([]string, 0, len(effective)),
		Forced:       forced,
		Capabilities: caps,
	}
	if out.UserSelected == nil {
		out.UserSelected = []string{}
	}
	for id := range effective {
		out.Effective = append(out.Effective, id)
	}
	slices.Sort(out.Effective)
	return out
}

// compatible reports whether closure can join effective without breaking an
// exclusive group, including groups shared inside closure itself.
func compatible(cat *catalog.Catalog, closure []string, effective map[string]bool) bool {
	for i, a := range closure {
		for _, b := range closure[i+1:] {
			if cat.Conflicts(a, b) {
				return false
			}
		}
		if effective[a] {
			continue
		}
		for e := range effective {
			if cat.Conflicts(a, e) {
				return false
			}
		}
	}
	return true
}

func capabilitiesMet(cat *catalog.Catalog, ids, caps []string) bool {
	for _, id := range ids {
		def, ok := cat.Get(id)
		if !ok || def.RequiresCapability == "" {
			continue
		}
		if _, ok := slices.BinarySearch(caps, def.RequiresCapability); !ok {
			return false
		}
	}
	return true
}

func needsAny(cat *catalog.Catalog, root string, ids map[string]bool) bool {
	if len(ids) == 0 {
		return false
	}
	closure, _ := cat.Closure(root)
	for _, id := range closure {
		if ids[id] {
			return true
		}
	}
	return false
}
