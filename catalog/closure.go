package catalog

import (
	"slices"
	"sort"
)

// Closure returns roots plus everything they transitively require, in
// breadth-first discovery order. Each id is visited at most once, so cyclic
// requirement graphs from untrusted documents terminate.
//
// Ids that are not in the catalog (a root or a requirement) are returned in
// missing, sorted, and are not expanded further.
func (c *Catalog) Closure(roots ...string) (ids []string, missing []string) {
	visited := make(map[string]bool, len(roots))
	absent := make(map[string]bool)

	queue := make([]string, 0, len(roots))
	for _, id := range roots {
		if visited[id] || absent[id] {
			continue
		}
		if !c.Has(id) {
			absent[id] = true
			continue
		}
		visited[id] = true
		queue = append(queue, id)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		ids = append(ids, current)

		for _, req := range c.defs[current].Requires {
			if visited[req] || absent[req] {
				continue
			}
			if !c.Has(req) {
				absent[req] = true
				continue
			}
			visited[req] = true
			queue = append(queue, req)
		}
	}

	for id := range absent {
		missing = append(missing, id)
	}
	slices.Sort(missing)
	return ids, missing
}

// Requires reports whether from transitively requires to.
func (c *Catalog) Requires(from, to string) bool {
	if from == to {
		return false
	}
	ids, _ := c.Closure(from)
	return slices.Contains(ids, to)
}

// SelfConflict returns the first pair of add-ons in the closure of id that
// share an exclusive group. Such an add-on can never be selected.
func (c *Catalog) SelfConflict(id string) (a, b string, ok bool) {
	closure, _ := c.Closure(id)
	for i, x := range closure {
		for _, y := range closure[i+1:] {
			if c.Conflicts(x, y) {
				return x, y, true
			}
		}
	}
	return "", "", false
}

// CompileOrder sorts ids into the fixed compile order: catalog add-ons by
// category rank then id, followed by custom add-ons by id. Ids unknown to the
// catalog come last.
func (c *Catalog) CompileOrder(ids []string) []string {
	out := slices.Clone(ids)
	sort.SliceStable(out, func(i, j int) bool {
		return c.lessForCompile(out[i], out[j])
	})
	return slices.Compact(out)
}

func (c *Catalog) lessForCompile(a, b string) bool {
	ka, kb := c.sortKey(a), c.sortKey(b)
	if ka.tier != kb.tier {
		return ka.tier < kb.tier
	}
	if ka.rank != kb.rank {
		return ka.rank < kb.rank
	}
	return a < b
}

type compileKey struct {
	tier int // 0 catalog, 1 custom, 2 unknown
	rank int
}

func (c *Catalog) sortKey(id string) compileKey {
	def, ok := c.defs[id]
	if !ok {
		return compileKey{tier: 2}
	}
	if def.Custom {
		return compileKey{tier: 1}
	}
	return compileKey{rank: c.rank[categoryOf(def)]}
}
