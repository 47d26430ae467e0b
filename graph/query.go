package graph

import (
	"fmt"
	"slices"

	graphlib "github.com/dominikbraun/graph"
)

// Get returns the node for an add-on, or nil if not found.
func (g *Graph) Get(id string) *Node {
	return g.nodes[id]
}

// Contains returns true if the graph contains the add-on.
func (g *Graph) Contains(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// IDs returns every add-on in the graph, sorted.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// DirectDeps returns the direct requirements of an add-on.
func (g *Graph) DirectDeps(id string) []string {
	if node := g.nodes[id]; node != nil {
		return node.Requires
	}
	return nil
}

// Dependents returns the add-ons that directly require id.
func (g *Graph) Dependents(id string) []string {
	if node := g.nodes[id]; node != nil {
		return node.RequiredBy
	}
	return nil
}

// TransitiveDeps returns everything id transitively requires, in
// breadth-first order.
func (g *Graph) TransitiveDeps(id string) []string {
	return g.walk(id, func(n *Node) []string { return n.Requires })
}

// TransitiveDependents returns every add-on that transitively requires id,
// closest first.
func (g *Graph) TransitiveDependents(id string) []string {
	return g.walk(id, func(n *Node) []string { return n.RequiredBy })
}

func (g *Graph) walk(id string, next func(*Node) []string) []string {
	result := make([]string, 0)
	visited := map[string]bool{id: true}
	queue := []string{id}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.nodes[current]
		if node == nil {
			continue
		}
		for _, dep := range next(node) {
			if !visited[dep] {
				visited[dep] = true
				result = append(result, dep)
				queue = append(queue, dep)
			}
		}
	}
	return result
}

// Path finds the shortest requirement path from one add-on to another.
// Returns nil if no path exists.
func (g *Graph) Path(from, to string) []string {
	if _, ok := g.nodes[from]; !ok {
		return nil
	}
	if from == to {
		return []string{from}
	}

	type queueItem struct {
		id   string
		path []string
	}

	visited := map[string]bool{from: true}
	queue := []queueItem{{id: from, path: []string{from}}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dep := range g.nodes[current.id].Requires {
			if dep == to {
				return append(slices.Clone(current.path), dep)
			}
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, queueItem{id: dep, path: append(slices.Clone(current.path), dep)})
			}
		}
	}
	return nil
}

// AllPaths finds every simple requirement path from one add-on to another,
// in lexical order of the visited ids.
func (g *Graph) AllPaths(from, to string) [][]string {
	if _, ok := g.nodes[from]; !ok {
		return nil
	}
	var result [][]string
	g.findAllPaths(from, to, []string{from}, make(map[string]bool), &result)
	return result
}

func (g *Graph) findAllPaths(current, target string, path []string, visited map[string]bool, result *[][]string) {
	if current == target {
		*result = append(*result, slices.Clone(path))
		return
	}

	visited[current] = true
	defer func() { visited[current] = false }()

	for _, dep := range g.nodes[current].Requires {
		if !visited[dep] {
			g.findAllPaths(dep, target, append(path, dep), visited, result)
		}
	}
}

// Explain returns every chain from a root to the add-on.
func (g *Graph) Explain(id string) (*Explanation, error) {
	node := g.nodes[id]
	if node == nil {
		return nil, fmt.Errorf("add-on %q not found in graph", id)
	}

	explanation := &Explanation{AddOn: id, IsRoot: node.IsRoot}
	for _, root := range g.Roots {
		for _, path := range g.AllPaths(root, id) {
			if len(path) < 2 {
				continue
			}
			explanation.Chains = append(explanation.Chains, DependencyChain{Path: path})
		}
	}
	return explanation, nil
}

// Leaves returns the add-ons that require nothing, sorted.
func (g *Graph) Leaves() []string {
	var leaves []string
	for _, id := range g.IDs() {
		if len(g.nodes[id].Requires) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

// FindCycles returns every requirement cycle. Each cycle is sorted and the
// list is ordered by its first member.
func (g *Graph) FindCycles() [][]string {
	components, err := graphlib.StronglyConnectedComponents(g.g)
	if err != nil {
		return nil
	}

	var cycles [][]string
	for _, component := range components {
		if len(component) < 2 {
			continue
		}
		cycle := slices.Clone(component)
		slices.Sort(cycle)
		cycles = append(cycles, cycle)
	}
	slices.SortFunc(cycles, func(a, b []string) int {
		return slices.Compare(a, b)
	})
	return cycles
}

// HasCycles returns true if the graph contains a requirement cycle.
func (g *Graph) HasCycles() bool {
	return len(g.FindCycles()) > 0
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() Stats {
	stats := Stats{
		Total: len(g.nodes),
		Roots: len(g.Roots),
	}
	for _, node := range g.nodes {
		if node.Missing {
			stats.Missing++
		}
	}
	stats.Transitive = max(stats.Total-stats.Roots-stats.Missing, 0)
	stats.MaxDepth = g.maxDepth()
	return stats
}

func (g *Graph) maxDepth() int {
	depths := make(map[string]int)
	onPath := make(map[string]bool)
	var maxDepth int

	var dfs func(id string, depth int)
	dfs = func(id string, depth int) {
		if onPath[id] {
			return
		}
		if existing, ok := depths[id]; ok && existing >= depth {
			return
		}
		depths[id] = depth
		maxDepth = max(maxDepth, depth)

		onPath[id] = true
		for _, dep := range g.nodes[id].Requires {
			dfs(dep, depth+1)
		}
		delete(onPath, id)
	}

	for _, root := range g.Roots {
		dfs(root, 0)
	}
	return maxDepth
}
