package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	graphlib "github.com/dominikbraun/graph"

	"github.com/albertocavalcante/go-startkit/catalog"
)

// Graph is the requires graph of a set of add-ons. Edges point from an
// add-on to the add-ons it requires.
type Graph struct {
	g graphlib.Graph[string, string]

	// Roots are the add-ons the graph was built from, in the given order.
	Roots []string

	nodes map[string]*Node
}

// Node describes one add-on in the graph.
type Node struct {
	// ID is the add-on id.
	ID string

	// Category is the catalog category, empty for missing add-ons.
	Category string

	// Requires are the direct requirements, sorted.
	Requires []string

	// RequiredBy are the add-ons in the graph that directly require this one,
	// sorted.
	RequiredBy []string

	// IsRoot is true for add-ons the graph was built from.
	IsRoot bool

	// Missing is true when the id is referenced but absent from the catalog.
	Missing bool
}

// DependencyChain is a path of requirements from a root to an add-on.
type DependencyChain struct {
	Path []string
}

// String returns the chain as "a -> b -> c".
func (c DependencyChain) String() string {
	out := ""
	for i, id := range c.Path {
		if i > 0 {
			out += " -> "
		}
		out += id
	}
	return out
}

// Explanation tells why an add-on is part of the graph.
type Explanation struct {
	// AddOn is the add-on being explained.
	AddOn string

	// IsRoot is true when the add-on was selected directly.
	IsRoot bool

	// Chains are every requirement path from a root to the add-on.
	Chains []DependencyChain
}

// Stats provides statistics about the graph.
type Stats struct {
	Total      int
	Roots      int
	Transitive int
	Missing    int
	MaxDepth   int
}

// Build constructs the graph of roots and everything they transitively
// require. Requirements absent from the catalog become Missing nodes.
func Build(cat *catalog.Catalog, roots ...string) (*Graph, error) {
	ids, missing := cat.Closure(roots...)
	return build(cat, roots, ids, missing)
}

// FromCatalog constructs the graph of every add-on in the catalog. Roots are
// the add-ons nothing else requires.
func FromCatalog(cat *catalog.Catalog) (*Graph, error) {
	ids := cat.IDs()
	var roots []string
	for _, id := range ids {
		if len(cat.Dependents(id)) == 0 {
			roots = append(roots, id)
		}
	}
	var missing []string
	for _, reqs := range cat.Unresolved() {
		missing = append(missing, reqs...)
	}
	slices.Sort(missing)
	return build(cat, roots, ids, slices.Compact(missing))
}

func build(cat *catalog.Catalog, roots, ids, missing []string) (*Graph, error) {
	g := &Graph{
		g:     graphlib.New(graphlib.StringHash, graphlib.Directed()),
		nodes: make(map[string]*Node, len(ids)+len(missing)),
	}

	for _, id := range ids {
		def, _ := cat.Get(id)
		if err := g.addNode(&Node{ID: id, Category: def.Category}); err != nil {
			return nil, err
		}
	}
	for _, id := range missing {
		if err := g.addNode(&Node{ID: id, Missing: true}); err != nil {
			return nil, err
		}
	}

	for _, id := range ids {
		def, _ := cat.Get(id)
		for _, req := range def.Requires {
			if _, ok := g.nodes[req]; !ok {
				continue
			}
			err := g.g.AddEdge(id, req)
			if err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("add edge %s -> %s: %w", id, req, err)
			}
		}
	}

	for _, id := range roots {
		if node, ok := g.nodes[id]; ok && !node.IsRoot {
			node.IsRoot = true
			g.Roots = append(g.Roots, id)
		}
	}

	adjacency, err := g.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	for id, edges := range adjacency {
		g.nodes[id].Requires = slices.Sorted(maps.Keys(edges))
		for req := range edges {
			g.nodes[req].RequiredBy = append(g.nodes[req].RequiredBy, id)
		}
	}
	for _, node := range g.nodes {
		slices.Sort(node.RequiredBy)
	}

	return g, nil
}

func (g *Graph) addNode(node *Node) error {
	if err := g.g.AddVertex(node.ID); err != nil {
		if errors.Is(err, graphlib.ErrVertexAlreadyExists) {
			return nil
		}
		return fmt.Errorf("add vertex %s: %w", node.ID, err)
	}
	g.nodes[node.ID] = node
	return nil
}
