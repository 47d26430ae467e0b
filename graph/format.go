package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const separatorWidth = 60

// JSONGraph is the JSON shape of a graph.
type JSONGraph struct {
	Roots  []string   `json:"roots"`
	AddOns []JSONNode `json:"addOns"`
	Cycles [][]string `json:"cycles,omitempty"`
}

// JSONNode is one add-on in JSONGraph.
type JSONNode struct {
	ID         string   `json:"id"`
	Category   string   `json:"category,omitempty"`
	Requires   []string `json:"requires,omitempty"`
	RequiredBy []string `json:"requiredBy,omitempty"`
	Root       bool     `json:"root,omitempty"`
	Missing    bool     `json:"missing,omitempty"`
}

// ToJSON outputs the graph as indented JSON. Nodes are sorted by id.
func (g *Graph) ToJSON() ([]byte, error) {
	out := JSONGraph{
		Roots:  g.Roots,
		AddOns: make([]JSONNode, 0, len(g.nodes)),
		Cycles: g.FindCycles(),
	}
	if out.Roots == nil {
		out.Roots = []string{}
	}
	for _, id := range g.IDs() {
		node := g.nodes[id]
		out.AddOns = append(out.AddOns, JSONNode{
			ID:         node.ID,
			Category:   node.Category,
			Requires:   node.Requires,
			RequiredBy: node.RequiredBy,
			Root:       node.IsRoot,
			Missing:    node.Missing,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// ToDOT outputs the graph in Graphviz DOT format.
func (g *Graph) ToDOT() string {
	var buf bytes.Buffer

	buf.WriteString("digraph addons {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box];\n\n")

	for _, id := range g.IDs() {
		node := g.nodes[id]
		attrs := []string{fmt.Sprintf("label=%q", id)}
		switch {
		case node.IsRoot:
			attrs = append(attrs, "style=bold")
		case node.Missing:
			attrs = append(attrs, "style=dashed", "color=red")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}
	buf.WriteString("\n")

	for _, id := range g.IDs() {
		for _, dep := range g.nodes[id].Requires {
			fmt.Fprintf(&buf, "  %q -> %q;\n", id, dep)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ToText outputs a requirement tree for each root.
func (g *Graph) ToText() string {
	var buf bytes.Buffer

	stats := g.Stats()
	fmt.Fprintf(&buf, "Add-ons: %d (%d roots, %d transitive, %d missing)\n",
		stats.Total, stats.Roots, stats.Transitive, stats.Missing)
	buf.WriteString(strings.Repeat("-", separatorWidth) + "\n")

	visited := make(map[string]bool)
	for _, root := range g.Roots {
		g.printTree(&buf, root, visited)
	}
	return buf.String()
}

func (g *Graph) printTree(buf *bytes.Buffer, root string, visited map[string]bool) {
	buf.WriteString(root + "\n")
	visited[root] = true
	defer func() { visited[root] = false }()

	deps := g.nodes[root].Requires
	for i, dep := range deps {
		g.printChild(buf, dep, "", i == len(deps)-1, visited)
	}
}

func (g *Graph) printChild(buf *bytes.Buffer, id, prefix string, isLast bool, visited map[string]bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}
	buf.WriteString(prefix + connector + id)

	node := g.nodes[id]
	if node != nil && node.Missing {
		buf.WriteString(" (missing)")
	}
	if visited[id] {
		buf.WriteString(" (circular)\n")
		return
	}
	buf.WriteString("\n")

	visited[id] = true
	defer func() { visited[id] = false }()

	if node == nil {
		return
	}

	for i, dep := range node.Requires {
		childPrefix := prefix + "│   "
		if isLast {
			childPrefix = prefix + "    "
		}
		g.printChild(buf, dep, childPrefix, i == len(node.Requires)-1, visited)
	}
}

// ToExplainText outputs a human-readable explanation for one add-on.
func (g *Graph) ToExplainText(id string) (string, error) {
	explanation, err := g.Explain(id)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Explanation for: %s\n", explanation.AddOn)
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n")

	if explanation.IsRoot {
		buf.WriteString("Selected directly.\n")
	}
	if len(explanation.Chains) > 0 {
		buf.WriteString("\nRequired through:\n")
		for i, chain := range explanation.Chains {
			fmt.Fprintf(&buf, "  %d. %s\n", i+1, chain.String())
		}
	}
	if !explanation.IsRoot && len(explanation.Chains) == 0 {
		buf.WriteString("Not reachable from any root.\n")
	}
	return buf.String(), nil
}
