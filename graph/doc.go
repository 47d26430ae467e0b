// Package graph provides the requires graph of an add-on selection and
// query capabilities over it.
//
// The resolver only needs closures; this package answers the questions a
// user asks after resolution:
//
//   - Why is an add-on on when I never picked it? (Explain)
//   - What pulls it in, and what does it pull in? (Dependents, DirectDeps)
//   - Does an imported add-on introduce a requirement cycle? (FindCycles)
//
// # Building a Graph
//
//	g, err := graph.Build(cat, state.UserSelected...)
//	explanation, err := g.Explain("http-client")
//	for _, chain := range explanation.Chains {
//	    fmt.Println(chain) // auth-oauth -> http-client
//	}
//
// FromCatalog builds the graph of the whole catalog, which is what catalog
// linting uses.
//
// # Output Formats
//
//	jsonBytes, _ := g.ToJSON()
//	dot := g.ToDOT()
//	text := g.ToText()
package graph
