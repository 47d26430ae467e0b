package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/go-startkit/graph"
)

func newExplainCmd(a *app) *cobra.Command {
	var (
		sel    selectionFlags
		format string
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "explain [add-on]",
		Short: "Show why add-ons are selected",
		Long: `Without an argument, print the requirement graph of the selection.
With an add-on id, print the chains of requirements that pull it in.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := a.open(cmd.Context(), &sel)
			if err != nil {
				return err
			}
			defer b.Close()

			var g *graph.Graph
			if all {
				g, err = graph.FromCatalog(b.Catalog())
			} else {
				state := b.State()
				g, err = graph.Build(b.Catalog(), append(slices.Clone(state.UserSelected), state.Forced...)...)
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(args) == 1 {
				text, err := g.ToExplainText(args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(w, text)
				return nil
			}
			return writeGraph(w, g, format)
		},
	}
	sel.register(cmd.Flags())
	cmd.Flags().StringVar(&format, "format", "text", "graph format (text, dot, json)")
	cmd.Flags().BoolVar(&all, "all", false, "use the whole catalog instead of the selection")
	return cmd
}

func writeGraph(w io.Writer, g *graph.Graph, format string) error {
	switch format {
	case "text":
		fmt.Fprint(w, g.ToText())
	case "dot":
		fmt.Fprint(w, g.ToDOT())
	case "json":
		data, err := g.ToJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}
