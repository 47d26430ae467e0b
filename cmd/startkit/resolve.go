package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/go-startkit/selection"
)

func newResolveCmd(a *app) *cobra.Command {
	var (
		sel    selectionFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the selection that results from the given add-ons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, _, err := a.open(cmd.Context(), &sel)
			if err != nil {
				return err
			}
			defer b.Close()

			snap := b.Snapshot()
			switch format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), snap)
			case "text":
				printState(cmd.OutOrStdout(), snap.State)
				return nil
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	sel.register(cmd.Flags())
	cmd.Flags().StringVar(&format, "format", "text", "output format (text, json)")
	return cmd
}

func printState(w io.Writer, s selection.State) {
	fmt.Fprintf(w, "Effective:     %s\n", list(s.Effective))
	fmt.Fprintf(w, "User-selected: %s\n", list(s.UserSelected))
	fmt.Fprintf(w, "Forced:        %s\n", list(s.Forced))
	fmt.Fprintf(w, "Capabilities:  %s\n", list(s.Capabilities))
}

func list(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
