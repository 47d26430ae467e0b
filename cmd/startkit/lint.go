package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/go-startkit/graph"
)

func newLintCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Check the catalog for requirement cycles and unknown requirements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			issues, err := graph.Lint(in.cat)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, issue := range issues {
				fmt.Fprintln(w, issue.String())
			}
			if len(issues) > 0 {
				return fmt.Errorf("%d catalog issues", len(issues))
			}
			fmt.Fprintf(w, "%d add-ons, no issues\n", in.cat.Len())
			return nil
		},
	}
}
