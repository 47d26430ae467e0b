package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCommandCmd(a *app) *cobra.Command {
	var sel selectionFlags
	cmd := &cobra.Command{
		Use:   "command",
		Short: "Print a shell command that scaffolds the same project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, _, err := a.open(cmd.Context(), &sel)
			if err != nil {
				return err
			}
			defer b.Close()

			line, err := b.Command(a.v.GetString(keyPackageManager))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}
	sel.register(cmd.Flags())
	cmd.Flags().String(keyPackageManager, "", "package manager passed to the command (npm, pnpm, yarn, bun)")
	return cmd
}
