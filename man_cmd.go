package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gitlab.com/tinyland/lab/node-pulse/display/tui"
	"gitlab.com/tinyland/lab/node-pulse/docs/manpage"
)

func newManCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "man",
		Short: "Print the man page in roff format",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), manpage.Generate(manpage.Page{
				Root:    cmd.Root(),
				Keys:    tui.KeyBindings(),
				Version: version,
				Commit:  commit,
				Date:    date,
			}))
		},
	}
}
