package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/schemagraph/internal/server"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the schemagraph version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "schemagraph v%s\n", server.Version)
			return nil
		},
	}
}
