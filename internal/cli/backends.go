package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raysh454/brandscout/internal/browser"
)

func newBackendsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the registered browser backends.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range browser.ListBackends() {
				marker := ""
				if name == browser.DefaultBackend {
					marker = " (default)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", name, marker)
			}
			return nil
		},
	}
}
