package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/raysh454/brandscout/internal/app"
)

func newScrapeCommand(root *rootOptions) *cobra.Command {
	var record bool
	cmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Scrape one website and print the result as JSON.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			cfg.History.Enabled = record && cfg.History.Enabled

			a, err := app.NewApplication(cfg, newLogger(cmd.ErrOrStderr(), cfg))
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Orch.Scrape(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().BoolVar(&record, "record", false, "also record the result in the history database")
	return cmd
}
