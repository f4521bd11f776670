// Package cli holds the brandscout command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/raysh454/brandscout/internal/app"
	"github.com/raysh454/brandscout/internal/logging"
)

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
	backend    string
}

// NewRootCommand builds the command tree. out receives command output; logs
// go to errOut for scrape and to out for serve.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "brandscout",
		Short:         "brandscout scrapes agency websites for logos, fonts and contact details.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&opts.envFile, "env-file", "", "dotenv file loaded before BRANDSCOUT_* overrides (default .env if present)")
	pf.StringVar(&opts.logLevel, "log-level", "", "debug|info|warn|error (overrides config)")
	pf.StringVar(&opts.backend, "backend", "", "browser backend (overrides config)")

	root.AddCommand(
		newScrapeCommand(opts),
		newServeCommand(opts),
		newBackendsCommand(),
	)
	return root
}

// ExecuteContext runs the CLI against os.Args and exits non-zero on error.
func ExecuteContext(ctx context.Context) {
	if err := NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// load resolves the effective config with flag overrides applied.
func (o *rootOptions) load() (*app.Config, error) {
	cfg, err := app.LoadConfig(o.configPath, o.envFile)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.backend != "" {
		cfg.Browser.Backend = o.backend
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg *app.Config) logging.Logger {
	return logging.NewLogger(w, "brandscout", cfg.LogLevel())
}
