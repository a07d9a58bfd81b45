package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/livestore/internal/config"
	"github.com/vango-dev/livestore/internal/errors"
	"github.com/vango-dev/livestore/pkg/reactive"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries state shared by subcommands.
type app struct {
	configPath string
	noColor    bool
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "livestore",
		Short: "Observable stores bound to components",
		Long: `livestore loads a document into an observable store, binds a component
to it and re-renders the component once per delivered batch of changes.

Commands:
  • watch   replay a mutation script against a document and print renders
  • serve   expose a store over HTTP with Prometheus metrics
  • version print build information`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.noColor {
				errors.DisableColors()
			}
			cfg, err := config.Resolve(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			reactive.DebugMode = cfg.Debug
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.ConfigFileName, "Configuration file")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored error output")

	rootCmd.AddCommand(
		watchCmd(a),
		serveCmd(a),
		versionCmd(),
	)

	return rootCmd
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
