package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"placesearch/internal/config"
)

// app carries state shared by all subcommands.
type app struct {
	cfgPath string
	cfg     *config.AppConfig
	verbose bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "placesearch",
		Short:         "Semantic place search",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			_ = godotenv.Load()
			var err error
			if a.cfgPath == "" {
				a.cfg, _, err = config.LoadDefault()
			} else {
				a.cfg, err = config.Load(a.cfgPath)
			}
			return err
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "path to YAML config (default ./placesearch.yaml or ~/.config/placesearch/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newBuildCmd(a),
		newSyncCmd(a),
		newImportCmd(a),
		newSearchCmd(a),
		newServeCmd(a),
		newTUICmd(a),
	)
	return root
}
