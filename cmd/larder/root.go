package main

import (
	"github.com/spf13/cobra"

	"github.com/larderhq/larder/internal/paths"
	"github.com/larderhq/larder/pkg/db"
)

// Global flag values.
var flagConfig string

// cfg is loaded by PersistentPreRunE so all subcommands can use it.
var cfg db.Config

var rootCmd = &cobra.Command{
	Use:   "larder",
	Short: "Larder manages the relational storage layer",
	Long: `Larder is the operator tool for the larder data-access layer.
It scaffolds configuration, migrates storage tables for the built-in
entity set, and checks backend connectivity.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init writes the config file; it must not require one.
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}
		path, err := paths.ResolveConfigFile(flagConfig)
		if err != nil {
			return err
		}
		cfg, err = db.Load(path)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./larder.yaml or $LARDER_CONFIG)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(pingCmd)
}
