package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/larderhq/larder/pkg/db"
	"github.com/larderhq/larder/pkg/model"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update storage tables",
	Long: `Migrate creates or updates the storage tables for the built-in entity
set against the configured backend. Schema evolution is an out-of-band
operator action; run this before first use and after upgrades.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := db.Open(cfg)
		if err != nil {
			return fmt.Errorf("open backend: %w", err)
		}
		defer provider.Close()

		if err := provider.AutoMigrate(&model.User{}); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		fmt.Printf("migrated %s backend\n", cfg.Backend)
		return nil
	},
}
