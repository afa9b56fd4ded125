package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/larderhq/larder/pkg/db"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check backend connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := db.Open(cfg)
		if err != nil {
			return fmt.Errorf("open backend: %w", err)
		}
		defer provider.Close()

		if err := provider.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("ping %s backend: %w", cfg.Backend, err)
		}

		fmt.Printf("%s backend reachable\n", cfg.Backend)
		return nil
	},
}
