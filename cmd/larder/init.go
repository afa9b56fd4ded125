package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/larderhq/larder/internal/paths"
)

// defaultConfigYAML is written on first run. Values mirror db.Default.
const defaultConfigYAML = `# Larder configuration

# development enables verbose statement logging; use production otherwise.
environment: development

# Backend selection: sqlite (embedded file) or postgres (client/server).
backend: sqlite

# Database name, or the data file for the sqlite backend.
database_name: app.db

# Client/server connection parameters (postgres only).
# user: user
# password: changeme
# host: localhost

# Explicit connection URI; overrides derived construction entirely.
# connection_uri:

# Pool sizing (postgres only).
# pool_size: 83
# expected_worker_count: 9
# max_overflow: 64
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default larder.yaml",
	Long: `Write a default configuration file. The file goes to --config if set,
to $LARDER_CONFIG if set, and to $(CWD)/larder.yaml otherwise. An existing
file is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := paths.ResolveConfigFile(flagConfig)
		if err != nil {
			return err
		}
		if path == "" {
			path, err = paths.DefaultConfigPath()
			if err != nil {
				return err
			}
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Printf("config already exists at %s\n", path)
			return nil
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("stat config file: %w", err)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("ensure config dir: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}

		fmt.Printf("wrote default config to %s\n", path)
		return nil
	},
}
