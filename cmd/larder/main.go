// Package main provides the larder CLI: operator actions against a
// configured larder backend (config scaffolding, schema migration,
// connectivity checks).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
