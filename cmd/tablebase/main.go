// Package main provides the tablebase CLI tool for probing, inspecting and
// packing MB endgame table sets.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
