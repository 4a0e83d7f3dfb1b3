package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set by ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kindle2md %s (commit %s)\n", Version, GitCommit)
	},
}
