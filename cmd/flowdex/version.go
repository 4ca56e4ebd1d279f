package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/flowdex/internal/storage"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "flowdex %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", date)
		fmt.Fprintf(cmd.OutOrStdout(), "Build Mode: %s\n", storage.BuildMode)
		fmt.Fprintf(cmd.OutOrStdout(), "SQLite Driver: %s\n", storage.DriverName)
	},
}
