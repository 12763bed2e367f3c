package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time; "dev" otherwise.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of mpm",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("mpm version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
