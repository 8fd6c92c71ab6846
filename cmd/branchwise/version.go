package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/branchwise"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of branchwise",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "branchwise version %s\n", strings.TrimSpace(branchwise.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
