package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tillage"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tillage",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tillage version %s\n", tillage.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
