package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/docmerge"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of docmerge",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "docmerge version %s\n", strings.TrimSpace(docmerge.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
