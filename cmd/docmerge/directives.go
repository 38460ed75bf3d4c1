package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/docmerge"
	"github.com/spf13/cobra"
)

var directivesCmd = &cobra.Command{
	Use:   "directives",
	Short: "List the directive and modifier names placeholders may use",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := docmerge.Directives()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(names)
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(directivesCmd)
	directivesCmd.Flags().Bool("json", false, "Print as a JSON array")
}
