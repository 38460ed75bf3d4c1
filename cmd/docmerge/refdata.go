package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/docmerge/internal/adapters/file"
	"github.com/aretw0/docmerge/internal/adapters/redis"
	"github.com/spf13/cobra"
)

var refdataCmd = &cobra.Command{
	Use:   "refdata",
	Short: "Inspect or publish carrier and state reference data",
}

var refdataShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configured reference data as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		src := a.referenceSource()
		if src == nil {
			return fmt.Errorf("no reference data configured (data.reference_data)")
		}
		data, err := src.Load(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	},
}

var refdataPublishCmd = &cobra.Command{
	Use:   "publish <file>",
	Short: "Publish a YAML reference-data file to redis for all engine processes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		data, err := file.NewReferenceSource(args[0]).Load(cmd.Context())
		if err != nil {
			return err
		}
		if err := redis.NewReferenceSource(a.redis(), a.cfg.Redis.RefKey).Publish(cmd.Context(), data); err != nil {
			return err
		}
		a.logger.Info("reference data published",
			"key", a.cfg.Redis.RefKey,
			"carriers", len(data.Carriers),
			"states", len(data.States),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refdataCmd)
	refdataCmd.AddCommand(refdataShowCmd, refdataPublishCmd)
}
