package main

import (
	"github.com/spf13/cobra"

	"github.com/osm-campaigns/dashboard/internal/generator"
)

func newGenerateCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the imposm mapping, SQL batches and import pipeline script",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, reg, err := setup()
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.Generator.OutputDir = outputDir
			}

			return generator.New(&cfg.Generator, cfg.Database.Postgres.URL(), log).Run(reg.All())
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (overrides generator.output_dir)")

	return cmd
}
