package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/osm-campaigns/dashboard/internal/generator"
	"github.com/osm-campaigns/dashboard/internal/service/scheduler"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "import <init|update>",
		Short:     "Run the generated import pipeline once",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{scheduler.ModeInit, scheduler.ModeUpdate},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, _, err := setup()
			if err != nil {
				return err
			}
			if cfg.Scheduler.ScriptPath == "" {
				cfg.Scheduler.ScriptPath = filepath.Join(cfg.Generator.OutputDir, generator.ScriptFile)
			}

			return scheduler.NewService(&cfg.Scheduler, log).RunImport(cmd.Context(), args[0])
		},
	}
}
