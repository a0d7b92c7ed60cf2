// Command dashboard serves the mapping campaign dashboard and generates its import pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/osm-campaigns/dashboard/internal/config"
	"github.com/osm-campaigns/dashboard/internal/models"
	"github.com/osm-campaigns/dashboard/internal/registry"
	"github.com/osm-campaigns/dashboard/pkg/logger"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "dashboard",
		Short:         "Mapping campaign dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the configuration file")

	root.AddCommand(newServeCmd(), newGenerateCmd(), newImportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads the configuration, the logger and the project registry shared by every command.
func setup() (*config.Config, *logger.Logger, *registry.Registry, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.Get()

	reg, err := registry.LoadDir(cfg.Registry.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load projects: %w", err)
	}
	log.Info().
		Int("projects", reg.Len()).
		Str("path", cfg.Registry.Path).
		Msg("Loaded project registry")

	return cfg, log, reg, nil
}

func metaBadges(cfg []config.BadgeConfig) []models.BadgeDefinition {
	defs := make([]models.BadgeDefinition, 0, len(cfg))
	for _, b := range cfg {
		defs = append(defs, models.BadgeDefinition{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			Icon:        b.Icon,
		})
	}
	return defs
}
