package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/osm-campaigns/dashboard/internal/api/dashboard"
	"github.com/osm-campaigns/dashboard/internal/osmose"
	"github.com/osm-campaigns/dashboard/internal/repository"
	"github.com/osm-campaigns/dashboard/internal/service/badges"
	"github.com/osm-campaigns/dashboard/internal/service/contributions"
	"github.com/osm-campaigns/dashboard/internal/service/leaderboard"
	"github.com/osm-campaigns/dashboard/internal/service/scheduler"
	"github.com/osm-campaigns/dashboard/internal/service/stats"
	"github.com/osm-campaigns/dashboard/web"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, log, reg, err := setup()
	if err != nil {
		return err
	}

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	statsRepo := repository.NewStatsRepository(db)
	osmoseClient := osmose.NewBreakerClient(osmose.NewClient(&cfg.Osmose, log), &cfg.Osmose, log)
	catalog := badges.NewCatalog(reg.All(), metaBadges(cfg.Badges))

	handler := dashboard.NewHandler(
		reg,
		stats.NewService(statsRepo, osmoseClient, cfg.Stats.FetchTimeoutDuration(), log),
		contributions.NewService(repository.NewContributionRepository(db), reg, catalog, log),
		badges.NewService(repository.NewBadgeRepository(db), catalog, log),
		leaderboard.NewService(statsRepo, repository.NewUserRepository(db), reg, log),
		db,
		cfg.Assets,
		log,
	)

	pages, err := web.Templates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := dashboard.NewRouter(handler, pages, log)

	jobs := scheduler.NewService(&cfg.Scheduler, log)
	if err := jobs.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer jobs.Stop()

	servers := []*http.Server{{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.Metrics.Prometheus.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Prometheus.Path, promhttp.Handler())
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Prometheus.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			log.Info().Str("addr", srv.Addr).Msg("Listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
