// Package stats aggregates the statistics of a project from the database and Osmose.
package stats

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/osm-campaigns/dashboard/internal/metrics"
	"github.com/osm-campaigns/dashboard/internal/models"
	"github.com/osm-campaigns/dashboard/internal/osmose"
	"github.com/osm-campaigns/dashboard/internal/repository"
	"github.com/osm-campaigns/dashboard/pkg/logger"
)

// Repository interface for statistics queries.
type Repository interface {
	NoteCounts(ctx context.Context, project string) ([]models.NoteCount, error)
	FeatureCounts(ctx context.Context, project string) ([]models.FeatureCount, error)
	FeatureTotal(ctx context.Context, suffix string) (int64, error)
	Leaderboard(ctx context.Context, project string) ([]models.LeaderboardEntry, error)
	TagKeys(ctx context.Context, suffix string) ([]models.TagKeyCount, error)
}

// OsmoseClient interface for issue statistics.
type OsmoseClient interface {
	Stats(ctx context.Context, q osmose.Query) ([]osmose.Sample, error)
}

// Service builds the statistics response of a project.
type Service struct {
	repo    Repository
	osmose  OsmoseClient
	timeout time.Duration
	log     *logger.Logger
}

// NewService creates a new statistics service with concrete types.
func NewService(repo *repository.StatsRepository, client *osmose.BreakerClient, timeout time.Duration, log *logger.Logger) *Service {
	return NewServiceWithInterfaces(repo, client, timeout, log)
}

// NewServiceWithInterfaces creates a new statistics service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(repo Repository, client OsmoseClient, timeout time.Duration, log *logger.Logger) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		repo:    repo,
		osmose:  client,
		timeout: timeout,
		log:     log,
	}
}

// Aggregate runs every fetch the project needs concurrently and merges their results.
// A failed or timed out fetch contributes its empty result; Aggregate itself never fails.
// osmUser gates the row-level leaderboard.
func (s *Service) Aggregate(ctx context.Context, project *models.Project, osmUser string) map[string]any {
	log := logger.FromContext(ctx, s.log)

	var fetches []func(ctx context.Context) Fragment

	var osmoseSources []models.DataSource
	for _, ds := range project.DataSources {
		if ds.Source == models.SourceOsmose {
			osmoseSources = append(osmoseSources, ds)
		}
	}
	if len(osmoseSources) > 0 {
		fetches = append(fetches, func(ctx context.Context) Fragment {
			return s.fetchOsmose(ctx, log, project, osmoseSources)
		})
	}

	if project.HasSource(models.SourceNotes) {
		fetches = append(fetches, func(ctx context.Context) Fragment {
			rows, _ := fetch(ctx, s, log, project, "notes", func(ctx context.Context) ([]models.NoteCount, error) {
				return s.repo.NoteCounts(ctx, project.ID)
			})
			return notesFragment(rows)
		})
	}

	if project.Statistics.Count {
		fetches = append(fetches,
			func(ctx context.Context) Fragment {
				rows, _ := fetch(ctx, s, log, project, "count", func(ctx context.Context) ([]models.FeatureCount, error) {
					return s.repo.FeatureCounts(ctx, project.ID)
				})
				return countFragment(project.Statistics.FeatureName, rows)
			},
			func(ctx context.Context) Fragment {
				total, ok := fetch(ctx, s, log, project, "total", func(ctx context.Context) (int64, error) {
					return s.repo.FeatureTotal(ctx, project.Suffix())
				})
				return totalFragment(total, ok)
			},
		)
	}

	fetches = append(fetches,
		func(ctx context.Context) Fragment {
			rows, _ := fetch(ctx, s, log, project, "leaderboard", func(ctx context.Context) ([]models.LeaderboardEntry, error) {
				return s.repo.Leaderboard(ctx, project.ID)
			})
			return leaderboardFragment(rows, osmUser)
		},
		func(ctx context.Context) Fragment {
			rows, _ := fetch(ctx, s, log, project, "keys", func(ctx context.Context) ([]models.TagKeyCount, error) {
				return s.repo.TagKeys(ctx, project.Suffix())
			})
			return keysFragment(rows)
		},
	)

	// Each fetch writes its own slot so the merge follows declaration order, not completion order.
	fragments := make([]Fragment, len(fetches))
	var g errgroup.Group
	for i, f := range fetches {
		g.Go(func() error {
			fragments[i] = f(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return Merge(fragments...)
}

// fetchOsmose queries every osmose source concurrently. A failing source yields an empty series.
func (s *Service) fetchOsmose(ctx context.Context, log *logger.Logger, project *models.Project, sources []models.DataSource) Fragment {
	samples := make([][]osmose.Sample, len(sources))

	var g errgroup.Group
	for i, ds := range sources {
		g.Go(func() error {
			samples[i], _ = fetch(ctx, s, log.WithStr("source", sourceLabel(i, ds)), project, "osmose",
				func(ctx context.Context) ([]osmose.Sample, error) {
					return s.osmose.Stats(ctx, osmoseQuery(ds))
				})
			return nil
		})
	}
	_ = g.Wait()

	return osmoseFragment(sources, samples)
}

// fetch runs one query under the per-fetch timeout. On failure it logs, counts the error
// and returns the zero value with ok set to false.
func fetch[T any](ctx context.Context, s *Service, log *logger.Logger, project *models.Project, name string, query func(ctx context.Context) (T, error)) (T, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := query(ctx)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordStatsFetch(name, "error", elapsed)
		log.Warn().
			Err(err).
			Str("project", project.ID).
			Str("fetch", name).
			Msg("Statistics fetch failed, using empty result")
		var zero T
		return zero, false
	}

	metrics.RecordStatsFetch(name, "success", elapsed)
	return result, true
}
