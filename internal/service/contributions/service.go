// Package contributions records user contributions and reports the badges they unlock.
package contributions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	prommetrics "github.com/osm-campaigns/dashboard/internal/metrics"
	"github.com/osm-campaigns/dashboard/internal/models"
	"github.com/osm-campaigns/dashboard/internal/registry"
	"github.com/osm-campaigns/dashboard/internal/repository"
	"github.com/osm-campaigns/dashboard/internal/service/badges"
	"github.com/osm-campaigns/dashboard/internal/validation"
	"github.com/osm-campaigns/dashboard/pkg/logger"
)

// Rejections. They are client errors and leave no trace in the database.
var (
	ErrInvalidSubmission = errors.New("invalid contribution")
	ErrUnknownProject    = errors.New("unknown project")
	ErrProjectNotActive  = errors.New("project is not active")
)

// Store interface for the transactional contribution statements.
type Store interface {
	InTransaction(ctx context.Context, fn func(store repository.ContributionStore) error) error
}

// Submission is a contribution event as received from the client.
type Submission struct {
	ProjectID string `validate:"required"`
	UserID    string `validate:"required,number"`
	Username  string `validate:"required"`
	Type      string `validate:"required,oneof=add edit delete"`
}

// Service records contributions.
type Service struct {
	store    Store
	registry *registry.Registry
	catalog  *badges.Catalog
	now      func() time.Time
	log      *logger.Logger
}

// NewService creates a new contribution service.
func NewService(store *repository.ContributionRepository, reg *registry.Registry, catalog *badges.Catalog, log *logger.Logger) *Service {
	return NewServiceWithInterfaces(store, reg, catalog, time.Now, log)
}

// NewServiceWithInterfaces creates a new contribution service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(store Store, reg *registry.Registry, catalog *badges.Catalog, now func() time.Time, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		registry: reg,
		catalog:  catalog,
		now:      now,
		log:      log,
	}
}

// Record validates a submission, then within one transaction stores the user name, snapshots
// the user's badges, inserts the contribution and snapshots the badges again. It returns the
// badges whose state changed.
func (s *Service) Record(ctx context.Context, sub Submission) ([]models.BadgeChange, error) {
	log := logger.FromContext(ctx, s.log)

	userID, err := s.validate(sub)
	if err != nil {
		project, kind := s.labels(sub)
		prommetrics.RecordContribution(project, kind, "rejected")
		log.Info().
			Err(err).
			Str("project", sub.ProjectID).
			Str("user_id", sub.UserID).
			Msg("Rejected contribution")
		return nil, err
	}

	contribution := &models.Contribution{
		Project:      sub.ProjectID,
		UserID:       userID,
		Timestamp:    s.now().UTC(),
		Contribution: sub.Type,
		Verified:     false,
	}

	var before, after []models.BadgeState
	err = s.store.InTransaction(ctx, func(store repository.ContributionStore) error {
		if err := store.UpsertUserName(ctx, userID, sub.Username); err != nil {
			return err
		}

		var err error
		if before, err = store.GetProjectBadges(ctx, sub.ProjectID, userID); err != nil {
			return fmt.Errorf("badges before contribution: %w", err)
		}

		if err := store.InsertContribution(ctx, contribution); err != nil {
			return err
		}

		if after, err = store.GetProjectBadges(ctx, sub.ProjectID, userID); err != nil {
			return fmt.Errorf("badges after contribution: %w", err)
		}
		return nil
	})
	if err != nil {
		prommetrics.RecordContribution(sub.ProjectID, sub.Type, "error")
		return nil, fmt.Errorf("failed to record contribution: %w", err)
	}

	changes := badges.Diff(before, after, s.catalog)

	prommetrics.RecordContribution(sub.ProjectID, sub.Type, "success")
	for _, c := range changes {
		prommetrics.RecordBadgeEarned(c.Project, c.ID)
	}

	log.Info().
		Str("project", sub.ProjectID).
		Int64("user_id", userID).
		Str("type", sub.Type).
		Int("badges_changed", len(changes)).
		Msg("Recorded contribution")

	return changes, nil
}

// validate checks the submission shape, then that it targets the current project.
func (s *Service) validate(sub Submission) (int64, error) {
	if err := validation.Struct(&sub); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}

	userID, err := strconv.ParseInt(sub.UserID, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("%w: user id must be a positive integer", ErrInvalidSubmission)
	}

	if _, ok := s.registry.Get(sub.ProjectID); !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownProject, sub.ProjectID)
	}
	if !s.registry.IsCurrent(sub.ProjectID, s.now()) {
		return 0, fmt.Errorf("%w: %s", ErrProjectNotActive, sub.ProjectID)
	}

	return userID, nil
}

// labels bounds metric label values for rejected submissions.
func (s *Service) labels(sub Submission) (string, string) {
	project, kind := sub.ProjectID, sub.Type
	if _, ok := s.registry.Get(project); !ok {
		project = "unknown"
	}
	switch kind {
	case models.ContributionAdd, models.ContributionEdit, models.ContributionDelete:
	default:
		kind = "invalid"
	}
	return project, kind
}

// IsRejection reports whether err is a client error raised before any write.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidSubmission) ||
		errors.Is(err, ErrUnknownProject) ||
		errors.Is(err, ErrProjectNotActive)
}
