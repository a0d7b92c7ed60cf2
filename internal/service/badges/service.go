// Package badges turns badge states computed by the database into display structures.
package badges

import (
	"context"
	"fmt"

	"github.com/osm-campaigns/dashboard/internal/models"
	"github.com/osm-campaigns/dashboard/internal/repository"
	"github.com/osm-campaigns/dashboard/pkg/logger"
)

// BadgeRepository interface for badge operations.
type BadgeRepository interface {
	GetUserBadges(ctx context.Context, userID int64, projects []string) ([]models.BadgeState, error)
}

// Service reads the badges of a user across all projects.
type Service struct {
	badgeRepo BadgeRepository
	catalog   *Catalog
	log       *logger.Logger
}

// NewService creates a new badge service.
func NewService(badgeRepo *repository.BadgeRepository, catalog *Catalog, log *logger.Logger) *Service {
	return NewServiceWithInterfaces(badgeRepo, catalog, log)
}

// NewServiceWithInterfaces creates a new badge service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(badgeRepo BadgeRepository, catalog *Catalog, log *logger.Logger) *Service {
	return &Service{
		badgeRepo: badgeRepo,
		catalog:   catalog,
		log:       log,
	}
}

// Catalog returns the badge definitions used by the service.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// UserBadges returns the display structure of every badge row of a user.
func (s *Service) UserBadges(ctx context.Context, userID int64) ([]ProjectBadges, error) {
	rows, err := s.badgeRepo.GetUserBadges(ctx, userID, s.catalog.ProjectIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to get user badges: %w", err)
	}

	grouped := Present(rows, s.catalog)

	logger.FromContext(ctx, s.log).Debug().
		Int64("user_id", userID).
		Int("rows", len(rows)).
		Int("projects", len(grouped)).
		Msg("Loaded user badges")

	return grouped, nil
}
