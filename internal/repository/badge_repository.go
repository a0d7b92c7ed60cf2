package repository

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/osm-campaigns/dashboard/internal/models"
)

// getBadgesSQL calls the stored routine computing badge states from contribution history.
var getBadgesSQL = "SELECT project, id, acquired FROM get_badges(?, ?)"

func getBadges(db *gorm.DB, project string, userID int64) ([]models.BadgeState, error) {
	var rows []models.BadgeState
	if err := db.Raw(getBadgesSQL, project, userID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get badges of user %d for %s: %w", userID, project, err)
	}
	return rows, nil
}

// BadgeRepository reads badge states.
type BadgeRepository struct {
	db *DB
}

// NewBadgeRepository creates a new badge repository.
func NewBadgeRepository(db *DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// GetUserBadges returns the badge states of a user for every given project, queried concurrently.
// Rows keep the order of projects.
func (r *BadgeRepository) GetUserBadges(ctx context.Context, userID int64, projects []string) ([]models.BadgeState, error) {
	results := make([][]models.BadgeState, len(projects))

	g, gctx := errgroup.WithContext(ctx)
	for i, project := range projects {
		g.Go(func() error {
			rows, err := getBadges(r.db.WithContext(gctx), project, userID)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []models.BadgeState
	for _, rows := range results {
		all = append(all, rows...)
	}
	return all, nil
}
