package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/osm-campaigns/dashboard/internal/models"
)

// ContributionStore is the set of statements run while recording a contribution.
type ContributionStore interface {
	UpsertUserName(ctx context.Context, userID int64, username string) error
	GetProjectBadges(ctx context.Context, project string, userID int64) ([]models.BadgeState, error)
	InsertContribution(ctx context.Context, c *models.Contribution) error
}

// ContributionRepository writes contribution rows.
type ContributionRepository struct {
	db *DB
}

// NewContributionRepository creates a new contribution repository.
func NewContributionRepository(db *DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

// InTransaction runs fn with a store bound to a single transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
func (r *ContributionRepository) InTransaction(ctx context.Context, fn func(store ContributionStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ContributionRepository{db: &DB{tx}})
	})
}

// UpsertUserName stores the display name of a user.
func (r *ContributionRepository) UpsertUserName(ctx context.Context, userID int64, username string) error {
	return upsertUserName(r.db.WithContext(ctx), userID, username)
}

// GetProjectBadges returns the badge states of a user for one project.
func (r *ContributionRepository) GetProjectBadges(ctx context.Context, project string, userID int64) ([]models.BadgeState, error) {
	return getBadges(r.db.WithContext(ctx), project, userID)
}

// InsertContribution appends a contribution row. The point value is computed by the database.
func (r *ContributionRepository) InsertContribution(ctx context.Context, c *models.Contribution) error {
	err := r.db.WithContext(ctx).Exec(
		`INSERT INTO user_contributions (project, userid, ts, contribution, verified, points)
		 VALUES (?, ?, ?, ?, ?, get_points(?, ?))`,
		c.Project, c.UserID, c.Timestamp, c.Contribution, false, c.Project, c.Contribution,
	).Error
	if err != nil {
		return fmt.Errorf("failed to insert contribution: %w", err)
	}
	return nil
}
