package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/osm-campaigns/dashboard/internal/models"
)

// UserRepository handles user name lookups.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertUserName stores the display name of a user; the last write wins.
func (r *UserRepository) UpsertUserName(ctx context.Context, userID int64, username string) error {
	return upsertUserName(r.db.WithContext(ctx), userID, username)
}

func upsertUserName(db *gorm.DB, userID int64, username string) error {
	row := models.UserName{UserID: userID, Username: username}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "userid"}},
		DoUpdates: clause.AssignmentColumns([]string{"username"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user name for %d: %w", userID, err)
	}
	return nil
}

// GetUserIDByName returns the id of the user with the given display name.
func (r *UserRepository) GetUserIDByName(ctx context.Context, username string) (int64, error) {
	var row models.UserName
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get user by name %s: %w", username, err)
	}
	return row.UserID, nil
}
