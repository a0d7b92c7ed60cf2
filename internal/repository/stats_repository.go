package repository

import (
	"context"
	"fmt"

	"github.com/osm-campaigns/dashboard/internal/models"
)

// StatsRepository runs the read-only statistics queries of a project.
type StatsRepository struct {
	db *DB
}

// NewStatsRepository creates a new statistics repository.
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// NoteCounts returns the open/closed note samples of a project, oldest first.
func (r *StatsRepository) NoteCounts(ctx context.Context, project string) ([]models.NoteCount, error) {
	var rows []models.NoteCount
	err := r.db.WithContext(ctx).
		Where("project = ?", project).
		Order("ts ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get note counts: %w", err)
	}
	return rows, nil
}

// FeatureCounts returns the feature amount samples of a project, oldest first.
func (r *StatsRepository) FeatureCounts(ctx context.Context, project string) ([]models.FeatureCount, error) {
	var rows []models.FeatureCount
	err := r.db.WithContext(ctx).
		Where("project = ?", project).
		Order("ts ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get feature counts: %w", err)
	}
	return rows, nil
}

// FeatureTotal returns the current number of features in the project view.
func (r *StatsRepository) FeatureTotal(ctx context.Context, suffix string) (int64, error) {
	table, err := projectTable(suffix)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.db.WithContext(ctx).Table(table).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count features of %s: %w", table, err)
	}
	return count, nil
}

// Leaderboard returns the leaderboard of a project ordered by position.
func (r *StatsRepository) Leaderboard(ctx context.Context, project string) ([]models.LeaderboardEntry, error) {
	var rows []models.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Table("leaderboard AS l").
		Select("l.project, l.userid, COALESCE(u.username, '') AS username, l.pos, l.score").
		Joins("LEFT JOIN user_names u ON u.userid = l.userid").
		Where("l.project = ?", project).
		Order("l.pos ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return rows, nil
}

// UserPositions returns the leaderboard rows of a user across projects.
func (r *StatsRepository) UserPositions(ctx context.Context, userID int64) ([]models.LeaderboardEntry, error) {
	var rows []models.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Table("leaderboard AS l").
		Select("l.project, l.userid, COALESCE(u.username, '') AS username, l.pos, l.score").
		Joins("LEFT JOIN user_names u ON u.userid = l.userid").
		Where("l.userid = ?", userID).
		Order("l.project ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get positions of user %d: %w", userID, err)
	}
	return rows, nil
}

// TagKeys counts project features per tag key, most used first. Tags are stored as hstore.
func (r *StatsRepository) TagKeys(ctx context.Context, suffix string) ([]models.TagKeyCount, error) {
	table, err := projectTable(suffix)
	if err != nil {
		return nil, err
	}

	var rows []models.TagKeyCount
	err = r.db.WithContext(ctx).
		Raw(fmt.Sprintf(
			"SELECT k, COUNT(*) AS nb FROM (SELECT skeys(tags) AS k FROM %s) keys GROUP BY k ORDER BY nb DESC, k ASC",
			table,
		)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get tag keys of %s: %w", table, err)
	}
	return rows, nil
}
