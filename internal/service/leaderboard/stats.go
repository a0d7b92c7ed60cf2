package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/osm-campaigns/dashboard/internal/repository"
)

// UserStats summarizes a user's standing across projects.
type UserStats struct {
	UserID    int64      `json:"user_id"`
	Username  string     `json:"username"`
	Positions []Position `json:"positions"`
	Projects  int        `json:"projects"`
	BestRank  int        `json:"best_rank"` // 0 when the user is ranked nowhere
	Score     int        `json:"score"`
}

// GetUserStats resolves a user by display name and gathers their leaderboard positions.
func (s *Service) GetUserStats(ctx context.Context, username string) (*UserStats, error) {
	userID, err := s.userRepo.GetUserIDByName(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	positions, err := s.UserPositions(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{
		UserID:    userID,
		Username:  username,
		Positions: positions,
		Projects:  len(positions),
	}
	for _, p := range positions {
		stats.Score += p.Score
		if stats.BestRank == 0 || p.Pos < stats.BestRank {
			stats.BestRank = p.Pos
		}
	}

	s.log.Debug().
		Int64("user_id", userID).
		Int("projects", stats.Projects).
		Msg("Computed user stats")

	return stats, nil
}
