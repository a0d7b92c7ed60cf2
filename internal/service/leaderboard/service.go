// Package leaderboard provides leaderboard and ranking services.
package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/osm-campaigns/dashboard/internal/models"
	"github.com/osm-campaigns/dashboard/internal/registry"
	"github.com/osm-campaigns/dashboard/internal/repository"
	"github.com/osm-campaigns/dashboard/pkg/logger"
)

// ErrUserNotFound is returned when no user carries the requested name.
var ErrUserNotFound = errors.New("user not found")

// LeaderboardRepository interface for leaderboard projection queries.
type LeaderboardRepository interface {
	Leaderboard(ctx context.Context, project string) ([]models.LeaderboardEntry, error)
	UserPositions(ctx context.Context, userID int64) ([]models.LeaderboardEntry, error)
}

// UserRepository interface for user operations.
type UserRepository interface {
	GetUserIDByName(ctx context.Context, username string) (int64, error)
}

// Position is a user's rank in one project.
type Position struct {
	Project string `json:"project"`
	Title   string `json:"title"`
	Pos     int    `json:"pos"`
	Score   int    `json:"score"`
}

// Service handles leaderboard reads and user rankings.
type Service struct {
	leaderboardRepo LeaderboardRepository
	userRepo        UserRepository
	registry        *registry.Registry
	log             *logger.Logger
}

// NewService creates a new leaderboard service with concrete repository types.
func NewService(
	statsRepo *repository.StatsRepository,
	userRepo *repository.UserRepository,
	reg *registry.Registry,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(statsRepo, userRepo, reg, log)
}

// NewServiceWithInterfaces creates a new leaderboard service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	leaderboardRepo LeaderboardRepository,
	userRepo UserRepository,
	reg *registry.Registry,
	log *logger.Logger,
) *Service {
	return &Service{
		leaderboardRepo: leaderboardRepo,
		userRepo:        userRepo,
		registry:        reg,
		log:             log,
	}
}

// ProjectLeaderboard returns the leaderboard of a project ordered by position.
func (s *Service) ProjectLeaderboard(ctx context.Context, project string) ([]models.LeaderboardEntry, error) {
	entries, err := s.leaderboardRepo.Leaderboard(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	return entries, nil
}

// UserPositions returns the user's positions in registry order. Rows of projects
// missing from the registry are skipped.
func (s *Service) UserPositions(ctx context.Context, userID int64) ([]Position, error) {
	rows, err := s.leaderboardRepo.UserPositions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user positions: %w", err)
	}

	byProject := make(map[string]models.LeaderboardEntry, len(rows))
	for _, row := range rows {
		byProject[row.Project] = row
	}

	positions := []Position{}
	for _, p := range s.registry.All() {
		row, ok := byProject[p.ID]
		if !ok {
			continue
		}
		positions = append(positions, Position{
			Project: p.ID,
			Title:   p.Title,
			Pos:     row.Pos,
			Score:   row.Score,
		})
	}
	return positions, nil
}
