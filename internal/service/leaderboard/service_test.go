package leaderboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osm-campaigns/dashboard/internal/models"
	"github.com/osm-campaigns/dashboard/internal/registry"
	"github.com/osm-campaigns/dashboard/pkg/logger"
	"github.com/osm-campaigns/dashboard/test/mocks"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	mapping := models.DatabaseMapping{
		Types:  []string{models.GeometryPoint},
		Imposm: models.ImposmMapping{Mapping: map[string][]string{"amenity": {"bench"}}},
	}
	reg, err := registry.New([]*models.Project{
		{ID: "demo_bar", Title: "Bar", StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Database: mapping},
		{ID: "demo_foo", Title: "Foo", StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Database: mapping},
	})
	require.NoError(t, err)
	return reg
}

func TestProjectLeaderboard(t *testing.T) {
	repo := &mocks.MockLeaderboardRepository{
		LeaderboardFunc: func(_ context.Context, project string) ([]models.LeaderboardEntry, error) {
			assert.Equal(t, "demo_foo", project)
			return []models.LeaderboardEntry{
				{Project: project, UserID: 1, Username: "alice", Pos: 1, Score: 30},
				{Project: project, UserID: 2, Username: "bob", Pos: 2, Score: 12},
			}, nil
		},
	}
	svc := NewServiceWithInterfaces(repo, &mocks.MockUserRepository{}, testRegistry(t), logger.Nop())

	entries, err := svc.ProjectLeaderboard(context.Background(), "demo_foo")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Username)
}

func TestProjectLeaderboard_EmptyIsNotNil(t *testing.T) {
	svc := NewServiceWithInterfaces(&mocks.MockLeaderboardRepository{}, &mocks.MockUserRepository{}, testRegistry(t), logger.Nop())

	entries, err := svc.ProjectLeaderboard(context.Background(), "demo_foo")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestUserPositions_RegistryOrder(t *testing.T) {
	repo := &mocks.MockLeaderboardRepository{
		UserPositionsFunc: func(_ context.Context, userID int64) ([]models.LeaderboardEntry, error) {
			return []models.LeaderboardEntry{
				{Project: "demo_bar", UserID: userID, Pos: 4, Score: 8},
				{Project: "gone_old", UserID: userID, Pos: 1, Score: 99},
				{Project: "demo_foo", UserID: userID, Pos: 2, Score: 20},
			}, nil
		},
	}
	svc := NewServiceWithInterfaces(repo, &mocks.MockUserRepository{}, testRegistry(t), logger.Nop())

	positions, err := svc.UserPositions(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, []Position{
		{Project: "demo_foo", Title: "Foo", Pos: 2, Score: 20},
		{Project: "demo_bar", Title: "Bar", Pos: 4, Score: 8},
	}, positions)
}

func TestGetUserStats(t *testing.T) {
	repo := &mocks.MockLeaderboardRepository{
		UserPositionsFunc: func(_ context.Context, userID int64) ([]models.LeaderboardEntry, error) {
			assert.Equal(t, int64(42), userID)
			return []models.LeaderboardEntry{
				{Project: "demo_foo", UserID: userID, Pos: 3, Score: 10},
				{Project: "demo_bar", UserID: userID, Pos: 1, Score: 5},
			}, nil
		},
	}
	users := &mocks.MockUserRepository{
		GetUserIDByNameFunc: func(_ context.Context, username string) (int64, error) {
			return 42, nil
		},
	}
	svc := NewServiceWithInterfaces(repo, users, testRegistry(t), logger.Nop())

	stats, err := svc.GetUserStats(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, int64(42), stats.UserID)
	assert.Equal(t, "alice", stats.Username)
	assert.Equal(t, 2, stats.Projects)
	assert.Equal(t, 1, stats.BestRank)
	assert.Equal(t, 15, stats.Score)
}

func TestGetUserStats_Unranked(t *testing.T) {
	users := &mocks.MockUserRepository{
		GetUserIDByNameFunc: func(context.Context, string) (int64, error) { return 5, nil },
	}
	svc := NewServiceWithInterfaces(&mocks.MockLeaderboardRepository{}, users, testRegistry(t), logger.Nop())

	stats, err := svc.GetUserStats(context.Background(), "newcomer")
	require.NoError(t, err)
	assert.Zero(t, stats.BestRank)
	assert.Empty(t, stats.Positions)
}

func TestGetUserStats_UnknownUser(t *testing.T) {
	svc := NewServiceWithInterfaces(&mocks.MockLeaderboardRepository{}, &mocks.MockUserRepository{}, testRegistry(t), logger.Nop())

	_, err := svc.GetUserStats(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserStats_StoreFailure(t *testing.T) {
	users := &mocks.MockUserRepository{
		GetUserIDByNameFunc: func(context.Context, string) (int64, error) { return 0, errors.New("connection refused") },
	}
	svc := NewServiceWithInterfaces(&mocks.MockLeaderboardRepository{}, users, testRegistry(t), logger.Nop())

	_, err := svc.GetUserStats(context.Background(), "alice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}
