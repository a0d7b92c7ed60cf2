// Package mocks holds hand-written test doubles for repository and client interfaces.
package mocks

import (
	"context"
	"sync"

	"github.com/osm-campaigns/dashboard/internal/models"
	"github.com/osm-campaigns/dashboard/internal/repository"
)

// MockStatsRepository is a simple mock for the statistics repository.
type MockStatsRepository struct {
	NoteCountsFunc    func(ctx context.Context, project string) ([]models.NoteCount, error)
	FeatureCountsFunc func(ctx context.Context, project string) ([]models.FeatureCount, error)
	FeatureTotalFunc  func(ctx context.Context, suffix string) (int64, error)
	LeaderboardFunc   func(ctx context.Context, project string) ([]models.LeaderboardEntry, error)
	TagKeysFunc       func(ctx context.Context, suffix string) ([]models.TagKeyCount, error)
}

func (m *MockStatsRepository) NoteCounts(ctx context.Context, project string) ([]models.NoteCount, error) {
	if m.NoteCountsFunc != nil {
		return m.NoteCountsFunc(ctx, project)
	}
	return nil, nil
}

func (m *MockStatsRepository) FeatureCounts(ctx context.Context, project string) ([]models.FeatureCount, error) {
	if m.FeatureCountsFunc != nil {
		return m.FeatureCountsFunc(ctx, project)
	}
	return nil, nil
}

func (m *MockStatsRepository) FeatureTotal(ctx context.Context, suffix string) (int64, error) {
	if m.FeatureTotalFunc != nil {
		return m.FeatureTotalFunc(ctx, suffix)
	}
	return 0, nil
}

func (m *MockStatsRepository) Leaderboard(ctx context.Context, project string) ([]models.LeaderboardEntry, error) {
	if m.LeaderboardFunc != nil {
		return m.LeaderboardFunc(ctx, project)
	}
	return nil, nil
}

func (m *MockStatsRepository) TagKeys(ctx context.Context, suffix string) ([]models.TagKeyCount, error) {
	if m.TagKeysFunc != nil {
		return m.TagKeysFunc(ctx, suffix)
	}
	return nil, nil
}

// MockLeaderboardRepository is a simple mock for leaderboard queries.
type MockLeaderboardRepository struct {
	LeaderboardFunc   func(ctx context.Context, project string) ([]models.LeaderboardEntry, error)
	UserPositionsFunc func(ctx context.Context, userID int64) ([]models.LeaderboardEntry, error)
}

func (m *MockLeaderboardRepository) Leaderboard(ctx context.Context, project string) ([]models.LeaderboardEntry, error) {
	if m.LeaderboardFunc != nil {
		return m.LeaderboardFunc(ctx, project)
	}
	return nil, nil
}

func (m *MockLeaderboardRepository) UserPositions(ctx context.Context, userID int64) ([]models.LeaderboardEntry, error) {
	if m.UserPositionsFunc != nil {
		return m.UserPositionsFunc(ctx, userID)
	}
	return nil, nil
}

// MockUserRepository is a simple mock for user repository.
type MockUserRepository struct {
	GetUserIDByNameFunc func(ctx context.Context, username string) (int64, error)
}

func (m *MockUserRepository) GetUserIDByName(ctx context.Context, username string) (int64, error) {
	if m.GetUserIDByNameFunc != nil {
		return m.GetUserIDByNameFunc(ctx, username)
	}
	return 0, repository.ErrNotFound
}

// MockBadgeRepository is a simple mock for badge repository.
type MockBadgeRepository struct {
	GetUserBadgesFunc func(ctx context.Context, userID int64, projects []string) ([]models.BadgeState, error)
}

func (m *MockBadgeRepository) GetUserBadges(ctx context.Context, userID int64, projects []string) ([]models.BadgeState, error) {
	if m.GetUserBadgesFunc != nil {
		return m.GetUserBadgesFunc(ctx, userID, projects)
	}
	return nil, nil
}

// MockContributionStore records contribution statements in memory. Badge snapshots are
// served in order from Snapshots; a transaction is committed only when fn succeeds.
type MockContributionStore struct {
	mu sync.Mutex

	Snapshots     [][]models.BadgeState
	UpsertErr     error
	BadgesErr     error
	InsertErr     error
	Names         map[int64]string
	Contributions []models.Contribution
	Transactions  int
	Rollbacks     int

	snapshot int
}

func (m *MockContributionStore) InTransaction(_ context.Context, fn func(store repository.ContributionStore) error) error {
	m.mu.Lock()
	m.Transactions++
	tx := &mockTx{parent: m, names: map[int64]string{}}
	m.mu.Unlock()

	if err := fn(tx); err != nil {
		m.mu.Lock()
		m.Rollbacks++
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Names == nil {
		m.Names = map[int64]string{}
	}
	for id, name := range tx.names {
		m.Names[id] = name
	}
	m.Contributions = append(m.Contributions, tx.contributions...)
	return nil
}

type mockTx struct {
	parent        *MockContributionStore
	names         map[int64]string
	contributions []models.Contribution
}

func (t *mockTx) UpsertUserName(_ context.Context, userID int64, username string) error {
	if t.parent.UpsertErr != nil {
		return t.parent.UpsertErr
	}
	t.names[userID] = username
	return nil
}

func (t *mockTx) GetProjectBadges(_ context.Context, _ string, _ int64) ([]models.BadgeState, error) {
	if t.parent.BadgesErr != nil {
		return nil, t.parent.BadgesErr
	}
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	if t.parent.snapshot >= len(t.parent.Snapshots) {
		return nil, nil
	}
	rows := t.parent.Snapshots[t.parent.snapshot]
	t.parent.snapshot++
	return rows, nil
}

func (t *mockTx) InsertContribution(_ context.Context, c *models.Contribution) error {
	if t.parent.InsertErr != nil {
		return t.parent.InsertErr
	}
	t.contributions = append(t.contributions, *c)
	return nil
}
