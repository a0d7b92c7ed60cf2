package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osm-campaigns/dashboard/internal/models"
)

func TestBadgeRepository_GetUserBadges(t *testing.T) {
	db := setupTestDB(t)
	useBadgeFixture(t, db)
	insertBadge(t, db, "demo_foo", 42, "first", 1)
	insertBadge(t, db, "demo_foo", 42, "tenth", 0)
	insertBadge(t, db, "demo_bar", 42, "first", 2)
	insertBadge(t, db, "meta", 42, "veteran", 1)
	insertBadge(t, db, "demo_foo", 7, "first", 1)

	repo := NewBadgeRepository(db)
	rows, err := repo.GetUserBadges(context.Background(), 42, []string{"demo_foo", "demo_bar", "meta"})
	require.NoError(t, err)

	assert.Equal(t, []models.BadgeState{
		{Project: "demo_foo", ID: "first", Acquired: 1},
		{Project: "demo_foo", ID: "tenth", Acquired: 0},
		{Project: "demo_bar", ID: "first", Acquired: 2},
		{Project: "meta", ID: "veteran", Acquired: 1},
	}, rows)
}

func TestBadgeRepository_GetUserBadges_Error(t *testing.T) {
	db := setupTestDB(t)
	// No fixture: get_badges does not exist in SQLite.
	repo := NewBadgeRepository(db)

	_, err := repo.GetUserBadges(context.Background(), 42, []string{"demo_foo"})
	assert.Error(t, err)
}
