package badges

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osm-campaigns/dashboard/internal/models"
)

func TestDiff(t *testing.T) {
	before := []models.BadgeState{{Project: "demo_foo", ID: "A", Acquired: 1}}
	after := []models.BadgeState{
		{Project: "demo_foo", ID: "A", Acquired: 2},
		{Project: "demo_foo", ID: "B", Acquired: 1},
	}

	changes := Diff(before, after, NewCatalog(nil, nil))

	assert.Equal(t, []models.BadgeChange{
		{Project: "demo_foo", ID: "A", Acquired: 2, Previous: 1, New: false},
		{Project: "demo_foo", ID: "B", Acquired: 1, Previous: 0, New: true},
	}, changes)
}

func TestDiff_Unchanged(t *testing.T) {
	rows := []models.BadgeState{
		{Project: "demo_foo", ID: "first", Acquired: 1},
		{Project: "meta", ID: "veteran", Acquired: 0},
	}
	assert.Empty(t, Diff(rows, rows, testCatalog()))
}

func TestDiff_SameIDOtherProject(t *testing.T) {
	before := []models.BadgeState{{Project: "demo_foo", ID: "first", Acquired: 1}}
	after := []models.BadgeState{
		{Project: "demo_foo", ID: "first", Acquired: 1},
		{Project: "demo_bar", ID: "first", Acquired: 1},
	}

	changes := Diff(before, after, testCatalog())

	assert.Len(t, changes, 1)
	assert.Equal(t, "demo_bar", changes[0].Project)
	assert.Equal(t, "First bench", changes[0].Name)
	assert.True(t, changes[0].New)
}

func TestDiff_DescribesMetaBadges(t *testing.T) {
	before := []models.BadgeState{{Project: "meta", ID: "veteran", Acquired: 0}}
	after := []models.BadgeState{{Project: "meta", ID: "veteran", Acquired: 1}}

	changes := Diff(before, after, testCatalog())

	assert.Len(t, changes, 1)
	assert.Equal(t, "Veteran", changes[0].Name)
	assert.Equal(t, "medal.svg", changes[0].Icon)
	assert.False(t, changes[0].New)
}
