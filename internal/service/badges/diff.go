package badges

import (
	"github.com/osm-campaigns/dashboard/internal/models"
)

// Diff returns the after rows that are absent from before or whose acquired value changed,
// in after order, with the previous state attached.
func Diff(before, after []models.BadgeState, catalog *Catalog) []models.BadgeChange {
	previous := make(map[string]int, len(before))
	for _, b := range before {
		previous[b.Key()] = b.Acquired
	}

	changes := []models.BadgeChange{}
	for _, a := range after {
		prev, existed := previous[a.Key()]
		if existed && prev == a.Acquired {
			continue
		}

		change := models.BadgeChange{
			Project:  a.Project,
			ID:       a.ID,
			Acquired: a.Acquired,
			Previous: prev,
			New:      !existed,
		}
		if def, ok := catalog.Lookup(a.Project, a.ID); ok {
			change.Name = def.Name
			change.Description = def.Description
			change.Icon = def.Icon
		}
		changes = append(changes, change)
	}
	return changes
}
