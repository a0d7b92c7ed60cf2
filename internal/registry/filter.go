package registry

import (
	"sort"
	"time"

	"github.com/osm-campaigns/dashboard/internal/models"
)

// Partition splits the registry relative to an instant.
//
// Past holds projects that ended before the instant, by end ascending. Current is the
// active project; when several are active the latest start wins, then the greatest id.
// Next is the project with the earliest start after the instant. Later future projects
// belong to none of the three.
type Partition struct {
	Past    []*models.Project
	Current *models.Project
	Next    *models.Project
}

// Filter partitions projects at now.
func Filter(projects []*models.Project, now time.Time) Partition {
	var part Partition

	for _, p := range projects {
		switch {
		case p.ActiveAt(now):
			if part.Current == nil || preferCurrent(p, part.Current) {
				part.Current = p
			}
		case p.StartDate.After(now):
			if part.Next == nil || p.StartDate.Before(part.Next.StartDate) ||
				(p.StartDate.Equal(part.Next.StartDate) && p.ID < part.Next.ID) {
				part.Next = p
			}
		default:
			part.Past = append(part.Past, p)
		}
	}

	sort.SliceStable(part.Past, func(i, j int) bool {
		return part.Past[i].EndDate.Before(*part.Past[j].EndDate)
	})

	return part
}

func preferCurrent(candidate, current *models.Project) bool {
	if !candidate.StartDate.Equal(current.StartDate) {
		return candidate.StartDate.After(current.StartDate)
	}
	return candidate.ID > current.ID
}

// Home returns the project the landing page redirects to: current, else next, else the most recent past one.
func (p Partition) Home() *models.Project {
	switch {
	case p.Current != nil:
		return p.Current
	case p.Next != nil:
		return p.Next
	case len(p.Past) > 0:
		return p.Past[len(p.Past)-1]
	default:
		return nil
	}
}

// Filter partitions the registry at now.
func (r *Registry) Filter(now time.Time) Partition {
	return Filter(r.projects, now)
}

// IsCurrent reports whether id names the current project at now.
func (r *Registry) IsCurrent(id string, now time.Time) bool {
	cur := r.Filter(now).Current
	return cur != nil && cur.ID == id
}
