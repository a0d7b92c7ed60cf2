// Package registry holds the immutable catalog of projects served by the dashboard.
package registry

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/osm-campaigns/dashboard/internal/models"
	"github.com/osm-campaigns/dashboard/internal/validation"
)

var (
	idPattern     = regexp.MustCompile(`^[a-z0-9_]+$`)
	suffixPattern = regexp.MustCompile(`^[a-z0-9]+$`)
)

// Registry is the read-only set of projects, ordered by start date.
type Registry struct {
	projects []*models.Project
	byID     map[string]*models.Project
}

// New validates projects and builds a registry. The slice is not retained.
func New(projects []*models.Project) (*Registry, error) {
	r := &Registry{
		projects: make([]*models.Project, 0, len(projects)),
		byID:     make(map[string]*models.Project, len(projects)),
	}
	suffixes := make(map[string]string, len(projects))

	for _, p := range projects {
		if err := validateProject(p); err != nil {
			return nil, fmt.Errorf("project %q: %w", p.ID, err)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate project id %q", p.ID)
		}
		if other, dup := suffixes[p.Suffix()]; dup {
			return nil, fmt.Errorf("projects %q and %q share table suffix %q", other, p.ID, p.Suffix())
		}
		suffixes[p.Suffix()] = p.ID
		r.byID[p.ID] = p
		r.projects = append(r.projects, p)
	}

	sort.SliceStable(r.projects, func(i, j int) bool {
		a, b := r.projects[i], r.projects[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		return a.ID < b.ID
	})

	return r, nil
}

func validateProject(p *models.Project) error {
	if !idPattern.MatchString(p.ID) {
		return fmt.Errorf("id must match %s", idPattern)
	}
	if p.ID == models.MetaProject {
		return fmt.Errorf("id %q is reserved", models.MetaProject)
	}
	if !suffixPattern.MatchString(p.Suffix()) {
		return fmt.Errorf("table suffix %q must match %s", p.Suffix(), suffixPattern)
	}
	if p.StartDate.IsZero() {
		return fmt.Errorf("start_date is required")
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("end_date is before start_date")
	}
	if err := validation.Struct(p); err != nil {
		return err
	}

	seen := make(map[string]bool, len(p.Badges))
	for _, b := range p.Badges {
		if seen[b.ID] {
			return fmt.Errorf("duplicate badge id %q", b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}

// Get returns the project with the given id.
func (r *Registry) Get(id string) (*models.Project, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// All returns the projects ordered by start date. Callers must not modify the result.
func (r *Registry) All() []*models.Project {
	return r.projects
}

// Len returns the number of projects.
func (r *Registry) Len() int {
	return len(r.projects)
}
