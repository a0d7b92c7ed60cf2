package badges

import (
	"github.com/osm-campaigns/dashboard/internal/models"
)

// Badge is a badge definition joined with the user's state.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	Acquired    int    `json:"acquired"`
}

// ProjectBadges groups the badges of one project.
type ProjectBadges struct {
	Project string  `json:"project"`
	Title   string  `json:"title"`
	Badges  []Badge `json:"badges"`
}

// Catalog resolves badge definitions by project.
type Catalog struct {
	projects []*models.Project
	meta     []models.BadgeDefinition
}

// NewCatalog creates a catalog over registry projects and the meta badge definitions.
func NewCatalog(projects []*models.Project, meta []models.BadgeDefinition) *Catalog {
	return &Catalog{projects: projects, meta: meta}
}

// ProjectIDs returns the ids whose badges are computed for a user: every project, then meta.
func (c *Catalog) ProjectIDs() []string {
	ids := make([]string, 0, len(c.projects)+1)
	for _, p := range c.projects {
		ids = append(ids, p.ID)
	}
	return append(ids, models.MetaProject)
}

func (c *Catalog) definitions(project string) (string, []models.BadgeDefinition, bool) {
	if project == models.MetaProject {
		return "", c.meta, true
	}
	for _, p := range c.projects {
		if p.ID == project {
			return p.Title, p.Badges, true
		}
	}
	return "", nil, false
}

// Lookup returns the definition of a badge.
func (c *Catalog) Lookup(project, id string) (models.BadgeDefinition, bool) {
	_, defs, ok := c.definitions(project)
	if !ok {
		return models.BadgeDefinition{}, false
	}
	for _, d := range defs {
		if d.ID == id {
			return d, true
		}
	}
	return models.BadgeDefinition{}, false
}

// Present joins raw badge rows with their definitions. Groups follow registry order with
// meta last, badges follow definition order, and rows naming an unknown project or badge are dropped.
func Present(rows []models.BadgeState, catalog *Catalog) []ProjectBadges {
	states := make(map[string]int, len(rows))
	for _, r := range rows {
		states[r.Key()] = r.Acquired
	}

	var out []ProjectBadges
	for _, project := range catalog.ProjectIDs() {
		title, defs, _ := catalog.definitions(project)

		var group []Badge
		for _, d := range defs {
			acquired, ok := states[models.BadgeState{Project: project, ID: d.ID}.Key()]
			if !ok {
				continue
			}
			group = append(group, Badge{
				ID:          d.ID,
				Name:        d.Name,
				Description: d.Description,
				Icon:        d.Icon,
				Acquired:    acquired,
			})
		}
		if len(group) == 0 {
			continue
		}
		out = append(out, ProjectBadges{Project: project, Title: title, Badges: group})
	}
	return out
}
