package generator

import (
	"bytes"
	"fmt"

	"github.com/osm-campaigns/dashboard/internal/models"
)

type viewSource struct {
	Table string
	Point bool
}

type compareView struct {
	View       string
	Exclusive  string
	Production string
	Sources    []viewSource
	Radius     float64
}

type projectView struct {
	ProjectID string
	View      string
	Sources   []viewSource
	Compare   *compareView
}

func buildViews(projects []*models.Project) ([]projectView, error) {
	views := make([]projectView, 0, len(projects))
	for _, p := range projects {
		suffix := p.Suffix()
		if !identPattern.MatchString(suffix) {
			return nil, fmt.Errorf("project %q: unsafe table suffix %q", p.ID, suffix)
		}

		v := projectView{ProjectID: p.ID, View: "project_" + suffix}
		types := projectTypes(p)
		if len(types) == 0 {
			return nil, fmt.Errorf("project %q: no geometry type", p.ID)
		}
		for _, t := range types {
			v.Sources = append(v.Sources, viewSource{Table: tableName(suffix, t), Point: t == models.GeometryPoint})
		}

		if c := p.Database.Compare; c != nil {
			cv := &compareView{
				View:       v.View + "_compare",
				Exclusive:  v.View + "_compare_exclusive",
				Production: v.View,
				Radius:     c.Radius,
			}
			for _, t := range types {
				cv.Sources = append(cv.Sources, viewSource{Table: compareTableName(suffix, t), Point: t == models.GeometryPoint})
			}
			v.Compare = cv
		}
		views = append(views, v)
	}
	return views, nil
}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
