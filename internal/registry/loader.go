package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/osm-campaigns/dashboard/internal/models"
)

const dateOnly = "2006-01-02"

// projectFile is the on-disk form of a project. Dates are kept as text so that a
// date-only end can be stretched to the end of its day.
type projectFile struct {
	models.Project `yaml:",inline"`
	Start          string `yaml:"start_date"`
	End            string `yaml:"end_date"`
}

// LoadDir reads every *.yml and *.yaml file of dir, one project per file, and builds the registry.
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yml", ".yaml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	projects := make([]*models.Project, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		p, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		projects = append(projects, p)
	}

	return New(projects)
}

// Parse decodes a single project definition.
func Parse(data []byte) (*models.Project, error) {
	var f projectFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	p := f.Project
	if f.Start != "" {
		start, _, err := parseDate(f.Start)
		if err != nil {
			return nil, fmt.Errorf("start_date: %w", err)
		}
		p.StartDate = start
	}
	if f.End != "" {
		end, dayOnly, err := parseDate(f.End)
		if err != nil {
			return nil, fmt.Errorf("end_date: %w", err)
		}
		if dayOnly {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		p.EndDate = &end
	}
	return &p, nil
}

func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(dateOnly, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected %s or RFC 3339, got %q", dateOnly, s)
	}
	return t.UTC(), false, nil
}
