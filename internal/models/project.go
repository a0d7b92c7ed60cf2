// Package models defines domain models for the campaign dashboard.
package models

import (
	"strings"
	"time"
)

// Data source kinds.
const (
	SourceOsmose     = "osmose"
	SourceNotes      = "notes"
	SourceBackground = "background"
)

// Geometry types an import table can hold.
const (
	GeometryPoint   = "point"
	GeometryLine    = "line"
	GeometryPolygon = "polygon"
)

// MetaProject is the virtual project holding badges computed across all projects.
const MetaProject = "meta"

// Project is one time-boxed mapping campaign, loaded from the registry.
type Project struct {
	ID          string            `yaml:"id" json:"id" validate:"required"`
	Title       string            `yaml:"title" json:"title" validate:"required"`
	Summary     string            `yaml:"summary" json:"summary"`
	Description string            `yaml:"description" json:"description"`
	Links       map[string]string `yaml:"links" json:"links,omitempty"`
	StartDate   time.Time         `yaml:"-" json:"start_date"`
	EndDate     *time.Time        `yaml:"-" json:"end_date,omitempty"`
	DataSources []DataSource      `yaml:"datasources" json:"datasources" validate:"dive"`
	Database    DatabaseMapping   `yaml:"database" json:"-"`
	Statistics  StatisticsConfig  `yaml:"statistics" json:"statistics"`
	Badges      []BadgeDefinition `yaml:"badges" json:"badges" validate:"dive"`
	Editors     map[string]string `yaml:"editors" json:"editors,omitempty"`
}

// Suffix returns the table name suffix: the part of the id after its last underscore.
func (p *Project) Suffix() string {
	if i := strings.LastIndex(p.ID, "_"); i >= 0 {
		return p.ID[i+1:]
	}
	return p.ID
}

// ActiveAt reports whether t falls in the project date range. An absent end date is open-ended.
func (p *Project) ActiveAt(t time.Time) bool {
	if t.Before(p.StartDate) {
		return false
	}
	return p.EndDate == nil || !p.EndDate.Before(t)
}

// HasSource reports whether the project declares at least one source of the given kind.
func (p *Project) HasSource(kind string) bool {
	for _, ds := range p.DataSources {
		if ds.Source == kind {
			return true
		}
	}
	return false
}

// Badge returns the badge definition with the given id.
func (p *Project) Badge(id string) (BadgeDefinition, bool) {
	for _, b := range p.Badges {
		if b.ID == id {
			return b, true
		}
	}
	return BadgeDefinition{}, false
}

// DataSource is one feed contributing to a project's statistics or map.
type DataSource struct {
	Source      string `yaml:"source" json:"source" validate:"required,oneof=osmose notes background"`
	Name        string `yaml:"name" json:"name"`
	Color       string `yaml:"color" json:"color,omitempty"`
	Description string `yaml:"description" json:"description,omitempty"`
	Item        string `yaml:"item" json:"item,omitempty" validate:"required_if=Source osmose"`
	Class       string `yaml:"class" json:"class,omitempty"`
	Country     string `yaml:"country" json:"country,omitempty"`
	URL         string `yaml:"url" json:"url,omitempty" validate:"required_if=Source background"`
}

// DatabaseMapping describes how the project's features are imported and compared.
type DatabaseMapping struct {
	Types   []string       `yaml:"types" validate:"min=1,dive,oneof=point line polygon"`
	Imposm  ImposmMapping  `yaml:"imposm"`
	Compare *CompareConfig `yaml:"compare"`
}

// HasType reports whether the mapping imports the given geometry type.
func (m *DatabaseMapping) HasType(geomType string) bool {
	for _, t := range m.Types {
		if t == geomType {
			return true
		}
	}
	return false
}

// ImposmMapping maps tag keys to accepted values for the import tool.
type ImposmMapping struct {
	Mapping map[string][]string `yaml:"mapping" validate:"min=1"`
}

// CompareConfig declares comparison tables holding reference features.
type CompareConfig struct {
	Radius  float64             `yaml:"radius" validate:"gt=0"`
	Mapping map[string][]string `yaml:"mapping" validate:"min=1"`
}

// StatisticsConfig toggles optional statistics.
type StatisticsConfig struct {
	Count       bool   `yaml:"count" json:"count"`
	FeatureName string `yaml:"feature_name" json:"feature_name,omitempty"`
}

// BadgeDefinition is the display metadata of a badge.
type BadgeDefinition struct {
	ID          string `yaml:"id" json:"id" validate:"required"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon" json:"icon,omitempty"`
}
