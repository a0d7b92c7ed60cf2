package generator

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/osm-campaigns/dashboard/internal/models"
)

// geometryTypes lists the supported types in output order.
var geometryTypes = []string{models.GeometryPoint, models.GeometryLine, models.GeometryPolygon}

// imposmGeometry maps a project geometry type to the import tool table type.
var imposmGeometry = map[string]string{
	models.GeometryPoint:   "point",
	models.GeometryLine:    "linestring",
	models.GeometryPolygon: "polygon",
}

type imposmMapping struct {
	Tags   imposmTags             `yaml:"tags"`
	Tables map[string]imposmTable `yaml:"tables"`
}

type imposmTags struct {
	LoadAll bool     `yaml:"load_all"`
	Exclude []string `yaml:"exclude,omitempty"`
}

type imposmTable struct {
	Type    string              `yaml:"type"`
	Columns []imposmColumn      `yaml:"columns"`
	Mapping map[string][]string `yaml:"mapping"`
}

type imposmColumn struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Key  string `yaml:"key,omitempty"`
}

var importColumns = []imposmColumn{
	{Name: "osm_id", Type: "id"},
	{Name: "name", Type: "string", Key: "name"},
	{Name: "tags", Type: "hstore_tags"},
	{Name: "geom", Type: "geometry"},
}

func tableName(suffix, geomType string) string {
	return "project_" + suffix + "_" + geomType
}

func compareTableName(suffix, geomType string) string {
	return "project_" + suffix + "_compare_" + geomType
}

// projectTypes returns the geometry types a project imports, in output order.
func projectTypes(p *models.Project) []string {
	var types []string
	for _, t := range geometryTypes {
		if p.Database.HasType(t) {
			types = append(types, t)
		}
	}
	return types
}

// buildMapping declares one import table per project geometry type, plus the
// comparison tables of projects that have a compare block.
func buildMapping(projects []*models.Project) ([]byte, error) {
	m := imposmMapping{
		Tags: imposmTags{
			LoadAll: true,
			Exclude: []string{"created_by", "source"},
		},
		Tables: map[string]imposmTable{},
	}

	for _, p := range projects {
		suffix := p.Suffix()
		for _, t := range projectTypes(p) {
			m.Tables[tableName(suffix, t)] = imposmTable{
				Type:    imposmGeometry[t],
				Columns: importColumns,
				Mapping: p.Database.Imposm.Mapping,
			}
			if p.Database.Compare != nil {
				m.Tables[compareTableName(suffix, t)] = imposmTable{
					Type:    imposmGeometry[t],
					Columns: importColumns,
					Mapping: p.Database.Compare.Mapping,
				}
			}
		}
	}

	out, err := yaml.Marshal(&m)
	if err != nil {
		return nil, fmt.Errorf("marshalling imposm mapping: %w", err)
	}
	return append([]byte(generatedHeader), out...), nil
}
