// Package generator produces the offline import artifacts of the registry projects:
// the imposm mapping, the SQL batches creating the project views, and the pipeline
// script importing OpenStreetMap data into the database.
package generator

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/osm-campaigns/dashboard/internal/config"
	"github.com/osm-campaigns/dashboard/internal/models"
	"github.com/osm-campaigns/dashboard/pkg/logger"
)

// Artifact file names.
const (
	MappingFile       = "mapping.yml"
	PreSQLFile        = "db_pre.sql"
	PostSQLFile       = "db_post.sql"
	PostUpdateSQLFile = "db_post_update.sql"
	ScriptFile        = "pipeline.sh"
)

const generatedHeader = "# Generated by \"dashboard generate\". Do not edit.\n\n"

// identPattern restricts the suffixes interpolated into SQL identifiers.
var identPattern = regexp.MustCompile(`^[a-z0-9]+$`)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("generator").
		Funcs(template.FuncMap{"quote": shellQuote}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// Artifacts holds the generated file contents.
type Artifacts struct {
	Mapping       []byte
	PreSQL        []byte
	PostSQL       []byte
	PostUpdateSQL []byte
	Script        []byte
}

type scriptData struct {
	WorkDir          string
	ExtractURL       string
	ReplicationURL   string
	BoundaryFile     string
	DatabaseURL      string
	ImposmConnection string
}

// Generator renders the artifacts.
type Generator struct {
	cfg         *config.GeneratorConfig
	databaseURL string
	log         *logger.Logger
}

// New creates a generator. databaseURL is the postgres:// URL the pipeline connects to.
func New(cfg *config.GeneratorConfig, databaseURL string, log *logger.Logger) *Generator {
	return &Generator{cfg: cfg, databaseURL: databaseURL, log: log}
}

// Generate renders the artifacts for projects.
func (g *Generator) Generate(projects []*models.Project) (*Artifacts, error) {
	views, err := buildViews(projects)
	if err != nil {
		return nil, err
	}

	a := &Artifacts{}
	if a.Mapping, err = buildMapping(projects); err != nil {
		return nil, err
	}
	if a.PreSQL, err = render(PreSQLFile, views); err != nil {
		return nil, err
	}
	if a.PostSQL, err = render(PostSQLFile, views); err != nil {
		return nil, err
	}
	if a.PostUpdateSQL, err = render(PostUpdateSQLFile, views); err != nil {
		return nil, err
	}

	conn, err := imposmConnection(g.databaseURL)
	if err != nil {
		return nil, err
	}
	a.Script, err = render("pipeline.sh.tmpl", scriptData{
		WorkDir:          g.cfg.WorkDir,
		ExtractURL:       g.cfg.ExtractURL,
		ReplicationURL:   strings.TrimRight(g.cfg.ReplicationURL, "/"),
		BoundaryFile:     g.cfg.BoundaryFile,
		DatabaseURL:      g.databaseURL,
		ImposmConnection: conn,
	})
	if err != nil {
		return nil, err
	}

	return a, nil
}

// Write stores the artifacts in the output directory. The script is made executable.
func (g *Generator) Write(a *Artifacts) error {
	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	files := []struct {
		name string
		data []byte
		mode os.FileMode
	}{
		{MappingFile, a.Mapping, 0o644},
		{PreSQLFile, a.PreSQL, 0o644},
		{PostSQLFile, a.PostSQL, 0o644},
		{PostUpdateSQLFile, a.PostUpdateSQL, 0o644},
		{ScriptFile, a.Script, 0o755},
	}
	for _, f := range files {
		path := filepath.Join(g.cfg.OutputDir, f.name)
		if err := os.WriteFile(path, f.data, f.mode); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		// WriteFile keeps the mode of an existing file.
		if err := os.Chmod(path, f.mode); err != nil {
			return fmt.Errorf("chmod %s: %w", path, err)
		}
	}
	return nil
}

// Run generates and writes the artifacts.
func (g *Generator) Run(projects []*models.Project) error {
	a, err := g.Generate(projects)
	if err != nil {
		return err
	}
	if err := g.Write(a); err != nil {
		return err
	}

	g.log.Info().
		Int("projects", len(projects)).
		Str("output_dir", g.cfg.OutputDir).
		Msg("Generated import artifacts")
	return nil
}

// imposmConnection turns a postgres:// URL into the postgis:// form imposm expects,
// without the default osm_ table prefix.
func imposmConnection(databaseURL string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing database url: %w", err)
	}
	u.Scheme = "postgis"
	q := u.Query()
	q.Set("prefix", "NONE")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
