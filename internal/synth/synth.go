// Package synth turns one analysis result into the complete generated
// artifact set.
package synth

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"

	"golang.org/x/sync/errgroup"

	"legacyport/internal/synth/application"
	"legacyport/internal/synth/contract"
	"legacyport/internal/synth/testsuite"
	"legacyport/internal/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Logical artifact names, in the order the set lists them.
const (
	Contract     = "openapi"
	Main         = "main"
	Models       = "models"
	Routes       = "routes"
	Tests        = "tests"
	Requirements = "requirements"
	Readme       = "readme"
)

type Options struct {
	Contract contract.Options `json:"contract"`
}

// Artifact is one generated file.
type Artifact struct {
	Name     string
	Filename string
	Content  []byte
}

// Set is the fixed, ordered artifact set: contract, entrypoint, models,
// router, tests, then the dependency manifest and readme.
type Set struct {
	Artifacts []Artifact
	// Document is the contract the set was rendered from.
	Document *contract.Document
	Format   contract.Format
}

// Files maps logical names to filenames.
func (s Set) Files() map[string]string {
	files := make(map[string]string, len(s.Artifacts))
	for _, a := range s.Artifacts {
		files[a.Name] = a.Filename
	}
	return files
}

// Lookup finds an artifact by filename.
func (s Set) Lookup(filename string) (Artifact, bool) {
	for _, a := range s.Artifacts {
		if a.Filename == filename {
			return a, true
		}
	}
	return Artifact{}, false
}

// Render runs the contract, application and test synthesizers concurrently
// over the same result and assembles their output in the fixed order. It
// holds no state between calls: equal inputs give byte-identical sets.
func Render(ctx context.Context, result types.AnalysisResult, opts Options) (Set, error) {
	copts := opts.Contract.WithDefaults()
	if _, err := contract.ParseFormat(string(copts.Format)); err != nil {
		return Set{}, err
	}

	var (
		doc      *contract.Document
		rendered []byte
		app      application.Sources
		testSrc  string
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc = contract.Build(result, copts)
		var err error
		rendered, err = contract.Render(doc, copts.Format)
		return err
	})
	g.Go(func() error {
		var err error
		app, err = application.Build(result, application.Info{
			Title:       copts.Title,
			Description: copts.Description,
			Version:     copts.Version,
		})
		return err
	})
	g.Go(func() error {
		var err error
		testSrc, err = testsuite.Build(result)
		return err
	})
	if err := g.Wait(); err != nil {
		return Set{}, err
	}

	requirements, err := execute("requirements.txt.tmpl", nil)
	if err != nil {
		return Set{}, err
	}
	summary := result.Summary
	if summary == "" {
		summary = types.Summary(len(result.Routes), len(result.Models), result.FileCount)
	}
	readme, err := execute("README.md.tmpl", struct {
		Summary  string
		Contract string
	}{summary, copts.Format.Filename()})
	if err != nil {
		return Set{}, err
	}

	return Set{
		Artifacts: []Artifact{
			{Name: Contract, Filename: copts.Format.Filename(), Content: rendered},
			{Name: Main, Filename: "main.py", Content: []byte(app.Main)},
			{Name: Models, Filename: "models.py", Content: []byte(app.Models)},
			{Name: Routes, Filename: "routes.py", Content: []byte(app.Routes)},
			{Name: Tests, Filename: "test_api.py", Content: []byte(testSrc)},
			{Name: Requirements, Filename: "requirements.txt", Content: requirements},
			{Name: Readme, Filename: "README.md", Content: readme},
		},
		Document: doc,
		Format:   copts.Format,
	}, nil
}

func execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
