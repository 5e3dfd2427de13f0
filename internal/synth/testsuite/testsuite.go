// Package testsuite renders the pytest smoke suite for generated routers.
package testsuite

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"legacyport/internal/pathnorm"
	"legacyport/internal/types"
)

//go:embed test_api.py.tmpl
var suiteSource string

var suite = template.Must(template.New("test_api").Funcs(template.FuncMap{"py": strconv.Quote}).Parse(suiteSource))

// Case is one generated smoke test.
type Case struct {
	Name     string
	Method   string
	Verb     string
	Path     string
	TestPath string
}

// Cases returns one smoke test per route, in route order. Names match the
// router stubs generated for the same routes.
func Cases(routes []types.Route) []Case {
	names := pathnorm.Names(routes)
	cases := make([]Case, len(routes))
	for i, r := range routes {
		cases[i] = Case{
			Name:     names[i],
			Method:   strings.ToLower(string(r.Method)),
			Verb:     strings.ToUpper(string(r.Method)),
			Path:     r.Path,
			TestPath: pathnorm.TestPath(r.Path),
		}
	}
	return cases
}

// Build renders test_api.py. Each route test accepts 200 or 404, since the
// generated handlers carry no behavior to assert on.
func Build(result types.AnalysisResult) (string, error) {
	var buf bytes.Buffer
	if err := suite.Execute(&buf, Cases(result.Routes)); err != nil {
		return "", fmt.Errorf("render test_api: %w", err)
	}
	return buf.String(), nil
}
