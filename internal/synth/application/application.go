// Package application renders the FastAPI entrypoint, model and router
// sources for an analysis result.
package application

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"legacyport/internal/pathnorm"
	"legacyport/internal/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("application").Funcs(template.FuncMap{"py": pyString}).ParseFS(templateFS, "templates/*.tmpl"),
)

// Sources are the three generated application files.
type Sources struct {
	Main   string
	Models string
	Routes string
}

// Info is the application metadata shown by the generated service.
type Info struct {
	Title       string
	Description string
	Version     string
}

type modelData struct {
	Name   string
	File   string
	Fields []fieldData
}

type fieldData struct {
	Decl string
}

// Stub is one generated router handler. Param is the token as written in the
// route; Arg is the Python identifier bound to it and Decl the full argument
// declaration.
type Stub struct {
	Method     string
	RouterPath string
	FuncName   string
	Param      string
	Arg        string
	Decl       string
	Path       string
	File       string
	Handler    string
}

// Build renders main.py, models.py and routes.py. Router stubs follow the
// route order of result, one per route, named as pathnorm.Names names them.
func Build(result types.AnalysisResult, info Info) (Sources, error) {
	var (
		src Sources
		err error
	)
	if src.Main, err = execute("main.py.tmpl", info); err != nil {
		return Sources{}, err
	}
	if src.Models, err = execute("models.py.tmpl", struct{ Models []modelData }{modelsOf(result.Models)}); err != nil {
		return Sources{}, err
	}
	if src.Routes, err = execute("routes.py.tmpl", struct{ Stubs []Stub }{Stubs(result.Routes)}); err != nil {
		return Sources{}, err
	}
	return src, nil
}

// Stubs computes the router stub for every route, index-aligned with routes.
// Param is empty for handlers without a path parameter.
func Stubs(routes []types.Route) []Stub {
	names := pathnorm.Names(routes)
	stubs := make([]Stub, len(routes))
	for i, r := range routes {
		s := Stub{
			Method:     strings.ToLower(string(r.Method)),
			RouterPath: pathnorm.RouterPath(r.Path),
			FuncName:   names[i],
			Path:       r.Path,
			File:       r.SourceFile,
			Handler:    r.Handler,
		}
		if pathnorm.Parameterized(r.Path) {
			s.Param = pathnorm.RouterParam(r.Path)
			s.Arg, s.Decl = paramDecl(s.Param, s.RouterPath)
		}
		stubs[i] = s
	}
	return stubs
}

func modelsOf(models []types.Model) []modelData {
	out := make([]modelData, 0, len(models))
	for _, m := range models {
		md := modelData{Name: m.Name, File: m.SourceFile}
		for _, p := range m.Properties {
			md.Fields = append(md.Fields, fieldData{Decl: fieldDecl(p)})
		}
		out = append(out, md)
	}
	return out
}

// fieldDecl declares one pydantic field. Names that are not valid Python
// identifiers are renamed and keep the source name as their alias.
func fieldDecl(p types.Property) string {
	typ := types.MapType(p.Type).Python
	if ident, renamed := pyIdent(p.Name); renamed {
		return fmt.Sprintf("%s: %s = Field(alias=%s)", ident, typ, pyString(p.Name))
	}
	return p.Name + ": " + typ
}

// paramDecl declares the handler argument for param. A {param} placeholder in
// the mounted path makes it a path parameter; a deleted colon token leaves it
// a query parameter.
func paramDecl(param, routerPath string) (arg, decl string) {
	arg, renamed := pyIdent(param)
	if !renamed {
		return arg, arg + ": str"
	}
	source := "Query"
	if strings.Contains(routerPath, "{"+param+"}") {
		source = "Path"
	}
	return arg, fmt.Sprintf("%s: str = %s(alias=%s)", arg, source, pyString(param))
}

// pyIdent maps name to a usable Python identifier: keywords get a trailing
// underscore, names starting with a digit a leading one.
func pyIdent(name string) (string, bool) {
	switch {
	case pythonKeywords[name]:
		return name + "_", true
	case name != "" && unicode.IsDigit(rune(name[0])):
		return "_" + name, true
	}
	return name, false
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", strings.TrimSuffix(name, ".tmpl"), err)
	}
	return buf.String(), nil
}

// pyString quotes s as a double-quoted Python string literal. Go's escape
// sequences for quoted strings are a subset of Python's.
func pyString(s string) string {
	return strconv.Quote(s)
}

var pythonKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true, "assert": true,
	"async": true, "await": true, "break": true, "class": true, "continue": true, "def": true,
	"del": true, "elif": true, "else": true, "except": true, "finally": true, "for": true,
	"from": true, "global": true, "if": true, "import": true, "in": true, "is": true,
	"lambda": true, "nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}
