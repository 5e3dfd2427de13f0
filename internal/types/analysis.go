package types

import (
	"fmt"
	"sort"
)

// Framework tags the extraction family a route came from.
type Framework string

const (
	FrameworkLaravel Framework = "laravel"
	FrameworkSlim    Framework = "slim"
	FrameworkPlain   Framework = "plain"
)

// Handler sentinels used when no Controller@method reference is recoverable.
const (
	HandlerUnknown = "unknown"
	HandlerInline  = "inline_function"
)

// Method is an upper-case HTTP verb.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// Visibility of an extracted class property.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
)

// Route is one extracted (method, path) candidate with its provenance.
type Route struct {
	Method     Method    `json:"method"`
	Path       string    `json:"path"`
	SourceFile string    `json:"file"`
	Framework  Framework `json:"framework"`
	Handler    string    `json:"handler"`
}

// Property is a class property; Type stays "mixed" because declarations are untyped.
type Property struct {
	Name       string     `json:"name"`
	Visibility Visibility `json:"visibility"`
	Type       string     `json:"type"`
}

// Model is one extracted class-like shape.
type Model struct {
	Name       string     `json:"name"`
	Parent     string     `json:"extends,omitempty"`
	SourceFile string     `json:"file"`
	Properties []Property `json:"properties"`
	Methods    []string   `json:"methods"`
}

// AnalysisResult is produced fresh by every analysis call and never persisted.
type AnalysisResult struct {
	Routes       []Route  `json:"routes"`
	Models       []Model  `json:"models"`
	Dependencies []string `json:"dependencies"`
	FileCount    int      `json:"file_count"`
	Summary      string   `json:"summary"`
}

// NewAnalysisResult aggregates per-file findings. Dependencies are
// deduplicated here, once, and emitted in sorted order.
func NewAnalysisResult(routes []Route, models []Model, deps []string, fileCount int) AnalysisResult {
	if routes == nil {
		routes = []Route{}
	}
	if models == nil {
		models = []Model{}
	}
	seen := make(map[string]struct{}, len(deps))
	unique := make([]string, 0, len(deps))
	for _, d := range deps {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		unique = append(unique, d)
	}
	sort.Strings(unique)
	return AnalysisResult{
		Routes:       routes,
		Models:       models,
		Dependencies: unique,
		FileCount:    fileCount,
		Summary:      Summary(len(routes), len(models), fileCount),
	}
}

// Summary formats the one-line analysis summary.
func Summary(routes, models, files int) string {
	return fmt.Sprintf("Found %d routes, %d models, %d files", routes, models, files)
}
