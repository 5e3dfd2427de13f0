// Package contract builds the API contract document for an analysis result.
//
// Routes that share a method and path merge into a single operation whose
// x-migrated-from lists every contributing route. Operations() can therefore
// be smaller than the route count; Provenance() always equals it and is the
// count to compare against the router stubs and tests.
package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"legacyport/internal/pathnorm"
	"legacyport/internal/types"
)

const Version = "3.0.3"

var ErrUnsupportedFormat = errors.New("unsupported contract format")

// Format selects the contract serialization.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" and "json" (any case); empty means yaml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnsupportedFormat, s)
}

// Filename is the artifact name the contract is written under.
func (f Format) Filename() string {
	if f == FormatJSON {
		return "openapi.json"
	}
	return "openapi.yaml"
}

type Options struct {
	Title       string `json:"title,omitempty"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	ServerURL   string `json:"server_url,omitempty"`
	Format      Format `json:"format,omitempty"`
}

func (o Options) WithDefaults() Options {
	if o.Title == "" {
		o.Title = "Migrated API"
	}
	if o.Version == "" {
		o.Version = "1.0.0"
	}
	if o.Description == "" {
		o.Description = "API migrated from PHP to Python"
	}
	if o.Format == "" {
		o.Format = FormatYAML
	}
	return o
}

// Build derives the contract document from result. Routes sharing a path and
// method merge into one operation whose x-migrated-from lists every
// contributing route, in order. Only {name} placeholders become parameters.
func Build(result types.AnalysisResult, opts Options) *Document {
	opts = opts.WithDefaults()
	doc := &Document{
		OpenAPI: Version,
		Info: Info{
			Title:       opts.Title,
			Description: opts.Description,
			Version:     opts.Version,
		},
		Paths:      NewOrdered[*PathItem](),
		Components: Components{Schemas: NewOrdered[*Schema]()},
	}
	if opts.ServerURL != "" {
		doc.Servers = []Server{{URL: opts.ServerURL}}
	}

	names := pathnorm.Names(result.Routes)
	for i, r := range result.Routes {
		item, ok := doc.Paths.Get(r.Path)
		if !ok {
			item = &PathItem{}
			doc.Paths.Set(r.Path, item)
		}
		slot := item.slot(r.Method)
		if slot == nil {
			continue
		}
		prov := Provenance{File: r.SourceFile, Framework: r.Framework, Handler: r.Handler}
		if *slot != nil {
			(*slot).MigratedFrom = append((*slot).MigratedFrom, prov)
			continue
		}
		*slot = newOperation(r, names[i], prov)
	}

	// A later class with the same name replaces the earlier schema in place.
	for _, m := range result.Models {
		doc.Components.Schemas.Set(m.Name, schemaFor(m))
	}
	return doc
}

func newOperation(r types.Route, opID string, prov Provenance) *Operation {
	method := strings.ToUpper(string(r.Method))
	op := &Operation{
		Summary:     method + " " + r.Path,
		Description: "Migrated from " + r.SourceFile,
		OperationID: opID,
		Responses: map[string]Response{
			"200": {
				Description: "Successful response",
				Content: map[string]MediaType{
					"application/json": {Schema: &Schema{Type: "object"}},
				},
			},
			"404": {Description: "Not found"},
			"500": {Description: "Internal server error"},
		},
		Handler:      r.Handler,
		MigratedFrom: []Provenance{prov},
	}
	seen := make(map[string]bool)
	for _, name := range pathnorm.ContractParams(r.Path) {
		if seen[name] {
			continue
		}
		seen[name] = true
		op.Parameters = append(op.Parameters, Parameter{
			Name:     name,
			In:       "path",
			Required: true,
			Schema:   &Schema{Type: "string"},
		})
	}
	return op
}

func schemaFor(m types.Model) *Schema {
	s := &Schema{
		Type:         "object",
		Properties:   NewOrdered[*Schema](),
		Extends:      m.Parent,
		MigratedFrom: m.SourceFile,
	}
	for _, p := range m.Properties {
		s.Properties.Set(p.Name, &Schema{Type: types.MapType(p.Type).OpenAPI})
		if p.Visibility == types.VisibilityPublic {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}

// Operations counts the operations in doc.
func (d *Document) Operations() int {
	n := 0
	for _, k := range d.Paths.Keys() {
		item, _ := d.Paths.Get(k)
		n += len(item.operations())
	}
	return n
}

// Provenance counts the route provenance entries across all operations. It
// equals the number of routes the document was built from.
func (d *Document) Provenance() int {
	n := 0
	for _, k := range d.Paths.Keys() {
		item, _ := d.Paths.Get(k)
		for _, op := range item.operations() {
			n += len(op.MigratedFrom)
		}
	}
	return n
}

// Render serializes doc with two-space indentation.
func Render(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal contract json: %w", err)
		}
		return append(b, '\n'), nil
	case FormatYAML, "":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("marshal contract yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("marshal contract yaml: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
}

// Validate loads a rendered contract (yaml or json) and checks it against the
// OpenAPI 3 rules. Problems are advisory: extracted paths are not guaranteed
// to be valid templates.
func Validate(ctx context.Context, data []byte) error {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return fmt.Errorf("load contract: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("validate contract: %w", err)
	}
	return nil
}
