package contract

import (
	"strings"

	"legacyport/internal/types"
)

// Document is the generated API contract (OpenAPI 3.0.3).
type Document struct {
	OpenAPI    string              `json:"openapi" yaml:"openapi"`
	Info       Info                `json:"info" yaml:"info"`
	Servers    []Server            `json:"servers,omitempty" yaml:"servers,omitempty"`
	Paths      *Ordered[*PathItem] `json:"paths" yaml:"paths"`
	Components Components          `json:"components" yaml:"components"`
}

type Info struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Version     string `json:"version" yaml:"version"`
}

type Server struct {
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type PathItem struct {
	Get    *Operation `json:"get,omitempty" yaml:"get,omitempty"`
	Post   *Operation `json:"post,omitempty" yaml:"post,omitempty"`
	Put    *Operation `json:"put,omitempty" yaml:"put,omitempty"`
	Patch  *Operation `json:"patch,omitempty" yaml:"patch,omitempty"`
	Delete *Operation `json:"delete,omitempty" yaml:"delete,omitempty"`
}

// slot returns the operation field for method, or nil for an unsupported verb.
func (p *PathItem) slot(method types.Method) **Operation {
	switch types.Method(strings.ToUpper(string(method))) {
	case types.MethodGet:
		return &p.Get
	case types.MethodPost:
		return &p.Post
	case types.MethodPut:
		return &p.Put
	case types.MethodPatch:
		return &p.Patch
	case types.MethodDelete:
		return &p.Delete
	}
	return nil
}

func (p *PathItem) operations() []*Operation {
	var ops []*Operation
	for _, op := range []*Operation{p.Get, p.Post, p.Put, p.Patch, p.Delete} {
		if op != nil {
			ops = append(ops, op)
		}
	}
	return ops
}

type Operation struct {
	Summary      string              `json:"summary" yaml:"summary"`
	Description  string              `json:"description" yaml:"description"`
	OperationID  string              `json:"operationId" yaml:"operationId"`
	Parameters   []Parameter         `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Responses    map[string]Response `json:"responses" yaml:"responses"`
	Handler      string              `json:"x-handler" yaml:"x-handler"`
	MigratedFrom []Provenance        `json:"x-migrated-from" yaml:"x-migrated-from"`
}

// Provenance records one extracted route that contributed to an operation.
type Provenance struct {
	File      string          `json:"file" yaml:"file"`
	Framework types.Framework `json:"framework" yaml:"framework"`
	Handler   string          `json:"handler" yaml:"handler"`
}

type Parameter struct {
	Name     string  `json:"name" yaml:"name"`
	In       string  `json:"in" yaml:"in"`
	Required bool    `json:"required" yaml:"required"`
	Schema   *Schema `json:"schema" yaml:"schema"`
}

type Response struct {
	Description string               `json:"description" yaml:"description"`
	Content     map[string]MediaType `json:"content,omitempty" yaml:"content,omitempty"`
}

type MediaType struct {
	Schema *Schema `json:"schema" yaml:"schema"`
}

type Schema struct {
	Type         string            `json:"type,omitempty" yaml:"type,omitempty"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	Properties   *Ordered[*Schema] `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required     []string          `json:"required,omitempty" yaml:"required,omitempty"`
	Extends      string            `json:"x-extends,omitempty" yaml:"x-extends,omitempty"`
	MigratedFrom string            `json:"x-migrated-from,omitempty" yaml:"x-migrated-from,omitempty"`
}

type Components struct {
	Schemas *Ordered[*Schema] `json:"schemas" yaml:"schemas"`
}
