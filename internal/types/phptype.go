package types

import "strings"

// MixedType is the type recorded for every extracted property.
const MixedType = "mixed"

// TypeMapping pairs the contract (OpenAPI) and application (Python) spelling
// of one source type token.
type TypeMapping struct {
	OpenAPI string
	Python  string
}

var phpTypes = map[string]TypeMapping{
	"string":  {OpenAPI: "string", Python: "str"},
	"int":     {OpenAPI: "integer", Python: "int"},
	"integer": {OpenAPI: "integer", Python: "int"},
	"float":   {OpenAPI: "number", Python: "float"},
	"double":  {OpenAPI: "number", Python: "float"},
	"bool":    {OpenAPI: "boolean", Python: "bool"},
	"boolean": {OpenAPI: "boolean", Python: "bool"},
	"array":   {OpenAPI: "array", Python: "List"},
	"object":  {OpenAPI: "object", Python: "dict"},
	MixedType: {OpenAPI: "string", Python: "str"},
}

// MapType resolves a source type token; unknown tokens fall back to mixed.
func MapType(token string) TypeMapping {
	if m, ok := phpTypes[strings.ToLower(strings.TrimSpace(token))]; ok {
		return m
	}
	return phpTypes[MixedType]
}
