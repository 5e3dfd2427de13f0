// Package pathnorm holds every rule that turns an extracted route path into
// the spelling a generated artifact uses.
//
// The contract and the application/test artifacts deliberately disagree on
// colon tokens: the contract only recognizes {name} placeholders, while the
// router and the tests also recognize :name. RouterPath deletes colons rather
// than rewriting them to braces, so /users/:id is served at /users/id and the
// contract documents /users/:id with no parameters. Keep it that way; changing
// one side without the other makes the artifacts describe different routes.
package pathnorm

import (
	"fmt"
	"regexp"
	"strings"

	"legacyport/internal/types"
)

// DefaultParam is the router parameter name used when a parameterized path
// has no recognizable token.
const DefaultParam = "id"

var (
	reCurly    = regexp.MustCompile(`\{(\w+)\}`)
	reAnyToken = regexp.MustCompile(`[:{](\w+)[}]?`)
	reNonIdent = regexp.MustCompile(`[^a-z0-9_]`)
)

// ContractParams returns the {name} placeholders of path in order.
func ContractParams(path string) []string {
	var names []string
	for _, m := range reCurly.FindAllStringSubmatch(path, -1) {
		names = append(names, m[1])
	}
	return names
}

// RouterPath is the path a generated router stub is mounted at: every ':' is
// removed and nothing else changes.
func RouterPath(path string) string {
	return strings.ReplaceAll(path, ":", "")
}

// Parameterized reports whether the router stub takes a parameter.
func Parameterized(path string) bool {
	return strings.Contains(RouterPath(path), "{") || strings.Contains(path, ":")
}

// RouterParam names the single parameter a router stub and its test use. Only
// the first token of the original path is recognized.
func RouterParam(path string) string {
	if m := reAnyToken.FindStringSubmatch(path); m != nil {
		return m[1]
	}
	return DefaultParam
}

// TestPath substitutes the literal 1 for every :name and {name} token.
func TestPath(path string) string {
	return reAnyToken.ReplaceAllString(path, "1")
}

// FuncName derives the Python function name for a route: method_segment_segment,
// lower case, with every non-identifier character turned into '_'.
func FuncName(method types.Method, path string) string {
	p := strings.Trim(path, "/")
	p = strings.NewReplacer("/", "_", "-", "_", ":", "", "{", "", "}", "").Replace(p)
	name := strings.ToLower(string(method))
	if p != "" {
		name += "_" + p
	}
	return reNonIdent.ReplaceAllString(strings.ToLower(name), "_")
}

// Namer hands out unique function names across one route sequence. The first
// route keeps its derived name; later collisions get _2, _3, ... in order.
// A fresh Namer must be used per artifact so every synthesizer agrees.
type Namer struct {
	used map[string]int
}

func NewNamer() *Namer {
	return &Namer{used: make(map[string]int)}
}

// Name returns the unique function name for the next route.
func (n *Namer) Name(method types.Method, path string) string {
	base := FuncName(method, path)
	n.used[base]++
	if n.used[base] == 1 {
		return base
	}
	for {
		candidate := fmt.Sprintf("%s_%d", base, n.used[base])
		if _, taken := n.used[candidate]; !taken {
			n.used[candidate] = 1
			return candidate
		}
		n.used[base]++
	}
}

// Names returns the unique function names for routes, index-aligned.
func Names(routes []types.Route) []string {
	n := NewNamer()
	out := make([]string, len(routes))
	for i, r := range routes {
		out[i] = n.Name(r.Method, r.Path)
	}
	return out
}
