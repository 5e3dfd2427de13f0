package extract

import (
	"regexp"
	"strings"

	"legacyport/internal/types"
)

const (
	verbGroup = `(get|post|put|patch|delete)`
	pathGroup = `\s*\(\s*['"]([^'"]+)['"]`

	// handlerWindow is how far past a DSL route call the handler literal may sit.
	handlerWindow = 200

	// AnyIdentifier in Facades or Receivers matches every identifier.
	AnyIdentifier = "*"
)

var (
	DefaultFacades   = []string{"Route"}
	DefaultReceivers = []string{"app"}

	reHandler     = regexp.MustCompile(`['"](\w+Controller)@(\w+)['"]`)
	rePlainPath   = regexp.MustCompile(`['"]/([\w/\-]+)['"]`)
	plainTriggers = []string{"REQUEST_URI", "REQUEST_METHOD"}

	defaultRoutes = newRoutePatterns(DefaultFacades, DefaultReceivers)
)

// routePatterns holds the compiled DSL-call and object-call families.
type routePatterns struct {
	dsl    *regexp.Regexp
	object *regexp.Regexp
}

func newRoutePatterns(facades, receivers []string) routePatterns {
	if len(facades) == 0 {
		facades = DefaultFacades
	}
	if len(receivers) == 0 {
		receivers = DefaultReceivers
	}
	return routePatterns{
		dsl:    regexp.MustCompile(`(?i)` + identAlternation(facades) + `::` + verbGroup + pathGroup),
		object: regexp.MustCompile(`(?i)\$` + identAlternation(receivers) + `->` + verbGroup + pathGroup),
	}
}

func identAlternation(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if n == AnyIdentifier {
			return `\w+`
		}
		quoted = append(quoted, regexp.QuoteMeta(n))
	}
	if len(quoted) == 0 {
		return `\w+`
	}
	return `(?:` + strings.Join(quoted, "|") + `)`
}

// Routes runs the three route families with the default facade and receiver.
func Routes(text, file string) []types.Route {
	return defaultRoutes.extract(text, file)
}

// extract returns DSL-call routes, then object-call routes, then plain
// fallback routes. Families are not deduplicated against each other.
func (p routePatterns) extract(text, file string) []types.Route {
	var routes []types.Route

	for _, m := range p.dsl.FindAllStringSubmatchIndex(text, -1) {
		routes = append(routes, types.Route{
			Method:     types.Method(strings.ToUpper(text[m[2]:m[3]])),
			Path:       text[m[4]:m[5]],
			SourceFile: file,
			Framework:  types.FrameworkLaravel,
			Handler:    handlerNear(text, m[0]),
		})
	}

	for _, m := range p.object.FindAllStringSubmatchIndex(text, -1) {
		routes = append(routes, types.Route{
			Method:     types.Method(strings.ToUpper(text[m[2]:m[3]])),
			Path:       text[m[4]:m[5]],
			SourceFile: file,
			Framework:  types.FrameworkSlim,
			Handler:    types.HandlerInline,
		})
	}

	return append(routes, plainRoutes(text, file)...)
}

// plainRoutes treats every quoted "/segment" literal as a GET route, but only
// in files that inspect the request line themselves.
func plainRoutes(text, file string) []types.Route {
	if !containsAny(text, plainTriggers) {
		return nil
	}
	var routes []types.Route
	seen := make(map[string]struct{})
	for _, m := range rePlainPath.FindAllStringSubmatch(text, -1) {
		path := "/" + m[1]
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		routes = append(routes, types.Route{
			Method:     types.MethodGet,
			Path:       path,
			SourceFile: file,
			Framework:  types.FrameworkPlain,
			Handler:    types.HandlerUnknown,
		})
	}
	return routes
}

func handlerNear(text string, pos int) string {
	end := pos + handlerWindow
	if end > len(text) {
		end = len(text)
	}
	if m := reHandler.FindStringSubmatch(text[pos:end]); m != nil {
		return m[1] + "." + m[2]
	}
	return types.HandlerUnknown
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
