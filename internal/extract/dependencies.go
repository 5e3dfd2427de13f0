package extract

import "regexp"

var (
	reUse     = regexp.MustCompile(`use\s+([\w\\]+)`)
	reRequire = regexp.MustCompile(`(require|include)(?:_once)?\s*['"]([^'"]+)['"]`)
)

// Dependencies returns raw import and include strings in order of appearance:
// every `use` target first, then every require/include literal. Nothing is
// normalized or deduplicated here.
func Dependencies(text string) []string {
	var deps []string
	for _, m := range reUse.FindAllStringSubmatch(text, -1) {
		deps = append(deps, m[1])
	}
	for _, m := range reRequire.FindAllStringSubmatch(text, -1) {
		deps = append(deps, m[2])
	}
	return deps
}
