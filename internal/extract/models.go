package extract

import (
	"regexp"

	"legacyport/internal/types"
)

var (
	reClass    = regexp.MustCompile(`class\s+(\w+)(?:\s+extends\s+(\w+))?`)
	reProperty = regexp.MustCompile(`(public|private|protected)\s+\$(\w+)`)
	reMethod   = regexp.MustCompile(`function\s+(\w+)\s*\(`)
)

// Models extracts every class declaration in text. A declaration without a
// following body still yields a model, with no properties or methods.
func Models(text, file string) []types.Model {
	var models []types.Model
	for _, m := range reClass.FindAllStringSubmatchIndex(text, -1) {
		model := types.Model{
			Name:       text[m[2]:m[3]],
			SourceFile: file,
			Properties: []types.Property{},
			Methods:    []string{},
		}
		if m[4] >= 0 {
			model.Parent = text[m[4]:m[5]]
		}

		body, _, _ := BodyOf(text, m[1])
		for _, p := range reProperty.FindAllStringSubmatch(body, -1) {
			model.Properties = append(model.Properties, types.Property{
				Name:       p[2],
				Visibility: types.Visibility(p[1]),
				Type:       types.MixedType,
			})
		}
		for _, fn := range reMethod.FindAllStringSubmatch(body, -1) {
			model.Methods = append(model.Methods, fn[1])
		}
		models = append(models, model)
	}
	return models
}
