package pdf

import "github.com/johnfercher/maroto/v2/pkg/props"

// Theme controls the purely presentational knobs of a template. Amounts and
// line order come from the render contract and are identical across themes.
type Theme struct {
	Accent      props.Color
	Muted       props.Color
	HeadingSize float64
	HeaderBar   bool
}

var themes = map[string]Theme{
	"classic": {
		Accent:      props.Color{Red: 17, Green: 24, Blue: 39},
		Muted:       props.Color{Red: 107, Green: 114, Blue: 128},
		HeadingSize: 20,
	},
	"modern": {
		Accent:      props.Color{Red: 37, Green: 99, Blue: 235},
		Muted:       props.Color{Red: 107, Green: 114, Blue: 128},
		HeadingSize: 20,
		HeaderBar:   true,
	},
	"minimal": {
		Accent:      props.Color{Red: 17, Green: 24, Blue: 39},
		Muted:       props.Color{Red: 107, Green: 114, Blue: 128},
		HeadingSize: 18,
	},
	"executive": {
		Accent:      props.Color{Red: 15, Green: 23, Blue: 42},
		Muted:       props.Color{Red: 71, Green: 85, Blue: 105},
		HeadingSize: 20,
		HeaderBar:   true,
	},
	"bold": {
		Accent:      props.Color{Red: 17, Green: 24, Blue: 39},
		Muted:       props.Color{Red: 55, Green: 65, Blue: 81},
		HeadingSize: 22,
		HeaderBar:   true,
	},
}

// ThemeFor resolves a template key, falling back to classic for anything
// unknown so stored keys can never break rendering.
func ThemeFor(key string) Theme {
	if theme, ok := themes[key]; ok {
		return theme
	}
	return themes["classic"]
}

// TemplateKeys lists the selectable templates.
func TemplateKeys() []string {
	return []string{"classic", "modern", "minimal", "executive", "bold"}
}

// IsKnownTemplate reports whether key names a selectable template.
func IsKnownTemplate(key string) bool {
	_, ok := themes[key]
	return ok
}
