package pptx

import "strings"

// Theme selects the colors and fonts used when rendering slides.
type Theme struct {
	Name       string
	Primary    string // title text, hex RGB without '#'
	Accent     string // subtitle and bullet markers
	Body       string // bullet text
	Background string
	TitleFont  string
	BodyFont   string
}

var themes = map[string]Theme{
	"modern": {
		Name:       "modern",
		Primary:    "1F3864",
		Accent:     "2E75B6",
		Body:       "404040",
		Background: "FFFFFF",
		TitleFont:  "Calibri Light",
		BodyFont:   "Calibri",
	},
	"corporate": {
		Name:       "corporate",
		Primary:    "203864",
		Accent:     "70AD47",
		Body:       "444444",
		Background: "FFFFFF",
		TitleFont:  "Georgia",
		BodyFont:   "Arial",
	},
	"minimalist": {
		Name:       "minimalist",
		Primary:    "262626",
		Accent:     "7F7F7F",
		Body:       "404040",
		Background: "FAFAFA",
		TitleFont:  "Helvetica",
		BodyFont:   "Helvetica",
	},
}

// GetTheme looks a theme up by name. The second return value reports whether
// the name was known; unknown names fall back to the modern theme.
func GetTheme(name string) (Theme, bool) {
	theme, ok := themes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return themes["modern"], false
	}
	return theme, true
}

// ThemeNames lists the available theme names.
func ThemeNames() []string {
	return []string{"modern", "corporate", "minimalist"}
}
