package chart

// Palettes the renderer draws groups with. Colour follows the species, dash
// and marker shape follow the sex.
var (
	ColorPalette = []string{
		"#8884d8", "#82ca9d", "#ffc658", "#ff7300", "#00C49F",
		"#FFBB28", "#FF8042", "#0088FE", "#A569BD", "#F1948A",
		"#48C9B0", "#FAD7A0", "#5DADE2", "#EB984E", "#D2B4DE",
	}
	DashPalette  = []string{"", "5 5", "10 2", "1 5", "15 5 5 5", "5 10"}
	ShapePalette = []string{"circle", "cross", "diamond", "square", "star", "triangle", "wye"}
)

// Style is how one series is drawn.
type Style struct {
	Color string `json:"color"`
	Dash  string `json:"dash,omitempty"`
	Shape string `json:"shape"`
}

// Styler assigns styles from the species and sexes present in a facet.
type Styler struct {
	Species []string
	Sexes   []string
	BySex   bool
}

// StyleFor picks a style for a group. Unknown species fall back to the
// series position so neighbouring series still differ.
func (s Styler) StyleFor(l GroupLabel, position int) Style {
	ci := indexOf(s.Species, l.Primary)
	if ci < 0 {
		if l.NoSpecies || l.Primary == "" {
			ci = 0
		} else {
			ci = position
		}
	}
	st := Style{Color: ColorPalette[ci%len(ColorPalette)], Shape: ShapePalette[0]}
	if s.BySex && l.Secondary != "" && len(s.Sexes) > 1 {
		if si := indexOf(s.Sexes, l.Secondary); si >= 0 {
			st.Dash = DashPalette[si%len(DashPalette)]
			st.Shape = ShapePalette[si%len(ShapePalette)]
		}
	}
	return st
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
