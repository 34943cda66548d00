package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStyler(t *testing.T) {
	st := Styler{Species: []string{"Mouse", "Rat"}, Sexes: []string{"F", "M"}, BySex: true}

	mouseF := st.StyleFor(GroupLabel{Primary: "Mouse", Secondary: "F"}, 0)
	ratM := st.StyleFor(GroupLabel{Primary: "Rat", Secondary: "M"}, 3)
	ratF := st.StyleFor(GroupLabel{Primary: "Rat", Secondary: "F"}, 2)

	assert.Equal(t, ColorPalette[0], mouseF.Color)
	assert.Equal(t, ColorPalette[1], ratM.Color, "colour follows species, not position")
	assert.Equal(t, ratF.Color, ratM.Color)
	assert.Equal(t, DashPalette[0], ratF.Dash)
	assert.Equal(t, DashPalette[1], ratM.Dash)
	assert.Equal(t, ShapePalette[1], ratM.Shape)
}

func TestStyler_WithoutSexSplit(t *testing.T) {
	st := Styler{Species: []string{"Rat"}, Sexes: []string{"F", "M"}}
	s := st.StyleFor(GroupLabel{Primary: "Rat", Secondary: "M"}, 0)
	assert.Empty(t, s.Dash)
	assert.Equal(t, ShapePalette[0], s.Shape)
}

func TestStyler_Fallbacks(t *testing.T) {
	st := Styler{}
	assert.Equal(t, ColorPalette[0], st.StyleFor(overallLabel(""), 4).Color)
	assert.Equal(t, ColorPalette[4], st.StyleFor(GroupLabel{Primary: "Dog"}, 4).Color)
	assert.Equal(t, ColorPalette[1], st.StyleFor(GroupLabel{Primary: "Dog"}, len(ColorPalette)+1).Color)
}
