package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KaramelBytes/pkplot-cli/internal/chart"
)

func TestNumericTick(t *testing.T) {
	cases := map[float64]string{
		10:      "10",
		-3:      "-3",
		0.005:   "5.0e-3",
		0.00123: "1.2e-3",
		0.256:   "0.26",
		-0.5:    "-0.5",
		1.5:     "1.50",
		3.14159: "3.14",
		2.004:   "2",
	}
	for in, want := range cases {
		assert.Equal(t, want, NumericTick(in), "NumericTick(%v)", in)
	}
	assert.Equal(t, "NaN", NumericTick(math.NaN()))
	assert.Equal(t, "Infinity", NumericTick(math.Inf(1)))
	assert.Equal(t, "-Infinity", NumericTick(math.Inf(-1)))
}

func TestPercentTick(t *testing.T) {
	assert.Equal(t, "25%", PercentTick(0.25))
	assert.Equal(t, "0%", PercentTick(0))
	assert.Equal(t, "100%", PercentTick(1))
	assert.Equal(t, "25%", Tick(0.25, true))
	assert.Equal(t, "0.25", Tick(0.25, false))
}

func TestAxisRange(t *testing.T) {
	assert.Equal(t, "[0%, 100%]", axisRange(chart.Domain{Min: 0, Max: 1}, true))
	assert.Equal(t, "[0.8, 5.20]", axisRange(chart.Domain{Min: 0.8, Max: 5.2}, false))
	assert.Equal(t, "[auto, auto]", axisRange(chart.Domain{Auto: true}, false))
}

func TestAxisLabel(t *testing.T) {
	pct := []string{"Tremors"}
	assert.Equal(t, "Tremors (%)", AxisLabel("Tremors", pct))
	assert.Equal(t, "Dose_mg_kg", AxisLabel("Dose_mg_kg", pct))
	assert.Empty(t, AxisLabel("", pct))
}

func TestFixed(t *testing.T) {
	assert.Equal(t, "1.2346", fixed(1.23456, 4))
	assert.Equal(t, "NaN", fixed(math.NaN(), 2))
}
