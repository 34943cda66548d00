package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/pkplot-cli/internal/chart"
)

// NumericTick formats an axis tick: integers as-is, tiny magnitudes in
// exponent form, sub-unit values to two significant digits and everything
// else to at most two decimals with trailing zeros dropped.
func NumericTick(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 0) {
		if v > 0 {
			return "Infinity"
		}
		return "-Infinity"
	}
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	abs := math.Abs(v)
	if abs < 0.01 {
		return exponent(v, 1)
	}
	if abs < 1 {
		p, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 2, 64), 64)
		return strconv.FormatFloat(p, 'f', -1, 64)
	}
	fixed2 := strconv.FormatFloat(v, 'f', 2, 64)
	if strings.HasSuffix(fixed2, ".00") {
		return strconv.FormatFloat(roundHalfUp(v), 'f', 0, 64)
	}
	if strings.HasSuffix(strconv.FormatFloat(v, 'f', 1, 64), ".0") {
		return strconv.FormatFloat(roundHalfUp(v), 'f', 0, 64)
	}
	return fixed2
}

// PercentTick formats a fraction as a whole percentage: 0.25 -> "25%".
func PercentTick(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NumericTick(v)
	}
	return strconv.FormatFloat(v*100, 'f', 0, 64) + "%"
}

// AxisLabel is the axis title; percentage columns get a " (%)" suffix.
func AxisLabel(field string, percentage []string) string {
	if field == "" {
		return ""
	}
	for _, p := range percentage {
		if p == field {
			return field + " (%)"
		}
	}
	return field
}

// Tick picks the formatter for an axis.
func Tick(v float64, percent bool) string {
	if percent {
		return PercentTick(v)
	}
	return NumericTick(v)
}

// axisRange writes a domain with the axis tick format.
func axisRange(d chart.Domain, percent bool) string {
	if d.Auto {
		return d.String()
	}
	return fmt.Sprintf("[%s, %s]", Tick(d.Min, percent), Tick(d.Max, percent))
}

// exponent renders v as d.de±x with a minimal exponent, e.g. 1.2e-3.
func exponent(v float64, digits int) string {
	s := strconv.FormatFloat(v, 'e', digits, 64)
	mant, exp, _ := strings.Cut(s, "e")
	n, err := strconv.Atoi(exp)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%se%+d", mant, n)
}

func roundHalfUp(v float64) float64 { return math.Floor(v + 0.5) }

// fixed formats v with prec decimals for tables and CSV.
func fixed(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NumericTick(v)
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}
