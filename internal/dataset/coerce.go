package dataset

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// leadingFloat matches the numeric prefix of a cell, so "12.5%" reads as 12.5
// and "3 mg" as 3.
var leadingFloat = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// ToNumberOrNull converts a raw cell to a number. It reports false for empty
// or whitespace-only cells, the literal "n/a" (any case) and for text without
// a leading number.
func ToNumberOrNull(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "n/a") {
		return 0, false
	}
	m := leadingFloat.FindString(s)
	if m == "" {
		return 0, false
	}
	switch strings.TrimLeft(m, "+-") {
	case "Infinity":
		if strings.HasPrefix(m, "-") {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// out of range still yields ±Inf or 0, which is what a float parse means
		if errors.Is(err, strconv.ErrRange) {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// ValueOf coerces a raw cell into a Value: a number when it parses, null
// when it is empty or "n/a".
func ValueOf(raw string) Value {
	if f, ok := ToNumberOrNull(raw); ok {
		return Number(f)
	}
	return Null()
}

// looseValue is used for columns nobody declared: keep the number when the
// cell parses, the raw text otherwise.
func looseValue(raw string) Value {
	if f, ok := ToNumberOrNull(raw); ok {
		return Number(f)
	}
	return Text(raw)
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if a := math.Abs(f); a != 0 && (a >= 1e21 || a < 1e-6) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
