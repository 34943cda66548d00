package chart

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/KaramelBytes/pkplot-cli/internal/dataset"
)

// Domain is an axis range, or Auto to leave scaling to the renderer.
type Domain struct {
	Auto bool
	Min  float64
	Max  float64
}

// AutoDomain lets the renderer choose the range.
func AutoDomain() Domain { return Domain{Auto: true} }

func (d Domain) String() string {
	if d.Auto {
		return "[auto, auto]"
	}
	return fmt.Sprintf("[%g, %g]", d.Min, d.Max)
}

// MarshalJSON encodes ["auto","auto"] or [min,max].
func (d Domain) MarshalJSON() ([]byte, error) {
	if d.Auto {
		return []byte(`["auto","auto"]`), nil
	}
	return json.Marshal([2]float64{d.Min, d.Max})
}

// UnmarshalJSON accepts either encoding produced by MarshalJSON.
func (d *Domain) UnmarshalJSON(b []byte) error {
	var raw [2]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("domain: %w", err)
	}
	lo, okLo := raw[0].(float64)
	hi, okHi := raw[1].(float64)
	if !okLo || !okHi {
		*d = AutoDomain()
		return nil
	}
	*d = Domain{Min: lo, Max: hi}
	return nil
}

// ComputeDomain returns the shared range of one axis over the filtered rows,
// across all time points. Percentage columns always span [0, 1]; other
// columns get 5% padding (or ±10% around a single value) and are kept from
// dipping below zero when the data does not.
func ComputeDomain(rows []dataset.Row, field string, cls dataset.Classification, percentage []string) Domain {
	if len(rows) == 0 || field == "" || !cls.IsNumerical(field) {
		return AutoDomain()
	}
	for _, p := range percentage {
		if p == field {
			return Domain{Min: 0, Max: 1}
		}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	found := false
	for i := range rows {
		v, ok := rows[i].Float(field)
		if !ok {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		found = true
	}
	if !found {
		return AutoDomain()
	}
	return PadDomain(lo, hi)
}

// PadDomain applies the padding rules to an observed [lo, hi].
func PadDomain(lo, hi float64) Domain {
	var start, end float64
	if lo == hi {
		delta := math.Max(math.Abs(lo*0.1), 0.1)
		start, end = lo-delta, hi+delta
	} else {
		pad := (hi - lo) * 0.05
		start, end = lo-pad, hi+pad
	}
	if lo >= 0 && start < 0 && (hi > 0 || (lo == 0 && hi == 0)) {
		start = 0
	}
	if lo == 0 && hi == 0 && start == 0 && end == 0 {
		end = 0.1
	}
	if start >= end {
		end = start + math.Max(math.Abs(start*0.1), 0.1)
	}
	return Domain{Min: start, Max: end}
}
