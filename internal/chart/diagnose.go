package chart

import (
	"github.com/KaramelBytes/pkplot-cli/internal/dataset"
)

// FacetStatus says why a facet does or does not have something to draw.
type FacetStatus string

const (
	StatusOK FacetStatus = "ok"
	// StatusNoData: no rows at this time point.
	StatusNoData FacetStatus = "no_data"
	// StatusInsufficient: some group has data but fewer than three rows.
	StatusInsufficient FacetStatus = "insufficient"
	// StatusNoFit: curves could not be produced for another reason, such as
	// non-numerical axes or singular fits.
	StatusNoFit FacetStatus = "no_fit"
)

// Messages shown for facets without a drawable chart.
const (
	MsgSelectAxes    = "Please select X and Y axis."
	MsgNoData        = "No data for this combination."
	MsgInsufficient  = "Not enough data (min 3 points per group) for regression."
	MsgNoFit         = "Regression lines could not be generated. Ensure X/Y axes are numerical and groups have sufficient data."
	MsgNoChartsShown = "No charts to display for the current selection."
)

// Diagnostic explains the state of one facet.
type Diagnostic struct {
	Time    float64     `json:"time"`
	Status  FacetStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// Diagnose reports, for a time point without curves, whether the cause is a
// group with too little data or something else. Group sizes are counted in
// rows, not in usable (x, y) pairs, so mixed facets may read as
// insufficient even when another group failed for a different reason.
func Diagnose(rows []dataset.Row, t float64, mode Mode, opt CurveOptions, curves []Curve, cls dataset.Classification) Diagnostic {
	d := Diagnostic{Time: t, Status: StatusOK}
	atTime := rowsAt(rows, t)
	if mode != ModeCurve {
		if len(atTime) == 0 {
			d.Status, d.Message = StatusNoData, MsgNoData
		}
		return d
	}
	if len(curves) > 0 {
		return d
	}
	if len(atTime) == 0 {
		d.Status, d.Message = StatusNoData, MsgNoData
		return d
	}
	if HasInsufficientGroup(atTime, opt.DifferentiateBySex, cls) {
		d.Status, d.Message = StatusInsufficient, MsgInsufficient
		return d
	}
	d.Status, d.Message = StatusNoFit, MsgNoFit
	return d
}

// HasInsufficientGroup reports whether any group of the facet has between
// one and two rows.
func HasInsufficientGroup(atTime []dataset.Row, bySex bool, cls dataset.Classification) bool {
	for _, g := range PartitionGroups(atTime, bySex, cls) {
		if n := len(g.Rows); n > 0 && n < minFitPoints {
			return true
		}
	}
	return false
}
