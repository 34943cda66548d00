// Package chart derives chart-ready structures from filtered rows: fitted
// curves per time point, scatter series, shared axis domains and the
// session that keeps them current.
package chart

import (
	"math"

	"github.com/KaramelBytes/pkplot-cli/internal/dataset"
	"github.com/KaramelBytes/pkplot-cli/internal/regression"
)

// Overall names the single group used when rows carry no species.
const Overall = "Overall"

// DefaultSamples is how many points a fitted curve is drawn with.
const DefaultSamples = 30

// minFitPoints is the smallest group a curve is fitted for.
const minFitPoints = 3

// GroupLabel identifies a group by species and, when split, sex. The pair is
// kept from creation so nothing has to be parsed back out of Name.
type GroupLabel struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
	// NoSpecies marks the Overall group of rows without species. Primary
	// then only carries the display name.
	NoSpecies bool `json:"no_species,omitempty"`
}

func overallLabel(sex string) GroupLabel {
	return GroupLabel{Primary: Overall, Secondary: sex, NoSpecies: true}
}

// String is the display form: "species - sex", or just one of them.
func (l GroupLabel) String() string {
	switch {
	case l.Secondary == "":
		return l.Primary
	case l.Primary == "" || l.NoSpecies:
		return l.Secondary
	default:
		return l.Primary + " - " + l.Secondary
	}
}

// CurvePoint is one sample of a fitted curve.
type CurvePoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Group string  `json:"group"`
}

// Curve is a fitted quadratic sampled across its group's observed x-range.
type Curve struct {
	Label  GroupLabel           `json:"label"`
	Name   string               `json:"name"`
	Fit    regression.Quadratic `json:"fit"`
	MinX   float64              `json:"min_x"`
	MaxX   float64              `json:"max_x"`
	Points []CurvePoint         `json:"points"`
	Style  Style                `json:"style"`
}

// CurveFacet holds the curves of one time point.
type CurveFacet struct {
	Time   float64 `json:"time"`
	Curves []Curve `json:"curves"`
}

// CurveSet is the orchestrator's result. Facets are in ascending time order
// and only time points with at least one curve appear.
type CurveSet struct {
	Facets []CurveFacet `json:"facets"`
	// Reason is set when nothing could be attempted (see Reason* values).
	Reason string `json:"reason,omitempty"`
}

// Reasons a curve set is empty before any group was tried.
const (
	ReasonNoAxes     = "no_axes"
	ReasonNotNumeric = "axes_not_numerical"
)

// ForTime returns the curves fitted at time t, or nil.
func (s CurveSet) ForTime(t float64) []Curve {
	for _, f := range s.Facets {
		if f.Time == t {
			return f.Curves
		}
	}
	return nil
}

// ByTime returns the facets as a map keyed by time.
func (s CurveSet) ByTime() map[float64][]Curve {
	m := make(map[float64][]Curve, len(s.Facets))
	for _, f := range s.Facets {
		m[f.Time] = f.Curves
	}
	return m
}

// Count returns the number of curves across all facets.
func (s CurveSet) Count() int {
	n := 0
	for _, f := range s.Facets {
		n += len(f.Curves)
	}
	return n
}

// CurveOptions selects the axes and grouping for curve mode.
type CurveOptions struct {
	X                  string
	Y                  string
	DifferentiateBySex bool
	// Samples per curve; DefaultSamples when < 2.
	Samples int
}

// Group is one leaf partition of a facet, before fitting.
type Group struct {
	Label GroupLabel
	Rows  []dataset.Row
}

// PartitionGroups splits the rows of one time point by species and, when
// asked and possible, by sex. Species are in locale order; rows without
// species form a single Overall group.
func PartitionGroups(rows []dataset.Row, bySex bool, cls dataset.Classification) []Group {
	splitSex := bySex && cls.IsCategorical(dataset.FieldSex)
	species := dataset.UniqueValues(dataset.FieldSpecies, rows)
	if len(species) == 0 {
		return splitGroup(rows, overallLabel(""), splitSex)
	}

	var out []Group
	for _, sp := range species {
		spRows := filterRows(rows, func(r *dataset.Row) bool { return r.Species == sp })
		out = append(out, splitGroup(spRows, GroupLabel{Primary: sp}, splitSex)...)
	}
	return out
}

func splitGroup(rows []dataset.Row, label GroupLabel, bySex bool) []Group {
	var sexes []string
	if bySex {
		sexes = dataset.UniqueValues(dataset.FieldSex, rows)
	}
	if len(sexes) < 2 {
		return []Group{{Label: label, Rows: rows}}
	}
	out := make([]Group, 0, len(sexes))
	for _, sx := range sexes {
		l := label
		l.Secondary = sx
		out = append(out, Group{
			Label: l,
			Rows:  filterRows(rows, func(r *dataset.Row) bool { return r.Sex == sx }),
		})
	}
	return out
}

// BuildCurves fits one quadratic per group per time point. Groups with fewer
// than three usable points, or whose fit is singular, are skipped without
// error; both axes must be numerical columns.
func BuildCurves(rows []dataset.Row, opt CurveOptions, cls dataset.Classification) CurveSet {
	if opt.X == "" || opt.Y == "" {
		return CurveSet{Facets: []CurveFacet{}, Reason: ReasonNoAxes}
	}
	if !cls.IsNumerical(opt.X) || !cls.IsNumerical(opt.Y) {
		return CurveSet{Facets: []CurveFacet{}, Reason: ReasonNotNumeric}
	}
	samples := opt.Samples
	if samples < 2 {
		samples = DefaultSamples
	}

	set := CurveSet{Facets: []CurveFacet{}}
	for _, t := range dataset.Times(rows) {
		atTime := rowsAt(rows, t)
		var curves []Curve
		for _, g := range PartitionGroups(atTime, opt.DifferentiateBySex, cls) {
			if c, ok := fitGroup(g, opt.X, opt.Y, samples); ok {
				curves = append(curves, c)
			}
		}
		if len(curves) > 0 {
			set.Facets = append(set.Facets, CurveFacet{Time: t, Curves: curves})
		}
	}
	return set
}

func fitGroup(g Group, xField, yField string, samples int) (Curve, bool) {
	pts := make([]regression.Point, 0, len(g.Rows))
	minX, maxX := math.Inf(1), math.Inf(-1)
	for i := range g.Rows {
		x, okx := g.Rows[i].Float(xField)
		y, oky := g.Rows[i].Float(yField)
		if !okx || !oky {
			continue
		}
		pts = append(pts, regression.Point{X: x, Y: y})
		minX = math.Min(minX, x)
		maxX = math.Max(maxX, x)
	}
	if len(pts) < minFitPoints {
		return Curve{}, false
	}
	q, err := regression.FitQuadratic(pts)
	if err != nil {
		return Curve{}, false
	}
	name := g.Label.String()
	drawn := Discretize(q, minX, maxX, samples, name)
	for _, p := range drawn {
		if math.IsInf(p.Y, 0) || math.IsNaN(p.Y) {
			return Curve{}, false
		}
	}
	return Curve{
		Label:  g.Label,
		Name:   name,
		Fit:    *q,
		MinX:   minX,
		MaxX:   maxX,
		Points: drawn,
	}, true
}

// Discretize samples q across [minX, maxX]. A zero-width range yields one
// point; otherwise samples evenly spaced points whose last x is exactly maxX.
func Discretize(q *regression.Quadratic, minX, maxX float64, samples int, group string) []CurvePoint {
	if minX == maxX {
		return []CurvePoint{{X: minX, Y: q.Predict(minX), Group: group}}
	}
	if samples < 2 {
		samples = 2
	}
	step := (maxX - minX) / float64(samples-1)
	pts := make([]CurvePoint, samples)
	for i := range pts {
		x := minX + float64(i)*step
		pts[i] = CurvePoint{X: x, Y: q.Predict(x), Group: group}
	}
	// accumulated steps can land short of or past the boundary
	pts[samples-1] = CurvePoint{X: maxX, Y: q.Predict(maxX), Group: group}
	return pts
}

func rowsAt(rows []dataset.Row, t float64) []dataset.Row {
	return filterRows(rows, func(r *dataset.Row) bool { return r.Time == t })
}

func filterRows(rows []dataset.Row, keep func(*dataset.Row) bool) []dataset.Row {
	out := make([]dataset.Row, 0, len(rows))
	for i := range rows {
		if keep(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}
