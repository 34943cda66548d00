package chart

import (
	"github.com/KaramelBytes/pkplot-cli/internal/dataset"
)

// Mode selects what a facet draws.
type Mode string

const (
	ModeScatter Mode = "scatter"
	ModeCurve   Mode = "curve"
)

// ParseMode accepts "scatter", "curve" and the older "line".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "scatter", "":
		return ModeScatter, true
	case "curve", "line":
		return ModeCurve, true
	}
	return "", false
}

// ScatterPoint is one plotted observation. X is a category label when the x
// column is categorical.
type ScatterPoint struct {
	X       dataset.Value `json:"x"`
	Y       float64       `json:"y"`
	ID      string        `json:"id"`
	Species string        `json:"species,omitempty"`
	Sex     string        `json:"sex,omitempty"`
}

// ScatterSeries is the points of one group.
type ScatterSeries struct {
	Label  GroupLabel     `json:"label"`
	Name   string         `json:"name"`
	Points []ScatterPoint `json:"points"`
	Style  Style          `json:"style"`
}

// ScatterFacet is the series of one time point.
type ScatterFacet struct {
	Time   float64         `json:"time"`
	Rows   int             `json:"rows"`
	Series []ScatterSeries `json:"series"`
}

// BuildScatter groups each time point's rows into series by species and,
// when asked and the facet has more than one sex, by sex. A facet without
// species is a single "Data" series (or one per sex).
func BuildScatter(rows []dataset.Row, x, y string, bySex bool) []ScatterFacet {
	out := []ScatterFacet{}
	if x == "" || y == "" {
		return out
	}
	for _, t := range dataset.Times(rows) {
		atTime := rowsAt(rows, t)
		f := ScatterFacet{Time: t, Rows: len(atTime)}
		species := dataset.UniqueValues(dataset.FieldSpecies, atTime)
		sexes := dataset.UniqueValues(dataset.FieldSex, atTime)
		splitSex := bySex && len(sexes) > 1

		add := func(label GroupLabel, name string, keep func(*dataset.Row) bool) {
			pts := scatterPoints(atTime, x, y, keep)
			if len(pts) == 0 {
				return
			}
			f.Series = append(f.Series, ScatterSeries{Label: label, Name: name, Points: pts})
		}
		switch {
		case len(species) > 0:
			for _, sp := range species {
				if !splitSex {
					add(GroupLabel{Primary: sp}, sp, func(r *dataset.Row) bool { return r.Species == sp })
					continue
				}
				for _, sx := range sexes {
					l := GroupLabel{Primary: sp, Secondary: sx}
					add(l, l.String(), func(r *dataset.Row) bool { return r.Species == sp && r.Sex == sx })
				}
			}
		case splitSex:
			for _, sx := range sexes {
				add(overallLabel(sx), sx, func(r *dataset.Row) bool { return r.Sex == sx })
			}
		default:
			add(overallLabel(""), "Data", func(*dataset.Row) bool { return true })
		}
		out = append(out, f)
	}
	return out
}

func scatterPoints(rows []dataset.Row, x, y string, keep func(*dataset.Row) bool) []ScatterPoint {
	var pts []ScatterPoint
	for i := range rows {
		r := &rows[i]
		if !keep(r) {
			continue
		}
		yv, ok := r.Float(y)
		if !ok {
			continue
		}
		xv := r.Field(x)
		if xv.IsNull() {
			continue
		}
		if xv.IsNumber() {
			if _, ok := xv.Float(); !ok {
				continue
			}
		}
		pts = append(pts, ScatterPoint{X: xv, Y: yv, ID: r.ID, Species: r.Species, Sex: r.Sex})
	}
	return pts
}
