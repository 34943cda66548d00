package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/pkplot-cli/internal/chart"
	"github.com/KaramelBytes/pkplot-cli/internal/dataset"
)

// SummaryMarkdown renders a compact dataset overview.
func SummaryMarkdown(ds *dataset.Dataset, opt Options) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if ds.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", ds.Source))
	}
	b.WriteString(fmt.Sprintf("Rows: %d (dropped %d of %d records without ID or time)\n", len(ds.Rows), ds.Dropped, ds.Records))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(ds.Columns)))

	b.WriteString("[SCHEMA]\n")
	for _, k := range ds.Keys {
		kind := "other"
		switch {
		case ds.Classification.IsNumerical(k):
			kind = "numerical"
		case ds.Classification.IsCategorical(k):
			kind = "categorical"
		case k == dataset.FieldTime:
			kind = "time"
		}
		label := AxisLabel(k, opt.Percentage)
		b.WriteString(fmt.Sprintf("- %s: %s", label, kind))
		if kind == "categorical" {
			vals := dataset.UniqueValues(k, ds.Rows)
			if len(vals) > 0 {
				b.WriteString(" (" + strings.Join(vals, ", ") + ")")
			}
		}
		b.WriteString("\n")
	}

	times := dataset.Times(ds.Rows)
	if len(times) > 0 {
		b.WriteString("\n[TIME POINTS]\n")
		parts := make([]string, len(times))
		for i, t := range times {
			parts[i] = NumericTick(t)
		}
		b.WriteString(strings.Join(parts, ", ") + "\n")
	}
	x, y := ds.DefaultAxes(opt.Percentage)
	b.WriteString("\n[DEFAULT AXES]\n")
	b.WriteString(fmt.Sprintf("X: %s\nY: %s\n", orNone(x), orNone(y)))
	return b.String()
}

// CurvesMarkdown renders fitted curves grouped by time point.
func CurvesMarkdown(s *chart.Snapshot, opt Options) string {
	prec := opt.precision()
	var b strings.Builder
	b.WriteString("[CURVES]\n")
	b.WriteString(fmt.Sprintf("X: %s %s\n", AxisLabel(s.View.X, opt.Percentage), axisRange(s.XDomain, s.XIsPercent)))
	b.WriteString(fmt.Sprintf("Y: %s %s\n", AxisLabel(s.View.Y, opt.Percentage), axisRange(s.YDomain, s.YIsPercent)))
	b.WriteString(fmt.Sprintf("Rows: %d of %d after filters", s.FilteredN, s.TotalRows))
	if active := s.View.Filters.Active(); len(active) > 0 {
		var fs []string
		for _, k := range active {
			fs = append(fs, fmt.Sprintf("%s=%s", k, strings.Join(s.View.Filters[k], "|")))
		}
		b.WriteString(" (" + strings.Join(fs, "; ") + ")")
	}
	b.WriteString("\n")
	if s.Message != "" {
		b.WriteString("\n" + s.Message + "\n")
	}

	for _, d := range s.Diagnostics {
		b.WriteString(fmt.Sprintf("\n## Time %s\n", NumericTick(d.Time)))
		curves := s.Curves.ForTime(d.Time)
		for _, c := range curves {
			b.WriteString(fmt.Sprintf("- %s (n=%d): %s; x in [%s, %s]\n",
				c.Name, c.Fit.N, c.Fit.String(), fixed(c.MinX, prec), fixed(c.MaxX, prec)))
		}
		if d.Message != "" {
			b.WriteString("> " + d.Message + "\n")
		}
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
