package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/KaramelBytes/pkplot-cli/internal/chart"
	"github.com/KaramelBytes/pkplot-cli/internal/dataset"
)

// curvesCSV writes one line per sampled curve point.
func curvesCSV(w io.Writer, s *chart.Snapshot, opt Options) error {
	prec := opt.precision()
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "group", "species", "sex", "x", "y", "a", "b", "c", "n"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, f := range s.Curves.Facets {
		for _, c := range f.Curves {
			for _, p := range c.Points {
				rec := []string{
					NumericTick(f.Time),
					c.Name,
					c.Label.Primary,
					c.Label.Secondary,
					fixed(p.X, prec),
					fixed(p.Y, prec),
					fixed(c.Fit.A, prec),
					fixed(c.Fit.B, prec),
					fixed(c.Fit.C, prec),
					strconv.Itoa(c.Fit.N),
				}
				if err := cw.Write(rec); err != nil {
					return fmt.Errorf("write csv row: %w", err)
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// summaryCSV writes one line per column with its kind.
func summaryCSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"column", "kind"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
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
		if err := cw.Write([]string{k, kind}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
