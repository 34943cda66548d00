package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/KaramelBytes/pkplot-cli/internal/chart"
	"github.com/KaramelBytes/pkplot-cli/internal/dataset"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow, color.Bold)
	dimColor  = color.New(color.FgHiBlack)
)

// statusLabel colours a facet status for terminals.
func statusLabel(s chart.FacetStatus) string {
	switch s {
	case chart.StatusOK:
		return okColor.Sprint(string(s))
	case chart.StatusNoData:
		return dimColor.Sprint(string(s))
	default:
		return warnColor.Sprint(string(s))
	}
}

func summaryTable(w io.Writer, ds *dataset.Dataset) error {
	fmt.Fprintf(w, "%s: %d rows, %d dropped\n", ds.Source, len(ds.Rows), ds.Dropped)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Column", "Kind", "Values"})

	var data [][]string
	for _, k := range ds.Keys {
		kind, values := "", ""
		switch {
		case ds.Classification.IsNumerical(k):
			kind = "numerical"
		case ds.Classification.IsCategorical(k):
			kind = "categorical"
			values = strings.Join(dataset.UniqueValues(k, ds.Rows), ", ")
		case k == dataset.FieldTime:
			kind = "time"
			values = strconv.Itoa(len(dataset.Times(ds.Rows))) + " points"
		default:
			kind = dimColor.Sprint("other")
		}
		data = append(data, []string{k, kind, values})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func curvesTable(w io.Writer, s *chart.Snapshot, opt Options) error {
	prec := opt.precision()
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Time", "Group", "N", "A", "B", "C", "Min X", "Max X", "Status"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, d := range s.Diagnostics {
		t := NumericTick(d.Time)
		curves := s.Curves.ForTime(d.Time)
		if len(curves) == 0 {
			data = append(data, []string{t, "", "", "", "", "", "", "", statusLabel(d.Status)})
			continue
		}
		for _, c := range curves {
			data = append(data, []string{
				t,
				c.Name,
				strconv.Itoa(c.Fit.N),
				fixed(c.Fit.A, prec),
				fixed(c.Fit.B, prec),
				fixed(c.Fit.C, prec),
				fixed(c.MinX, prec),
				fixed(c.MaxX, prec),
				statusLabel(d.Status),
			})
		}
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	for _, d := range s.Diagnostics {
		if d.Status != chart.StatusOK && d.Message != "" {
			fmt.Fprintf(w, "%s t=%s: %s\n", warnColor.Sprint("⚠"), NumericTick(d.Time), d.Message)
		}
	}
	if s.Message != "" {
		fmt.Fprintln(w, warnColor.Sprint(s.Message))
	}
	return nil
}
