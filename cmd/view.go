package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pkplot-cli/internal/chart"
	"github.com/KaramelBytes/pkplot-cli/internal/dataset"
	"github.com/KaramelBytes/pkplot-cli/internal/report"
)

// Flags shared by the commands that build a chart view.
var (
	viewX          string
	viewY          string
	viewMode       string
	viewBySex      bool
	viewSpecies    []string
	viewSex        []string
	viewFilters    []string
	viewTimes      []float64
	viewSamples    int
	readDelimiter  string
	readSheetName  string
	readSheetIndex int
	outFormat      string
	outPath        string
)

func addReadFlags(c *cobra.Command) {
	c.Flags().StringVar(&readDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default: by extension)")
	c.Flags().StringVar(&readSheetName, "sheet-name", "", "XLSX: sheet name to read (default: first sheet)")
	c.Flags().IntVar(&readSheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used when --sheet-name is empty)")
}

func addViewFlags(c *cobra.Command) {
	addReadFlags(c)
	c.Flags().StringVar(&viewX, "x", "", "x-axis column (default: Dose_mg_kg or first numerical column)")
	c.Flags().StringVar(&viewY, "y", "", "y-axis column (default: Mean_Cmax_ng_ml or first response column)")
	c.Flags().BoolVar(&viewBySex, "by-sex", false, "split groups by sex")
	c.Flags().StringSliceVar(&viewSpecies, "species", nil, "keep only these species (repeatable)")
	c.Flags().StringSliceVar(&viewSex, "sex", nil, "keep only these sexes (repeatable)")
	c.Flags().StringArrayVar(&viewFilters, "filter", nil, "filter on any categorical column: Column=v1,v2 (repeatable)")
	c.Flags().Float64SliceVar(&viewTimes, "time", nil, "only these time points (repeatable)")
	c.Flags().IntVar(&viewSamples, "samples", 0, "points per fitted curve (overrides config)")
}

func addOutputFlags(c *cobra.Command) {
	c.Flags().StringVar(&outFormat, "format", "", "output format: markdown|table|json|csv (default: table on a terminal, else markdown)")
	c.Flags().StringVarP(&outPath, "output", "o", "", "write output to file instead of stdout")
}

func readOptions() (dataset.ReadOptions, error) {
	opt := dataset.ReadOptions{Sheet: readSheetName, SheetIndex: readSheetIndex}
	switch readDelimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case ";":
		opt.Delimiter = ';'
	case "\t", "tab":
		opt.Delimiter = '\t'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", readDelimiter)
	}
	return opt, nil
}

// loadDataset reads and ingests one file with the loaded configuration.
func loadDataset(path string) (*dataset.Dataset, error) {
	ropt, err := readOptions()
	if err != nil {
		return nil, err
	}
	t, err := dataset.ReadFile(path, ropt)
	if err != nil {
		return nil, err
	}
	ds := dataset.Ingest(t, currentConfig().IngestOptions())
	slog.Debug("dataset loaded", "component", "cli", "file", path,
		"records", ds.Records, "rows", len(ds.Rows), "dropped", ds.Dropped)
	if ds.Dropped > 0 {
		warnf("%d of %d records had no ID or time and were skipped", ds.Dropped, ds.Records)
	}
	return ds, nil
}

// viewFilterSet merges --species, --sex and --filter.
func viewFilterSet() (dataset.Filters, error) {
	f := dataset.Filters{}
	if len(viewSpecies) > 0 {
		f[dataset.FieldSpecies] = append(f[dataset.FieldSpecies], viewSpecies...)
	}
	if len(viewSex) > 0 {
		f[dataset.FieldSex] = append(f[dataset.FieldSex], viewSex...)
	}
	for _, arg := range viewFilters {
		col, vals, ok := strings.Cut(arg, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid --filter %q (use Column=v1,v2)", arg)
		}
		f[col] = append(f[col], strings.Split(vals, ",")...)
	}
	return f, nil
}

// buildSnapshot loads path into a session and applies the view flags.
// forceMode overrides --mode when non-empty.
func buildSnapshot(path string, forceMode chart.Mode) (*chart.Snapshot, error) {
	ds, err := loadDataset(path)
	if err != nil {
		return nil, err
	}
	c := currentConfig()
	samples := c.Curve.Samples
	if viewSamples > 0 {
		samples = viewSamples
	}
	sess := chart.NewSession(chart.Settings{Percentage: c.Columns.Percentage, Samples: samples})
	sess.Load(ds)

	v := sess.View()
	if viewX != "" {
		v.X = viewX
	}
	if viewY != "" {
		v.Y = viewY
	}
	mode := forceMode
	if mode == "" {
		m, ok := chart.ParseMode(viewMode)
		if !ok {
			return nil, fmt.Errorf("invalid --mode %q (use scatter or curve)", viewMode)
		}
		mode = m
	}
	v.Mode = mode
	v.DifferentiateBySex = viewBySex
	if v.Filters, err = viewFilterSet(); err != nil {
		return nil, err
	}
	v.Times = viewTimes
	for _, axis := range []string{v.X, v.Y} {
		if axis != "" && !contains(ds.Keys, axis) {
			return nil, fmt.Errorf("unknown column %q (available: %s)", axis, strings.Join(ds.Keys, ", "))
		}
	}
	return sess.Apply(v)
}

// outputFormat resolves --format, then config, then the terminal default.
func outputFormat() (report.Format, error) {
	if outFormat != "" {
		return report.ParseFormat(outFormat)
	}
	if f := currentConfig().Output.Format; f != "" {
		return report.ParseFormat(f)
	}
	if outPath != "" {
		return report.FormatMarkdown, nil
	}
	return report.DefaultFormat(os.Stdout), nil
}

func reportOptions() report.Options {
	c := currentConfig()
	return report.Options{Precision: c.Output.Precision, Percentage: c.Columns.Percentage}
}

// emit renders to -o or to the command's stdout.
func emit(cmd *cobra.Command, what string, render func(io.Writer) error) error {
	if outPath == "" {
		return render(cmd.OutOrStdout())
	}
	var b strings.Builder
	if err := render(&b); err != nil {
		return err
	}
	if err := report.SafeWriteFile(outPath, []byte(b.String())); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s to %s\n", what, outPath)
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
