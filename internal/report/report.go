// Package report renders datasets and fitted curves for people and tools:
// Markdown, terminal tables, JSON, CSV and Parquet.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/KaramelBytes/pkplot-cli/internal/chart"
	"github.com/KaramelBytes/pkplot-cli/internal/dataset"
)

// Format is an output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
)

// ParseFormat validates a format name; "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown output format %q (markdown, table, json, csv)", s)
}

// DefaultFormat is table on a terminal and markdown when piped.
func DefaultFormat(f *os.File) Format {
	if f != nil && term.IsTerminal(int(f.Fd())) {
		return FormatTable
	}
	return FormatMarkdown
}

// Options tune rendering.
type Options struct {
	// Precision is the number of decimals for coefficients and ranges.
	Precision  int
	Percentage []string
}

func (o Options) precision() int {
	if o.Precision <= 0 {
		return 4
	}
	return o.Precision
}

// Summary writes the dataset overview in the given format.
func Summary(w io.Writer, ds *dataset.Dataset, f Format, opt Options) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, NewDatasetSummary(ds))
	case FormatTable:
		return summaryTable(w, ds)
	case FormatCSV:
		return summaryCSV(w, ds)
	default:
		_, err := io.WriteString(w, SummaryMarkdown(ds, opt))
		return err
	}
}

// Curves writes the fitted curves and per-time diagnostics of a snapshot.
func Curves(w io.Writer, snap *chart.Snapshot, f Format, opt Options) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, NewCurveReport(snap))
	case FormatTable:
		return curvesTable(w, snap, opt)
	case FormatCSV:
		return curvesCSV(w, snap, opt)
	default:
		_, err := io.WriteString(w, CurvesMarkdown(snap, opt))
		return err
	}
}

// DatasetSummary is the JSON form of a dataset overview.
type DatasetSummary struct {
	*dataset.Dataset
	Rows    int                 `json:"rows"`
	Times   []float64           `json:"times"`
	Options map[string][]string `json:"filter_options"`
}

// NewDatasetSummary collects the overview of ds.
func NewDatasetSummary(ds *dataset.Dataset) DatasetSummary {
	return DatasetSummary{
		Dataset: ds,
		Rows:    len(ds.Rows),
		Times:   dataset.Times(ds.Rows),
		Options: map[string][]string{
			dataset.FieldSpecies: dataset.UniqueValues(dataset.FieldSpecies, ds.Rows),
			dataset.FieldSex:     dataset.UniqueValues(dataset.FieldSex, ds.Rows),
		},
	}
}

// CurveReport is the JSON form of a curve run.
type CurveReport struct {
	DatasetID   string             `json:"dataset_id"`
	X           string             `json:"x"`
	Y           string             `json:"y"`
	Filters     dataset.Filters    `json:"filters,omitempty"`
	BySex       bool               `json:"differentiate_by_sex"`
	Rows        int                `json:"filtered_rows"`
	Facets      []chart.CurveFacet `json:"facets"`
	Reason      string             `json:"reason,omitempty"`
	XDomain     chart.Domain       `json:"x_domain"`
	YDomain     chart.Domain       `json:"y_domain"`
	Diagnostics []chart.Diagnostic `json:"diagnostics"`
	Message     string             `json:"message,omitempty"`
}

// NewCurveReport extracts the curve part of a snapshot.
func NewCurveReport(s *chart.Snapshot) CurveReport {
	return CurveReport{
		DatasetID:   s.DatasetID,
		X:           s.View.X,
		Y:           s.View.Y,
		Filters:     s.View.Filters,
		BySex:       s.View.DifferentiateBySex,
		Rows:        s.FilteredN,
		Facets:      s.Curves.Facets,
		Reason:      s.Curves.Reason,
		XDomain:     s.XDomain,
		YDomain:     s.YDomain,
		Diagnostics: s.Diagnostics,
		Message:     s.Message,
	}
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	b, err := PrettyJSON(v)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// SafeWriteFile writes data to a temp file and atomically renames it into place.
func SafeWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}
