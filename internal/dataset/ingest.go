package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ColumnMap maps an upload header to an internal field name.
type ColumnMap map[string]string

// DefaultColumnMap returns the header names study exports use.
func DefaultColumnMap() ColumnMap {
	m := ColumnMap{
		"Report_id": FieldID,
		"Time_days": FieldTime,
	}
	for _, f := range knownFields {
		switch f.name {
		case FieldID, FieldTime:
			continue
		}
		m[f.name] = f.name
	}
	return m
}

// Validate checks that every target is a typed field.
func (m ColumnMap) Validate() error {
	for header, field := range m {
		if !IsKnownField(field) {
			return fmt.Errorf("column map: header %q targets unknown field %q", header, field)
		}
	}
	return nil
}

// DefaultPercentageColumns are the response indicators stored as fractions
// of the group; their axes always span [0, 1].
func DefaultPercentageColumns() []string {
	var out []string
	for _, f := range knownFields {
		if f.role != roleMeasure {
			continue
		}
		switch f.name {
		case FieldDietaryConc, FieldDose, FieldMeanCmax:
			continue
		}
		out = append(out, f.name)
	}
	return out
}

// Options controls ingestion.
type Options struct {
	Columns  ColumnMap
	Classify ClassifyOptions
}

// DefaultOptions returns the stock column map and classification thresholds.
func DefaultOptions() Options {
	return Options{Columns: DefaultColumnMap(), Classify: DefaultClassifyOptions()}
}

// Dataset is the validated result of one upload.
type Dataset struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	// Columns is the header row as uploaded.
	Columns []string `json:"columns"`
	// Keys are the internal column names rows expose, canonical fields first.
	Keys           []string       `json:"keys"`
	Rows           []Row          `json:"-"`
	Records        int            `json:"records"`
	Dropped        int            `json:"dropped"`
	Classification Classification `json:"classification"`
}

// Ingest turns parsed records into typed rows. Records without an
// identifier or a numeric time are dropped silently; only the count is kept.
func Ingest(t *Table, opt Options) *Dataset {
	if t == nil {
		t = &Table{}
	}
	cols := opt.Columns
	if cols == nil {
		cols = DefaultColumnMap()
	}
	ds := &Dataset{
		ID:      uuid.NewString(),
		Source:  t.Source,
		Columns: append([]string(nil), t.Header...),
		Records: len(t.Records),
	}

	// Resolve which header feeds each known field, in header order so a
	// later duplicate mapping wins deterministically.
	// Config files may fold header keys to lower case.
	folded := make(map[string]string, len(cols))
	for h, f := range cols {
		folded[strings.ToLower(h)] = f
	}
	present := map[string]string{}
	var extras []string
	for _, h := range t.Header {
		field, ok := cols[h]
		if !ok {
			field, ok = folded[strings.ToLower(h)]
		}
		if ok && IsKnownField(field) {
			present[field] = h
			continue
		}
		extras = append(extras, h)
	}

	for _, rec := range t.Records {
		row := Row{Time: math.NaN()}
		for _, f := range knownFields {
			h, ok := present[f.name]
			if !ok {
				continue
			}
			f.set(&row, rec[h])
		}
		if len(extras) > 0 {
			row.Extra = make(map[string]Value, len(extras))
			for _, h := range extras {
				row.Extra[h] = looseValue(rec[h])
			}
		}
		if row.ID == "" || !row.HasTime() {
			ds.Dropped++
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}

	for _, f := range knownFields {
		if _, ok := present[f.name]; ok {
			ds.Keys = append(ds.Keys, f.name)
		}
	}
	ds.Keys = append(ds.Keys, extras...)

	if len(ds.Rows) > 0 {
		ds.Classification = ClassifyColumns(&ds.Rows[0], ds.Rows, ds.Keys, opt.Classify)
	} else {
		ds.Classification = Classification{Numerical: []string{}, Categorical: []string{}}
	}
	return ds
}

// Times returns the distinct time points in ascending order.
func Times(rows []Row) []float64 {
	seen := map[float64]struct{}{}
	var out []float64
	for i := range rows {
		t := rows[i].Time
		if !rows[i].HasTime() {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Float64s(out)
	return out
}

// DefaultAxes picks the initial axis pair for a fresh upload: dose on x,
// Cmax on y, falling back to a percentage column and then to whatever
// numerical columns exist.
func (d *Dataset) DefaultAxes(percentage []string) (x, y string) {
	num := d.Classification.Numerical
	if contains(num, FieldDose) {
		x = FieldDose
	} else if len(num) > 0 {
		x = num[0]
	}
	switch {
	case contains(num, FieldMeanCmax):
		y = FieldMeanCmax
	default:
		for _, c := range num {
			if contains(percentage, c) {
				y = c
				break
			}
		}
		if y == "" && len(num) > 1 {
			y = num[1]
		}
	}
	return x, y
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
