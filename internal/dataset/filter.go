package dataset

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Filters restricts rows to allowed values per categorical column. A column
// with no allowed values is unrestricted.
type Filters map[string][]string

// Active returns the restricted columns in stable order.
func (f Filters) Active() []string {
	var out []string
	for k, v := range f {
		if len(v) > 0 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Normalize drops unrestricted columns and trims allowed values.
func (f Filters) Normalize() Filters {
	out := Filters{}
	for _, k := range f.Active() {
		var vals []string
		for _, v := range f[k] {
			if v = strings.TrimSpace(v); v != "" {
				vals = append(vals, v)
			}
		}
		if len(vals) > 0 {
			out[k] = vals
		}
	}
	return out
}

// Validate rejects filters on columns that are not categorical.
func (f Filters) Validate(cls Classification) error {
	for _, k := range f.Active() {
		if !cls.IsCategorical(k) {
			return fmt.Errorf("filter on %q: not a categorical column", k)
		}
	}
	return nil
}

// ApplyFilters returns the rows matching every active filter. A row with no
// value for a filtered column never matches. The input is not modified.
func ApplyFilters(rows []Row, f Filters) []Row {
	active := f.Active()
	sets := make([]map[string]struct{}, len(active))
	for i, k := range active {
		sets[i] = make(map[string]struct{}, len(f[k]))
		for _, v := range f[k] {
			sets[i][v] = struct{}{}
		}
	}
	out := make([]Row, 0, len(rows))
	for i := range rows {
		if matches(&rows[i], active, sets) {
			out = append(out, rows[i])
		}
	}
	return out
}

func matches(r *Row, keys []string, sets []map[string]struct{}) bool {
	for i, k := range keys {
		v := strings.TrimSpace(r.Field(k).Label())
		if v == "" {
			return false
		}
		if _, ok := sets[i][v]; !ok {
			return false
		}
	}
	return true
}

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.Und)
)

// UniqueValues returns the distinct non-empty trimmed values of a column in
// locale order. Group and filter option lists are built from it.
func UniqueValues(field string, rows []Row) []string {
	if len(rows) == 0 || field == "" {
		return []string{}
	}
	if _, ok := rows[0].Lookup(field); !ok {
		return []string{}
	}
	seen := map[string]struct{}{}
	out := []string{}
	for i := range rows {
		v := strings.TrimSpace(rows[i].Field(field).Label())
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	collatorMu.Lock()
	collator.SortStrings(out)
	collatorMu.Unlock()
	return out
}
