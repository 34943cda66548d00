package chart

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KaramelBytes/pkplot-cli/internal/dataset"
	"github.com/google/uuid"
)

// ErrNoDataset is returned by view changes made before any upload succeeded.
var ErrNoDataset = errors.New("no dataset loaded")

// ErrInvalidMode is returned for a chart mode ParseMode does not know.
var ErrInvalidMode = errors.New("mode must be one of: scatter, curve, line")

// ViewConfig is everything the user can change without uploading again.
type ViewConfig struct {
	X                  string          `json:"x"`
	Y                  string          `json:"y"`
	Mode               Mode            `json:"mode" validate:"omitempty,oneof=scatter curve line"`
	Filters            dataset.Filters `json:"filters,omitempty"`
	DifferentiateBySex bool            `json:"differentiate_by_sex"`
	// Times selects which facets to show; empty shows every time point.
	Times []float64 `json:"times,omitempty"`
}

// Settings are fixed for the life of a session.
type Settings struct {
	Percentage []string
	Samples    int
}

// Snapshot is one complete derivation for the current dataset and view.
// It is never modified after it is returned.
type Snapshot struct {
	DatasetID  string     `json:"dataset_id"`
	Revision   int        `json:"revision"`
	View       ViewConfig `json:"view"`
	TotalRows  int        `json:"total_rows"`
	FilteredN  int        `json:"filtered_rows"`
	AllTimes   []float64  `json:"all_times"`
	Times      []float64  `json:"times"`
	XIsPercent bool       `json:"x_is_percent"`
	YIsPercent bool       `json:"y_is_percent"`

	FilterOptions              map[string][]string `json:"filter_options"`
	SexDifferentiationPossible bool                `json:"sex_differentiation_possible"`

	Curves      CurveSet       `json:"curves"`
	Scatter     []ScatterFacet `json:"scatter,omitempty"`
	XDomain     Domain         `json:"x_domain"`
	YDomain     Domain         `json:"y_domain"`
	Diagnostics []Diagnostic   `json:"diagnostics"`
	NoCharts    bool           `json:"no_charts"`
	Message     string         `json:"message,omitempty"`

	Filtered []dataset.Row `json:"-"`
}

// Session keeps derived chart state current. Every change re-runs the whole
// derivation before returning, so a Snapshot always matches the inputs that
// produced it. A Session is not safe for concurrent use.
type Session struct {
	settings Settings
	ds       *dataset.Dataset
	view     ViewConfig
	pending  string
	loading  bool
	err      error
	revision int
	snap     *Snapshot
}

// NewSession returns an empty session.
func NewSession(s Settings) *Session {
	if s.Samples < 2 {
		s.Samples = DefaultSamples
	}
	return &Session{settings: s, view: ViewConfig{Mode: ModeScatter}}
}

// BeginUpload starts a new upload and returns its token. All derived state
// is cleared; results for earlier tokens are ignored from now on.
func (s *Session) BeginUpload() string {
	s.pending = uuid.NewString()
	s.loading = true
	s.err = nil
	s.ds = nil
	s.view.X, s.view.Y, s.view.Times = "", "", nil
	s.snap = nil
	return s.pending
}

// CompleteUpload installs the result of the upload identified by token. It
// reports false, changing nothing, when a newer upload has started since.
func (s *Session) CompleteUpload(token string, ds *dataset.Dataset, err error) bool {
	if token == "" || token != s.pending {
		return false
	}
	s.pending = ""
	s.loading = false
	if err == nil && ds == nil {
		err = ErrNoDataset
	}
	if err != nil {
		s.err = err
		return true
	}
	s.ds = ds
	s.view.X, s.view.Y = ds.DefaultAxes(s.settings.Percentage)
	s.recompute(true)
	return true
}

// Load is BeginUpload and CompleteUpload for a dataset already in hand.
func (s *Session) Load(ds *dataset.Dataset) *Snapshot {
	if ds == nil {
		return s.snap
	}
	s.CompleteUpload(s.BeginUpload(), ds, nil)
	return s.snap
}

// Dataset returns the current dataset, or nil.
func (s *Session) Dataset() *dataset.Dataset { return s.ds }

// Err returns the failure of the last completed upload.
func (s *Session) Err() error { return s.err }

// Loading reports whether an upload is in progress.
func (s *Session) Loading() bool { return s.loading }

// View returns the current view configuration.
func (s *Session) View() ViewConfig { return s.view }

// Snapshot returns the latest derivation, or nil before the first upload.
func (s *Session) Snapshot() *Snapshot { return s.snap }

// SetAxes changes the x and y columns.
func (s *Session) SetAxes(x, y string) (*Snapshot, error) {
	return s.update(func(v *ViewConfig) { v.X, v.Y = x, y }, false)
}

// SetMode switches between scatter and curve mode; "line" is curve mode.
func (s *Session) SetMode(m Mode) (*Snapshot, error) {
	parsed, ok := ParseMode(string(m))
	if !ok {
		return nil, fmt.Errorf("%w, got %q", ErrInvalidMode, m)
	}
	return s.update(func(v *ViewConfig) { v.Mode = parsed }, false)
}

// SetFilters replaces the filters. The selected time points reset to every
// time point left after filtering.
func (s *Session) SetFilters(f dataset.Filters) (*Snapshot, error) {
	if s.ds != nil {
		if err := f.Validate(s.ds.Classification); err != nil {
			return nil, err
		}
	}
	return s.update(func(v *ViewConfig) { v.Filters = f.Normalize() }, true)
}

// SetDifferentiateBySex toggles splitting groups by sex.
func (s *Session) SetDifferentiateBySex(on bool) (*Snapshot, error) {
	return s.update(func(v *ViewConfig) { v.DifferentiateBySex = on }, false)
}

// SetTimes selects the facets to show. Unknown time points are ignored.
func (s *Session) SetTimes(times []float64) (*Snapshot, error) {
	return s.update(func(v *ViewConfig) { v.Times = append([]float64(nil), times...) }, false)
}

// Apply replaces the whole view configuration at once.
func (s *Session) Apply(v ViewConfig) (*Snapshot, error) {
	if s.ds != nil {
		if err := v.Filters.Validate(s.ds.Classification); err != nil {
			return nil, err
		}
	}
	m, ok := ParseMode(string(v.Mode))
	if !ok {
		return nil, fmt.Errorf("%w, got %q", ErrInvalidMode, v.Mode)
	}
	v.Mode = m
	filtersChanged := !sameFilters(s.view.Filters, v.Filters)
	return s.update(func(cur *ViewConfig) {
		v.Filters = v.Filters.Normalize()
		*cur = v
	}, filtersChanged && len(v.Times) == 0)
}

func (s *Session) update(change func(*ViewConfig), resetTimes bool) (*Snapshot, error) {
	change(&s.view)
	if s.ds == nil {
		return nil, ErrNoDataset
	}
	s.recompute(resetTimes)
	return s.snap, nil
}

// recompute derives a fresh snapshot from the dataset and view.
func (s *Session) recompute(resetTimes bool) {
	ds, v := s.ds, s.view
	s.revision++
	filtered := dataset.ApplyFilters(ds.Rows, v.Filters)
	filteredTimes := dataset.Times(filtered)
	if resetTimes || len(v.Times) == 0 {
		v.Times = nil
		s.view.Times = nil
	}
	cls := ds.Classification

	snap := &Snapshot{
		DatasetID:  ds.ID,
		Revision:   s.revision,
		View:       v,
		TotalRows:  len(ds.Rows),
		FilteredN:  len(filtered),
		AllTimes:   dataset.Times(ds.Rows),
		Times:      selectTimes(filteredTimes, v.Times),
		XIsPercent: cls.IsNumerical(v.X) && contains(s.settings.Percentage, v.X),
		YIsPercent: cls.IsNumerical(v.Y) && contains(s.settings.Percentage, v.Y),
		FilterOptions: map[string][]string{
			dataset.FieldSpecies: dataset.UniqueValues(dataset.FieldSpecies, ds.Rows),
			dataset.FieldSex:     dataset.UniqueValues(dataset.FieldSex, ds.Rows),
		},
		SexDifferentiationPossible: cls.IsCategorical(dataset.FieldSex) &&
			len(dataset.UniqueValues(dataset.FieldSex, filtered)) > 1,
		XDomain:  ComputeDomain(filtered, v.X, cls, s.settings.Percentage),
		YDomain:  ComputeDomain(filtered, v.Y, cls, s.settings.Percentage),
		Filtered: filtered,
	}

	opt := CurveOptions{X: v.X, Y: v.Y, DifferentiateBySex: v.DifferentiateBySex, Samples: s.settings.Samples}
	if v.Mode == ModeCurve {
		snap.Curves = BuildCurves(filtered, opt, cls)
	} else {
		snap.Curves = CurveSet{Facets: []CurveFacet{}}
		snap.Scatter = BuildScatter(filtered, v.X, v.Y, v.DifferentiateBySex)
	}
	styleSnapshot(snap, v.DifferentiateBySex)

	drawable := false
	for _, t := range snap.Times {
		d := Diagnose(filtered, t, v.Mode, opt, snap.Curves.ForTime(t), cls)
		snap.Diagnostics = append(snap.Diagnostics, d)
		if d.Status == StatusOK {
			drawable = true
		}
	}
	switch {
	case v.X == "" || v.Y == "":
		snap.Message = MsgSelectAxes
	case len(ds.Rows) > 0 && !drawable:
		snap.NoCharts = true
		snap.Message = MsgNoChartsShown
	}
	s.snap = snap
}

func styleSnapshot(snap *Snapshot, bySex bool) {
	for fi := range snap.Curves.Facets {
		f := &snap.Curves.Facets[fi]
		st := facetStyler(snap.Filtered, f.Time, bySex)
		for ci := range f.Curves {
			f.Curves[ci].Style = st.StyleFor(f.Curves[ci].Label, ci)
		}
	}
	for fi := range snap.Scatter {
		f := &snap.Scatter[fi]
		st := facetStyler(snap.Filtered, f.Time, bySex)
		for si := range f.Series {
			f.Series[si].Style = st.StyleFor(f.Series[si].Label, si)
		}
	}
}

func facetStyler(rows []dataset.Row, t float64, bySex bool) Styler {
	atTime := rowsAt(rows, t)
	return Styler{
		Species: dataset.UniqueValues(dataset.FieldSpecies, atTime),
		Sexes:   dataset.UniqueValues(dataset.FieldSex, atTime),
		BySex:   bySex,
	}
}

func selectTimes(available, selected []float64) []float64 {
	if len(selected) == 0 {
		return available
	}
	want := make(map[float64]struct{}, len(selected))
	for _, t := range selected {
		want[t] = struct{}{}
	}
	out := []float64{}
	for _, t := range available {
		if _, ok := want[t]; ok {
			out = append(out, t)
		}
	}
	sort.Float64s(out)
	return out
}

func sameFilters(a, b dataset.Filters) bool {
	a, b = a.Normalize(), b.Normalize()
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
