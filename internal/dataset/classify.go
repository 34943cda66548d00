package dataset

// ClassifyOptions holds the cardinality thresholds for text columns.
type ClassifyOptions struct {
	// MaxDistinct: a text column with at most this many distinct values is
	// categorical.
	MaxDistinct int `mapstructure:"max_distinct" yaml:"max_distinct" validate:"gte=1"`
	// MaxRatio: a text column whose distinct/total ratio is below this is
	// categorical.
	MaxRatio float64 `mapstructure:"max_ratio" yaml:"max_ratio" validate:"gt=0,lte=1"`
}

// DefaultClassifyOptions returns the stock thresholds (15 values, 30%).
func DefaultClassifyOptions() ClassifyOptions {
	return ClassifyOptions{MaxDistinct: 15, MaxRatio: 0.3}
}

// Classification splits columns into those usable as numeric axes and those
// usable as categories. A column may be in neither.
type Classification struct {
	Numerical   []string `json:"numerical"`
	Categorical []string `json:"categorical"`
}

// IsNumerical reports whether name is a numeric axis column.
func (c Classification) IsNumerical(name string) bool { return contains(c.Numerical, name) }

// IsCategorical reports whether name is a categorical column.
func (c Classification) IsCategorical(name string) bool { return contains(c.Categorical, name) }

// ClassifyColumns decides each key's kind from the sample row, scanning all
// rows only to count distinct values of text columns. The time column is
// never offered as an axis.
func ClassifyColumns(sample *Row, rows []Row, keys []string, opt ClassifyOptions) Classification {
	out := Classification{Numerical: []string{}, Categorical: []string{}}
	if len(rows) == 0 || sample == nil {
		return out
	}
	if opt.MaxDistinct <= 0 && opt.MaxRatio <= 0 {
		opt = DefaultClassifyOptions()
	}
	for _, key := range keys {
		if key == FieldTime {
			continue
		}
		v, ok := sample.Lookup(key)
		if !ok {
			continue
		}
		switch v.Kind {
		case KindNumber:
			if isFinite(v.Num) {
				out.Numerical = append(out.Numerical, key)
			}
		case KindText:
			if isIdentity(key) || lowCardinality(key, rows, opt) {
				out.Categorical = append(out.Categorical, key)
			}
		}
	}
	return out
}

func lowCardinality(key string, rows []Row, opt ClassifyOptions) bool {
	distinct := map[string]struct{}{}
	for i := range rows {
		distinct[rows[i].Field(key).String()] = struct{}{}
	}
	n := len(distinct)
	return n <= opt.MaxDistinct || float64(n)/float64(len(rows)) < opt.MaxRatio
}
