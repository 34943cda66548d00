package dataset

import (
	"encoding/json"
)

// Kind tags the content of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "null"
	}
}

// Value is a single cell after coercion.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

func Null() Value            { return Value{} }
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func Text(s string) Value    { return Value{Kind: KindText, Str: s} }

func (v Value) IsNull() bool   { return v.Kind == KindNull }
func (v Value) IsText() bool   { return v.Kind == KindText }
func (v Value) IsNumber() bool { return v.Kind == KindNumber }

// Float returns the number held by v when it is finite.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber || !isFinite(v.Num) {
		return 0, false
	}
	return v.Num, true
}

// String renders the value the way distinct-value counting sees it; null
// renders as "null".
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return formatNumber(v.Num)
	case KindText:
		return v.Str
	default:
		return "null"
	}
}

// Label is the display form used for grouping and filters; null is empty.
func (v Value) Label() string {
	if v.Kind == KindNull {
		return ""
	}
	return v.String()
}

// MarshalJSON encodes null, a JSON number, or a string. Non-finite numbers
// have no JSON form and encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		if !isFinite(v.Num) {
			return []byte("null"), nil
		}
		return json.Marshal(v.Num)
	case KindText:
		return json.Marshal(v.Str)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, numbers and strings.
func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = Null()
	case float64:
		*v = Number(t)
	case string:
		*v = Text(t)
	default:
		*v = Text(string(b))
	}
	return nil
}
