package dataset

import (
	"encoding/json"
	"math"
	"strings"
	"unicode"
)

// Internal field names. Axis selection, filters and output all refer to
// columns by these names.
const (
	FieldID                = "TK"
	FieldTime              = "Time"
	FieldSpecies           = "Species"
	FieldSex               = "Sex"
	FieldDietaryConc       = "Dietary_conc_ppm"
	FieldDose              = "Dose_mg_kg"
	FieldMeanCmax          = "Mean_Cmax_ng_ml"
	FieldReducedBW         = "Reduced_bw"
	FieldHunchedPosture    = "Hunched_posture"
	FieldVocalizationsSNO  = "Vocalizations_SNO"
	FieldVocalizationInc   = "Vocalization_inc"
	FieldActivity          = "Activity"
	FieldTremors           = "Tremors"
	FieldAbnormalGait      = "Abnormal_gait"
	FieldAbnormalBreathing = "Abnormal_breathing"
)

// Measure is a nullable numeric observation.
type Measure struct {
	Value float64
	Valid bool
}

func measureOf(raw string) Measure {
	f, ok := ToNumberOrNull(raw)
	return Measure{Value: f, Valid: ok}
}

func (m Measure) value() Value {
	if !m.Valid {
		return Null()
	}
	return Number(m.Value)
}

// Row is one observation. Known columns are typed fields; anything else the
// upload carried is kept in Extra under its original header.
type Row struct {
	ID      string
	Time    float64
	Species string
	Sex     string

	DietaryConcPPM    Measure
	DoseMgKg          Measure
	MeanCmaxNgMl      Measure
	ReducedBW         Measure
	HunchedPosture    Measure
	VocalizationsSNO  Measure
	VocalizationInc   Measure
	Activity          Measure
	Tremors           Measure
	AbnormalGait      Measure
	AbnormalBreathing Measure

	Extra map[string]Value
}

type fieldRole uint8

const (
	roleIdentity fieldRole = iota
	roleTime
	roleMeasure
)

type fieldDef struct {
	name string
	role fieldRole
	get  func(*Row) Value
	set  func(*Row, string)
}

func measureField(name string, ptr func(*Row) *Measure) fieldDef {
	return fieldDef{
		name: name,
		role: roleMeasure,
		get:  func(r *Row) Value { return ptr(r).value() },
		set:  func(r *Row, raw string) { *ptr(r) = measureOf(raw) },
	}
}

// knownFields is in the canonical column order used for classification and
// output.
var knownFields = []fieldDef{
	{
		name: FieldID, role: roleIdentity,
		get: func(r *Row) Value { return Text(r.ID) },
		set: func(r *Row, raw string) { r.ID = trimCell(raw) },
	},
	{
		name: FieldTime, role: roleTime,
		get: func(r *Row) Value {
			if math.IsNaN(r.Time) {
				return Null()
			}
			return Number(r.Time)
		},
		set: func(r *Row, raw string) {
			// ±Inf cannot name a time point, so it counts as missing.
			if f, ok := ToNumberOrNull(raw); ok && !math.IsInf(f, 0) {
				r.Time = f
				return
			}
			r.Time = math.NaN()
		},
	},
	{
		name: FieldSpecies, role: roleIdentity,
		get: func(r *Row) Value { return Text(r.Species) },
		set: func(r *Row, raw string) { r.Species = trimCell(raw) },
	},
	{
		name: FieldSex, role: roleIdentity,
		get: func(r *Row) Value { return Text(r.Sex) },
		set: func(r *Row, raw string) { r.Sex = trimCell(raw) },
	},
	measureField(FieldDietaryConc, func(r *Row) *Measure { return &r.DietaryConcPPM }),
	measureField(FieldDose, func(r *Row) *Measure { return &r.DoseMgKg }),
	measureField(FieldMeanCmax, func(r *Row) *Measure { return &r.MeanCmaxNgMl }),
	measureField(FieldReducedBW, func(r *Row) *Measure { return &r.ReducedBW }),
	measureField(FieldHunchedPosture, func(r *Row) *Measure { return &r.HunchedPosture }),
	measureField(FieldVocalizationsSNO, func(r *Row) *Measure { return &r.VocalizationsSNO }),
	measureField(FieldVocalizationInc, func(r *Row) *Measure { return &r.VocalizationInc }),
	measureField(FieldActivity, func(r *Row) *Measure { return &r.Activity }),
	measureField(FieldTremors, func(r *Row) *Measure { return &r.Tremors }),
	measureField(FieldAbnormalGait, func(r *Row) *Measure { return &r.AbnormalGait }),
	measureField(FieldAbnormalBreathing, func(r *Row) *Measure { return &r.AbnormalBreathing }),
}

var knownIndex = func() map[string]int {
	m := make(map[string]int, len(knownFields))
	for i, f := range knownFields {
		m[f.name] = i
	}
	return m
}()

// IsKnownField reports whether name is one of the typed Row fields.
func IsKnownField(name string) bool {
	_, ok := knownIndex[name]
	return ok
}

// IdentityFields are always treated as categorical when they hold text.
var IdentityFields = []string{FieldSpecies, FieldSex, FieldID}

func isIdentity(name string) bool {
	for _, f := range IdentityFields {
		if f == name {
			return true
		}
	}
	return false
}

// Field returns the value of a column by internal name.
func (r *Row) Field(name string) Value {
	v, _ := r.Lookup(name)
	return v
}

// Lookup is Field plus whether the row knows the column at all.
func (r *Row) Lookup(name string) (Value, bool) {
	if i, ok := knownIndex[name]; ok {
		return knownFields[i].get(r), true
	}
	v, ok := r.Extra[name]
	return v, ok
}

// Float returns the finite number held by a column.
func (r *Row) Float(name string) (float64, bool) {
	return r.Field(name).Float()
}

// HasTime reports whether the row carries a usable time point.
func (r *Row) HasTime() bool { return !math.IsNaN(r.Time) && !math.IsInf(r.Time, 0) }

// MarshalJSON flattens known and extra columns into one object keyed by
// internal name.
func (r Row) MarshalJSON() ([]byte, error) {
	m := make(map[string]Value, len(knownFields)+len(r.Extra))
	for _, f := range knownFields {
		m[f.name] = f.get(&r)
	}
	for k, v := range r.Extra {
		if _, clash := m[k]; clash {
			continue
		}
		m[k] = v
	}
	return json.Marshal(m)
}

func trimCell(s string) string {
	// unicode.IsSpace already covers the no-break space; spreadsheets also
	// leave byte order marks behind
	return strings.TrimFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '\ufeff' })
}
