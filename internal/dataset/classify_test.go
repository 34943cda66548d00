package dataset

import (
	"fmt"
	"strings"
	"testing"
)

func TestClassifyColumns(t *testing.T) {
	csv := strings.Join([]string{
		"Report_id,Time_days,Species,Sex,Dose_mg_kg,Mean_Cmax_ng_ml,Tremors,Notes",
		"A1,7,Rat,M,10,100,0.1,ok",
		"A2,7,Rat,F,20,n/a,0.2,ok",
		"A3,7,Mouse,M,30,300,,check",
	}, "\n")
	ds := ingestString(t, csv)
	cls := ds.Classification

	for _, want := range []string{FieldDose, FieldMeanCmax, FieldTremors} {
		if !cls.IsNumerical(want) {
			t.Fatalf("%s should be numerical: %+v", want, cls)
		}
	}
	for _, want := range []string{FieldID, FieldSpecies, FieldSex, "Notes"} {
		if !cls.IsCategorical(want) {
			t.Fatalf("%s should be categorical: %+v", want, cls)
		}
	}
	if cls.IsNumerical(FieldTime) || cls.IsCategorical(FieldTime) {
		t.Fatalf("time must not be offered as an axis or filter: %+v", cls)
	}
}

func TestClassifyColumns_FirstRowDecides(t *testing.T) {
	// Cmax is null on the first row, so it is not numerical even though
	// later rows carry values.
	csv := "Report_id,Time_days,Mean_Cmax_ng_ml\nA,1,\nB,1,5\nC,1,6\n"
	ds := ingestString(t, csv)
	if ds.Classification.IsNumerical(FieldMeanCmax) {
		t.Fatalf("first-row null should exclude the column: %+v", ds.Classification)
	}
}

func TestClassifyColumns_HighCardinalityText(t *testing.T) {
	var b strings.Builder
	b.WriteString("Report_id,Time_days,Comment\n")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "R%d,1,note-%d\n", i, i)
	}
	ds := ingestString(t, b.String())
	if ds.Classification.IsCategorical("Comment") {
		t.Fatalf("40 distinct comments in 40 rows should not be categorical")
	}
	// identity columns are categorical regardless of cardinality
	if !ds.Classification.IsCategorical(FieldID) {
		t.Fatalf("TK should always be categorical")
	}
}

func TestClassifyColumns_Empty(t *testing.T) {
	cls := ClassifyColumns(nil, nil, []string{FieldDose}, DefaultClassifyOptions())
	if len(cls.Numerical) != 0 || len(cls.Categorical) != 0 {
		t.Fatalf("expected empty sets, got %+v", cls)
	}
	if cls.Numerical == nil || cls.Categorical == nil {
		t.Fatalf("empty sets should be non-nil for JSON")
	}
}

func ingestString(t *testing.T, csv string) *Dataset {
	t.Helper()
	tbl, err := ReadCSV(strings.NewReader(csv), "test.csv", ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return Ingest(tbl, DefaultOptions())
}
