package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/pkplot-cli/internal/report"
)

const studyCSV = `Report_id,Time_days,Species,Sex,Dose_mg_kg,Mean_Cmax_ng_ml,Tremors
R1,7,Rat,M,0,1,0
R2,7,Rat,F,1,2,0.1
R3,7,Rat,M,2,5,0.2
M1,7,Mouse,M,1,3,0
M2,7,Mouse,F,2,4,0.5
,7,Mouse,F,3,4,0.5
R4,14,Rat,M,1,1,0
`

// resetFlags puts every flag back to its default so package-level flag
// variables do not leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns what it printed.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func writeStudy(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "study.csv")
	if err := os.WriteFile(path, []byte(studyCSV), 0o644); err != nil {
		t.Fatalf("write study: %v", err)
	}
	return path
}

func TestCLI_Columns(t *testing.T) {
	path := writeStudy(t)
	out := mustRun(t, "columns", path, "--format", "markdown")
	for _, want := range []string{"[DATASET SUMMARY]", "Rows: 6 (dropped 1 of 7", "- Species: categorical (Mouse, Rat)", "[TIME POINTS]\n7, 14"} {
		if !strings.Contains(out, want) {
			t.Fatalf("columns output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "columns", path, "--format", "csv")
	if !strings.HasPrefix(out, "column,kind\n") {
		t.Fatalf("csv summary = %q", out)
	}
}

func TestCLI_CurvesWithFilters(t *testing.T) {
	path := writeStudy(t)
	out := mustRun(t, "curves", path, "--format", "csv", "--species", "Rat", "--samples", "4")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("want header + 4 points, got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[4], "7,Rat,Rat,,2.0000,5.0000") {
		t.Fatalf("last point = %q", lines[4])
	}

	out = mustRun(t, "curves", path, "--format", "markdown", "--filter", "Species=Mouse")
	if !strings.Contains(out, "Rows: 2 of 6 after filters (Species=Mouse)") {
		t.Fatalf("filter not applied:\n%s", out)
	}
	if !strings.Contains(out, "No charts to display") {
		t.Fatalf("two Mouse rows cannot be fitted:\n%s", out)
	}
}

func TestCLI_CurvesToFile(t *testing.T) {
	path := writeStudy(t)
	dest := filepath.Join(t.TempDir(), "curves.md")
	mustRun(t, "curves", path, "-o", dest)
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(b), "[CURVES]") {
		t.Fatalf("file output should default to markdown:\n%s", b)
	}
}

func TestCLI_ChartJSON(t *testing.T) {
	path := writeStudy(t)
	out := mustRun(t, "chart", path, "--mode", "curve", "--by-sex", "--time", "7")
	for _, want := range []string{`"mode": "curve"`, `"times": [`, `"differentiate_by_sex": true`, `"no_charts": true`} {
		if !strings.Contains(out, want) {
			t.Fatalf("chart JSON missing %s:\n%s", want, out)
		}
	}
	out = mustRun(t, "chart", path)
	if !strings.Contains(out, `"scatter": [`) {
		t.Fatalf("default mode should be scatter:\n%s", out)
	}
}

func TestCLI_BadInput(t *testing.T) {
	path := writeStudy(t)
	if _, err := runCmd(t, "curves", path, "--x", "Nope"); err == nil || !strings.Contains(err.Error(), "unknown column") {
		t.Fatalf("want unknown column error, got %v", err)
	}
	if _, err := runCmd(t, "curves", path, "--filter", "Species"); err == nil {
		t.Fatalf("malformed --filter should fail")
	}
	if _, err := runCmd(t, "chart", path, "--mode", "bar"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
	if _, err := runCmd(t, "columns", path, "--format", "xml"); err == nil {
		t.Fatalf("unknown format should fail")
	}
	if _, err := runCmd(t, "columns", filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatalf("missing file should fail")
	}
}

func TestCLI_ExportParquet(t *testing.T) {
	path := writeStudy(t)
	if _, err := runCmd(t, "export", path); err == nil {
		t.Fatalf("export without -o should fail")
	}
	dest := filepath.Join(t.TempDir(), "curves.parquet")
	mustRun(t, "export", path, "-o", dest, "--samples", "10")
	recs, err := report.ReadCurvesParquet(dest)
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	if len(recs) != 10 || recs[0].Group != "Rat" || recs[0].XField != "Dose_mg_kg" {
		t.Fatalf("unexpected records: %d %+v", len(recs), recs[0])
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfgPath := filepath.Join(t.TempDir(), "pkplot.yaml")

	mustRun(t, "--config", cfgPath, "config", "set", "curve.samples", "12")
	mustRun(t, "--config", cfgPath, "config", "set", "columns.map.Animal", "TK")
	if _, err := runCmd(t, "--config", cfgPath, "config", "set", "log.level", "loud"); err == nil {
		t.Fatalf("invalid level should be rejected")
	}
	if _, err := runCmd(t, "--config", cfgPath, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("unknown key should be rejected")
	}

	b, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(b), "samples: 12") || !strings.Contains(string(b), "level: info") {
		t.Fatalf("saved config:\n%s", b)
	}

	out := mustRun(t, "config", "show")
	if !strings.Contains(out, "curve.samples: 30") || !strings.Contains(out, "Report_id: TK") {
		t.Fatalf("show without config should print defaults:\n%s", out)
	}
}
