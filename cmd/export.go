package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pkplot-cli/internal/chart"
	"github.com/KaramelBytes/pkplot-cli/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export <file> -o curves.parquet",
	Short: "Export sampled curve points to Parquet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if outPath == "" {
			return errors.New("--output is required")
		}
		snap, err := buildSnapshot(args[0], chart.ModeCurve)
		if err != nil {
			return err
		}
		recs := report.CurveRecords(snap)
		if len(recs) == 0 {
			warnf("no curves to export: %s", firstNonEmpty(snap.Message, chart.MsgNoFit))
		}
		if err := report.WriteCurvesParquetFile(outPath, recs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %d curve points (%d curves) to %s\n", len(recs), snap.Curves.Count(), outPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addViewFlags(exportCmd)
	exportCmd.Flags().StringVarP(&outPath, "output", "o", "", "Parquet file to write")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
