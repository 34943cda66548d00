package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pkplot-cli/internal/chart"
	"github.com/KaramelBytes/pkplot-cli/internal/report"
)

var curvesCmd = &cobra.Command{
	Use:   "curves <file>",
	Short: "Fit quadratic curves per time point and group",
	Long: `Fit y = a·x² + b·x + c for every species (and sex, with --by-sex) at every
time point, after filters. Groups with fewer than three usable points are
skipped; each time point reports why it has no curves.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := buildSnapshot(args[0], chart.ModeCurve)
		if err != nil {
			return err
		}
		f, err := outputFormat()
		if err != nil {
			return err
		}
		opt := reportOptions()
		return emit(cmd, "curves", func(w io.Writer) error {
			return report.Curves(w, snap, f, opt)
		})
	},
}

func init() {
	rootCmd.AddCommand(curvesCmd)
	addViewFlags(curvesCmd)
	addOutputFlags(curvesCmd)
}
