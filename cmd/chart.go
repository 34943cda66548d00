package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pkplot-cli/internal/report"
)

var chartCmd = &cobra.Command{
	Use:   "chart <file>",
	Short: "Print the full chart bundle as JSON",
	Long: `Print everything a renderer needs for the current view as JSON: time facets,
scatter series or fitted curves with their styles, shared axis domains and
per-facet diagnostics.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := buildSnapshot(args[0], "")
		if err != nil {
			return err
		}
		return emit(cmd, "chart bundle", func(w io.Writer) error {
			return report.WriteJSON(w, snap)
		})
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	addViewFlags(chartCmd)
	chartCmd.Flags().StringVar(&viewMode, "mode", "scatter", "chart mode: scatter|curve")
	chartCmd.Flags().StringVarP(&outPath, "output", "o", "", "write JSON to file instead of stdout")
}
