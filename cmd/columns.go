package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pkplot-cli/internal/report"
)

var columnsCmd = &cobra.Command{
	Use:   "columns <file>",
	Short: "Ingest a CSV/TSV/XLSX and summarize its columns",
	Long: `Ingest a study table and print what pkplot made of it: rows kept and dropped,
which columns are numerical (usable as axes) and which are categorical
(usable as filters), the time points and the default axes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		f, err := outputFormat()
		if err != nil {
			return err
		}
		opt := reportOptions()
		return emit(cmd, "column summary", func(w io.Writer) error {
			return report.Summary(w, ds, f, opt)
		})
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
	addReadFlags(columnsCmd)
	addOutputFlags(columnsCmd)
}
