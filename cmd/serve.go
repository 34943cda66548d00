package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pkplot-cli/internal/chart"
	"github.com/KaramelBytes/pkplot-cli/internal/server"
)

var (
	serveListen string
	serveFile   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chart API over HTTP",
	Long: `Serve the chart API for a browser front end:

  POST /api/dataset        upload a CSV/TSV/XLSX (multipart "file" or raw body)
  GET  /api/dataset        current dataset summary
  GET  /api/dataset/rows   rows (?filtered=true for the current view)
  PUT  /api/view           change axes, mode, filters, sex split, time points
  GET  /api/chart          current chart bundle
  GET  /healthz, /metrics`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		ropt, err := readOptions()
		if err != nil {
			return err
		}
		addr := c.Server.Listen
		if serveListen != "" {
			addr = serveListen
		}
		srv := server.New(server.Options{
			Ingest:      c.IngestOptions(),
			Read:        ropt,
			Chart:       chart.Settings{Percentage: c.Columns.Percentage, Samples: c.Curve.Samples},
			MaxUploadMB: c.Server.MaxUploadMB,
		}, nil)
		if serveFile != "" {
			ds, err := loadDataset(serveFile)
			if err != nil {
				return err
			}
			srv.Load(ds)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.Printf("✓ Serving on http://%s\n", addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addReadFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides server.listen)")
	serveCmd.Flags().StringVar(&serveFile, "file", "", "dataset to load at startup")
}
