package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/pkplot-cli/internal/config"
	"github.com/KaramelBytes/pkplot-cli/internal/logging"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "pkplot",
	Short: "pkplot: turn toxicology/PK study tables into chart data",
	Long: `pkplot reads toxicology and pharmacokinetic observation tables (CSV, TSV or XLSX),
normalizes them into typed rows and derives chart-ready data: per-time scatter
series, per-group quadratic regression curves and shared axis domains.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.pkplot/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		warnf("failed to load config: %v", err)
		c = cfgpkg.Default()
	}
	cfg = c
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	logging.New(cfg.Log, debug)
}

// currentConfig returns the loaded configuration, or the defaults when the
// command runs without OnInitialize (as in tests calling RunE directly).
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Default()
	}
	return cfg
}

var warnColor = color.New(color.FgYellow)

func warnf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, warnColor.Sprintf("⚠ Warning: "+format, args...))
}
