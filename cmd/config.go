package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/pkplot-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set pkplot configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		out := cmd.OutOrStdout()
		headers := make([]string, 0, len(c.Columns.Map))
		for h := range c.Columns.Map {
			headers = append(headers, h)
		}
		sort.Strings(headers)
		fmt.Fprintln(out, "columns.map:")
		for _, h := range headers {
			fmt.Fprintf(out, "  %s: %s\n", h, c.Columns.Map[h])
		}
		for _, k := range cfgpkg.Keys {
			v, _ := configValue(c, k)
			fmt.Fprintf(out, "%s: %s\n", k, v)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk.

Keys: ` + strings.Join(cfgpkg.Keys, ", ") + `, columns.map.<Header>

columns.percentage takes a comma-separated list of field names.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setConfigValue(cfg, key, val); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func configValue(c *cfgpkg.Global, key string) (string, bool) {
	switch key {
	case "columns.percentage":
		return strings.Join(c.Columns.Percentage, ","), true
	case "classify.max_distinct":
		return strconv.Itoa(c.Classify.MaxDistinct), true
	case "classify.max_ratio":
		return strconv.FormatFloat(c.Classify.MaxRatio, 'f', -1, 64), true
	case "curve.samples":
		return strconv.Itoa(c.Curve.Samples), true
	case "server.listen":
		return c.Server.Listen, true
	case "server.max_upload_mb":
		return strconv.Itoa(c.Server.MaxUploadMB), true
	case "log.level":
		return c.Log.Level, true
	case "log.format":
		return c.Log.Format, true
	case "output.format":
		return c.Output.Format, true
	case "output.precision":
		return strconv.Itoa(c.Output.Precision), true
	}
	return "", false
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "columns.percentage":
		var fields []string
		for _, f := range strings.Split(val, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
		c.Columns.Percentage = fields
	case "classify.max_distinct":
		c.Classify.MaxDistinct, err = atoi()
	case "classify.max_ratio":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil {
			return fmt.Errorf("invalid float for %s: %v", key, val)
		}
		c.Classify.MaxRatio = f
	case "curve.samples":
		c.Curve.Samples, err = atoi()
	case "server.listen":
		c.Server.Listen = val
	case "server.max_upload_mb":
		c.Server.MaxUploadMB, err = atoi()
	case "log.level":
		c.Log.Level = strings.ToLower(val)
	case "log.format":
		c.Log.Format = strings.ToLower(val)
	case "output.format":
		c.Output.Format = strings.ToLower(val)
	case "output.precision":
		c.Output.Precision, err = atoi()
	default:
		header, ok := strings.CutPrefix(key, "columns.map.")
		if !ok || header == "" {
			return fmt.Errorf("unknown key: %s", key)
		}
		if c.Columns.Map == nil {
			c.Columns.Map = map[string]string{}
		}
		c.Columns.Map[header] = val
	}
	return err
}
