package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/pkplot-cli/internal/dataset"
)

// Columns controls how upload headers become row fields.
type Columns struct {
	// Map is upload header -> internal field name.
	Map        map[string]string `mapstructure:"map" yaml:"map"`
	Percentage []string          `mapstructure:"percentage" yaml:"percentage"`
}

// Curve controls curve discretization.
type Curve struct {
	Samples int `mapstructure:"samples" yaml:"samples" validate:"gte=2,lte=1000"`
}

// Server configures `pkplot serve`.
type Server struct {
	Listen      string `mapstructure:"listen" yaml:"listen" validate:"required"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" validate:"gte=1,lte=1024"`
}

// Log configures the structured logger.
type Log struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// Output configures report rendering.
type Output struct {
	// Format is the default report format; empty picks one from the terminal.
	Format    string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=markdown table json csv"`
	Precision int    `mapstructure:"precision" yaml:"precision" validate:"gte=0,lte=15"`
}

// Global configuration structure.
type Global struct {
	Columns  Columns                 `mapstructure:"columns" yaml:"columns"`
	Classify dataset.ClassifyOptions `mapstructure:"classify" yaml:"classify"`
	Curve    Curve                   `mapstructure:"curve" yaml:"curve"`
	Server   Server                  `mapstructure:"server" yaml:"server"`
	Log      Log                     `mapstructure:"log" yaml:"log"`
	Output   Output                  `mapstructure:"output" yaml:"output"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"columns.percentage",
	"classify.max_distinct",
	"classify.max_ratio",
	"curve.samples",
	"server.listen",
	"server.max_upload_mb",
	"log.level",
	"log.format",
	"output.format",
	"output.precision",
}

var validate = validator.New()

// Validate checks value ranges and that every column map target is a field
// rows actually carry.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := dataset.ColumnMap(c.Columns.Map).Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for _, p := range c.Columns.Percentage {
		if !dataset.IsKnownField(p) {
			return fmt.Errorf("invalid config: columns.percentage: unknown field %q", p)
		}
	}
	return nil
}

// IngestOptions returns the dataset options this configuration describes.
func (c *Global) IngestOptions() dataset.Options {
	opt := dataset.DefaultOptions()
	if len(c.Columns.Map) > 0 {
		opt.Columns = dataset.ColumnMap(c.Columns.Map)
	}
	opt.Classify = c.Classify
	return opt
}

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		Columns: Columns{
			Map:        dataset.DefaultColumnMap(),
			Percentage: dataset.DefaultPercentageColumns(),
		},
		Classify: dataset.DefaultClassifyOptions(),
		Curve:    Curve{Samples: 30},
		Server:   Server{Listen: "127.0.0.1:8080", MaxUploadMB: 32},
		Log:      Log{Level: "info", Format: "text"},
		Output:   Output{Precision: 4},
	}
}

// Dir returns ~/.pkplot.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".pkplot"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.pkplot/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("PKPLOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("columns.percentage", d.Columns.Percentage)
	v.SetDefault("classify.max_distinct", d.Classify.MaxDistinct)
	v.SetDefault("classify.max_ratio", d.Classify.MaxRatio)
	v.SetDefault("curve.samples", d.Curve.Samples)
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.precision", d.Output.Precision)

	// Config file; a missing one means defaults
	read := true
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			read = false
		}
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if read {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// viper folds map keys, so an unset map falls back to the stock headers
	if len(c.Columns.Map) == 0 {
		c.Columns.Map = d.Columns.Map
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
