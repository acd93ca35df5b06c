package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/JonMunkholm/eda/internal/config"
	"github.com/JonMunkholm/eda/internal/core"
)

// Settings is the edactl configuration.
// Precedence: flags > EDA_* env > config file > defaults.
type Settings struct {
	MissingNumeric      string `mapstructure:"missing_numeric" yaml:"missing_numeric"`
	MissingCategorical  string `mapstructure:"missing_categorical" yaml:"missing_categorical"`
	Delimiter           string `mapstructure:"delimiter" yaml:"delimiter"`
	MaxRows             int    `mapstructure:"max_rows" yaml:"max_rows"`
	Format              string `mapstructure:"format" yaml:"format"`
	MetricMaxSource     int    `mapstructure:"metric_max_source" yaml:"metric_max_source"`
	MetricMaxStatements int    `mapstructure:"metric_max_statements" yaml:"metric_max_statements"`
}

// Output formats.
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
	FormatJSON  = "json"
)

// LoadSettings reads settings from defaults, an optional config file and the
// environment. An explicit cfgFile must exist; the default
// ~/.eda/config.yaml is optional.
func LoadSettings(cfgFile string) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("EDA")
	v.AutomaticEnv()

	v.SetDefault("missing_numeric", string(core.NumericLeave))
	v.SetDefault("missing_categorical", string(core.CategoricalLeave))
	v.SetDefault("delimiter", "")
	v.SetDefault("max_rows", 0)
	v.SetDefault("format", FormatTable)
	v.SetDefault("metric_max_source", 16384)
	v.SetDefault("metric_max_statements", 100)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".eda"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &s, nil
}

// Validate checks strategies, delimiter and output format.
func (s *Settings) Validate() error {
	var errs []error
	if err := core.NumericStrategy(s.MissingNumeric).Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := core.CategoricalStrategy(s.MissingCategorical).Validate(); err != nil {
		errs = append(errs, err)
	}
	if len([]rune(s.Delimiter)) > 1 && s.Delimiter != "tab" && s.Delimiter != `\t` {
		errs = append(errs, fmt.Errorf("unsupported delimiter %q", s.Delimiter))
	}
	switch s.Format {
	case FormatTable, FormatYAML, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unsupported format %q (table, yaml or json)", s.Format))
	}
	if s.MaxRows < 0 {
		errs = append(errs, errors.New("max_rows must be non-negative"))
	}
	return errors.Join(errs...)
}

// delimiter resolves the delimiter setting the same way the server does.
func (s *Settings) delimiter() rune {
	u := config.UploadConfig{Delimiter: s.Delimiter}
	return u.DelimiterRune()
}
