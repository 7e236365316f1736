package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug         = "debug"
	ConfigRounds        = "rounds"
	ConfigTopK          = "top-k"
	ConfigVariant       = "variant"
	ConfigScenario      = "scenario"
	ConfigScenarioPath  = "scenario-path"
	ConfigOutput        = "output"
	ConfigThreads       = "threads"
	ConfigHistogramBins = "histogram-bins"
	ConfigMaxRounds     = "max-rounds"
	ConfigConfigFile    = "config-file"
)

var ErrUnknownOutput = errors.New("output must be one of table, yaml, json")

// Config is viper with this program's defaults. Every key can be set with
// a --flag, a CROWDGUESS_ environment variable, or a config file.
type Config struct {
	*viper.Viper
	// args are the positional arguments left over after flag parsing.
	args []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigRounds, 2)
	v.SetDefault(ConfigTopK, 2)
	v.SetDefault(ConfigVariant, "")
	v.SetDefault(ConfigScenario, "round2")
	v.SetDefault(ConfigScenarioPath, "./data/scenarios")
	v.SetDefault(ConfigOutput, "table")
	v.SetDefault(ConfigThreads, 0)
	v.SetDefault(ConfigHistogramBins, 10)
	v.SetDefault(ConfigMaxRounds, 50)
	v.SetDefault(ConfigConfigFile, "")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("crowdguess")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func DefaultConfig() Config {
	return Config{Viper: newViper()}
}

// Load parses args as flags and reads the config file, if any. Flags win
// over the environment, which wins over the file.
func (c *Config) Load(args []string) error {
	c.Viper = newViper()

	fs := pflag.NewFlagSet("crowdguess", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.Int(ConfigRounds, 2, "rounds to run")
	fs.Int(ConfigTopK, 2, "how many top candidates to report")
	fs.String(ConfigVariant, "", "single or biased; empty uses the scenario's own")
	fs.String(ConfigScenario, "round2", "built-in scenario name or path to a scenario file")
	fs.String(ConfigScenarioPath, "./data/scenarios", "directory holding scenario files")
	fs.String(ConfigOutput, "table", "table, yaml, or json")
	fs.Int(ConfigThreads, 0, "threads for batch runs; 0 means one per CPU")
	fs.Int(ConfigHistogramBins, 10, "bins in uptake histograms")
	fs.Int(ConfigMaxRounds, 50, "round limit when running until stable")
	fs.String(ConfigConfigFile, "", "path to a config file (yaml, toml, json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	if cf := c.GetString(ConfigConfigFile); cf != "" {
		c.SetConfigFile(cf)
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	switch c.GetString(ConfigOutput) {
	case "table", "yaml", "json":
	default:
		return ErrUnknownOutput
	}
	if c.GetInt(ConfigRounds) < 0 || c.GetInt(ConfigTopK) < 0 {
		return errors.New("rounds and top-k cannot be negative")
	}
	return nil
}

// Args returns what Load did not parse as a flag.
func (c *Config) Args() []string {
	return c.args
}

// AdjustRelativePaths makes the scenario path relative to basepath if it
// is not absolute.
func (c *Config) AdjustRelativePaths(basepath string) {
	p := c.GetString(ConfigScenarioPath)
	if !filepath.IsAbs(p) {
		c.Set(ConfigScenarioPath, filepath.Join(basepath, p))
	}
}

// Settings returns every setting, for logging.
func (c *Config) Settings() map[string]any {
	return c.AllSettings()
}
