// Package config holds the settings of a dessa run: the pass pipeline,
// validation, dumps and logging. Settings come from an optional TOML file
// and are overridden by explicitly set command-line flags.
package config

import (
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/you-not-fish/dessa/internal/ssa/passes"
)

// Config is the run configuration.
type Config struct {
	// Passes is the pipeline run after SSA construction. Empty means the
	// default pipeline.
	Passes     []string `toml:"passes"`
	Validate   bool     `toml:"validate"`
	DumpBefore string   `toml:"dump-before"`
	DumpAfter  string   `toml:"dump-after"`
	DumpProc   string   `toml:"dump-proc"`
	LogLevel   string   `toml:"log-level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Validate: true,
		LogLevel: "warning",
	}
}

// ParseConfig reads a TOML configuration file. Keys missing from the file
// keep their default values.
func ParseConfig(tomlCfgFile string) (*Config, error) {
	data, err := os.ReadFile(tomlCfgFile)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return Parse(data)
}

// Parse decodes TOML configuration data over the defaults.
func Parse(data []byte) (*Config, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	var file Config
	if err := tree.Unmarshal(&file); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	cfg := Default()
	if tree.Has("passes") {
		cfg.Passes = file.Passes
	}
	if tree.Has("validate") {
		cfg.Validate = file.Validate
	}
	for key, field := range map[string][2]*string{
		"dump-before": {&cfg.DumpBefore, &file.DumpBefore},
		"dump-after":  {&cfg.DumpAfter, &file.DumpAfter},
		"dump-proc":   {&cfg.DumpProc, &file.DumpProc},
		"log-level":   {&cfg.LogLevel, &file.LogLevel},
	} {
		if tree.Has(key) {
			*field[0] = *field[1]
		}
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AddFlags registers the command-line flags that override configuration
// keys. The flag names are the TOML key names.
func AddFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.StringSlice("passes", nil, "comma-separated pass pipeline (available: "+strings.Join(passes.Names(), ", ")+")")
	fs.Bool("validate", def.Validate, "validate the SSA state before and after every pass")
	fs.String("dump-before", "", "dump the procedure before the named pass (\"*\" for all)")
	fs.String("dump-after", "", "dump the procedure after the named pass (\"*\" for all)")
	fs.String("dump-proc", "", "restrict dumps to the named procedure")
	fs.String("log-level", def.LogLevel, "log level (debug, info, warning, error)")
}

// ApplyFlags overrides c with every flag of fs that was set explicitly.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	if fs.Changed("passes") {
		if c.Passes, err = fs.GetStringSlice("passes"); err != nil {
			return err
		}
	}
	if fs.Changed("validate") {
		if c.Validate, err = fs.GetBool("validate"); err != nil {
			return err
		}
	}
	for name, dst := range map[string]*string{
		"dump-before": &c.DumpBefore,
		"dump-after":  &c.DumpAfter,
		"dump-proc":   &c.DumpProc,
		"log-level":   &c.LogLevel,
	} {
		if !fs.Changed(name) {
			continue
		}
		if *dst, err = fs.GetString(name); err != nil {
			return err
		}
	}
	_, err = c.Level()
	return err
}

// Level returns the parsed log level.
func (c *Config) Level() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, errors.Wrap(err, "log-level")
	}
	return lvl, nil
}

// Pipeline resolves the configured passes.
func (c *Config) Pipeline() ([]passes.Pass, error) {
	names := c.Passes
	if len(names) == 0 {
		names = passes.DefaultPipeline
	}
	return passes.Pipeline(names)
}

// PassConfig returns the pass runner settings, dumping to out.
func (c *Config) PassConfig(out io.Writer) passes.Config {
	return passes.Config{
		DumpBefore: c.DumpBefore,
		DumpAfter:  c.DumpAfter,
		Validate:   c.Validate,
		DumpProc:   c.DumpProc,
		Output:     out,
	}
}
