package engine

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gnoswap-labs/defeq/internal/localctx"
	"github.com/gnoswap-labs/defeq/internal/types"
)

// DefaultConfigFile is looked up in the working directory when no
// configuration path is given.
const DefaultConfigFile = ".defeq.yaml"

// Config represents the overall configuration: a name, per-kind severity
// overrides and the options of the checker itself.
type Config struct {
	Name    string                      `yaml:"name"`
	Rules   map[string]types.ConfigRule `yaml:"rules"`
	Checker CheckerConfig               `yaml:"checker"`
}

// CheckerConfig tunes the equality checker.
type CheckerConfig struct {
	// Postpone non-pattern hole occurrences instead of failing.
	Postpone bool `yaml:"postpone"`
	// MaxDepth bounds nested comparisons; zero means unbounded.
	MaxDepth   int              `yaml:"max-depth"`
	CtxBacking localctx.Backing `yaml:"ctx-backing"`
	Trace      bool             `yaml:"trace"`
}

// DefaultConfig lists every problem kind at error severity.
func DefaultConfig() Config {
	rules := make(map[string]types.ConfigRule, len(types.Kinds))
	for _, k := range types.Kinds {
		rules[string(k)] = types.ConfigRule{Severity: types.SeverityError}
	}
	return Config{
		Name:  "defeq",
		Rules: rules,
		Checker: CheckerConfig{
			MaxDepth:   512,
			CtxBacking: localctx.BackingMap,
		},
	}
}

func (c CheckerConfig) validate() error {
	switch c.CtxBacking {
	case "", localctx.BackingMap, localctx.BackingSeq:
	default:
		return fmt.Errorf("unknown ctx-backing %q (want %q or %q)", c.CtxBacking, localctx.BackingMap, localctx.BackingSeq)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max-depth must not be negative, got %d", c.MaxDepth)
	}
	return nil
}

// ParseConfigurationFile reads a configuration file. Fields the file leaves
// out keep their defaults.
func ParseConfigurationFile(configurationPath string) (Config, error) {
	config := DefaultConfig()

	f, err := os.Open(configurationPath)
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("error parsing %s: %w", configurationPath, err)
	}
	if err := config.Checker.validate(); err != nil {
		return config, fmt.Errorf("error parsing %s: %w", configurationPath, err)
	}
	return config, nil
}

// WriteConfigurationFile writes config as YAML, replacing any existing file.
func WriteConfigurationFile(configurationPath string, config Config) error {
	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	f, err := os.Create(configurationPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(d); err != nil {
		return err
	}
	return nil
}
