// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// GeneConfig is settings about which ORFs are candidate genes
type GeneConfig struct {
	// the minimum length (nt) of a candidate gene, stop codon included
	MinLength int `mapstructure:"min-length"`

	// closed ends: do not allow genes to run off the edges of a record
	Closed bool `mapstructure:"closed"`

	// treat runs of N as masked sequence and don't build genes across them
	Mask bool `mapstructure:"mask"`

	// the shortest run of N that is masked
	MaskMinRun int `mapstructure:"mask-min-run"`
}

// PathConfig is settings for the connection terms of the gene path DP
type PathConfig struct {
	// the max overlap (bp) between two genes on the same strand
	MaxOverlapSame int `mapstructure:"max-overlap-same"`

	// the max overlap (bp) between the 3' ends of genes on opposite strands
	MaxOverlapOpposite int `mapstructure:"max-overlap-opposite"`

	// overlap (bp) that is allowed without a penalty
	OverlapSoft int `mapstructure:"overlap-soft"`

	// penalty per bp of overlap past the soft limit
	OverlapPenalty float64 `mapstructure:"overlap-penalty"`

	// the largest gap (bp) between same strand genes that earns the operon bonus
	OperonGap int `mapstructure:"operon-gap"`

	// the largest overlap (bp) between same strand genes that earns the operon bonus
	OperonOverlap int `mapstructure:"operon-overlap"`

	// bonus for operon-like spacing
	OperonBonus float64 `mapstructure:"operon-bonus"`

	// penalty for each end of a gene that runs off the sequence
	EdgePenalty float64 `mapstructure:"edge-penalty"`
}

// TrainingConfig is settings for self-training a model on the input
type TrainingConfig struct {
	// the shortest sequence (nt) that can be trained on
	MinLength int `mapstructure:"min-length"`

	// the fewest trusted genes that can be trained on
	MinGenes int `mapstructure:"min-genes"`

	// the minimum fraction of distinct hexamers (of those possible) in the sequence
	MinComplexity float64 `mapstructure:"min-complexity"`

	// the min length (nt) of a trusted training gene
	TrustedLength int `mapstructure:"trusted-length"`

	// the min score gap between a trusted gene's start and its best alternative
	StartMargin float64 `mapstructure:"start-margin"`

	// max number of refinement rounds
	Rounds int `mapstructure:"rounds"`

	// stop refining once no coefficient moves by more than this
	Tolerance float64 `mapstructure:"tolerance"`

	// the fraction of extra coding bases code 4 must cover to be chosen over code 11
	Code4Gain float64 `mapstructure:"code4-gain"`

	// the width of the local GC bins of the coding tables
	GCBinWidth float64 `mapstructure:"gc-bin-width"`
}

// MetaConfig is settings for running against the model bank
type MetaConfig struct {
	// only evaluate bank models whose GC is within this distance of the record's.
	// zero evaluates every model
	GCWindow float64 `mapstructure:"gc-window"`
}

// Config is the root-level settings struct and is a mix
// of settings available in config.yaml and those
// available from the command line
type Config struct {
	// Verbose determines whether progress is logged to stderr
	Verbose bool `mapstructure:"verbose"`

	// Tasks is the number of records (or models) processed in parallel. 0 picks a default
	Tasks int `mapstructure:"tasks"`

	// Code forces a genetic code. 0 lets training (or the bank) decide
	Code int `mapstructure:"code"`

	// Genes settings
	Genes GeneConfig `mapstructure:"genes"`

	// Path settings
	Path PathConfig `mapstructure:"path"`

	// Training settings
	Training TrainingConfig `mapstructure:"training"`

	// Meta settings
	Meta MetaConfig `mapstructure:"meta"`
}

// defaults are keyed by the mapstructure path of each setting
var defaults = map[string]interface{}{
	"verbose": false,
	"tasks":   0,
	"code":    0,

	"genes.min-length":   90,
	"genes.closed":       false,
	"genes.mask":         false,
	"genes.mask-min-run": 50,

	"path.max-overlap-same":     60,
	"path.max-overlap-opposite": 200,
	"path.overlap-soft":         15,
	"path.overlap-penalty":      0.05,
	"path.operon-gap":           40,
	"path.operon-overlap":       4,
	"path.operon-bonus":         0.5,
	"path.edge-penalty":         1.0,

	"training.min-length":     20000,
	"training.min-genes":      40,
	"training.min-complexity": 0.5,
	"training.trusted-length": 300,
	"training.start-margin":   1.0,
	"training.rounds":         5,
	"training.tolerance":      0.01,
	"training.code4-gain":     0.05,
	"training.gc-bin-width":   0.06,

	"meta.gc-window": 0.0,
}

// Default returns a Config with every setting at its default
func Default() *Config {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		panic(fmt.Sprintf("invalid default settings: %v", err))
	}
	return &c
}

// New returns a new Config struct populated by Viper settings: defaults, then the
// settings file (GCALL_CONFIG, --config, or ~/.gcall/config.yaml), then GCALL_*
// environment variables and any command line flags bound to viper
func New() (*Config, error) {
	for k, d := range defaults {
		viper.SetDefault(k, d)
	}

	viper.SetEnvPrefix("gcall")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".gcall"))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode settings: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that settings are in range
func (c *Config) Validate() error {
	switch {
	case c.Tasks < 0:
		return fmt.Errorf("tasks must be >= 0, got %d", c.Tasks)
	case c.Genes.MinLength < 3:
		return fmt.Errorf("genes.min-length must be >= 3, got %d", c.Genes.MinLength)
	case c.Genes.MaskMinRun < 1:
		return fmt.Errorf("genes.mask-min-run must be >= 1, got %d", c.Genes.MaskMinRun)
	case c.Path.MaxOverlapSame < 0 || c.Path.MaxOverlapOpposite < 0:
		return fmt.Errorf("path overlap bounds must be >= 0")
	case c.Path.OverlapSoft < 0:
		return fmt.Errorf("path.overlap-soft must be >= 0, got %d", c.Path.OverlapSoft)
	case c.Training.Rounds < 1:
		return fmt.Errorf("training.rounds must be >= 1, got %d", c.Training.Rounds)
	case c.Training.Tolerance <= 0:
		return fmt.Errorf("training.tolerance must be > 0, got %f", c.Training.Tolerance)
	case c.Training.GCBinWidth <= 0 || c.Training.GCBinWidth >= 0.5:
		return fmt.Errorf("training.gc-bin-width must be in (0, 0.5), got %f", c.Training.GCBinWidth)
	}
	return nil
}

// MaxOverlap returns the largest overlap the gene path allows between any two genes
func (c *Config) MaxOverlap() int {
	if c.Path.MaxOverlapOpposite > c.Path.MaxOverlapSame {
		return c.Path.MaxOverlapOpposite
	}
	return c.Path.MaxOverlapSame
}
