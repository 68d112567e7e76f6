//Package config holds the yaml-backed settings of a kinetic analysis run.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTemp       = 300.0
	DefaultLag        = 10
	DefaultNStates    = 100
	DefaultComponents = 2
	DefaultNSets      = 4
	DefaultStride     = 1
	DefaultSeed       = 1
)

type Config struct {
	Topology   string       `yaml:"topology"` //PDB file
	Trajs      []string     `yaml:"trajs"`    //DCD files, possibly .gz/.zst
	Chains     string       `yaml:"chains"`
	ResRange   []int        `yaml:"res_range"`
	Attempt    int          `yaml:"attempt"`
	Temp       float64      `yaml:"temp"` //Kelvin
	Dt         float64      `yaml:"dt"`   //physical time per frame, any unit
	Features   FeatConfig   `yaml:"features"`
	Reduction  RedConfig    `yaml:"reduction"`
	Model      ModelConfig  `yaml:"model"`
	Store      string       `yaml:"store"` //sqlite path, empty disables it
	OutDir     string       `yaml:"outdir"`
}

type FeatConfig struct {
	SinCos bool `yaml:"sincos"`
	Stride int  `yaml:"stride"`
}

type RedConfig struct {
	Method     string  `yaml:"method"` //tica or koopman
	Lag        int     `yaml:"lag"`
	Components int     `yaml:"components"`
	Reg        float64 `yaml:"reg"`
}

type ModelConfig struct {
	NStates    int    `yaml:"nstates"`
	Lag        int    `yaml:"lag"`
	Lags       []int  `yaml:"lags"` //for the timescale scan
	NSets      int    `yaml:"nsets"`
	Reversible bool   `yaml:"reversible"`
	CKSteps    []int  `yaml:"ck_steps"`
	Samples    int    `yaml:"samples"` //Bayesian samples, 0 disables
	Seed       uint64 `yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		Chains:  "A",
		Attempt: 1,
		Temp:    DefaultTemp,
		Dt:      1,
		Features: FeatConfig{
			SinCos: true,
			Stride: DefaultStride,
		},
		Reduction: RedConfig{
			Method:     "tica",
			Lag:        DefaultLag,
			Components: DefaultComponents,
			Reg:        1e-6,
		},
		Model: ModelConfig{
			NStates:    DefaultNStates,
			Lag:        DefaultLag,
			Lags:       []int{1, 2, 5, 10, 20, 50},
			NSets:      DefaultNSets,
			Reversible: true,
			CKSteps:    []int{1, 2, 3, 4, 5},
			Seed:       DefaultSeed,
		},
		OutDir: ".",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Check validates the settings that would otherwise fail deep inside the
// pipeline.
func (c *Config) Check() error {
	if c.Reduction.Method != "tica" && c.Reduction.Method != "koopman" {
		return fmt.Errorf("config: unknown reduction method %q", c.Reduction.Method)
	}
	if c.Reduction.Lag < 1 || c.Model.Lag < 1 {
		return fmt.Errorf("config: lags must be at least 1")
	}
	if c.Model.NStates < 2 {
		return fmt.Errorf("config: need at least 2 microstates, got %d", c.Model.NStates)
	}
	if c.Model.NSets < 2 || c.Model.NSets > c.Model.NStates {
		return fmt.Errorf("config: bad number of metastable sets %d for %d microstates", c.Model.NSets, c.Model.NStates)
	}
	if c.Temp <= 0 {
		return fmt.Errorf("config: temperature must be positive, got %v", c.Temp)
	}
	if c.Features.Stride < 1 {
		return fmt.Errorf("config: stride must be at least 1, got %d", c.Features.Stride)
	}
	return nil
}
