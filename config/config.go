// Package config loads the run configuration of the verification harness
// from a YAML file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/firverify/csr"
	"github.com/sarchlab/firverify/dut"
	"github.com/sarchlab/firverify/scenario"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Buffer is the input buffer geometry.
type Buffer struct {
	Capacity int `yaml:"capacity"`
	Margin   int `yaml:"margin"`
}

// Files names the collaborator files. Relative paths are resolved against
// UnitDir.
type Files struct {
	Coefficients string `yaml:"coefficients"`
	Vectors      string `yaml:"vectors"`
	POR          string `yaml:"por"`
}

// Config is the run configuration. It is not changed after Load.
type Config struct {
	UnitDir     string         `yaml:"unit_dir"`
	Golden      string         `yaml:"golden"`
	Candidates  []string       `yaml:"candidates"`
	Addresses   dut.AddressMap `yaml:"addresses"`
	Timeout     time.Duration  `yaml:"timeout"`
	Parallelism int            `yaml:"parallelism"`
	Radix       string         `yaml:"radix"`
	TestSignal  int64          `yaml:"test_signal"`
	Buffer      Buffer         `yaml:"buffer"`

	// Layout replaces the default CSR layout when set.
	Layout     []csr.Field `yaml:"layout"`
	LayoutName string      `yaml:"layout_name"`

	// EnableFilter sets fen before signal processing.
	EnableFilter bool `yaml:"enable_filter"`

	Files     Files    `yaml:"files"`
	Scenarios []string `yaml:"scenarios"`
	Scripts   []string `yaml:"scripts"`
}

// Default returns the configuration of the lab setup: six candidates next
// to a golden unit in the working directory.
func Default() Config {
	return Config{
		UnitDir:      ".",
		Golden:       "golden",
		Candidates:   []string{"impl0", "impl1", "impl2", "impl3", "impl4", "impl5"},
		Addresses:    dut.DefaultAddressMap(),
		Timeout:      10 * time.Second,
		Radix:        dut.RadixHex.String(),
		TestSignal:   scenario.DefaultTestSignal,
		Buffer:       Buffer{Capacity: scenario.DefaultCapacity, Margin: scenario.DefaultMargin},
		EnableFilter: true,
		Files: Files{
			Coefficients: "filter.cfg",
			Vectors:      "sqr.vec",
			POR:          "por.csv",
		},
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(fs afero.Fs, path string) (Config, error) {
	c := Default()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return c, fmt.Errorf("loading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return c, err
	}

	return c, nil
}

// Validate checks the configuration for values no run can work with.
func (c Config) Validate() error {
	if c.Golden == "" {
		return fmt.Errorf("%w: no golden unit", ErrInvalidConfig)
	}

	seen := map[string]bool{c.Golden: true}
	for _, u := range c.Candidates {
		if u == "" {
			return fmt.Errorf("%w: empty candidate name", ErrInvalidConfig)
		}

		if seen[u] {
			return fmt.Errorf("%w: unit %s listed twice", ErrInvalidConfig, u)
		}
		seen[u] = true
	}

	if err := c.Addresses.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}

	if c.Parallelism < 0 {
		return fmt.Errorf("%w: negative parallelism", ErrInvalidConfig)
	}

	if _, err := dut.ParseRadix(c.Radix); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.Buffer.Capacity <= 0 || c.Buffer.Margin < 0 {
		return fmt.Errorf("%w: bad buffer geometry %d+%d",
			ErrInvalidConfig, c.Buffer.Capacity, c.Buffer.Margin)
	}

	if _, err := c.CSRLayout(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return nil
}

// RadixValue returns the configured radix. Validate has already rejected
// unknown names.
func (c Config) RadixValue() dut.Radix {
	r, _ := dut.ParseRadix(c.Radix)
	return r
}

// CSRLayout returns the custom layout, or the default one when none is
// configured.
func (c Config) CSRLayout() (*csr.Layout, error) {
	if len(c.Layout) == 0 {
		return csr.DefaultLayout(), nil
	}

	name := c.LayoutName
	if name == "" {
		name = "custom"
	}

	return csr.NewLayout(name, c.Layout)
}

// Path resolves a file name against UnitDir. Empty names stay empty.
func (c Config) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(c.UnitDir, name)
}

// Platform returns the register model of the configured filter.
func (c Config) Platform() (scenario.Platform, error) {
	layout, err := c.CSRLayout()
	if err != nil {
		return scenario.Platform{}, err
	}

	return scenario.Platform{Layout: layout, Addresses: c.Addresses}, nil
}

// LibraryOptions returns the options of the standard scenarios.
func (c Config) LibraryOptions(fs afero.Fs) (scenario.LibraryOptions, error) {
	p, err := c.Platform()
	if err != nil {
		return scenario.LibraryOptions{}, err
	}

	return scenario.LibraryOptions{
		Platform:         p,
		TestSignal:       c.TestSignal,
		Capacity:         c.Buffer.Capacity,
		Margin:           c.Buffer.Margin,
		FS:               fs,
		CoefficientsFile: c.Path(c.Files.Coefficients),
		VectorsFile:      c.Path(c.Files.Vectors),
		EnableFilter:     c.EnableFilter,
	}, nil
}
