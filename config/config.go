// Package config provides settings loading and management for spectqc.
// Settings live in a YAML file; a missing file means defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/odincare/spectqc/dicomlog"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// ErrOutOfRange is returned by Validate and the setters for values outside
// their accepted range.
var ErrOutOfRange = errors.New("value out of range")

var (
	// Colours are the accepted accent colours.
	Colours = []string{"blue", "green", "dark-blue"}
	// Themes are the accepted appearance modes.
	Themes = []string{"Light", "Dark", "System"}
)

// Config represents the application settings.
type Config struct {
	// Convolution is the smoothing kernel applied before uniformity analysis.
	Convolution [][]float64 `yaml:"convolution"`

	// CropAmount is the edge of the central cube kept by a crop, 1..99.
	CropAmount int `yaml:"crop_amount"`

	// FOVRadius is the field of view radius in rendered pixels, 1..99.
	FOVRadius int `yaml:"fov_radius"`

	// Step selects every Step-th frame for analysis, 1..39.
	Step int `yaml:"step"`

	Colour      string `yaml:"colour"`
	ColourTheme string `yaml:"colour_theme"`

	OpeningDirectory string `yaml:"default_file_opening_directory"`
	SavingDirectory  string `yaml:"default_file_saving_directory"`

	// RenderSize is the edge of rendered layers; 0 keeps the native size.
	RenderSize int `yaml:"render_size"`

	// Workers bounds uniformity concurrency; 0 means all CPUs.
	Workers int `yaml:"workers"`

	Log dicomlog.Config `yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Reset()
	return cfg
}

// Reset restores every setting to its default.
func (c *Config) Reset() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	*c = Config{
		Convolution: [][]float64{
			{1, 2, 1},
			{2, 4, 2},
			{1, 2, 1},
		},
		CropAmount:       40,
		FOVRadius:        80,
		Step:             2,
		Colour:           "blue",
		ColourTheme:      "System",
		OpeningDirectory: home,
		SavingDirectory:  home,
		RenderSize:       520,
		Workers:          runtime.NumCPU(),
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist, it
// returns the default configuration. Keys absent from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

func checkRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s %d not in [%d,%d]: %w", name, v, lo, hi, ErrOutOfRange)
	}
	return nil
}

func checkChoice(name, v string, choices []string) error {
	for _, c := range choices {
		if v == c {
			return nil
		}
	}
	return fmt.Errorf("%s %q not one of %v: %w", name, v, choices, ErrOutOfRange)
}

func checkKernel(k [][]float64) error {
	if len(k) == 0 || len(k[0]) == 0 {
		return fmt.Errorf("convolution: empty kernel: %w", ErrOutOfRange)
	}
	for i, row := range k {
		if len(row) != len(k[0]) {
			return fmt.Errorf("convolution: row %d has %d values, want %d: %w", i, len(row), len(k[0]), ErrOutOfRange)
		}
	}
	return nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if err := checkKernel(c.Convolution); err != nil {
		return err
	}
	if err := checkRange("crop_amount", c.CropAmount, 1, 99); err != nil {
		return err
	}
	if err := checkRange("fov_radius", c.FOVRadius, 1, 99); err != nil {
		return err
	}
	if err := checkRange("step", c.Step, 1, 39); err != nil {
		return err
	}
	if err := checkChoice("colour", c.Colour, Colours); err != nil {
		return err
	}
	if err := checkChoice("colour_theme", c.ColourTheme, Themes); err != nil {
		return err
	}
	if c.RenderSize < 0 {
		return fmt.Errorf("render_size %d: %w", c.RenderSize, ErrOutOfRange)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers %d: %w", c.Workers, ErrOutOfRange)
	}
	return nil
}

func (c *Config) SetCropAmount(n int) error {
	if err := checkRange("crop_amount", n, 1, 99); err != nil {
		return err
	}
	c.CropAmount = n
	return nil
}

func (c *Config) SetFOVRadius(n int) error {
	if err := checkRange("fov_radius", n, 1, 99); err != nil {
		return err
	}
	c.FOVRadius = n
	return nil
}

func (c *Config) SetStep(n int) error {
	if err := checkRange("step", n, 1, 39); err != nil {
		return err
	}
	c.Step = n
	return nil
}

func (c *Config) SetColour(s string) error {
	if err := checkChoice("colour", s, Colours); err != nil {
		return err
	}
	c.Colour = s
	return nil
}

func (c *Config) SetColourTheme(s string) error {
	if err := checkChoice("colour_theme", s, Themes); err != nil {
		return err
	}
	c.ColourTheme = s
	return nil
}

func (c *Config) SetConvolution(k [][]float64) error {
	if err := checkKernel(k); err != nil {
		return err
	}
	c.Convolution = k
	return nil
}

// SetOpeningDirectory accepts existing directories only.
func (c *Config) SetOpeningDirectory(dir string) error {
	if err := checkDir(dir); err != nil {
		return err
	}
	c.OpeningDirectory = dir
	return nil
}

// SetSavingDirectory accepts existing directories only.
func (c *Config) SetSavingDirectory(dir string) error {
	if err := checkDir(dir); err != nil {
		return err
	}
	c.SavingDirectory = dir
	return nil
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// Kernel returns Convolution as a matrix, or nil if it is not rectangular.
func (c *Config) Kernel() *mat.Dense {
	if checkKernel(c.Convolution) != nil {
		return nil
	}
	rows, cols := len(c.Convolution), len(c.Convolution[0])
	data := make([]float64, 0, rows*cols)
	for _, row := range c.Convolution {
		data = append(data, row...)
	}
	return mat.NewDense(rows, cols, data)
}
