package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/brusim/internal/grid"
)

const (
	DefaultN           = 32
	DefaultDt          = 0.001
	DefaultDuration    = 11.5
	DefaultSampleEvery = 0.1
	DefaultAlpha       = 10.0
	DefaultA           = 1.0
	DefaultB           = 3.4
)

type Config struct {
	Model       string       `yaml:"model"`
	Stepper     string       `yaml:"stepper"`
	Forcing     string       `yaml:"forcing"`
	Boundary    string       `yaml:"boundary"`
	Grid        GridConfig   `yaml:"grid"`
	Params      ParamsConfig `yaml:"params"`
	Pulse       PulseConfig  `yaml:"pulse"`
	Dt          float64      `yaml:"dt"`
	Duration    float64      `yaml:"duration"`
	SampleEvery float64      `yaml:"sample_every"`
	Seed        int64        `yaml:"seed"`
	Noise       float64      `yaml:"noise"`
	Workers     int          `yaml:"workers"`
}

type GridConfig struct {
	N    int     `yaml:"n"`
	XMin float64 `yaml:"x_min"`
	XMax float64 `yaml:"x_max"`
	YMin float64 `yaml:"y_min"`
	YMax float64 `yaml:"y_max"`
}

type ParamsConfig struct {
	Alpha float64 `yaml:"alpha"`
	A     float64 `yaml:"a"`
	B     float64 `yaml:"b"`
}

type PulseConfig struct {
	Amp     float64 `yaml:"amp"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Radius2 float64 `yaml:"radius2"`
	Onset   float64 `yaml:"onset"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:       "brusselator",
		Stepper:     "rk4",
		Forcing:     "none",
		Boundary:    "clamped",
		Grid:        GridConfig{N: DefaultN, XMin: 0, XMax: 1, YMin: 0, YMax: 1},
		Params:      ParamsConfig{Alpha: DefaultAlpha, A: DefaultA, B: DefaultB},
		Pulse:       PulseConfig{Amp: 5, X: 0.3, Y: 0.6, Radius2: 0.01, Onset: 1.1},
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		SampleEvery: DefaultSampleEvery,
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
	if err := cfg.Validate(); err != nil {
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

// Validate rejects configurations before any simulation work starts.
// The boundary policy in particular must be named explicitly; the two
// policies produce different discretizations and cannot be inferred.
func (c *Config) Validate() error {
	if c.Boundary == "" {
		return fmt.Errorf("boundary policy is required (clamped or periodic)")
	}
	if _, err := grid.ParseBoundary(c.Boundary); err != nil {
		return err
	}
	if c.Grid.N <= 1 {
		return fmt.Errorf("grid n must be at least 2, got %d", c.Grid.N)
	}
	if c.Grid.XMin >= c.Grid.XMax {
		return fmt.Errorf("grid x bounds must increase: [%f, %f]", c.Grid.XMin, c.Grid.XMax)
	}
	if c.Grid.YMin >= c.Grid.YMax {
		return fmt.Errorf("grid y bounds must increase: [%f, %f]", c.Grid.YMin, c.Grid.YMax)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}
	if c.SampleEvery < 0 {
		return fmt.Errorf("sample_every must not be negative, got %f", c.SampleEvery)
	}
	if c.Noise < 0 {
		return fmt.Errorf("noise must not be negative, got %f", c.Noise)
	}
	return nil
}

// BuildGrid constructs the lattice described by the grid section.
func (c *Config) BuildGrid() (*grid.Grid, error) {
	return grid.New(c.Grid.N, c.Grid.XMin, c.Grid.XMax, c.Grid.YMin, c.Grid.YMax)
}
