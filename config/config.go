// Package config loads experiment settings from YAML.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/vishalbelsare/widefield/selection"
	"gopkg.in/yaml.v3"
)

// File mirrors the YAML document.
type File struct {
	Data DataSection `yaml:"data"`
	// Frames is the number of leading time points used, 0 for all of them.
	Frames  int `yaml:"frames"`
	Windows int `yaml:"windows"`
	// SampleSizes defaults to selection.SampleSizes when empty.
	SampleSizes []int       `yaml:"sample_sizes"`
	Folds       int         `yaml:"folds"`
	Grid        GridSection `yaml:"grid"`
	Seed        uint64      `yaml:"seed"`
	Workers     int         `yaml:"workers"`
	Output      string      `yaml:"output"`
	Resume      bool        `yaml:"resume"`
	LogLevel    string      `yaml:"log_level"`
}

// DataSection locates the observation matrix.
type DataSection struct {
	Path string `yaml:"path"`
	// Transpose is set when the stored matrix is features x time.
	Transpose bool `yaml:"transpose"`
}

// GridSection holds the cross-validation candidate grid.
type GridSection struct {
	Step    int `yaml:"step"`
	Ceiling int `yaml:"ceiling"`
}

// Default returns the settings used for wide-field recordings.
func Default() *File {
	f := &File{}
	f.applyDefaults()
	return f
}

// Load reads path and fills unset fields with defaults. An empty path yields
// the defaults.
func Load(path string) (*File, error) {
	var f File
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	f.applyDefaults()
	return &f, nil
}

func (f *File) applyDefaults() {
	if f.Windows == 0 {
		f.Windows = 16
	}
	if f.Folds == 0 {
		f.Folds = 4
	}
	if f.Grid.Step == 0 {
		f.Grid.Step = 25
	}
	if f.Grid.Ceiling == 0 {
		f.Grid.Ceiling = 8200
	}
	if f.Workers == 0 {
		f.Workers = runtime.NumCPU()
	}
	if f.Output == "" {
		f.Output = "."
	}
	if f.LogLevel == "" {
		f.LogLevel = "info"
	}
}

// Selection returns the driver configuration for data with rows time points.
// Frames beyond rows are left for Validate to reject.
func (f *File) Selection(rows int) selection.Config {
	c := selection.Config{
		Frames:      f.Frames,
		Windows:     f.Windows,
		SampleSizes: f.SampleSizes,
		Folds:       f.Folds,
		GridStep:    f.Grid.Step,
		GridCeiling: f.Grid.Ceiling,
		Seed:        f.Seed,
		Workers:     f.Workers,
	}
	if c.Frames == 0 {
		c.Frames = rows
	}
	if len(c.SampleSizes) == 0 {
		c.SampleSizes = selection.SampleSizes(c.Frames, c.WindowLength())
	}
	return c
}
