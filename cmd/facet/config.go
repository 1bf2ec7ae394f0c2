package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// config holds the effective runtime settings: defaults, overlaid by the
// TOML file, overlaid by flags.
type config struct {
	InputDir       string
	OutputDir      string
	EnableMerge    bool
	MergeTolerance float64
	RenderSVG      bool
}

// fileConfig is the TOML wire form.
type fileConfig struct {
	InputDir       string  `toml:"input_dir"`
	OutputDir      string  `toml:"output_dir"`
	EnableMerge    bool    `toml:"enable_merge"`
	MergeTolerance float64 `toml:"merge_tolerance"`
	RenderSVG      bool    `toml:"render_svg"`
}

// defaultConfig mirrors the conversion pipeline's stock setup: merge off,
// 3% tolerance.
func defaultConfig() config {
	return config{
		InputDir:       "data/input",
		OutputDir:      "data/output",
		EnableMerge:    false,
		MergeTolerance: 0.03,
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("input_dir") {
		cfg.InputDir = raw.InputDir
	}
	if meta.IsDefined("output_dir") {
		cfg.OutputDir = raw.OutputDir
	}
	if meta.IsDefined("enable_merge") {
		cfg.EnableMerge = raw.EnableMerge
	}
	if meta.IsDefined("merge_tolerance") {
		if raw.MergeTolerance <= 0 {
			return config{}, fmt.Errorf("merge_tolerance must be positive, got %g", raw.MergeTolerance)
		}
		cfg.MergeTolerance = raw.MergeTolerance
	}
	if meta.IsDefined("render_svg") {
		cfg.RenderSVG = raw.RenderSVG
	}
	return cfg, nil
}
