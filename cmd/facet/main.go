// Command facet batch-converts CAD exporter JSON into renderer-ready
// JSON: keys standardized, coordinates remapped, fragmented faces merged.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/chazu/facet/pkg/batch"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a TOML config file")
		inputDir    = flag.String("input", "", "input directory (overrides config)")
		outputDir   = flag.String("output", "", "output directory (overrides config)")
		enableMerge = flag.Bool("merge", false, "merge adjacent coplanar plane records")
		tolerance   = flag.Float64("tol", 0, "merge tolerance (overrides config)")
		renderSVG   = flag.Bool("viz", false, "write an SVG wireframe next to each output file")
	)
	flag.Parse()

	logger := initLogger()

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "facet: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags beat the config file, but only when actually set.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.InputDir = *inputDir
		case "output":
			cfg.OutputDir = *outputDir
		case "merge":
			cfg.EnableMerge = *enableMerge
		case "tol":
			cfg.MergeTolerance = *tolerance
		case "viz":
			cfg.RenderSVG = *renderSVG
		}
	})

	if cfg.MergeTolerance <= 0 {
		fmt.Fprintf(os.Stderr, "facet: merge tolerance must be positive, got %g\n", cfg.MergeTolerance)
		os.Exit(1)
	}

	p := batch.NewProcessor(cfg.InputDir, cfg.OutputDir, cfg.EnableMerge, cfg.MergeTolerance)
	p.RenderSVG = cfg.RenderSVG
	p.Log = logger
	p.Modifier.Log = logger
	p.Modifier.Merger.Log = logger

	if err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "facet: %v\n", err)
		os.Exit(1)
	}
}

func initLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Str("app", "facet").Logger()
}
