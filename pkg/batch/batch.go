// Package batch drives directory-level conversion: every exporter JSON
// file in the input directory is standardized and optimized, then written
// to the output directory as renderer-ready JSON (with filtered records
// saved to a side file, never dropped).
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/chazu/facet/pkg/convert"
	"github.com/chazu/facet/pkg/viz"
)

// filePattern selects the exporter files to process.
const filePattern = "*.json"

// Processor runs the conversion over a directory pair.
type Processor struct {
	InputDir  string
	OutputDir string

	// RenderSVG additionally writes an SVG wireframe next to each output
	// file for visual inspection of the merge results.
	RenderSVG bool

	Modifier *convert.Modifier
	Log      zerolog.Logger
}

// NewProcessor builds a Processor with a modifier configured for the
// given merge flag and tolerance.
func NewProcessor(inputDir, outputDir string, enableMerge bool, tolerance float64) *Processor {
	return &Processor{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Modifier:  convert.NewModifier(enableMerge, tolerance),
		Log:       zerolog.Nop(),
	}
}

// Run processes every matching file in the input directory. A file that
// fails to load is logged and skipped; write failures abort the batch.
func (p *Processor) Run() error {
	files, err := filepath.Glob(filepath.Join(p.InputDir, filePattern))
	if err != nil {
		return fmt.Errorf("scan input dir: %w", err)
	}
	if len(files) == 0 {
		p.Log.Warn().Str("dir", p.InputDir).Msg("no JSON files found in input directory")
		return nil
	}
	sort.Strings(files)

	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	p.Log.Info().Int("files", len(files)).Msg("batch processing started")
	for _, f := range files {
		if err := p.processFile(f); err != nil {
			return fmt.Errorf("process %s: %w", filepath.Base(f), err)
		}
	}
	p.Log.Info().Int("files", len(files)).Msg("batch processing complete")
	return nil
}

func (p *Processor) processFile(path string) error {
	start := time.Now()
	name := filepath.Base(path)

	entries, err := LoadEntries(path)
	if err != nil {
		p.Log.Error().Err(err).Str("file", name).Msg("skipping unreadable file")
		return nil
	}

	valid, deleted := p.Modifier.Process(entries)

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	outPath := filepath.Join(p.OutputDir, stem+"_Unity.json")
	if err := WriteEntries(outPath, valid); err != nil {
		return err
	}

	if len(deleted) > 0 {
		deletedPath := filepath.Join(p.OutputDir, stem+"_Unity_Deleted.json")
		if err := WriteEntries(deletedPath, deleted); err != nil {
			return err
		}
		p.Log.Info().Str("file", filepath.Base(deletedPath)).Int("count", len(deleted)).
			Msg("deleted items saved")
	}

	if p.RenderSVG {
		svgPath := filepath.Join(p.OutputDir, stem+"_Unity.svg")
		if err := p.writeSVG(svgPath, valid); err != nil {
			p.Log.Error().Err(err).Str("file", filepath.Base(svgPath)).Msg("svg render failed")
		}
	}

	p.Log.Info().Str("file", filepath.Base(outPath)).Int("count", len(valid)).
		Dur("elapsed", time.Since(start)).Msg("valid items saved")
	return nil
}

func (p *Processor) writeSVG(path string, entries []convert.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return viz.Plot(f, Flatten(entries))
}
