// Copyright 2018 Vasily Turchenko <turchenkov@gmail.com>. All rights reserved.
// Use of this source code is free

// Package gerber2gcode converts draw scripts into isolation routing,
// drilling and bed flattening G-code, one layer at a time.
package gerber2gcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/VasiliyTurchenko/gerber2gcode/configurator"
	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
	"github.com/VasiliyTurchenko/gerber2gcode/isoplot"
	"github.com/VasiliyTurchenko/gerber2gcode/overlay"
	"github.com/VasiliyTurchenko/gerber2gcode/plotter"
	"github.com/VasiliyTurchenko/gerber2gcode/render"
	"github.com/VasiliyTurchenko/gerber2gcode/segments"
	"github.com/VasiliyTurchenko/gerber2gcode/steps"
)

// ErrLayerAborted wraps an invariant violation raised while converting a layer
var ErrLayerAborted = errors.New("layer aborted")

// Result of one layer
type Result struct {
	Name  string
	RunID string
	Mode  gbt.OperationMode
	GCode string
	Lines int
	Paths []*segments.Path
	Holes int

	Segments  int
	Chain     segments.Diagnostics
	Builder   isoplot.Stats
	Plotter   plotter.Stats
	Overlays  int
	UsedCells int
	OutFile   string
	PNGFile   string
	Elapsed   time.Duration
	Err       error
}

// Converter holds the read-only run configuration. Every layer gets its own
// grid, registry and plotter, so one converter serves concurrent layers.
type Converter struct {
	v      *viper.Viper
	logger *log.Logger
	// output directory, nothing is written when empty
	OutDir string
}

func New(v *viper.Viper, logger *log.Logger) *Converter {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Converter{v: v, logger: logger}
}

// progress logs a phase with the time elapsed since the previous one
type progress struct {
	logger *log.Logger
	start  time.Time
	last   time.Time
}

func newProgress(l *log.Logger) *progress {
	now := time.Now()
	return &progress{logger: l, start: now, last: now}
}

func (p *progress) done(msg string, keyvals ...interface{}) {
	now := time.Now()
	keyvals = append(keyvals, "elapsed", now.Sub(p.last).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
	p.last = now
}

// recovered turns a panic raised by an invariant check into an error
func recovered(name string, r interface{}) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("%w: %s: %w", ErrLayerAborted, name, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrLayerAborted, name, r)
}

/*
Run converts one layer: replay the steps onto a fresh grid, trace and chain
the live edges, emit the program. An invariant violation aborts this layer
only and is returned as an error wrapping ErrLayerAborted.
*/
func (c *Converter) Run(ctx context.Context, s *steps.Script) (res *Result, err error) {
	res = &Result{Name: s.Name, RunID: uuid.Must(uuid.NewV7()).String(), Mode: s.Mode()}
	logger := c.logger.With("layer", s.Name)
	prog := newProgress(logger)
	defer func() {
		if r := recover(); r != nil {
			err = recovered(s.Name, r)
		}
		res.Elapsed = time.Since(prog.start)
		res.Err = err
	}()

	opts, err := configurator.PlotterOptions(c.v, s.SourceUnits(), s.PointsPerUnit)
	if err != nil {
		return res, err
	}
	head := configurator.ToolHead(c.v, s.Mode())
	logger.Debug("start", "run", res.RunID, "mode", s.Mode(), "tool", head.ToolWidth)

	w, h := s.GridSize()
	reg := overlay.NewRegistry()
	grid := isoplot.NewGrid(w, h, reg)
	b := isoplot.NewBuilder(grid, overlay.NewBuilderIDs())

	replayed, err := steps.Replay(ctx, b, s)
	if err != nil {
		return res, err
	}
	res.Builder = b.Stats()
	res.Overlays = reg.Len()
	res.UsedCells = grid.UsedCells()
	if res.Builder.Degenerate > 0 {
		logger.Debug("degenerate geometry skipped", "count", res.Builder.Degenerate)
	}
	prog.done("replayed", "steps", replayed.Steps, "shapes", res.Builder.Shapes, "cells", res.UsedCells)

	if s.Mode() == gbt.OpIsolationCut || s.Mode() == gbt.OpEdgeMill {
		res.Paths, err = c.trace(ctx, logger, b, s.Mode(), res)
		if err != nil {
			return res, err
		}
		prog.done("chained", "paths", res.Chain.Paths, "segments", res.Segments)
	}
	if err = ctx.Err(); err != nil {
		return res, err
	}

	plt := plotter.NewPlotter(opts, head)
	plt.Reset()
	plt.Start(c.header(res, s)...)
	switch s.Mode() {
	case gbt.OpIsolationCut, gbt.OpEdgeMill:
		plt.EmitPaths(res.Paths)
	case gbt.OpDrill:
		plt.Drill(replayed.Holes)
		res.Holes = len(replayed.Holes)
	case gbt.OpReferencePins:
		holes, err := c.pins(s)
		if err != nil {
			return res, err
		}
		plt.Drill(holes)
		res.Holes = len(holes)
	case gbt.OpBedFlattening:
		x0, y0, x1, y1 := c.flattenArea(s)
		plt.Flatten(x0, y0, x1, y1)
	}
	plt.Stop()
	res.Plotter = plt.Stats()
	res.GCode = plt.String()
	res.Lines = len(plt.Lines())
	prog.done("emitted", "lines", res.Lines, "rapids", res.Plotter.Rapids)

	if c.OutDir != "" {
		if err = c.write(plt, grid, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (c *Converter) header(res *Result, s *steps.Script) []string {
	out := []string{fmt.Sprintf("layer %s: %s", s.Name, s.Mode())}
	if c.v.GetBool(configurator.CfgOutputRunIDComment) {
		out = append(out, "run "+res.RunID)
	}
	return out
}

func (c *Converter) trace(ctx context.Context, logger *log.Logger, b *isoplot.Builder, mode gbt.OperationMode, res *Result) ([]*segments.Path, error) {
	segs := segments.Extract(b)
	if mode != gbt.OpEdgeMill {
		// only edge milling leaves tabs
		for _, sg := range segs {
			if l, ok := sg.(*segments.Line); ok {
				l.NumTabs = 0
			}
		}
	}
	segments.MarkDuplicates(segs)
	res.Segments = len(segs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	paths, diag := segments.Chain(b.Grid(), segs, configurator.ChainOptions(c.v))
	res.Chain = diag
	if diag.DistanceChained > 0 {
		logger.Warn("segments chained by distance", "count", diag.DistanceChained)
	}
	if diag.Unchained > 0 {
		logger.Warn("isolated segments", "count", diag.Unchained)
	}
	return paths, nil
}

// pins converts the configured pin locations to grid units
func (c *Converter) pins(s *steps.Script) ([]plotter.Hole, error) {
	pins, err := configurator.Pins(c.v)
	if err != nil {
		return nil, err
	}
	tool := c.v.GetInt(configurator.CfgPinsTool)
	dia := c.v.GetFloat64(configurator.CfgPinsDiameter)
	holes := make([]plotter.Hole, 0, len(pins))
	for _, p := range pins {
		holes = append(holes, plotter.Hole{X: p.X * s.PointsPerUnit, Y: p.Y * s.PointsPerUnit, Tool: tool, Diameter: dia})
	}
	return holes, nil
}

// flattenArea is the script region, else the configured one, in grid units
func (c *Converter) flattenArea(s *steps.Script) (float64, float64, float64, float64) {
	k := s.PointsPerUnit
	if f := s.Flatten; f != nil {
		return f.X0 * k, f.Y0 * k, f.X1 * k, f.Y1 * k
	}
	p0, p1 := configurator.FlattenArea(c.v)
	if p0.Equals(p1, 1e-9) {
		return 0, 0, s.Width * k, s.Height * k
	}
	return p0.X * k, p0.Y * k, p1.X * k, p1.Y * k
}

func (c *Converter) write(plt *plotter.Plotter, grid *isoplot.Grid, res *Result) error {
	if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
		return err
	}
	res.OutFile = filepath.Join(c.OutDir, res.Name+".nc")
	if err := plt.WriteFile(res.OutFile); err != nil {
		return err
	}
	if !c.v.GetBool(configurator.CfgRenderGeneratePNG) {
		return nil
	}
	rc := render.NewRender(grid.Width(), grid.Height())
	rc.DrawGrid(grid)
	if c.v.GetBool(configurator.CfgRenderDrawPaths) {
		if err := rc.DrawPaths(res.Paths); err != nil {
			return err
		}
	}
	res.PNGFile = filepath.Join(c.OutDir, res.Name+".png")
	return rc.SavePNG(res.PNGFile, c.v.GetInt(configurator.CfgRenderMaxSide))
}

/*
RunAll converts independent layers concurrently, at most jobs at a time.
A failed layer does not stop the others; the failures are joined into the
returned error. Results keep the order of the scripts.
*/
func (c *Converter) RunAll(ctx context.Context, scripts []*steps.Script, jobs int) ([]*Result, error) {
	results := make([]*Result, len(scripts))
	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, s := range scripts {
		g.Go(func() error {
			res, err := c.Run(gctx, s)
			results[i] = res
			if err != nil {
				c.logger.Error("layer failed", "layer", s.Name, "err", err)
			}
			// cancellation stops every layer, a layer error does not
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	var errs []error
	for _, r := range results {
		if r != nil && r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}
