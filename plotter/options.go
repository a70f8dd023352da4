package plotter

import (
	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
	"github.com/VasiliyTurchenko/gerber2gcode/xy"
)

/*
	Run level output options, set once per file
*/
type Options struct {
	// grid cells per source unit
	PointsPerUnit float64
	SourceUnits   gbt.Units
	OutputUnits   gbt.Units

	Mirror gbt.MirrorMode
	// mirror axis X in source units, used by MirrorRelative
	MirrorAxisX float64

	// plot origin adjustment and absolute offset, source units
	Origin xy.XY
	Offset xy.XY

	// subtracted from every output coordinate when enabled, output units
	ReZero       bool
	ReZeroFactor xy.XY

	ShowLineNumbers bool
	LineNumberWidth int
	LineNumberStep  int
	DecimalPlaces   int
	LineTerminator  string

	// emit arcs with R instead of I and J
	ArcRadiusWord bool
	// emit G92 X0 Y0 in the preamble
	SetPosition bool
}

func DefaultOptions() Options {
	return Options{
		PointsPerUnit:   1,
		SourceUnits:     gbt.UnitsMillimeters,
		OutputUnits:     gbt.UnitsMillimeters,
		Mirror:          gbt.NoMirror,
		LineNumberWidth: 5,
		LineNumberStep:  1,
		DecimalPlaces:   3,
		LineTerminator:  "\r\n",
	}
}

func (o *Options) convert(v float64) float64 {
	return xy.ConvertUnits(v, o.SourceUnits == gbt.UnitsMillimeters, o.OutputUnits == gbt.UnitsMillimeters)
}

// Transform maps grid coordinates to output coordinates
func (o *Options) Transform(x, y float64) xy.XY {
	p := xy.NewXY(x/o.PointsPerUnit, y/o.PointsPerUnit)
	p = p.Sub(o.Origin).Add(o.Offset)
	switch o.Mirror {
	case gbt.MirrorRelative:
		p.X = -p.X + 2*o.MirrorAxisX
	case gbt.MirrorAbsolute:
		p.X = -p.X
	}
	p = xy.NewXY(o.convert(p.X), o.convert(p.Y))
	if o.ReZero {
		p = p.Sub(o.ReZeroFactor)
	}
	return p
}

// Length maps a grid length to output units
func (o *Options) Length(v float64) float64 {
	return o.convert(v / o.PointsPerUnit)
}

// ToGrid maps an output unit length to grid units
func (o *Options) ToGrid(v float64) float64 {
	return xy.ConvertUnits(v, o.OutputUnits == gbt.UnitsMillimeters, o.SourceUnits == gbt.UnitsMillimeters) * o.PointsPerUnit
}

// ToolHead holds the Z levels and feeds of one operation, output units
type ToolHead struct {
	Name      string
	ZCut      float64
	ZMove     float64
	ZClear    float64
	XYFeed    float64
	ZFeed     float64
	ToolWidth float64
	// drill dwell at the bottom, seconds
	Dwell float64
}

// DefaultToolHead is a 0.2 mm isolation cutter
func DefaultToolHead() ToolHead {
	return ToolHead{
		Name:      "isolation",
		ZCut:      -0.05,
		ZMove:     1,
		ZClear:    5,
		XYFeed:    100,
		ZFeed:     50,
		ToolWidth: 0.2,
	}
}
