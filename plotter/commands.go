package plotter

import (
	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
)

// Command is one machine action, coordinates in grid units
type Command interface {
	command()
}

// Rapid moves to X,Y at the safe Z level
type Rapid struct {
	X, Y float64
}

// Linear cuts from X0,Y0 to X1,Y1, a rapid is prepended when the tool is
// not at the start
type Linear struct {
	X0, Y0 float64
	X1, Y1 float64
}

// ArcMove cuts along the circle around CenterX,CenterY. Dir is the direction
// in grid space, the mirror is applied by Render.
type ArcMove struct {
	X0, Y0  float64
	X1, Y1  float64
	CenterX float64
	CenterY float64
	Radius  float64
	Dir     gbt.IPmode
}

// ZMove changes the tool height, Z in output units
type ZMove struct {
	Z     float64
	Rapid bool
}

type Dwell struct {
	Seconds float64
}

type ToolChange struct {
	Tool     int
	Diameter float64
}

type Comment struct {
	Text string
}

// Code is emitted verbatim, e.g. G90 or M05
type Code struct {
	Words []string
}

func (Rapid) command()      {}
func (Linear) command()     {}
func (ArcMove) command()    {}
func (ZMove) command()      {}
func (Dwell) command()      {}
func (ToolChange) command() {}
func (Comment) command()    {}
func (Code) command()       {}
