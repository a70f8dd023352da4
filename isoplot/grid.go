// Package isoplot accumulates filled and erased shapes on an integer grid.
// Every cell references an interned overlay telling which drawn objects
// occupy it and how: filled background, plain edge, contour edge or
// polarity inverted edge.
package isoplot

import (
	"github.com/VasiliyTurchenko/gerber2gcode/overlay"
	"github.com/VasiliyTurchenko/gerber2gcode/regions"
)

// Grid maps cells to overlay IDs. Cells outside of the grid are always
// empty, writes to them are dropped.
type Grid struct {
	width  int
	height int
	cells  []uint32
	reg    *overlay.Registry
}

func NewGrid(width, height int, reg *overlay.Registry) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  make([]uint32, width*height),
		reg:    reg,
	}
}

func (g *Grid) Width() int {
	return g.width
}

func (g *Grid) Height() int {
	return g.height
}

func (g *Grid) Registry() *overlay.Registry {
	return g.reg
}

// Bounds is the region covered by the grid
func (g *Grid) Bounds() regions.Region {
	return regions.NewRegion(0, 0, g.width-1, g.height-1)
}

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// OverlayID returns 0 for empty and outside cells
func (g *Grid) OverlayID(x, y int) int {
	if !g.InBounds(x, y) {
		return 0
	}
	return int(g.cells[y*g.width+x])
}

func (g *Grid) Overlay(x, y int) *overlay.Overlay {
	return g.reg.Lookup(g.OverlayID(x, y))
}

// update replaces the overlay of one cell by the result of fn
func (g *Grid) update(x, y int, fn func(id int) *overlay.Overlay) {
	if !g.InBounds(x, y) {
		return
	}
	i := y*g.width + x
	g.cells[i] = uint32(fn(int(g.cells[i])).ID())
}

func (g *Grid) clear(x, y int) {
	if g.InBounds(x, y) {
		g.cells[y*g.width+x] = 0
	}
}

func (g *Grid) addTag(x, y int, tag overlay.Tag) {
	g.update(x, y, func(id int) *overlay.Overlay { return g.reg.AddTag(id, tag) })
}

func (g *Grid) removeTag(x, y int, tag overlay.Tag) {
	g.update(x, y, func(id int) *overlay.Overlay { return g.reg.RemoveTag(id, tag) })
}

func (g *Grid) removeBuilderID(x, y int, builderID int) {
	g.update(x, y, func(id int) *overlay.Overlay { return g.reg.RemoveBuilderID(id, builderID) })
}

// Walk calls fn for every non empty cell inside r
func (g *Grid) Walk(r regions.Region, fn func(x, y int, ov *overlay.Overlay)) {
	r = r.Intersect(g.Bounds())
	for y := r.Y0; y <= r.Y1; y++ {
		row := y * g.width
		for x := r.X0; x <= r.X1; x++ {
			if id := g.cells[row+x]; id != 0 {
				fn(x, y, g.reg.Lookup(int(id)))
			}
		}
	}
}

// UsedCells counts non empty cells
func (g *Grid) UsedCells() int {
	n := 0
	for _, id := range g.cells {
		if id != 0 {
			n++
		}
	}
	return n
}

// IsLiveEdge tells whether the cell is a usable toolpath edge of builderID:
// a normal or contour edge not buried under somebody else's fill, or an
// inverted edge lying on existing material.
func IsLiveEdge(ov *overlay.Overlay, builderID int) bool {
	if ov == nil {
		return false
	}
	if ov.HasFlagFor(builderID, overlay.FlagNormalEdge) || ov.HasFlagFor(builderID, overlay.FlagContourEdge) {
		return !ov.BackgroundOtherThan(builderID)
	}
	if ov.HasFlagFor(builderID, overlay.FlagInvertEdge) {
		return ov.BackgroundCount() > 0
	}
	return false
}
