package isoplot

import (
	"fmt"

	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
	"github.com/VasiliyTurchenko/gerber2gcode/overlay"
	"github.com/VasiliyTurchenko/gerber2gcode/regions"
)

// Stats counts builder calls for the run report
type Stats struct {
	Shapes     int
	Degenerate int
	Erasures   int
	Fills      int
}

// Builder rasterizes shapes onto a grid. Draw order matters: later
// operations override earlier ones. A builder is not safe for concurrent use.
type Builder struct {
	grid   *Grid
	reg    *overlay.Registry
	ids    *overlay.BuilderIDs
	shapes map[int]*Shape
	order  []int
	tabs   TabRequest
	stats  Stats
}

func NewBuilder(grid *Grid, ids *overlay.BuilderIDs) *Builder {
	return &Builder{
		grid:   grid,
		reg:    grid.Registry(),
		ids:    ids,
		shapes: make(map[int]*Shape),
	}
}

func (b *Builder) Grid() *Grid {
	return b.grid
}

func (b *Builder) Stats() Stats {
	return b.stats
}

// Shape returns the record of builderID or nil
func (b *Builder) Shape(builderID int) *Shape {
	return b.shapes[builderID]
}

// Shapes returns the records in drawing order
func (b *Builder) Shapes() []*Shape {
	out := make([]*Shape, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.shapes[id])
	}
	return out
}

// SetTabs sets the tab request attached to the shapes drawn afterwards
func (b *Builder) SetTabs(t TabRequest) {
	b.tabs = t
}

func (b *Builder) DrawCircle(flag overlay.Flag, x, y, radius int, fill gbt.FillMode, clockwise bool) int {
	return b.Draw(CircleShape(float64(x), float64(y), float64(radius), clockwise), flag, fill)
}

func (b *Builder) DrawLineOutline(flag overlay.Flag, x0, y0, x1, y1, width int, fill gbt.FillMode) int {
	return b.Draw(LineShape(float64(x0), float64(y0), float64(x1), float64(y1), float64(width)), flag, fill)
}

func (b *Builder) DrawPolygonOutline(flag overlay.Flag, x, y, sides, diameter int, rotation float64, fill gbt.FillMode) int {
	return b.Draw(PolygonShape(float64(x), float64(y), float64(diameter), sides, rotation), flag, fill)
}

func (b *Builder) DrawRectangle(flag overlay.Flag, x, y, w, h int, fill gbt.FillMode) int {
	return b.Draw(RectShape(float64(x), float64(y), float64(w), float64(h)), flag, fill)
}

// DrawCircleWithHole draws a filled ring. A hole that does not fit
// inside the circle draws nothing.
func (b *Builder) DrawCircleWithHole(flag overlay.Flag, x, y, radius, holeRadius int) (int, int) {
	outer := CircleShape(float64(x), float64(y), float64(radius), false)
	if holeRadius <= 0 {
		return b.Draw(outer, flag, gbt.FillBackground), 0
	}
	return b.DrawWithHole(outer, CircleShape(float64(x), float64(y), float64(holeRadius), false), flag)
}

// DrawWithHole draws outer filled, then hole filled with its own ID and
// subtracts it. The hole outline runs clockwise. Returns the outer and the
// hole IDs, both 0 when the hole is not strictly inside outer.
func (b *Builder) DrawWithHole(outer, hole *Shape, flag overlay.Flag) (int, int) {
	if outer == nil {
		b.stats.Degenerate++
		return 0, 0
	}
	if hole == nil {
		return b.Draw(outer, flag, gbt.FillBackground), 0
	}
	if !outer.Encloses(hole) {
		b.stats.Degenerate++
		return 0, 0
	}
	outerID := b.Draw(outer, flag, gbt.FillBackground)
	holeID := b.Draw(hole.Reverse(), flag, gbt.FillBackground)
	b.PunchHole(outerID, holeID)
	return outerID, holeID
}

// PunchHole removes the outer shape from under the hole, then the hole's
// own fill
func (b *Builder) PunchHole(outerID, holeID int) bool {
	hole := b.shapes[holeID]
	if hole == nil || b.shapes[outerID] == nil {
		return false
	}
	b.EraseIDFromRegionByID(outerID, holeID, hole.Bounds)
	b.EraseBackgroundOnlyByID(holeID, hole.Bounds)
	return true
}

// Draw registers s under a new builderID and rasterizes it.
// A nil shape is degenerate geometry and returns 0.
func (b *Builder) Draw(s *Shape, flag overlay.Flag, fill gbt.FillMode) int {
	if s == nil {
		b.stats.Degenerate++
		return 0
	}
	if !flag.IsEdge() {
		panic(fmt.Errorf("%w: %s is not an edge flag", overlay.ErrInvalidTag, flag))
	}
	id := b.ids.Next()
	s.ID, s.Flag, s.Fill = id, flag, fill
	s.Tabs = b.tabs
	b.shapes[id] = s
	b.order = append(b.order, id)
	b.stats.Shapes++
	b.render(s)
	return id
}

func (b *Builder) render(s *Shape) {
	edge := overlay.NewTag(s.ID, s.Flag)
	for _, e := range s.Edges {
		for _, p := range e.Points {
			b.markBoundary(p.X, p.Y, edge)
		}
	}
	if s.Fill == gbt.FillNone {
		return
	}
	bg := overlay.NewTag(s.ID, overlay.FlagBackground)
	area := s.Bounds.Intersect(b.grid.Bounds())
	for y := area.Y0; y <= area.Y1; y++ {
		for x := area.X0; x <= area.X1; x++ {
			if !s.interior(x, y) {
				continue
			}
			switch s.Fill {
			case gbt.FillBackground:
				b.grid.update(x, y, func(cur int) *overlay.Overlay {
					ov := b.reg.AddTag(cur, bg)
					if ov.InvertEdgeCount() > 0 {
						ov = b.reg.RemoveFlag(ov.ID(), overlay.FlagInvertEdge, s.ID)
					}
					return ov
				})
			case gbt.FillErase:
				b.grid.clear(x, y)
			}
		}
	}
}

// inverted edges only land on existing material
func (b *Builder) markBoundary(x, y int, edge overlay.Tag) {
	if edge.Flag() == overlay.FlagInvertEdge && b.grid.Overlay(x, y).BackgroundCount() == 0 {
		return
	}
	b.grid.addTag(x, y, edge)
}

// FillRegionByBoundary fills (or erases) every cell inside bounds enclosed by
// an odd number of the listed shapes. Boundary cells of the listed shapes and
// cells holding any tag of excludeID are left alone. Background fill is
// tagged with the first listed ID.
func (b *Builder) FillRegionByBoundary(builderIDs []int, excludeID int, bounds regions.Region, fill gbt.FillMode) {
	shapes := make([]*Shape, 0, len(builderIDs))
	span := regions.Nothing()
	for _, id := range builderIDs {
		if s := b.shapes[id]; s != nil {
			shapes = append(shapes, s)
			span = span.Union(s.Bounds)
		}
	}
	if len(shapes) == 0 || fill == gbt.FillNone {
		return
	}
	b.stats.Fills++
	bg := overlay.NewTag(shapes[0].ID, overlay.FlagBackground)
	area := bounds.Intersect(span).Intersect(b.grid.Bounds())
	for y := area.Y0; y <= area.Y1; y++ {
	cells:
		for x := area.X0; x <= area.X1; x++ {
			inside := 0
			for _, s := range shapes {
				if s.OnBoundary(x, y) {
					continue cells
				}
				if s.Contains(x, y) {
					inside++
				}
			}
			if inside%2 == 0 {
				continue
			}
			if excludeID != 0 && b.grid.Overlay(x, y).HasBuilderID(excludeID) {
				continue
			}
			switch fill {
			case gbt.FillBackground:
				b.grid.addTag(x, y, bg)
			case gbt.FillErase:
				b.grid.clear(x, y)
			}
		}
	}
}

// EraseRegionByID removes every tag of targetID inside bounds
func (b *Builder) EraseRegionByID(targetID int, bounds regions.Region) {
	b.stats.Erasures++
	b.grid.Walk(bounds, func(x, y int, ov *overlay.Overlay) {
		if ov.HasBuilderID(targetID) {
			b.grid.removeBuilderID(x, y, targetID)
		}
	})
}

// EraseIDFromRegionByID removes the tags of targetID from the cells inside
// bounds that hold any tag of regionID
func (b *Builder) EraseIDFromRegionByID(targetID, regionID int, bounds regions.Region) {
	b.stats.Erasures++
	b.grid.Walk(bounds, func(x, y int, ov *overlay.Overlay) {
		if ov.HasBuilderID(regionID) && ov.HasBuilderID(targetID) {
			b.grid.removeBuilderID(x, y, targetID)
		}
	})
}

// EraseBackgroundOnlyByID removes the background tags of builderID,
// its edge tags stay
func (b *Builder) EraseBackgroundOnlyByID(builderID int, bounds regions.Region) {
	b.stats.Erasures++
	bg := overlay.NewTag(builderID, overlay.FlagBackground)
	b.grid.Walk(bounds, func(x, y int, ov *overlay.Overlay) {
		if ov.Contains(bg) {
			b.grid.removeTag(x, y, bg)
		}
	})
}

// EraseListFromRegionByID removes the tags of every listed ID from the cells
// inside bounds covered by the background of regionID
func (b *Builder) EraseListFromRegionByID(targetIDs []int, regionID int, bounds regions.Region) {
	b.stats.Erasures++
	region := overlay.NewTag(regionID, overlay.FlagBackground)
	b.grid.Walk(bounds, func(x, y int, ov *overlay.Overlay) {
		if !ov.Contains(region) {
			return
		}
		for _, id := range targetIDs {
			if id != regionID && ov.HasBuilderID(id) {
				b.grid.removeBuilderID(x, y, id)
			}
		}
	})
}

// EraseTagIfNotOnIDsInList removes (builderID, flag) from the cells inside
// bounds that hold no tag of the listed IDs
func (b *Builder) EraseTagIfNotOnIDsInList(builderID int, flag overlay.Flag, keepOn []int, bounds regions.Region) {
	b.stats.Erasures++
	tag := overlay.NewTag(builderID, flag)
	b.grid.Walk(bounds, func(x, y int, ov *overlay.Overlay) {
		if ov.Contains(tag) && !ov.HasAnyOf(keepOn) {
			b.grid.removeTag(x, y, tag)
		}
	})
}
