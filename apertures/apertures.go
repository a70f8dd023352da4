// Apertures support: flashing standard and macro apertures onto the isoplot
package apertures

import (
	"errors"
	"fmt"

	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
	"github.com/VasiliyTurchenko/gerber2gcode/isoplot"
	"github.com/VasiliyTurchenko/gerber2gcode/overlay"
)

var ErrBadAperture = errors.New("bad aperture")

// Aperture sizes are in grid units
type Aperture struct {
	Code         int
	Type         gbt.GerberApType
	XSize        float64
	YSize        float64
	Diameter     float64
	HoleDiameter float64
	Vertices     int
	RotAngle     float64
	Macro        *Macro
}

func (apert *Aperture) String() string {
	switch apert.Type {
	case gbt.AptypeCircle:
		return fmt.Sprintf("D%d %s d=%g hole=%g", apert.Code, apert.Type, apert.Diameter, apert.HoleDiameter)
	case gbt.AptypeRectangle, gbt.AptypeObround:
		return fmt.Sprintf("D%d %s %gx%g hole=%g", apert.Code, apert.Type, apert.XSize, apert.YSize, apert.HoleDiameter)
	case gbt.AptypePoly:
		return fmt.Sprintf("D%d %s d=%g n=%d rot=%g hole=%g", apert.Code, apert.Type, apert.Diameter, apert.Vertices, apert.RotAngle, apert.HoleDiameter)
	case gbt.AptypeMacro:
		name := ""
		if apert.Macro != nil {
			name = apert.Macro.Name
		}
		return fmt.Sprintf("D%d %s %s", apert.Code, apert.Type, name)
	default:
	}
	return fmt.Sprintf("D%d %s", apert.Code, apert.Type)
}

// Validate checks the parameters required by the aperture type
func (apert *Aperture) Validate() error {
	switch apert.Type {
	case gbt.AptypeCircle:
		if apert.Diameter <= 0 {
			return fmt.Errorf("%w: D%d circle needs a diameter", ErrBadAperture, apert.Code)
		}
	case gbt.AptypeRectangle, gbt.AptypeObround:
		if apert.XSize <= 0 || apert.YSize <= 0 {
			return fmt.Errorf("%w: D%d %s needs both sizes", ErrBadAperture, apert.Code, apert.Type)
		}
	case gbt.AptypePoly:
		if apert.Diameter <= 0 || apert.Vertices < 3 || apert.Vertices > 12 {
			return fmt.Errorf("%w: D%d polygon needs a diameter and 3..12 vertices", ErrBadAperture, apert.Code)
		}
	case gbt.AptypeMacro:
		if apert.Macro == nil {
			return fmt.Errorf("%w: D%d macro has no primitives", ErrBadAperture, apert.Code)
		}
		return apert.Macro.Validate()
	default:
		return fmt.Errorf("%w: D%d unknown type", ErrBadAperture, apert.Code)
	}
	if apert.HoleDiameter < 0 {
		return fmt.Errorf("%w: D%d negative hole", ErrBadAperture, apert.Code)
	}
	return nil
}

// shape builds the outline of a standard aperture centered at x,y
func (apert *Aperture) shape(x, y float64) *isoplot.Shape {
	switch apert.Type {
	case gbt.AptypeCircle:
		return isoplot.CircleShape(x, y, apert.Diameter/2, false)
	case gbt.AptypeRectangle:
		return isoplot.RectShape(x, y, apert.XSize, apert.YSize)
	case gbt.AptypeObround:
		return Obround(x, y, apert.XSize, apert.YSize)
	case gbt.AptypePoly:
		return isoplot.PolygonShape(x, y, apert.Diameter, apert.Vertices, apert.RotAngle)
	}
	return nil
}

// Obround is a stadium with the round ends on the longer side
func Obround(x, y, w, h float64) *isoplot.Shape {
	switch {
	case w > h:
		d := (w - h) / 2
		return isoplot.LineShape(x-d, y, x+d, y, h)
	case h > w:
		d := (h - w) / 2
		return isoplot.LineShape(x, y-d, x, y+d, w)
	}
	return isoplot.CircleShape(x, y, w/2, false)
}

// Flash stamps the aperture at x,y and returns the builder IDs drawn.
// Dark flashes add copper, clear flashes remove it where it exists.
func (apert *Aperture) Flash(b *isoplot.Builder, x, y int, polarity gbt.PolType) []int {
	if apert.Type == gbt.AptypeMacro {
		return apert.Macro.Flash(b, x, y, polarity)
	}
	fx, fy := float64(x), float64(y)
	outer := apert.shape(fx, fy)
	var hole *isoplot.Shape
	if apert.HoleDiameter > 0 {
		hole = isoplot.CircleShape(fx, fy, apert.HoleDiameter/2, false)
	}

	if polarity != gbt.PolTypeClear {
		if hole == nil {
			return ids(b.Draw(outer, overlay.FlagNormalEdge, gbt.FillBackground))
		}
		return ids(b.DrawWithHole(outer, hole, overlay.FlagNormalEdge))
	}

	if hole == nil {
		return ids(b.Draw(outer, overlay.FlagInvertEdge, gbt.FillErase))
	}
	// clear ring: both outlines on the existing copper, then the annulus erased
	if outer == nil || !outer.Encloses(hole) {
		b.Draw(nil, overlay.FlagInvertEdge, gbt.FillNone)
		return nil
	}
	outerID := b.Draw(outer, overlay.FlagInvertEdge, gbt.FillNone)
	holeID := b.Draw(hole.Reverse(), overlay.FlagInvertEdge, gbt.FillNone)
	b.FillRegionByBoundary([]int{outerID, holeID}, 0, outer.Bounds, gbt.FillErase)
	return ids(outerID, holeID)
}

// ids drops the zero IDs of degenerate draws
func ids(in ...int) []int {
	out := make([]int, 0, len(in))
	for _, id := range in {
		if id != 0 {
			out = append(out, id)
		}
	}
	return out
}
