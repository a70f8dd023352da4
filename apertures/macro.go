package apertures

import (
	"fmt"
	"math"

	"github.com/akavel/polyclip-go"
	"github.com/go-gl/mathgl/mgl64"

	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
	"github.com/VasiliyTurchenko/gerber2gcode/isoplot"
	"github.com/VasiliyTurchenko/gerber2gcode/overlay"
	"github.com/VasiliyTurchenko/gerber2gcode/regions"
)

type PrimitiveType int

// codes are the aperture macro primitive codes
const (
	PrimitiveCircle     PrimitiveType = 1
	PrimitiveOutline    PrimitiveType = 4
	PrimitivePolygon    PrimitiveType = 5
	PrimitiveThermal    PrimitiveType = 7
	PrimitiveVectorLine PrimitiveType = 20
	PrimitiveCenterLine PrimitiveType = 21
)

func (pt PrimitiveType) String() string {
	switch pt {
	case PrimitiveCircle:
		return "circle"
	case PrimitiveOutline:
		return "outline"
	case PrimitivePolygon:
		return "polygon"
	case PrimitiveThermal:
		return "thermal"
	case PrimitiveVectorLine:
		return "vector line"
	case PrimitiveCenterLine:
		return "center line"
	default:
	}
	return "unknown"
}

func ParsePrimitiveType(s string) (PrimitiveType, error) {
	switch s {
	case "circle", "1":
		return PrimitiveCircle, nil
	case "outline", "4":
		return PrimitiveOutline, nil
	case "polygon", "5":
		return PrimitivePolygon, nil
	case "thermal", "7":
		return PrimitiveThermal, nil
	case "vectorline", "vector line", "20":
		return PrimitiveVectorLine, nil
	case "centerline", "center line", "21":
		return PrimitiveCenterLine, nil
	}
	return 0, fmt.Errorf("%w: macro primitive %q", ErrBadAperture, s)
}

/*
Primitive is an evaluated macro primitive. Coordinates are grid units
relative to the flash point, Rotation is in degrees around the flash point.

	circle:      Diameter, X, Y
	vector line: Width, X, Y, X1, Y1
	center line: Width, Height, X, Y
	outline:     Points
	polygon:     Vertices, Diameter, X, Y
	thermal:     Diameter (outer), Inner, Gap, X, Y
*/
type Primitive struct {
	Type     PrimitiveType
	Exposure bool
	Diameter float64
	Inner    float64
	Gap      float64
	Width    float64
	Height   float64
	X, Y     float64
	X1, Y1   float64
	Vertices int
	Points   []polyclip.Point
	Rotation float64
}

func (p *Primitive) String() string {
	exp := "off"
	if p.Exposure {
		exp = "on"
	}
	return fmt.Sprintf("Aperture macro primitive: %s exposure %s at (%g,%g) rot %g", p.Type, exp, p.X, p.Y, p.Rotation)
}

type Macro struct {
	Name       string
	Primitives []Primitive
}

func (m *Macro) Validate() error {
	if len(m.Primitives) == 0 {
		return fmt.Errorf("%w: macro %s has no primitives", ErrBadAperture, m.Name)
	}
	for i := range m.Primitives {
		p := &m.Primitives[i]
		switch p.Type {
		case PrimitiveCircle, PrimitivePolygon, PrimitiveThermal, PrimitiveVectorLine, PrimitiveCenterLine:
		case PrimitiveOutline:
			if len(p.Points) < 3 {
				return fmt.Errorf("%w: macro %s primitive %d: outline needs 3 points", ErrBadAperture, m.Name, i)
			}
		default:
			return fmt.Errorf("%w: macro %s primitive %d: type %d", ErrBadAperture, m.Name, i, p.Type)
		}
	}
	return nil
}

// rotated turns (x,y) around the macro origin and moves it to the flash point
func rotated(x, y, deg float64, at mgl64.Vec2) polyclip.Point {
	v := mgl64.Rotate2D(mgl64.DegToRad(deg)).Mul2x1(mgl64.Vec2{x, y}).Add(at)
	return polyclip.Point{X: v.X(), Y: v.Y()}
}

// box is a rotated rectangle given by its corner offsets
func box(x0, y0, x1, y1, deg float64, at mgl64.Vec2) *isoplot.Shape {
	if math.Abs(x1-x0) < 1 || math.Abs(y1-y0) < 1 {
		return nil
	}
	if deg == 0 {
		c0, c1 := rotated(x0, y0, 0, at), rotated(x1, y1, 0, at)
		return isoplot.RectShape((c0.X+c1.X)/2, (c0.Y+c1.Y)/2, math.Abs(x1-x0), math.Abs(y1-y0))
	}
	return isoplot.ContourShape([]polyclip.Point{
		rotated(x0, y0, deg, at), rotated(x1, y0, deg, at),
		rotated(x1, y1, deg, at), rotated(x0, y1, deg, at),
	})
}

// shapes returns the outlines of one primitive; for a thermal the first
// one is the ring and the rest are the gaps
func (p *Primitive) shapes(at mgl64.Vec2) (solid []*isoplot.Shape, hole *isoplot.Shape, gaps []*isoplot.Shape) {
	c := rotated(p.X, p.Y, p.Rotation, at)
	switch p.Type {
	case PrimitiveCircle:
		return []*isoplot.Shape{isoplot.CircleShape(c.X, c.Y, p.Diameter/2, false)}, nil, nil
	case PrimitivePolygon:
		return []*isoplot.Shape{isoplot.PolygonShape(c.X, c.Y, p.Diameter, p.Vertices, p.Rotation)}, nil, nil
	case PrimitiveCenterLine:
		return []*isoplot.Shape{box(p.X-p.Width/2, p.Y-p.Height/2, p.X+p.Width/2, p.Y+p.Height/2, p.Rotation, at)}, nil, nil
	case PrimitiveVectorLine:
		// square ends: a box along the line
		d := mgl64.Vec2{p.X1 - p.X, p.Y1 - p.Y}
		if d.Len() < 0.5 || p.Width < 1 {
			return []*isoplot.Shape{nil}, nil, nil
		}
		n := mgl64.Vec2{-d.Y(), d.X()}.Normalize().Mul(p.Width / 2)
		pts := []polyclip.Point{
			rotated(p.X-n.X(), p.Y-n.Y(), p.Rotation, at), rotated(p.X1-n.X(), p.Y1-n.Y(), p.Rotation, at),
			rotated(p.X1+n.X(), p.Y1+n.Y(), p.Rotation, at), rotated(p.X+n.X(), p.Y+n.Y(), p.Rotation, at),
		}
		return []*isoplot.Shape{isoplot.ContourShape(pts)}, nil, nil
	case PrimitiveOutline:
		pts := make([]polyclip.Point, len(p.Points))
		for i, v := range p.Points {
			pts[i] = rotated(v.X, v.Y, p.Rotation, at)
		}
		return []*isoplot.Shape{isoplot.ContourShape(pts)}, nil, nil
	case PrimitiveThermal:
		ring := isoplot.CircleShape(c.X, c.Y, p.Diameter/2, false)
		inner := isoplot.CircleShape(c.X, c.Y, p.Inner/2, false)
		r, g := p.Diameter/2+1, p.Gap/2
		gaps = []*isoplot.Shape{
			box(p.X-r, p.Y-g, p.X+r, p.Y+g, p.Rotation, at),
			box(p.X-g, p.Y-r, p.X+g, p.Y+r, p.Rotation, at),
		}
		return []*isoplot.Shape{ring}, inner, gaps
	}
	return nil, nil, nil
}

// Flash renders the primitives in order. Exposure-off primitives cut only
// the material of the same flash.
func (m *Macro) Flash(b *isoplot.Builder, x, y int, polarity gbt.PolType) []int {
	at := mgl64.Vec2{float64(x), float64(y)}
	var drawn []int
	for i := range m.Primitives {
		p := &m.Primitives[i]
		solid, hole, gaps := p.shapes(at)
		for _, s := range solid {
			switch {
			case polarity == gbt.PolTypeClear:
				// negative macro: exposed parts clear the copper below, the rest is skipped
				if p.Exposure {
					drawn = append(drawn, ids(b.Draw(s, overlay.FlagInvertEdge, gbt.FillErase))...)
				}
			case p.Exposure && hole != nil:
				drawn = append(drawn, ids(b.DrawWithHole(s, hole, overlay.FlagNormalEdge))...)
			case p.Exposure:
				drawn = append(drawn, ids(b.Draw(s, overlay.FlagNormalEdge, gbt.FillBackground))...)
			default:
				drawn = cut(b, s, drawn)
			}
		}
		if polarity != gbt.PolTypeClear && p.Exposure {
			for _, g := range gaps {
				drawn = cut(b, g, drawn)
			}
		}
	}
	return drawn
}

// cut removes the material of the listed shapes under s. The outline of s
// remains only where it crosses that material.
func cut(b *isoplot.Builder, s *isoplot.Shape, material []int) []int {
	id := b.Draw(s, overlay.FlagInvertEdge, gbt.FillNone)
	if id == 0 || len(material) == 0 {
		return material
	}
	bounds := s.Bounds
	b.FillRegionByBoundary([]int{id}, 0, bounds, gbt.FillBackground)
	b.EraseListFromRegionByID(material, id, bounds)
	b.EraseTagIfNotOnIDsInList(id, overlay.FlagInvertEdge, material, bounds)
	b.EraseBackgroundOnlyByID(id, bounds)
	return append(material, id)
}

// Bounds of the flashed area, empty when nothing was drawn
func Bounds(b *isoplot.Builder, drawn []int) regions.Region {
	r := regions.Nothing()
	for _, id := range drawn {
		if s := b.Shape(id); s != nil {
			r = r.Union(s.Bounds)
		}
	}
	return r
}
