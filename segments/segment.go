// Package segments traces the live edge cells of the isoplot grid into
// directed Line and Arc segments and links them into toolpaths.
package segments

import (
	"fmt"
	"math"

	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
)

// Segment is either *Line or *Arc
type Segment interface {
	Common() *Base
	sealed()
}

// Base holds the endpoints in grid units and the chaining state
type Base struct {
	BuilderID int
	DebugID   int
	X0, Y0    int
	X1, Y1    int

	// PointIsChainTarget[0] is set when another segment is attached at
	// (X0,Y0), [1] for (X1,Y1)
	PointIsChainTarget  [2]bool
	ReverseOnConversion bool
	ChainedStartX       int
	ChainedStartY       int
	IsDuplicate         bool
	ChainedViaDistance  bool

	dupOf Segment
}

func (b *Base) Common() *Base {
	return b
}

// Start is the point the tool enters the segment at
func (b *Base) Start() (int, int) {
	if b.ReverseOnConversion {
		return b.X1, b.Y1
	}
	return b.X0, b.Y0
}

// End is the point the tool leaves the segment at
func (b *Base) End() (int, int) {
	if b.ReverseOnConversion {
		return b.X0, b.Y0
	}
	return b.X1, b.Y1
}

func (b *Base) point(i int) (int, int) {
	if i == 0 {
		return b.X0, b.Y0
	}
	return b.X1, b.Y1
}

// Length is the chord length
func (b *Base) Length() float64 {
	return math.Hypot(float64(b.X1-b.X0), float64(b.Y1-b.Y0))
}

type Line struct {
	Base
	NumTabs   int
	TabLength float64
}

func (*Line) sealed() {}

func (l *Line) String() string {
	return fmt.Sprintf("Line #%d [%d] (%d,%d)->(%d,%d)", l.DebugID, l.BuilderID, l.X0, l.Y0, l.X1, l.Y1)
}

// Arc runs around (CenterX,CenterY) in the Winding direction when not reversed
type Arc struct {
	Base
	CenterX float64
	CenterY float64
	Radius  float64
	Winding gbt.IPmode
}

func (*Arc) sealed() {}

func (a *Arc) String() string {
	return fmt.Sprintf("Arc #%d [%d] (%d,%d)->(%d,%d) c(%.2f,%.2f) r=%.2f %s",
		a.DebugID, a.BuilderID, a.X0, a.Y0, a.X1, a.Y1, a.CenterX, a.CenterY, a.Radius, a.Winding)
}

// Direction is the winding in the emission direction
func (a *Arc) Direction() gbt.IPmode {
	if a.ReverseOnConversion {
		return a.Winding.Reverse()
	}
	return a.Winding
}

const sameTolerance = 1e-9

// same tells whether two segments trace the same geometry, in either direction
func same(a, b Segment) bool {
	ba, bb := a.Common(), b.Common()
	forward := ba.X0 == bb.X0 && ba.Y0 == bb.Y0 && ba.X1 == bb.X1 && ba.Y1 == bb.Y1
	backward := ba.X0 == bb.X1 && ba.Y0 == bb.Y1 && ba.X1 == bb.X0 && ba.Y1 == bb.Y0
	if !forward && !backward {
		return false
	}
	switch sa := a.(type) {
	case *Line:
		_, ok := b.(*Line)
		return ok
	case *Arc:
		sb, ok := b.(*Arc)
		if !ok {
			return false
		}
		if math.Abs(sa.CenterX-sb.CenterX) > sameTolerance ||
			math.Abs(sa.CenterY-sb.CenterY) > sameTolerance ||
			math.Abs(sa.Radius-sb.Radius) > sameTolerance {
			return false
		}
		// same endpoints, same circle: the arcs coincide when they turn the same way
		if forward {
			return sa.Winding == sb.Winding
		}
		return sa.Winding == sb.Winding.Reverse()
	}
	return false
}

// MarkDuplicates flags every segment tracing the same geometry as an earlier
// one and returns how many were flagged
func MarkDuplicates(segs []Segment) int {
	type key struct{ x0, y0, x1, y1 int }
	norm := func(b *Base) key {
		if b.X0 < b.X1 || (b.X0 == b.X1 && b.Y0 <= b.Y1) {
			return key{b.X0, b.Y0, b.X1, b.Y1}
		}
		return key{b.X1, b.Y1, b.X0, b.Y0}
	}
	seen := make(map[key][]Segment)
	n := 0
	for _, s := range segs {
		k := norm(s.Common())
		for _, prev := range seen[k] {
			if same(prev, s) {
				s.Common().IsDuplicate = true
				s.Common().dupOf = prev
				n++
				break
			}
		}
		if !s.Common().IsDuplicate {
			seen[k] = append(seen[k], s)
		}
	}
	return n
}
