package isoplot

import (
	"image"
	"math"

	"github.com/akavel/polyclip-go"
	"github.com/go-gl/mathgl/mgl64"

	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
	"github.com/VasiliyTurchenko/gerber2gcode/overlay"
	"github.com/VasiliyTurchenko/gerber2gcode/regions"
)

type ShapeKind int

const (
	ShapeCircle ShapeKind = iota + 1
	ShapeLineOutline
	ShapePolygon
	ShapeRectangle
	ShapeContour
)

func (sk ShapeKind) String() string {
	switch sk {
	case ShapeCircle:
		return "circle"
	case ShapeLineOutline:
		return "line outline"
	case ShapePolygon:
		return "polygon"
	case ShapeRectangle:
		return "rectangle"
	case ShapeContour:
		return "contour"
	default:
	}
	return "Unknown shape"
}

type EdgeKind int

const (
	EdgeLine EdgeKind = iota + 1
	EdgeArc
)

// Edge is one primitive of a shape outline with its cells in traversal order.
// Arc edges carry the center and the radius in grid units.
type Edge struct {
	Kind    EdgeKind
	Points  []image.Point
	CenterX float64
	CenterY float64
	Radius  float64
	Winding gbt.IPmode
}

func (e *Edge) Start() image.Point {
	return e.Points[0]
}

func (e *Edge) End() image.Point {
	return e.Points[len(e.Points)-1]
}

func (e *Edge) reverse() {
	for i, j := 0, len(e.Points)-1; i < j; i, j = i+1, j-1 {
		e.Points[i], e.Points[j] = e.Points[j], e.Points[i]
	}
	e.Winding = e.Winding.Reverse()
}

// TabRequest asks for support tabs on the straight edges of an edge-mill outline
type TabRequest struct {
	Count  int
	Length float64
}

// Shape is the record kept for every drawn object
type Shape struct {
	ID      int
	Kind    ShapeKind
	Flag    overlay.Flag
	Fill    gbt.FillMode
	Bounds  regions.Region
	Contour polyclip.Contour
	Edges   []Edge
	Tabs    TabRequest

	cx, cy, r float64
	convex    bool
	boundary  map[image.Point]struct{}
	rowMin    []int
	rowMax    []int
}

// CircleShape returns nil if the circle rasterizes to nothing
func CircleShape(x, y, radius float64, clockwise bool) *Shape {
	if radius < 0.5 {
		return nil
	}
	s := &Shape{Kind: ShapeCircle, cx: x, cy: y, r: radius, convex: true}
	sweep := math.Pi
	winding := gbt.IPModeCCwC
	if clockwise {
		sweep = -math.Pi
		winding = gbt.IPModeCwC
	}
	p0 := roundPt(x+radius, y)
	p1 := roundPt(x-radius, y)
	s.Edges = []Edge{
		{Kind: EdgeArc, Points: arcPoints(x, y, radius, 0, sweep, p0, p1), CenterX: x, CenterY: y, Radius: radius, Winding: winding},
		{Kind: EdgeArc, Points: arcPoints(x, y, radius, sweep, sweep, p1, p0), CenterX: x, CenterY: y, Radius: radius, Winding: winding},
	}
	n := int(math.Ceil(math.Pi * radius))
	n = min(max(n, 16), 360)
	for k := 0; k < n; k++ {
		a := 2 * math.Pi * float64(k) / float64(n)
		s.Contour.Add(polyclip.Point{X: x + radius*math.Cos(a), Y: y + radius*math.Sin(a)})
	}
	s.finish()
	return s
}

// LineShape is the stadium swept by a round tool of the given width along
// the segment. A zero length segment gives a circle.
func LineShape(x0, y0, x1, y1, width float64) *Shape {
	h := width / 2
	if h < 0.5 {
		return nil
	}
	p0 := mgl64.Vec2{x0, y0}
	p1 := mgl64.Vec2{x1, y1}
	d := p1.Sub(p0)
	if d.Len() < 0.5 {
		return CircleShape(x0, y0, h, false)
	}
	d = d.Normalize()
	n := mgl64.Vec2{-d.Y(), d.X()}.Mul(h)
	// counter-clockwise: right side forward, cap at p1, left side back, cap at p0
	a, b := p0.Sub(n), p1.Sub(n)
	c, e := p1.Add(n), p0.Add(n)
	pa, pb := roundPt(a.X(), a.Y()), roundPt(b.X(), b.Y())
	pc, pe := roundPt(c.X(), c.Y()), roundPt(e.X(), e.Y())
	dir := math.Atan2(d.Y(), d.X())

	s := &Shape{Kind: ShapeLineOutline, convex: true}
	s.Edges = []Edge{
		{Kind: EdgeLine, Points: bresenham(pa.X, pa.Y, pb.X, pb.Y)},
		{Kind: EdgeArc, Points: arcPoints(x1, y1, h, dir-math.Pi/2, math.Pi, pb, pc), CenterX: x1, CenterY: y1, Radius: h, Winding: gbt.IPModeCCwC},
		{Kind: EdgeLine, Points: bresenham(pc.X, pc.Y, pe.X, pe.Y)},
		{Kind: EdgeArc, Points: arcPoints(x0, y0, h, dir+math.Pi/2, math.Pi, pe, pa), CenterX: x0, CenterY: y0, Radius: h, Winding: gbt.IPModeCCwC},
	}
	const capSteps = 16
	for _, cp := range []struct {
		center mgl64.Vec2
		start  float64
	}{{p1, dir - math.Pi/2}, {p0, dir + math.Pi/2}} {
		for k := 0; k <= capSteps; k++ {
			ang := cp.start + math.Pi*float64(k)/capSteps
			s.Contour.Add(polyclip.Point{X: cp.center.X() + h*math.Cos(ang), Y: cp.center.Y() + h*math.Sin(ang)})
		}
	}
	s.finish()
	return s
}

// PolygonShape is a regular polygon inscribed in the circle of the given
// diameter, the first vertex at rotation degrees
func PolygonShape(x, y, diameter float64, sides int, rotation float64) *Shape {
	if sides < 3 || diameter < 1 {
		return nil
	}
	r := diameter / 2
	vertices := make([]polyclip.Point, sides)
	for k := range vertices {
		a := mgl64.DegToRad(rotation + 360*float64(k)/float64(sides))
		vertices[k] = polyclip.Point{X: x + r*math.Cos(a), Y: y + r*math.Sin(a)}
	}
	s := outlineShape(ShapePolygon, vertices)
	if s != nil {
		s.convex = true
	}
	return s
}

// RectShape is an axis aligned rectangle centered at (x,y)
func RectShape(x, y, w, h float64) *Shape {
	if w < 1 || h < 1 {
		return nil
	}
	x0, y0 := x-w/2, y-h/2
	x1, y1 := x+w/2, y+h/2
	s := outlineShape(ShapeRectangle, []polyclip.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}})
	if s != nil {
		s.convex = true
	}
	return s
}

// ContourShape is an arbitrary simple polygon, interior is decided
// by the contour itself
func ContourShape(vertices []polyclip.Point) *Shape {
	return outlineShape(ShapeContour, vertices)
}

func outlineShape(kind ShapeKind, vertices []polyclip.Point) *Shape {
	if len(vertices) > 1 && vertices[0] == vertices[len(vertices)-1] {
		vertices = vertices[:len(vertices)-1]
	}
	if len(vertices) < 3 {
		return nil
	}
	s := &Shape{Kind: kind, Contour: append(polyclip.Contour(nil), vertices...)}
	pts := make([]image.Point, len(vertices))
	for i, v := range vertices {
		pts[i] = roundPt(v.X, v.Y)
	}
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		if a == b {
			continue
		}
		s.Edges = append(s.Edges, Edge{Kind: EdgeLine, Points: bresenham(a.X, a.Y, b.X, b.Y)})
	}
	if len(s.Edges) < 3 {
		return nil
	}
	s.finish()
	return s
}

// finish computes the boundary cell set, the bounds and the row spans
func (s *Shape) finish() {
	s.boundary = make(map[image.Point]struct{})
	s.Bounds = regions.Nothing()
	for _, e := range s.Edges {
		for _, p := range e.Points {
			s.boundary[p] = struct{}{}
			s.Bounds = s.Bounds.Include(p.X, p.Y)
		}
	}
	if !s.convex {
		return
	}
	rows := s.Bounds.Height()
	s.rowMin = make([]int, rows)
	s.rowMax = make([]int, rows)
	for i := range s.rowMin {
		s.rowMin[i] = gbt.MaxInt
		s.rowMax[i] = gbt.MinInt
	}
	for p := range s.boundary {
		i := p.Y - s.Bounds.Y0
		s.rowMin[i] = min(s.rowMin[i], p.X)
		s.rowMax[i] = max(s.rowMax[i], p.X)
	}
}

// Reverse flips the traversal direction of the outline
func (s *Shape) Reverse() *Shape {
	for i, j := 0, len(s.Edges)-1; i < j; i, j = i+1, j-1 {
		s.Edges[i], s.Edges[j] = s.Edges[j], s.Edges[i]
	}
	for i := range s.Edges {
		s.Edges[i].reverse()
	}
	return s
}

func (s *Shape) OnBoundary(x, y int) bool {
	_, ok := s.boundary[image.Pt(x, y)]
	return ok
}

// Contains tells whether the cell belongs to the shape, boundary included
func (s *Shape) Contains(x, y int) bool {
	if !s.Bounds.Contains(x, y) {
		return false
	}
	if s.OnBoundary(x, y) {
		return true
	}
	if s.convex {
		i := y - s.Bounds.Y0
		return x >= s.rowMin[i] && x <= s.rowMax[i]
	}
	return s.Contour.Contains(polyclip.Point{X: float64(x), Y: float64(y)})
}

func (s *Shape) interior(x, y int) bool {
	return !s.OnBoundary(x, y) && s.Contains(x, y)
}

// Encloses tells whether hole lies strictly inside s
func (s *Shape) Encloses(hole *Shape) bool {
	if s == nil || hole == nil {
		return false
	}
	if s.Kind == ShapeCircle && hole.Kind == ShapeCircle {
		return math.Hypot(s.cx-hole.cx, s.cy-hole.cy)+hole.r < s.r
	}
	sb, hb := s.Contour.BoundingBox(), hole.Contour.BoundingBox()
	if hb.Min.X <= sb.Min.X || hb.Min.Y <= sb.Min.Y || hb.Max.X >= sb.Max.X || hb.Max.Y >= sb.Max.Y {
		return false
	}
	for _, v := range hole.Contour {
		if !s.Contour.Contains(v) {
			return false
		}
	}
	return true
}

// Center of the circle shapes, zero for others
func (s *Shape) Center() (x, y, r float64) {
	return s.cx, s.cy, s.r
}
