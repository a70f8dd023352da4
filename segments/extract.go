package segments

import (
	"image"

	"github.com/VasiliyTurchenko/gerber2gcode/isoplot"
)

// tracer accumulates consecutive live cells of one edge primitive
type tracer struct {
	shape   *isoplot.Shape
	edge    *isoplot.Edge
	nextID  *int
	first   image.Point
	last    image.Point
	count   int
	emitted []Segment
}

// addPoint extends the running segment, the first point becomes its start
func (t *tracer) addPoint(p image.Point) {
	if t.count == 0 {
		t.first = p
	}
	t.last = p
	t.count++
}

// flush closes the running segment. A single cell makes no segment.
func (t *tracer) flush() {
	defer func() { t.count = 0 }()
	if t.count < 2 || t.first == t.last {
		return
	}
	*t.nextID++
	base := Base{
		BuilderID: t.shape.ID,
		DebugID:   *t.nextID,
		X0:        t.first.X,
		Y0:        t.first.Y,
		X1:        t.last.X,
		Y1:        t.last.Y,
	}
	base.ChainedStartX, base.ChainedStartY = base.X0, base.Y0
	switch t.edge.Kind {
	case isoplot.EdgeArc:
		t.emitted = append(t.emitted, &Arc{
			Base:    base,
			CenterX: t.edge.CenterX,
			CenterY: t.edge.CenterY,
			Radius:  t.edge.Radius,
			Winding: t.edge.Winding,
		})
	default:
		t.emitted = append(t.emitted, &Line{
			Base:      base,
			NumTabs:   t.shape.Tabs.Count,
			TabLength: t.shape.Tabs.Length,
		})
	}
}

// Extract walks the edge primitives of every drawn shape in drawing order and
// turns each run of live edge cells into a segment
func Extract(b *isoplot.Builder) []Segment {
	grid := b.Grid()
	var out []Segment
	nextID := 0
	for _, s := range b.Shapes() {
		for i := range s.Edges {
			t := tracer{shape: s, edge: &s.Edges[i], nextID: &nextID, emitted: out}
			for _, p := range s.Edges[i].Points {
				if isoplot.IsLiveEdge(grid.Overlay(p.X, p.Y), s.ID) {
					t.addPoint(p)
					continue
				}
				t.flush()
			}
			t.flush()
			out = t.emitted
		}
	}
	return out
}
