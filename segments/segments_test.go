package segments

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
	"github.com/VasiliyTurchenko/gerber2gcode/isoplot"
	"github.com/VasiliyTurchenko/gerber2gcode/overlay"
)

func newBuilder(w, h int) *isoplot.Builder {
	return isoplot.NewBuilder(isoplot.NewGrid(w, h, overlay.NewRegistry()), overlay.NewBuilderIDs())
}

func line(id, x0, y0, x1, y1 int) *Line {
	return &Line{Base: Base{BuilderID: 1, DebugID: id, X0: x0, Y0: y0, X1: x1, Y1: y1}}
}

// polyline through pts, shuffled and with random segments flipped
func polyline(t *testing.T, rnd *rand.Rand, pts [][2]int) []Segment {
	t.Helper()
	segs := make([]Segment, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		if rnd.Intn(2) == 0 {
			a, b = b, a
		}
		segs = append(segs, line(i, a[0], a[1], b[0], b[1]))
	}
	rnd.Shuffle(len(segs), func(i, j int) { segs[i], segs[j] = segs[j], segs[i] })
	return segs
}

func requireContinuous(t *testing.T, p *Path) {
	t.Helper()
	for i := 1; i < len(p.Segments); i++ {
		ex, ey := p.Segments[i-1].Common().End()
		sx, sy := p.Segments[i].Common().Start()
		require.Equal(t, [2]int{ex, ey}, [2]int{sx, sy}, "break between %d and %d", i-1, i)
	}
}

func TestChain_OpenPolyline(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	pts := [][2]int{{0, 0}, {10, 0}, {10, 10}, {20, 10}, {20, 30}, {5, 30}, {5, 50}}
	for round := 0; round < 20; round++ {
		segs := polyline(t, rnd, pts)
		paths, diag := Chain(nil, segs, DefaultOptions())
		require.Len(t, paths, 1)
		p := paths[0]
		require.Len(t, p.Segments, len(pts)-1)
		require.False(t, p.Closed)
		requireContinuous(t, p)
		assert.Zero(t, diag.DistanceChained)
		assert.Zero(t, diag.Unchained)
		for _, s := range p.Segments {
			assert.False(t, s.Common().ChainedViaDistance)
		}
		// interior junctions are chain targets on both sides
		for i := 1; i < len(p.Segments); i++ {
			prev, next := p.Segments[i-1].Common(), p.Segments[i].Common()
			assert.True(t, prev.PointIsChainTarget[exitIndex(prev)])
			assert.True(t, next.PointIsChainTarget[1-exitIndex(next)])
		}
	}
}

func TestChain_ClosedPolyline(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	pts := [][2]int{{0, 0}, {40, 0}, {40, 25}, {0, 25}, {0, 0}}
	for round := 0; round < 20; round++ {
		paths, diag := Chain(nil, polyline(t, rnd, pts), DefaultOptions())
		require.Len(t, paths, 1)
		require.Len(t, paths[0].Segments, 4)
		assert.True(t, paths[0].Closed)
		requireContinuous(t, paths[0])
		assert.Equal(t, 1, diag.ClosedPaths)
		assert.Zero(t, diag.DistanceChained)
		// the loop closes, so every segment is chained at both ends
		for i, s := range paths[0].Segments {
			assert.Equal(t, [2]bool{true, true}, s.Common().PointIsChainTarget, "segment %d", i)
		}
	}
}

func TestChain_DistanceTolerance(t *testing.T) {
	cases := []struct {
		gap     int
		maxDist float64
		paths   int
	}{
		{gap: 2, maxDist: 3, paths: 1},
		{gap: 3, maxDist: 3, paths: 1},
		{gap: 4, maxDist: 3, paths: 2},
		{gap: 4, maxDist: 5, paths: 1},
		{gap: 1, maxDist: 0, paths: 2},
	}
	for _, c := range cases {
		a := line(1, 0, 0, 10, 0)
		b := line(2, 10+c.gap, 0, 30, 0)
		paths, diag := Chain(nil, []Segment{a, b}, Options{MaxDistance: c.maxDist})
		require.Len(t, paths, c.paths, "gap %d max %v", c.gap, c.maxDist)
		if c.paths == 1 {
			assert.Equal(t, 1, diag.DistanceChained)
			assert.True(t, b.ChainedViaDistance)
			assert.False(t, a.ChainedViaDistance)
		} else {
			assert.Equal(t, 2, diag.Unchained)
			assert.Zero(t, diag.DistanceChained)
		}
	}
}

func TestChain_NearestCandidateWins(t *testing.T) {
	a := line(1, 0, 0, 10, 0)
	far := line(2, 13, 0, 20, 0)
	near := line(3, 12, 1, 20, 5)
	paths, _ := Chain(nil, []Segment{a, far, near}, DefaultOptions())
	require.Len(t, paths, 2)
	assert.Same(t, near, paths[0].Segments[1])
}

func TestChain_NeighbourOnSameOverlay(t *testing.T) {
	b := newBuilder(100, 100)
	id := b.DrawRectangle(overlay.FlagNormalEdge, 50, 50, 40, 20, gbt.FillBackground)
	require.Equal(t, 1, id)
	first := line(1, 30, 40, 45, 40)
	second := line(2, 46, 40, 70, 40)

	paths, diag := Chain(b.Grid(), []Segment{first, second}, DefaultOptions())
	require.Len(t, paths, 1)
	assert.Zero(t, diag.DistanceChained)

	first = line(1, 30, 40, 45, 40)
	second = line(2, 46, 40, 70, 40)
	_, diag = Chain(nil, []Segment{first, second}, DefaultOptions())
	assert.Equal(t, 1, diag.DistanceChained)
}

func TestChain_SeparateBuilders(t *testing.T) {
	a := line(1, 0, 0, 10, 0)
	b := line(2, 10, 0, 20, 0)
	b.BuilderID = 2
	paths, diag := Chain(nil, []Segment{a, b}, DefaultOptions())
	require.Len(t, paths, 2)
	assert.Equal(t, 1, paths[0].BuilderID)
	assert.Equal(t, 2, paths[1].BuilderID)
	assert.Equal(t, 2, diag.Unchained)
}

func TestAdjustedNumTabs_Bound(t *testing.T) {
	for _, L := range []float64{0, 1, 7.5, 10, 33, 100, 1000} {
		for _, T := range []float64{0.1, 0.5, 1, 2.5, 10} {
			for N := 0; N <= 12; N++ {
				got := AdjustedNumTabs(L, T, N)
				want := 0
				for k := 0; k <= N; k++ {
					if float64(k)*T <= L/2 {
						want = k
					}
				}
				require.Equal(t, want, got, "L=%v T=%v N=%d", L, T, N)
			}
		}
	}
}

func TestTabSpans_Reconstruct(t *testing.T) {
	cases := []*Line{
		{Base: Base{X0: 0, Y0: 0, X1: 300, Y1: 0}, NumTabs: 2, TabLength: 20},
		{Base: Base{X0: 10, Y0: -5, X1: 200, Y1: 177}, NumTabs: 4, TabLength: 15},
		{Base: Base{X0: 0, Y0: 0, X1: 60, Y1: 0}, NumTabs: 8, TabLength: 10},
		{Base: Base{X0: 50, Y0: 50, X1: 0, Y1: 0, ReverseOnConversion: true}, NumTabs: 1, TabLength: 5},
		{Base: Base{X0: 0, Y0: 0, X1: 100, Y1: 0}, NumTabs: 3, TabLength: 0},
	}
	for _, l := range cases {
		spans := TabSpans(l, 4)
		sx, sy := l.Start()
		ex, ey := l.End()
		require.Equal(t, float64(sx), spans[0].X0)
		require.Equal(t, float64(sy), spans[0].Y0)
		require.Equal(t, float64(ex), spans[len(spans)-1].X1)
		require.Equal(t, float64(ey), spans[len(spans)-1].Y1)
		k := AdjustedNumTabs(l.Length(), l.TabLength, l.NumTabs)
		require.Len(t, spans, 2*k+1)
		gaps := 0
		for i, s := range spans {
			if i > 0 {
				require.Equal(t, spans[i-1].X1, s.X0)
				require.Equal(t, spans[i-1].Y1, s.Y0)
			}
			if !s.Emit {
				gaps++
				require.InDelta(t, l.TabLength+4, math.Hypot(s.X1-s.X0, s.Y1-s.Y0), 1e-9)
			}
		}
		assert.Equal(t, k, gaps)
	}
}

func TestExtract_Circle(t *testing.T) {
	// 0.02 units at 10000 points per unit
	const cx, cy, d = 1000, 1000, 200
	b := newBuilder(1201, 1201)
	id := b.DrawCircle(overlay.FlagNormalEdge, cx, cy, d/2, gbt.FillBackground, false)
	require.NotZero(t, id)

	segs := Extract(b)
	require.Len(t, segs, 2)
	paths, diag := Chain(b.Grid(), segs, DefaultOptions())
	require.Len(t, paths, 1)
	require.True(t, paths[0].Closed)
	assert.Zero(t, diag.DistanceChained)

	for _, s := range paths[0].Segments {
		arc, ok := s.(*Arc)
		require.True(t, ok)
		assert.Equal(t, id, arc.BuilderID)
	}

	// extents of the traced edge cells
	shape := b.Shape(id)
	require.NotNil(t, shape)
	minX, maxX, minY, maxY := math.MaxInt, math.MinInt, math.MaxInt, math.MinInt
	cells := 0
	for _, e := range shape.Edges {
		for _, p := range e.Points {
			minX, maxX = min(minX, p.X), max(maxX, p.X)
			minY, maxY = min(minY, p.Y), max(maxY, p.Y)
			cells++
		}
	}
	require.NotZero(t, cells)
	assert.InDelta(t, d, maxX-minX, 1)
	assert.InDelta(t, d, maxY-minY, 1)
}

func TestExtract_OverlapSplitsEdges(t *testing.T) {
	b := newBuilder(100, 100)
	a := b.DrawCircle(overlay.FlagNormalEdge, 40, 50, 15, gbt.FillBackground, false)
	c := b.DrawCircle(overlay.FlagNormalEdge, 60, 50, 15, gbt.FillBackground, false)
	segs := Extract(b)
	require.GreaterOrEqual(t, len(segs), 4)
	paths, _ := Chain(b.Grid(), segs, DefaultOptions())
	require.Len(t, paths, 2)
	assert.Equal(t, a, paths[0].BuilderID)
	assert.Equal(t, c, paths[1].BuilderID)
	for _, p := range paths {
		assert.False(t, p.Closed)
		for _, s := range p.Segments {
			x0, _ := s.Common().Start()
			x1, _ := s.Common().End()
			// nothing of the outline survives inside the other circle
			if p.BuilderID == a {
				assert.LessOrEqual(t, max(x0, x1), 51)
			} else {
				assert.GreaterOrEqual(t, min(x0, x1), 49)
			}
		}
	}
}

func TestExtract_Tabs(t *testing.T) {
	b := newBuilder(200, 200)
	b.SetTabs(isoplot.TabRequest{Count: 2, Length: 10})
	b.DrawRectangle(overlay.FlagContourEdge, 100, 100, 120, 80, gbt.FillNone)
	segs := Extract(b)
	require.Len(t, segs, 4)
	for _, s := range segs {
		l, ok := s.(*Line)
		require.True(t, ok)
		assert.Equal(t, 2, l.NumTabs)
		assert.Equal(t, 10.0, l.TabLength)
	}
}

func TestMarkDuplicates(t *testing.T) {
	b := newBuilder(100, 100)
	b.DrawCircle(overlay.FlagNormalEdge, 50, 50, 20, gbt.FillBackground, false)
	b.DrawCircle(overlay.FlagNormalEdge, 50, 50, 20, gbt.FillBackground, false)
	segs := Extract(b)
	require.Len(t, segs, 4)
	assert.Equal(t, 2, MarkDuplicates(segs))
	assert.False(t, segs[0].Common().IsDuplicate)
	assert.True(t, segs[3].Common().IsDuplicate)

	paths, diag := Chain(b.Grid(), segs, DefaultOptions())
	require.Len(t, paths, 1)
	assert.Len(t, paths[0].Segments, 4)
	assert.Equal(t, 2, paths[0].Emitted())
	assert.Equal(t, 2, diag.Duplicates)
	assert.True(t, paths[0].Closed)
}

func TestSame_ArcDirection(t *testing.T) {
	a := &Arc{Base: Base{X0: 10, Y0: 0, X1: -10, Y1: 0}, Radius: 10, Winding: gbt.IPModeCCwC}
	upper := &Arc{Base: Base{X0: -10, Y0: 0, X1: 10, Y1: 0}, Radius: 10, Winding: gbt.IPModeCwC}
	lower := &Arc{Base: Base{X0: -10, Y0: 0, X1: 10, Y1: 0}, Radius: 10, Winding: gbt.IPModeCCwC}
	assert.True(t, same(a, upper))
	assert.False(t, same(a, lower))
	assert.False(t, same(a, line(1, 10, 0, -10, 0)))
}
