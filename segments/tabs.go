package segments

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Span is a piece of a line in grid units, in the emission direction.
// Gaps left for tabs are kept with Emit false.
type Span struct {
	X0, Y0 float64
	X1, Y1 float64
	Emit   bool
}

// AdjustedNumTabs returns the largest k <= requested with k*tabLength <= length/2
func AdjustedNumTabs(length, tabLength float64, requested int) int {
	if requested <= 0 || tabLength <= 0 {
		return 0
	}
	k := 0
	for k < requested && float64(k+1)*tabLength <= length/2 {
		k++
	}
	return k
}

// TabSpans splits the line into cut spans separated by tab gaps. The line is
// partitioned into adjustedNumTabs+1 equal parts, every inner partition point
// is the middle of a gap as wide as the tab plus the tool width.
func TabSpans(l *Line, toolWidth float64) []Span {
	sx, sy := l.Start()
	ex, ey := l.End()
	p0 := mgl64.Vec2{float64(sx), float64(sy)}
	p1 := mgl64.Vec2{float64(ex), float64(ey)}
	length := p1.Sub(p0).Len()
	k := AdjustedNumTabs(length, l.TabLength, l.NumTabs)
	if k == 0 {
		return []Span{{X0: p0.X(), Y0: p0.Y(), X1: p1.X(), Y1: p1.Y(), Emit: true}}
	}
	half := (l.TabLength/2 + toolWidth/2) / length
	// cut, gap, cut, ... cut
	ts := make([]float64, 0, 2*k+2)
	ts = append(ts, 0)
	for i := 1; i <= k; i++ {
		c := float64(i) / float64(k+1)
		ts = append(ts, c-half, c+half)
	}
	ts = append(ts, 1)
	for i := 1; i < len(ts); i++ {
		ts[i] = min(max(ts[i], ts[i-1]), 1)
	}
	lerp := func(t float64) mgl64.Vec2 {
		return p0.Mul(1 - t).Add(p1.Mul(t))
	}
	spans := make([]Span, 0, len(ts)-1)
	for i := 1; i < len(ts); i++ {
		a, b := lerp(ts[i-1]), lerp(ts[i])
		spans = append(spans, Span{X0: a.X(), Y0: a.Y(), X1: b.X(), Y1: b.Y(), Emit: i%2 == 1})
	}
	return spans
}
