package isoplot

import (
	"image"
	"math"
)

// bresenham returns the cells of the line from (x1,y1) to (x2,y2) in the
// drawing order
func bresenham(x1, y1, x2, y2 int) []image.Point {
	var dx, dy, e, slope int
	pts := make([]image.Point, 0, max(abs(x2-x1), abs(y2-y1))+1)
	setPoint := func(x, y int) {
		p := image.Pt(x, y)
		if n := len(pts); n > 0 && pts[n-1] == p {
			return
		}
		pts = append(pts, p)
	}
	// drawing p1 -> p2 is the same set of cells as p2 -> p1,
	// so points are sorted in x-axis order and the result reversed back
	swapped := false
	if x1 > x2 {
		x1, y1, x2, y2 = x2, y2, x1, y1
		swapped = true
	}

	dx, dy = x2-x1, y2-y1
	if dy < 0 {
		dy = -dy
	}

	switch {
	// a point
	case x1 == x2 && y1 == y2:
		setPoint(x1, y1)

	// horizontal
	case y1 == y2:
		for ; dx != 0; dx-- {
			setPoint(x1, y1)
			x1++
		}
		setPoint(x1, y1)

	// vertical
	case x1 == x2:
		step := 1
		if y1 > y2 {
			step = -1
		}
		for ; dy != 0; dy-- {
			setPoint(x1, y1)
			y1 += step
		}
		setPoint(x1, y1)

	// diagonal
	case dx == dy:
		step := 1
		if y1 > y2 {
			step = -1
		}
		for ; dx != 0; dx-- {
			setPoint(x1, y1)
			x1++
			y1 += step
		}
		setPoint(x1, y1)

	// wider than high
	case dx > dy:
		step := 1
		if y1 > y2 {
			step = -1
		}
		dy, e, slope = 2*dy, dx, 2*dx
		for ; dx != 0; dx-- {
			setPoint(x1, y1)
			x1++
			e -= dy
			if e < 0 {
				y1 += step
				e += slope
			}
		}
		setPoint(x2, y2)

	// higher than wide
	default:
		step := 1
		if y1 > y2 {
			step = -1
		}
		dx, e, slope = 2*dx, dy, 2*dy
		for ; dy != 0; dy-- {
			setPoint(x1, y1)
			y1 += step
			e -= dx
			if e < 0 {
				x1++
				e += slope
			}
		}
		setPoint(x2, y2)
	}
	if swapped {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	return pts
}

// arcPoints walks the circle of radius r around (cx,cy) from angle start
// through sweep radians (positive is counter-clockwise). The chord step is
// kept under half a cell so consecutive cells are 8-connected. The first and
// the last cells are forced to first and last.
func arcPoints(cx, cy, r, start, sweep float64, first, last image.Point) []image.Point {
	n := int(math.Ceil(math.Abs(sweep) * r * 2))
	if n < 2 {
		n = 2
	}
	pts := make([]image.Point, 0, n+1)
	pts = append(pts, first)
	for k := 1; k < n; k++ {
		a := start + sweep*float64(k)/float64(n)
		p := roundPt(cx+r*math.Cos(a), cy+r*math.Sin(a))
		if p != pts[len(pts)-1] {
			pts = append(pts, p)
		}
	}
	if last != pts[len(pts)-1] {
		pts = append(pts, last)
	}
	return pts
}

func roundPt(x, y float64) image.Point {
	return image.Pt(int(math.Round(x)), int(math.Round(y)))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
