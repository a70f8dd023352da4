package regions

import (
	"strconv"
)

/*####################  regions ##################################
 */

// Region is an inclusive rectangle of grid cells
type Region struct {
	X0 int
	Y0 int
	X1 int
	Y1 int
}

// creates a normalized region, corners may come in any order
func NewRegion(x0, y0, x1, y1 int) Region {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return Region{x0, y0, x1, y1}
}

// region of a square around the center
func Around(xc, yc, halfSize int) Region {
	return NewRegion(xc-halfSize, yc-halfSize, xc+halfSize, yc+halfSize)
}

func (region Region) String() string {
	return "Region: (" + strconv.Itoa(region.X0) + "," + strconv.Itoa(region.Y0) + ")-(" +
		strconv.Itoa(region.X1) + "," + strconv.Itoa(region.Y1) + ")"
}

// returns true if the region holds no cells
func (region Region) Empty() bool {
	return region.X1 < region.X0 || region.Y1 < region.Y0
}

func (region Region) Width() int {
	if region.Empty() {
		return 0
	}
	return region.X1 - region.X0 + 1
}

func (region Region) Height() int {
	if region.Empty() {
		return 0
	}
	return region.Y1 - region.Y0 + 1
}

func (region Region) Contains(x, y int) bool {
	return x >= region.X0 && x <= region.X1 && y >= region.Y0 && y <= region.Y1
}

// smallest region holding both, an empty region is ignored
func (region Region) Union(another Region) Region {
	if region.Empty() {
		return another
	}
	if another.Empty() {
		return region
	}
	return Region{
		min(region.X0, another.X0),
		min(region.Y0, another.Y0),
		max(region.X1, another.X1),
		max(region.Y1, another.Y1),
	}
}

// common part of two regions, may be empty
func (region Region) Intersect(another Region) Region {
	return Region{
		max(region.X0, another.X0),
		max(region.Y0, another.Y0),
		min(region.X1, another.X1),
		min(region.Y1, another.Y1),
	}
}

// region extended by n cells on every side
func (region Region) Grow(n int) Region {
	if region.Empty() {
		return region
	}
	return Region{region.X0 - n, region.Y0 - n, region.X1 + n, region.Y1 + n}
}

// Include extends the region with a single cell
func (region Region) Include(x, y int) Region {
	return region.Union(Region{x, y, x, y})
}

// Nothing returns the canonical empty region, the neutral element of Union
func Nothing() Region {
	return Region{0, 0, -1, -1}
}
