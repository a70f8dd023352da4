package xy

import (
	"math"
	"strconv"
)

const InchesToMM float64 = 25.4

// XY is a point in plot or output units
type XY struct {
	X float64
	Y float64
}

func NewXY(x, y float64) XY {
	return XY{X: x, Y: y}
}

// FromInt converts integer grid coordinates
func FromInt(x, y int) XY {
	return XY{X: float64(x), Y: float64(y)}
}

func (xy XY) String() string {
	return "(" + strconv.FormatFloat(xy.X, 'f', 5, 64) +
		"," + strconv.FormatFloat(xy.Y, 'f', 5, 64) + ")"
}

// tolerance is the radius of the circle around first point
// inisde of which another point will be treated as equal to the first one
func (xy XY) Equals(another XY, tolerance float64) bool {
	return xy.Distance(another) < tolerance
}

func (xy XY) Distance(another XY) float64 {
	return math.Hypot(xy.X-another.X, xy.Y-another.Y)
}

func (xy XY) Add(another XY) XY {
	return XY{xy.X + another.X, xy.Y + another.Y}
}

func (xy XY) Sub(another XY) XY {
	return XY{xy.X - another.X, xy.Y - another.Y}
}

// Round rounds both coordinates to the given number of decimal places
func (xy XY) Round(places int) XY {
	return XY{RoundTo(xy.X, places), RoundTo(xy.Y, places)}
}

// RoundTo rounds v to the given number of decimal places, -0 becomes 0
func RoundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	r := math.Round(v*p) / p
	if r == 0 {
		return 0
	}
	return r
}

// SameAt compares two values after rounding both to places
func SameAt(a, b float64, places int) bool {
	return RoundTo(a, places) == RoundTo(b, places)
}

// ConvertUnits scales v between inches and millimeters.
// toMM == fromMM leaves v unchanged.
func ConvertUnits(v float64, fromMM, toMM bool) float64 {
	switch {
	case fromMM == toMM:
		return v
	case toMM:
		return v * InchesToMM
	default:
		return v / InchesToMM
	}
}
