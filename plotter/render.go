package plotter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
	"github.com/VasiliyTurchenko/gerber2gcode/xy"
)

// modal values are compared at this precision
const modalPlaces = 3

// State is the emission cursor: last emitted position, height and feed,
// output units. NaN means not emitted yet.
type State struct {
	X, Y float64
	Z    float64
	Feed float64
	Line int
}

func NewState(opts *Options) State {
	nan := math.NaN()
	return State{X: nan, Y: nan, Z: nan, Feed: nan, Line: max(opts.LineNumberStep, 1)}
}

// Render turns one command into G-code lines. It does not modify its inputs.
func Render(cmd Command, opts *Options, head *ToolHead, st State) ([]string, State) {
	e := emitter{opts: opts, head: head, st: st}
	switch c := cmd.(type) {
	case Rapid:
		e.rapid(opts.Transform(c.X, c.Y))
	case Linear:
		e.linear(c)
	case ArcMove:
		e.arc(c)
	case ZMove:
		if c.Rapid {
			e.lift(c.Z)
		} else {
			e.plunge(c.Z)
		}
	case Dwell:
		e.emit("G04", "P"+strconv.FormatFloat(xy.RoundTo(c.Seconds, modalPlaces), 'f', -1, 64))
	case ToolChange:
		e.lift(head.ZClear)
		e.comment(fmt.Sprintf("tool %d diameter %s", c.Tool, e.num(c.Diameter)))
		e.emit(fmt.Sprintf("T%02d", c.Tool), "M6")
	case Comment:
		e.comment(c.Text)
	case Code:
		e.emit(c.Words...)
	default:
		panic(fmt.Sprintf("plotter: unexpected command %T", cmd))
	}
	return e.lines, e.st
}

type emitter struct {
	opts  *Options
	head  *ToolHead
	st    State
	lines []string
}

func (e *emitter) emit(words ...string) {
	line := strings.Join(words, " ")
	if e.opts.ShowLineNumbers {
		line = fmt.Sprintf("N%0*d %s", e.opts.LineNumberWidth, e.st.Line, line)
		e.st.Line += max(e.opts.LineNumberStep, 1)
	}
	e.lines = append(e.lines, line)
}

func (e *emitter) comment(text string) {
	text = strings.NewReplacer("(", "[", ")", "]").Replace(text)
	e.emit("(" + text + ")")
}

func (e *emitter) num(v float64) string {
	return strconv.FormatFloat(xy.RoundTo(v, e.opts.DecimalPlaces), 'f', e.opts.DecimalPlaces, 64)
}

func (e *emitter) feedWord(f float64) (string, bool) {
	if xy.SameAt(e.st.Feed, f, modalPlaces) {
		return "", false
	}
	e.st.Feed = f
	return "F" + strconv.FormatFloat(xy.RoundTo(f, modalPlaces), 'f', -1, 64), true
}

func (e *emitter) at(p xy.XY) bool {
	return xy.SameAt(e.st.X, p.X, e.opts.DecimalPlaces) && xy.SameAt(e.st.Y, p.Y, e.opts.DecimalPlaces)
}

func (e *emitter) moveTo(p xy.XY) {
	e.st.X, e.st.Y = xy.RoundTo(p.X, e.opts.DecimalPlaces), xy.RoundTo(p.Y, e.opts.DecimalPlaces)
}

func (e *emitter) lift(z float64) {
	if xy.SameAt(e.st.Z, z, modalPlaces) {
		return
	}
	e.st.Z = z
	e.emit("G00", "Z"+e.num(z))
}

func (e *emitter) plunge(z float64) {
	if xy.SameAt(e.st.Z, z, modalPlaces) {
		return
	}
	e.st.Z = z
	words := []string{"G01", "Z" + e.num(z)}
	if f, ok := e.feedWord(e.head.ZFeed); ok {
		words = append(words, f)
	}
	e.emit(words...)
}

func (e *emitter) rapid(p xy.XY) {
	if e.at(p) {
		return
	}
	e.lift(e.head.ZMove)
	e.emit("G00", "X"+e.num(p.X), "Y"+e.num(p.Y))
	e.moveTo(p)
}

// enter brings the tool down at p, moving there first if needed
func (e *emitter) enter(p xy.XY) {
	e.rapid(p)
	e.plunge(e.head.ZCut)
}

func (e *emitter) linear(c Linear) {
	e.enter(e.opts.Transform(c.X0, c.Y0))
	end := e.opts.Transform(c.X1, c.Y1)
	if e.at(end) {
		return
	}
	words := []string{"G01", "X" + e.num(end.X), "Y" + e.num(end.Y)}
	if f, ok := e.feedWord(e.head.XYFeed); ok {
		words = append(words, f)
	}
	e.emit(words...)
	e.moveTo(end)
}

// arc is cut to the point of the circle nearest to the rasterized end,
// then a short line reaches the end itself
func (e *emitter) arc(c ArcMove) {
	start := e.opts.Transform(c.X0, c.Y0)
	e.enter(start)
	start = xy.NewXY(e.st.X, e.st.Y)
	end := e.opts.Transform(c.X1, c.Y1)
	center := e.opts.Transform(c.CenterX, c.CenterY)
	r := e.opts.Length(c.Radius)

	radial := mgl64.Vec2{end.X - center.X, end.Y - center.Y}
	if radial.Len() == 0 {
		radial = mgl64.Vec2{1, 0}
	}
	on := mgl64.Vec2{center.X, center.Y}.Add(radial.Normalize().Mul(r))
	trueEnd := xy.NewXY(on.X(), on.Y())
	// an arc ending where it starts is a full circle to the controller
	if e.at(trueEnd) {
		if !e.at(end) {
			e.emit("G01", "X"+e.num(end.X), "Y"+e.num(end.Y))
			e.moveTo(end)
		}
		return
	}

	dir := c.Dir
	if e.opts.Mirror.Mirrored() {
		dir = dir.Reverse()
	}
	g := "G03"
	if dir == gbt.IPModeCwC {
		g = "G02"
	}
	words := []string{g, "X" + e.num(trueEnd.X), "Y" + e.num(trueEnd.Y)}
	if e.opts.ArcRadiusWord {
		words = append(words, "R"+e.num(r))
	} else {
		words = append(words, "I"+e.num(center.X-start.X), "J"+e.num(center.Y-start.Y))
	}
	if f, ok := e.feedWord(e.head.XYFeed); ok {
		words = append(words, f)
	}
	e.emit(words...)
	e.moveTo(trueEnd)
	if !e.at(end) {
		e.emit("G01", "X"+e.num(end.X), "Y"+e.num(end.Y))
		e.moveTo(end)
	}
}
