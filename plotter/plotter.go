/*
 Generates a stream of G-code commands
*/
package plotter

import (
	"io"
	"os"
	"strings"

	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
	"github.com/VasiliyTurchenko/gerber2gcode/segments"
	"github.com/VasiliyTurchenko/gerber2gcode/strings_storage"
)

/*
	Plotter statistic
*/
type Stats struct {
	Rapids      int
	LinearMoves int
	ArcMoves    int
	Holes       int
	ToolChanges int
}

// Plotter owns the emission state of one output file
type Plotter struct {
	opts  Options
	head  ToolHead
	state State
	out   *strings_storage.Storage
	stats Stats
	// tool position in grid units
	gridX, gridY float64
}

func NewPlotter(opts Options, head ToolHead) *Plotter {
	p := &Plotter{opts: opts, head: head, out: strings_storage.NewStorage()}
	p.Reset()
	return p
}

func (p *Plotter) Options() Options {
	return p.opts
}

func (p *Plotter) Head() ToolHead {
	return p.head
}

func (p *Plotter) Stats() Stats {
	return p.stats
}

// Reset drops the output and starts a new emission pass
func (p *Plotter) Reset() {
	p.state = NewState(&p.opts)
	p.out.Empty()
	p.stats = Stats{}
}

// Emit renders cmd and appends the lines
func (p *Plotter) Emit(cmd Command) {
	lines, st := Render(cmd, &p.opts, &p.head, p.state)
	p.state = st
	p.out.AcceptAll(lines)
	switch c := cmd.(type) {
	case Rapid:
		p.stats.Rapids++
		p.gridX, p.gridY = c.X, c.Y
	case Linear:
		p.stats.LinearMoves++
		p.gridX, p.gridY = c.X1, c.Y1
	case ArcMove:
		p.stats.ArcMoves++
		p.gridX, p.gridY = c.X1, c.Y1
	case ToolChange:
		p.stats.ToolChanges++
	}
}

// Start writes the program preamble
func (p *Plotter) Start(comments ...string) {
	for _, c := range comments {
		p.Emit(Comment{Text: c})
	}
	units := "G21"
	if p.opts.OutputUnits == gbt.UnitsInches {
		units = "G20"
	}
	p.Emit(Code{Words: []string{"G17"}})
	p.Emit(Code{Words: []string{units}})
	p.Emit(Code{Words: []string{"G90"}})
	if p.opts.SetPosition {
		p.Emit(Code{Words: []string{"G92", "X0", "Y0"}})
	}
	p.Emit(ZMove{Z: p.head.ZClear, Rapid: true})
	p.Emit(Code{Words: []string{"M03"}})
}

// Stop writes the program end and squeezes the output
func (p *Plotter) Stop() {
	p.Emit(ZMove{Z: p.head.ZClear, Rapid: true})
	p.Emit(Code{Words: []string{"M05"}})
	p.Emit(Code{Words: []string{"M02"}})
	p.squeeze()
}

/*
	Deletes rapid XY moves immediately followed by another one
*/
func (p *Plotter) squeeze() {
	p.out.Filter(func(line, next string) bool {
		return !(isRapidXY(line) && isRapidXY(next))
	})
}

func isRapidXY(line string) bool {
	if strings.HasPrefix(line, "N") {
		if i := strings.IndexByte(line, ' '); i > 0 {
			line = line[i+1:]
		}
	}
	return strings.HasPrefix(line, "G00 X")
}

// EmitPath cuts a chained path. Gaps between segments bridged by the chainer
// are cut straight, duplicates are skipped, tab gaps are lifted over.
func (p *Plotter) EmitPath(path *segments.Path) {
	first := true
	for _, s := range path.Segments {
		b := s.Common()
		if b.IsDuplicate {
			continue
		}
		ix, iy := b.Start()
		sx, sy := float64(ix), float64(iy)
		if !first && (sx != p.gridX || sy != p.gridY) {
			p.Emit(Linear{X0: p.gridX, Y0: p.gridY, X1: sx, Y1: sy})
		}
		first = false
		switch seg := s.(type) {
		case *segments.Line:
			for _, sp := range segments.TabSpans(seg, p.opts.ToGrid(p.head.ToolWidth)) {
				if sp.Emit {
					p.Emit(Linear{X0: sp.X0, Y0: sp.Y0, X1: sp.X1, Y1: sp.Y1})
				}
			}
		case *segments.Arc:
			ex, ey := seg.End()
			p.Emit(ArcMove{
				X0: sx, Y0: sy,
				X1: float64(ex), Y1: float64(ey),
				CenterX: seg.CenterX, CenterY: seg.CenterY,
				Radius: seg.Radius,
				Dir:    seg.Direction(),
			})
		}
	}
}

func (p *Plotter) EmitPaths(paths []*segments.Path) {
	for _, path := range paths {
		p.EmitPath(path)
	}
}

// Hole is a drill hit, the position in grid units, the diameter in source units
type Hole struct {
	X, Y     float64
	Tool     int
	Diameter float64
}

// Drill groups the hits by tool in order of the first appearance
func (p *Plotter) Drill(holes []Hole) {
	var tools []int
	byTool := make(map[int][]Hole)
	for _, h := range holes {
		if _, ok := byTool[h.Tool]; !ok {
			tools = append(tools, h.Tool)
		}
		byTool[h.Tool] = append(byTool[h.Tool], h)
	}
	for _, t := range tools {
		group := byTool[t]
		p.Emit(ToolChange{Tool: t, Diameter: group[0].Diameter})
		for _, h := range group {
			p.Emit(Rapid{X: h.X, Y: h.Y})
			p.Emit(ZMove{Z: p.head.ZCut})
			if p.head.Dwell > 0 {
				p.Emit(Dwell{Seconds: p.head.Dwell})
			}
			p.Emit(ZMove{Z: p.head.ZMove, Rapid: true})
			p.stats.Holes++
		}
	}
}

// Flatten mills the rectangle row by row, the step over is the tool width
func (p *Plotter) Flatten(x0, y0, x1, y1 float64) {
	step := p.opts.ToGrid(p.head.ToolWidth)
	if step <= 0 || x0 == x1 {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	forward := true
	for y, started := y0, false; ; {
		xa, xb := x0, x1
		if !forward {
			xa, xb = xb, xa
		}
		if started {
			p.Emit(Linear{X0: p.gridX, Y0: p.gridY, X1: xa, Y1: y})
		}
		p.Emit(Linear{X0: xa, Y0: y, X1: xb, Y1: y})
		started = true
		if y >= y1 {
			break
		}
		y = min(y+step, y1)
		forward = !forward
	}
}

func (p *Plotter) Lines() []string {
	return p.out.ToArray()
}

func (p *Plotter) String() string {
	return p.out.Join(p.opts.LineTerminator)
}

func (p *Plotter) WriteTo(w io.Writer) (int64, error) {
	return p.out.WriteLines(w, p.opts.LineTerminator)
}

/*
	Writes the program to disk
*/
func (p *Plotter) WriteFile(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err = p.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
