package steps

import (
	"context"
	"fmt"
	"math"

	"github.com/akavel/polyclip-go"

	"github.com/VasiliyTurchenko/gerber2gcode/apertures"
	"github.com/VasiliyTurchenko/gerber2gcode/calculator"
	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
	"github.com/VasiliyTurchenko/gerber2gcode/isoplot"
	"github.com/VasiliyTurchenko/gerber2gcode/overlay"
	"github.com/VasiliyTurchenko/gerber2gcode/plotter"
)

// Replayed is what a replay leaves besides the grid contents
type Replayed struct {
	// builder IDs drawn by the labelled steps
	Labels map[string][]int
	Holes  []plotter.Hole
	// executed steps
	Steps int
}

type player struct {
	s         *Script
	b         *isoplot.Builder
	apertures map[int]*apertures.Aperture
	out       *Replayed
}

/*
Replay issues the script steps against the builder in order.
The context is checked before every step.
*/
func Replay(ctx context.Context, b *isoplot.Builder, s *Script) (*Replayed, error) {
	p := &player{
		s:         s,
		b:         b,
		apertures: make(map[int]*apertures.Aperture),
		out:       &Replayed{Labels: make(map[string][]int)},
	}
	for i := range s.Apertures {
		ap, err := p.aperture(&s.Apertures[i])
		if err != nil {
			return nil, err
		}
		p.apertures[ap.Code] = ap
	}
	for i := range s.Steps {
		if err := ctx.Err(); err != nil {
			return p.out, err
		}
		st := &s.Steps[i]
		op, err := ParseOp(st.Op)
		if err != nil {
			return p.out, fmt.Errorf("steps[%d]: %w", i, err)
		}
		st.op = op
		if err := p.step(st); err != nil {
			return p.out, fmt.Errorf("steps[%d] %s: %w", i, s.Steps[i].op, err)
		}
		p.out.Steps++
	}
	return p.out, nil
}

// g scales a script length to grid units
func (p *player) g(v float64) float64 {
	return v * p.s.PointsPerUnit
}

func (p *player) gi(v float64) int {
	return int(math.Round(p.g(v)))
}

func (p *player) points(in [][2]float64) []polyclip.Point {
	out := make([]polyclip.Point, len(in))
	for i, v := range in {
		out[i] = polyclip.Point{X: p.g(v[0]), Y: p.g(v[1])}
	}
	return out
}

func (p *player) aperture(def *ApertureDef) (*apertures.Aperture, error) {
	typ, err := gbt.ParseApType(def.Type)
	if err != nil {
		return nil, err
	}
	ap := &apertures.Aperture{
		Code:         def.Code,
		Type:         typ,
		XSize:        p.g(def.Width),
		YSize:        p.g(def.Height),
		Diameter:     p.g(def.Diameter),
		HoleDiameter: p.g(def.Hole),
		Vertices:     def.Vertices,
		RotAngle:     def.Rotation,
	}
	if def.Macro != nil {
		ap.Macro = &apertures.Macro{Name: def.Macro.Name}
		vars := calculator.Params(def.Params...)
		for _, pd := range def.Macro.Primitives {
			pd, err := pd.resolve(vars)
			if err != nil {
				return nil, err
			}
			pt, err := apertures.ParsePrimitiveType(pd.Type)
			if err != nil {
				return nil, err
			}
			ap.Macro.Primitives = append(ap.Macro.Primitives, apertures.Primitive{
				Type:     pt,
				Exposure: pd.Exposure == nil || *pd.Exposure,
				Diameter: p.g(pd.Diameter),
				Inner:    p.g(pd.Inner),
				Gap:      p.g(pd.Gap),
				Width:    p.g(pd.Width),
				Height:   p.g(pd.Height),
				X:        p.g(pd.X),
				Y:        p.g(pd.Y),
				X1:       p.g(pd.X1),
				Y1:       p.g(pd.Y1),
				Vertices: pd.Vertices,
				Points:   p.points(pd.Points),
				Rotation: pd.Rotation,
			})
		}
	}
	if err := ap.Validate(); err != nil {
		return nil, err
	}
	return ap, nil
}

func (p *player) label(st *Step, ids ...int) {
	if st.ID == "" {
		return
	}
	// degenerate draws still define the label, with no IDs
	if _, ok := p.out.Labels[st.ID]; !ok {
		p.out.Labels[st.ID] = []int{}
	}
	for _, id := range ids {
		if id != 0 {
			p.out.Labels[st.ID] = append(p.out.Labels[st.ID], id)
		}
	}
}

func (p *player) lookup(name string) ([]int, error) {
	ids, ok := p.out.Labels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, name)
	}
	return ids, nil
}

func (p *player) step(st *Step) error {
	flag, err := overlay.ParseEdgeFlag(st.Flag)
	if err != nil {
		return err
	}
	fill, err := gbt.ParseFillMode(st.Fill)
	if err != nil {
		return err
	}
	b := p.b

	switch st.op {
	case OpCircle:
		if st.Hole > 0 {
			outer, hole := b.DrawCircleWithHole(flag, p.gi(st.X), p.gi(st.Y), p.gi(st.Radius), p.gi(st.Hole))
			p.label(st, outer, hole)
			return nil
		}
		p.label(st, b.DrawCircle(flag, p.gi(st.X), p.gi(st.Y), p.gi(st.Radius), fill, st.Clockwise))
	case OpLine:
		p.label(st, b.DrawLineOutline(flag, p.gi(st.X), p.gi(st.Y), p.gi(st.X1), p.gi(st.Y1), p.gi(st.Width), fill))
	case OpPolygon:
		p.label(st, b.DrawPolygonOutline(flag, p.gi(st.X), p.gi(st.Y), st.Sides, p.gi(st.Diameter), st.Rotation, fill))
	case OpRect:
		p.label(st, b.DrawRectangle(flag, p.gi(st.X), p.gi(st.Y), p.gi(st.Width), p.gi(st.Height), fill))
	case OpContour:
		p.label(st, b.Draw(isoplot.ContourShape(p.points(st.Points)), flag, fill))
	case OpFlash:
		ap := p.apertures[st.Aperture]
		if ap == nil {
			return fmt.Errorf("%w: aperture D%d", ErrBadScript, st.Aperture)
		}
		pol, err := gbt.ParsePolarity(st.Polarity)
		if err != nil {
			return err
		}
		p.label(st, ap.Flash(b, p.gi(st.X), p.gi(st.Y), pol)...)
	case OpErase:
		ids, err := p.lookup(st.Target)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if s := b.Shape(id); s != nil {
				b.EraseRegionByID(id, s.Bounds)
			}
		}
	case OpFill:
		var boundary []int
		for _, name := range st.Boundary {
			ids, err := p.lookup(name)
			if err != nil {
				return err
			}
			boundary = append(boundary, ids...)
		}
		exclude := 0
		if st.Exclude != "" {
			ids, err := p.lookup(st.Exclude)
			if err != nil {
				return err
			}
			if len(ids) > 0 {
				exclude = ids[0]
			}
		}
		b.FillRegionByBoundary(boundary, exclude, b.Grid().Bounds(), fill)
	case OpPunch:
		outer, err := p.lookup(st.Outer)
		if err != nil {
			return err
		}
		hole, err := p.lookup(st.Target)
		if err != nil {
			return err
		}
		if len(outer) > 0 && len(hole) > 0 {
			b.PunchHole(outer[0], hole[0])
		}
	case OpTabs:
		b.SetTabs(isoplot.TabRequest{Count: st.Count, Length: p.g(st.Length)})
	case OpDrill:
		p.out.Holes = append(p.out.Holes, plotter.Hole{X: p.g(st.X), Y: p.g(st.Y), Tool: st.Tool, Diameter: st.Diameter})
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOp, st.Op)
	}
	return nil
}
