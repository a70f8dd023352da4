package segments

import (
	"math"

	"github.com/VasiliyTurchenko/gerber2gcode/isoplot"
)

// DefaultMaxDistance is the farthest gap, in grid units, bridged by the
// nearest endpoint fallback
const DefaultMaxDistance = 3.0

type Options struct {
	// MaxDistance limits the nearest endpoint fallback, 0 disables it
	MaxDistance float64
}

func DefaultOptions() Options {
	return Options{MaxDistance: DefaultMaxDistance}
}

// Path is a run of segments of one builderID cut without lifting the tool.
// Duplicates stay in the path right after the segment they repeat.
type Path struct {
	BuilderID int
	Segments  []Segment
	Closed    bool
}

func (p *Path) Start() (int, int) {
	return p.Segments[0].Common().Start()
}

// Emitted counts the segments that are not duplicates
func (p *Path) Emitted() int {
	n := 0
	for _, s := range p.Segments {
		if !s.Common().IsDuplicate {
			n++
		}
	}
	return n
}

type Diagnostics struct {
	Segments        int
	Paths           int
	ClosedPaths     int
	DistanceChained int
	Unchained       int
	Duplicates      int
}

type match int

const (
	matchExact match = iota + 1
	matchOverlay
	matchDistance
)

type chainer struct {
	grid *isoplot.Grid
	opts Options
	segs []Segment
	used []bool
}

// Chain links the segments of every builderID into paths. The grid is used
// to accept neighbouring endpoints lying on the same overlay, it may be nil.
func Chain(grid *isoplot.Grid, segs []Segment, opts Options) ([]*Path, Diagnostics) {
	var diag Diagnostics
	diag.Segments = len(segs)

	groups := make(map[int][]Segment)
	var order []int
	dups := make(map[*Base][]Segment)
	for _, s := range segs {
		b := s.Common()
		if b.IsDuplicate {
			diag.Duplicates++
			if b.dupOf != nil {
				dups[b.dupOf.Common()] = append(dups[b.dupOf.Common()], s)
			}
			continue
		}
		if _, ok := groups[b.BuilderID]; !ok {
			order = append(order, b.BuilderID)
		}
		groups[b.BuilderID] = append(groups[b.BuilderID], s)
	}

	var paths []*Path
	for _, id := range order {
		c := chainer{grid: grid, opts: opts, segs: groups[id], used: make([]bool, len(groups[id]))}
		for i := range c.segs {
			if c.used[i] {
				continue
			}
			p := c.grow(i)
			p.BuilderID = id
			paths = append(paths, p)
		}
	}

	for _, p := range paths {
		withDups := make([]Segment, 0, len(p.Segments))
		for _, s := range p.Segments {
			withDups = append(withDups, s)
			withDups = append(withDups, dups[s.Common()]...)
			if s.Common().ChainedViaDistance {
				diag.DistanceChained++
			}
		}
		p.Segments = withDups
		diag.Paths++
		if p.Closed {
			diag.ClosedPaths++
		}
		if p.Emitted() == 1 && !p.Closed {
			diag.Unchained++
		}
	}
	return paths, diag
}

// grow seeds a path with segment i, extends it forward from its end and
// then backward from its start
func (c *chainer) grow(i int) *Path {
	c.used[i] = true
	seed := c.segs[i].Common()
	seed.ChainedStartX, seed.ChainedStartY = seed.Start()
	chain := []Segment{c.segs[i]}

	for {
		tail := chain[len(chain)-1].Common()
		x, y := tail.End()
		j, idx, how := c.find(x, y)
		if j < 0 {
			break
		}
		tail.PointIsChainTarget[exitIndex(tail)] = true
		next := c.attach(j, idx, idx == 1)
		next.ChainedViaDistance = how == matchDistance
		chain = append(chain, c.segs[j])
	}
	for {
		head := chain[0].Common()
		x, y := head.Start()
		j, idx, how := c.find(x, y)
		if j < 0 {
			break
		}
		head.PointIsChainTarget[1-exitIndex(head)] = true
		head.ChainedViaDistance = how == matchDistance
		c.attach(j, idx, idx == 0)
		chain = append([]Segment{c.segs[j]}, chain...)
	}

	p := &Path{Segments: chain}
	if len(chain) > 1 {
		hx, hy := chain[0].Common().Start()
		tx, ty := chain[len(chain)-1].Common().End()
		p.Closed = hx == tx && hy == ty
	}
	if p.Closed {
		head, tail := chain[0].Common(), chain[len(chain)-1].Common()
		head.PointIsChainTarget[1-exitIndex(head)] = true
		tail.PointIsChainTarget[exitIndex(tail)] = true
	}
	return p
}

func (c *chainer) attach(j, idx int, reverse bool) *Base {
	c.used[j] = true
	b := c.segs[j].Common()
	b.PointIsChainTarget[idx] = true
	b.ReverseOnConversion = reverse
	b.ChainedStartX, b.ChainedStartY = b.Start()
	return b
}

func exitIndex(b *Base) int {
	if b.ReverseOnConversion {
		return 0
	}
	return 1
}

// find looks for a free endpoint at (x,y): exact coincidence first, then a
// neighbouring cell on the same overlay, then the nearest endpoint within
// MaxDistance. Returns the segment index and the endpoint index, or -1.
func (c *chainer) find(x, y int) (int, int, match) {
	for j, s := range c.segs {
		if c.used[j] {
			continue
		}
		b := s.Common()
		for idx := 0; idx < 2; idx++ {
			px, py := b.point(idx)
			if !b.PointIsChainTarget[idx] && px == x && py == y {
				return j, idx, matchExact
			}
		}
	}
	if c.grid != nil {
		ov := c.grid.OverlayID(x, y)
		for j, s := range c.segs {
			if c.used[j] {
				continue
			}
			b := s.Common()
			for idx := 0; idx < 2; idx++ {
				px, py := b.point(idx)
				if b.PointIsChainTarget[idx] || abs(px-x) > 1 || abs(py-y) > 1 {
					continue
				}
				if ov != 0 && c.grid.OverlayID(px, py) == ov {
					return j, idx, matchOverlay
				}
			}
		}
	}
	bestJ, bestIdx := -1, 0
	best := math.Inf(1)
	for j, s := range c.segs {
		if c.used[j] {
			continue
		}
		b := s.Common()
		for idx := 0; idx < 2; idx++ {
			if b.PointIsChainTarget[idx] {
				continue
			}
			px, py := b.point(idx)
			d := math.Hypot(float64(px-x), float64(py-y))
			if d <= c.opts.MaxDistance && d < best {
				best, bestJ, bestIdx = d, j, idx
			}
		}
	}
	if bestJ < 0 {
		return -1, 0, 0
	}
	return bestJ, bestIdx, matchDistance
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
