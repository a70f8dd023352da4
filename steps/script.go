// Draw scripts: the producer side of the isoplot builder.
// A script lists the drawing calls of one layer in the order a Gerber or
// Excellon reader would issue them.
package steps

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/VasiliyTurchenko/gerber2gcode/calculator"
	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
)

var (
	ErrUnknownOp      = errors.New("unknown step")
	ErrUnknownLabel   = errors.New("unknown label")
	ErrDuplicateLabel = errors.New("duplicate label")
	ErrBadScript      = errors.New("bad script")
)

type OpCode int

const (
	OpCircle OpCode = iota + 1
	OpLine
	OpPolygon
	OpRect
	OpContour
	OpFlash
	OpErase
	OpFill
	OpPunch
	OpTabs
	OpDrill
)

func (op OpCode) String() string {
	switch op {
	case OpCircle:
		return "circle"
	case OpLine:
		return "line"
	case OpPolygon:
		return "polygon"
	case OpRect:
		return "rect"
	case OpContour:
		return "contour"
	case OpFlash:
		return "flash"
	case OpErase:
		return "erase"
	case OpFill:
		return "fill"
	case OpPunch:
		return "punch"
	case OpTabs:
		return "tabs"
	case OpDrill:
		return "drill"
	default:
	}
	return "unknown"
}

func ParseOp(s string) (OpCode, error) {
	for op := OpCircle; op <= OpDrill; op++ {
		if strings.EqualFold(s, op.String()) {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOp, s)
}

// Script is one layer. Coordinates and sizes are in Units.
type Script struct {
	Name          string         `yaml:"name"`
	Units         string         `yaml:"units"`
	PointsPerUnit float64        `yaml:"pointsPerUnit"`
	Operation     string         `yaml:"operation"`
	Width         float64        `yaml:"width"`
	Height        float64        `yaml:"height"`
	Apertures     []ApertureDef  `yaml:"apertures,omitempty"`
	Steps         []Step         `yaml:"steps"`
	Flatten       *FlattenRegion `yaml:"flatten,omitempty"`

	units gbt.Units
	mode  gbt.OperationMode
}

type ApertureDef struct {
	Code     int       `yaml:"code"`
	Type     string    `yaml:"type"`
	Diameter float64   `yaml:"diameter,omitempty"`
	Width    float64   `yaml:"width,omitempty"`
	Height   float64   `yaml:"height,omitempty"`
	Hole     float64   `yaml:"hole,omitempty"`
	Vertices int       `yaml:"vertices,omitempty"`
	Rotation float64   `yaml:"rotation,omitempty"`
	Macro    *MacroDef `yaml:"macro,omitempty"`
	// macro modifiers, $1 is the first
	Params []float64 `yaml:"params,omitempty"`
}

type MacroDef struct {
	Name       string         `yaml:"name"`
	Primitives []PrimitiveDef `yaml:"primitives"`
}

type PrimitiveDef struct {
	Type     string       `yaml:"type"`
	Exposure *bool        `yaml:"exposure,omitempty"`
	Diameter float64      `yaml:"diameter,omitempty"`
	Inner    float64      `yaml:"inner,omitempty"`
	Gap      float64      `yaml:"gap,omitempty"`
	Width    float64      `yaml:"width,omitempty"`
	Height   float64      `yaml:"height,omitempty"`
	X        float64      `yaml:"x,omitempty"`
	Y        float64      `yaml:"y,omitempty"`
	X1       float64      `yaml:"x1,omitempty"`
	Y1       float64      `yaml:"y1,omitempty"`
	Vertices int          `yaml:"vertices,omitempty"`
	Points   [][2]float64 `yaml:"points,omitempty"`
	Rotation float64      `yaml:"rotation,omitempty"`
	// field name to expression over the aperture params, overrides the literal
	Exprs map[string]string `yaml:"exprs,omitempty"`
}

// resolve evaluates Exprs into the numeric fields
func (pd PrimitiveDef) resolve(vars map[string]float64) (PrimitiveDef, error) {
	names := make([]string, 0, len(pd.Exprs))
	for name := range pd.Exprs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, err := calculator.Eval(pd.Exprs[name], vars)
		if err != nil {
			return pd, fmt.Errorf("%w: %s %s: %w", ErrBadScript, pd.Type, name, err)
		}
		switch strings.ToLower(name) {
		case "diameter":
			pd.Diameter = v
		case "inner":
			pd.Inner = v
		case "gap":
			pd.Gap = v
		case "width":
			pd.Width = v
		case "height":
			pd.Height = v
		case "x":
			pd.X = v
		case "y":
			pd.Y = v
		case "x1":
			pd.X1 = v
		case "y1":
			pd.Y1 = v
		case "vertices":
			pd.Vertices = int(math.Round(v))
		case "rotation":
			pd.Rotation = v
		default:
			return pd, fmt.Errorf("%w: %s has no field %q", ErrBadScript, pd.Type, name)
		}
	}
	return pd, nil
}

// FlattenRegion is the bed area milled by the bed flattening operation
type FlattenRegion struct {
	X0 float64 `yaml:"x0"`
	Y0 float64 `yaml:"y0"`
	X1 float64 `yaml:"x1"`
	Y1 float64 `yaml:"y1"`
}

// Step is one drawing call; which fields matter depends on Op
type Step struct {
	Op        string       `yaml:"op"`
	ID        string       `yaml:"id,omitempty"`
	Flag      string       `yaml:"flag,omitempty"`
	Fill      string       `yaml:"fill,omitempty"`
	X         float64      `yaml:"x,omitempty"`
	Y         float64      `yaml:"y,omitempty"`
	X1        float64      `yaml:"x1,omitempty"`
	Y1        float64      `yaml:"y1,omitempty"`
	Radius    float64      `yaml:"radius,omitempty"`
	Hole      float64      `yaml:"hole,omitempty"`
	Width     float64      `yaml:"width,omitempty"`
	Height    float64      `yaml:"height,omitempty"`
	Diameter  float64      `yaml:"diameter,omitempty"`
	Sides     int          `yaml:"sides,omitempty"`
	Rotation  float64      `yaml:"rotation,omitempty"`
	Clockwise bool         `yaml:"clockwise,omitempty"`
	Points    [][2]float64 `yaml:"points,omitempty"`
	Aperture  int          `yaml:"aperture,omitempty"`
	Polarity  string       `yaml:"polarity,omitempty"`
	Target    string       `yaml:"target,omitempty"`
	Boundary  []string     `yaml:"boundary,omitempty"`
	Exclude   string       `yaml:"exclude,omitempty"`
	Outer     string       `yaml:"outer,omitempty"`
	Tool      int          `yaml:"tool,omitempty"`
	Count     int          `yaml:"count,omitempty"`
	Length    float64      `yaml:"length,omitempty"`

	op OpCode
}

// Mode is the operation the layer is converted for
func (s *Script) Mode() gbt.OperationMode {
	return s.mode
}

// SourceUnits of the coordinates in the script
func (s *Script) SourceUnits() gbt.Units {
	return s.units
}

// GridSize is the board size in grid cells
func (s *Script) GridSize() (int, int) {
	return s.grid(s.Width) + 1, s.grid(s.Height) + 1
}

func (s *Script) grid(v float64) int {
	return int(v*s.PointsPerUnit + 0.5)
}

func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	s, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a script, unknown fields are rejected
func Parse(r io.Reader) (*Script, error) {
	var s Script
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) validate() error {
	var err error
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrBadScript)
	}
	if s.units, err = gbt.ParseUnits(s.Units); err != nil {
		return fmt.Errorf("%w: %w", ErrBadScript, err)
	}
	if s.mode, err = gbt.ParseOperationMode(s.Operation); err != nil {
		return fmt.Errorf("%w: %w", ErrBadScript, err)
	}
	if s.PointsPerUnit <= 0 {
		return fmt.Errorf("%w: pointsPerUnit must be positive", ErrBadScript)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: width and height are required", ErrBadScript)
	}
	codes := make(map[int]bool)
	for i, a := range s.Apertures {
		if codes[a.Code] {
			return fmt.Errorf("%w: aperture D%d defined twice", ErrBadScript, a.Code)
		}
		codes[a.Code] = true
		if _, err := gbt.ParseApType(a.Type); err != nil {
			return fmt.Errorf("%w: apertures[%d]: %w", ErrBadScript, i, err)
		}
		if a.Macro == nil {
			continue
		}
		vars := calculator.Params(a.Params...)
		for _, pd := range a.Macro.Primitives {
			if _, err := pd.resolve(vars); err != nil {
				return fmt.Errorf("apertures[%d]: %w", i, err)
			}
		}
	}
	labels := make(map[string]bool)
	for i := range s.Steps {
		st := &s.Steps[i]
		if st.op, err = ParseOp(st.Op); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if st.ID != "" {
			if labels[st.ID] {
				return fmt.Errorf("steps[%d]: %w: %s", i, ErrDuplicateLabel, st.ID)
			}
			labels[st.ID] = true
		}
		for _, ref := range st.refs() {
			if !labels[ref] {
				return fmt.Errorf("steps[%d]: %w: %s", i, ErrUnknownLabel, ref)
			}
		}
		if st.op == OpFlash && !codes[st.Aperture] {
			return fmt.Errorf("steps[%d]: %w: aperture D%d", i, ErrBadScript, st.Aperture)
		}
	}
	return nil
}

// refs are the labels a step reads; they must be defined by earlier steps
func (st *Step) refs() []string {
	var out []string
	switch st.op {
	case OpErase:
		out = append(out, st.Target)
	case OpFill:
		out = append(out, st.Boundary...)
		if st.Exclude != "" {
			out = append(out, st.Exclude)
		}
	case OpPunch:
		out = append(out, st.Outer, st.Target)
	}
	return out
}
