// Base types shared by the isolation routing packages
package gerberbasetypes

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MaxInt = int(^uint(0) >> 1)
	MinInt = int(-MaxInt - 1)
)

var ErrUnknownValue = errors.New("unknown value")

func unknown(what, s string) error {
	return fmt.Errorf("%w: %s %q", ErrUnknownValue, what, s)
}

type GerberApType int

const (
	AptypeCircle GerberApType = iota + 1
	AptypeRectangle
	AptypeObround
	AptypePoly
	AptypeMacro
)

func (ga GerberApType) String() string {
	switch ga {
	case AptypeCircle:
		return "circle aperture"
	case AptypeRectangle:
		return "rectangle aperture"
	case AptypeObround:
		return "obround (box) aperture"
	case AptypePoly:
		return "polygon aperture"
	case AptypeMacro:
		return "macro aperture"
	default:
	}
	return "Unknown aperture type"
}

func ParseApType(s string) (GerberApType, error) {
	switch strings.ToLower(s) {
	case "circle", "c":
		return AptypeCircle, nil
	case "rectangle", "rect", "r":
		return AptypeRectangle, nil
	case "obround", "o":
		return AptypeObround, nil
	case "polygon", "poly", "p":
		return AptypePoly, nil
	case "macro", "m":
		return AptypeMacro, nil
	}
	return 0, unknown("aperture type", s)
}

type PolType int

const (
	PolTypeDark PolType = iota + 1
	PolTypeClear
)

func (p PolType) String() string {
	switch p {
	case PolTypeDark:
		return "Polarity: dark"
	case PolTypeClear:
		return "Polarity: clear"
	default:
	}
	return "Unknown polarity"
}

// empty string means dark
func ParsePolarity(s string) (PolType, error) {
	switch strings.ToLower(s) {
	case "", "dark", "d":
		return PolTypeDark, nil
	case "clear", "c":
		return PolTypeClear, nil
	}
	return 0, unknown("polarity", s)
}

type IPmode int

const (
	IPModeLinear IPmode = iota + 1
	IPModeCwC
	IPModeCCwC
)

func (ipm IPmode) String() string {
	switch ipm {
	case IPModeLinear:
		return "Linear interpolation"
	case IPModeCwC:
		return "Clockwise interpolation"
	case IPModeCCwC:
		return "Counter-clockwise interpolation"
	default:
	}
	return "Unknown interpolation"
}

// Reverse swaps the arc direction, linear stays linear
func (ipm IPmode) Reverse() IPmode {
	switch ipm {
	case IPModeCwC:
		return IPModeCCwC
	case IPModeCCwC:
		return IPModeCwC
	}
	return ipm
}

// FillMode tells the isoplot builder what to do with the cells covered by a shape
type FillMode int

const (
	FillNone FillMode = iota + 1
	FillBackground
	FillErase
)

func (fm FillMode) String() string {
	switch fm {
	case FillNone:
		return "Fill: none"
	case FillBackground:
		return "Fill: background"
	case FillErase:
		return "Fill: erase"
	default:
	}
	return "Unknown fill mode"
}

// empty string means background
func ParseFillMode(s string) (FillMode, error) {
	switch strings.ToLower(s) {
	case "none":
		return FillNone, nil
	case "", "background", "fill":
		return FillBackground, nil
	case "erase":
		return FillErase, nil
	}
	return 0, unknown("fill mode", s)
}

type OperationMode int

const (
	OpIsolationCut OperationMode = iota + 1
	OpEdgeMill
	OpDrill
	OpReferencePins
	OpBedFlattening
)

func (om OperationMode) String() string {
	switch om {
	case OpIsolationCut:
		return "isolation cut"
	case OpEdgeMill:
		return "edge mill"
	case OpDrill:
		return "drill"
	case OpReferencePins:
		return "reference pins"
	case OpBedFlattening:
		return "bed flattening"
	default:
	}
	return "Unknown operation"
}

// config section name of the operation
func (om OperationMode) Key() string {
	switch om {
	case OpIsolationCut:
		return "isolation"
	case OpEdgeMill:
		return "edgemill"
	case OpDrill:
		return "drill"
	case OpReferencePins:
		return "pins"
	case OpBedFlattening:
		return "bedflatten"
	default:
	}
	return ""
}

func ParseOperationMode(s string) (OperationMode, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "")) {
	case "", "isolation", "isolationcut":
		return OpIsolationCut, nil
	case "edgemill", "edge":
		return OpEdgeMill, nil
	case "drill", "excellon":
		return OpDrill, nil
	case "pins", "referencepins":
		return OpReferencePins, nil
	case "bedflatten", "bedflattening", "flatten":
		return OpBedFlattening, nil
	}
	return 0, unknown("operation", s)
}

type Units int

const (
	UnitsInches Units = iota + 1
	UnitsMillimeters
)

func (u Units) String() string {
	switch u {
	case UnitsInches:
		return "inches"
	case UnitsMillimeters:
		return "millimeters"
	default:
	}
	return "Unknown units"
}

func ParseUnits(s string) (Units, error) {
	switch strings.ToLower(s) {
	case "in", "inch", "inches":
		return UnitsInches, nil
	case "mm", "millimeter", "millimeters", "metric":
		return UnitsMillimeters, nil
	}
	return 0, unknown("units", s)
}

// MirrorMode controls flipping of X around a vertical axis in the output
type MirrorMode int

const (
	NoMirror MirrorMode = iota + 1
	// negate X and shift it back by twice the mirror axis X
	MirrorRelative
	// negate X only, the origin itself is offset
	MirrorAbsolute
)

func (m MirrorMode) String() string {
	switch m {
	case NoMirror:
		return "no mirror"
	case MirrorRelative:
		return "mirror X (relative to axis)"
	case MirrorAbsolute:
		return "mirror X (absolute)"
	default:
	}
	return "Unknown mirror mode"
}

func (m MirrorMode) Mirrored() bool {
	return m == MirrorRelative || m == MirrorAbsolute
}

func ParseMirrorMode(s string) (MirrorMode, error) {
	switch strings.ToLower(s) {
	case "", "none", "no":
		return NoMirror, nil
	case "relative", "x":
		return MirrorRelative, nil
	case "absolute":
		return MirrorAbsolute, nil
	}
	return 0, unknown("mirror mode", s)
}
