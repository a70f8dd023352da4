// Package overlay holds the canonical description of what occupies one cell
// of the isoplot grid: a set of tags, each one a builder ID packed with a
// single semantic flag.
package overlay

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidTag is raised when a tag does not carry exactly one flag
	// or its builder ID does not fit into 24 bits.
	ErrInvalidTag = errors.New("invalid overlay tag")

	// ErrUnknownOverlay is raised on a lookup of an overlay ID which was never issued.
	ErrUnknownOverlay = errors.New("unknown overlay id")

	// ErrIDSpaceExhausted is raised when a builder or overlay ID counter
	// runs past its limit.
	ErrIDSpaceExhausted = errors.New("id space exhausted")
)

// Flag is the semantic part of a tag
type Flag uint32

const (
	FlagBackground  Flag = 1 << 24
	FlagNormalEdge  Flag = 1 << 25
	FlagContourEdge Flag = 1 << 26
	FlagInvertEdge  Flag = 1 << 27

	flagMask Flag = FlagBackground | FlagNormalEdge | FlagContourEdge | FlagInvertEdge
)

// MaxBuilderID is the largest builder ID a tag can hold
const MaxBuilderID = 1<<24 - 1

const idMask = uint32(MaxBuilderID)

func (f Flag) String() string {
	switch f {
	case FlagBackground:
		return "background"
	case FlagNormalEdge:
		return "normal edge"
	case FlagContourEdge:
		return "contour edge"
	case FlagInvertEdge:
		return "invert edge"
	default:
	}
	return "invalid flag 0x" + strconv.FormatUint(uint64(f), 16)
}

// ParseEdgeFlag reads an edge flag name, empty means normal edge
func ParseEdgeFlag(s string) (Flag, error) {
	switch strings.ToLower(s) {
	case "", "normal":
		return FlagNormalEdge, nil
	case "contour":
		return FlagContourEdge, nil
	case "invert", "inverted":
		return FlagInvertEdge, nil
	}
	return 0, fmt.Errorf("%w: edge flag %q", ErrInvalidTag, s)
}

// IsEdge is true for every flag except background
func (f Flag) IsEdge() bool {
	return f == FlagNormalEdge || f == FlagContourEdge || f == FlagInvertEdge
}

// exactly one known flag bit and nothing else
func (f Flag) valid() bool {
	return f&^flagMask == 0 && f != 0 && f&(f-1) == 0
}

// Tag is a builder ID (low 24 bits) packed with exactly one flag
type Tag uint32

// NewTag packs builderID and flag. Zero or several flags, or an ID outside
// 1..MaxBuilderID is a programming error and panics with ErrInvalidTag.
func NewTag(builderID int, flag Flag) Tag {
	t, err := MakeTag(builderID, flag)
	if err != nil {
		panic(err)
	}
	return t
}

// MakeTag is NewTag returning the error instead of panicking
func MakeTag(builderID int, flag Flag) (Tag, error) {
	if !flag.valid() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidTag, flag)
	}
	if builderID <= 0 || builderID > MaxBuilderID {
		return 0, fmt.Errorf("%w: builder id %d", ErrInvalidTag, builderID)
	}
	return Tag(uint32(builderID) | uint32(flag)), nil
}

func (t Tag) BuilderID() int {
	return int(uint32(t) & idMask)
}

func (t Tag) Flag() Flag {
	return Flag(uint32(t) &^ idMask)
}

// Combine replaces the flag of the tag, the builder ID stays
func (t Tag) Combine(flag Flag) Tag {
	return NewTag(t.BuilderID(), flag)
}

// checkTag panics unless t holds exactly one flag
func checkTag(t Tag) {
	if !t.Flag().valid() || t.BuilderID() == 0 {
		panic(fmt.Errorf("%w: 0x%08x", ErrInvalidTag, uint32(t)))
	}
}

// Hex is the fixed width form used in overlay identity keys
func (t Tag) Hex() string {
	return fmt.Sprintf("%08x", uint32(t))
}

func (t Tag) String() string {
	return strconv.Itoa(t.BuilderID()) + ":" + t.Flag().String()
}
