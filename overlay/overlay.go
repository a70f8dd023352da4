package overlay

import (
	"slices"
	"strconv"
	"strings"
)

// Overlay is an immutable, interned set of tags found on one grid cell.
// A nil *Overlay is the empty overlay (ID 0), all methods accept it.
type Overlay struct {
	id   int
	key  string
	tags []Tag // sorted

	background  int
	normalEdge  int
	contourEdge int
	invertEdge  int
}

func newOverlay(id int, tags []Tag) *Overlay {
	ov := &Overlay{id: id, tags: tags, key: identKey(tags)}
	for _, t := range tags {
		switch t.Flag() {
		case FlagBackground:
			ov.background++
		case FlagNormalEdge:
			ov.normalEdge++
		case FlagContourEdge:
			ov.contourEdge++
		case FlagInvertEdge:
			ov.invertEdge++
		}
	}
	return ov
}

// identKey concatenates the hex forms of sorted tags
func identKey(sorted []Tag) string {
	var sb strings.Builder
	sb.Grow(len(sorted) * 8)
	for _, t := range sorted {
		sb.WriteString(t.Hex())
	}
	return sb.String()
}

func (ov *Overlay) ID() int {
	if ov == nil {
		return 0
	}
	return ov.id
}

// Key is the identity key, empty for the empty overlay
func (ov *Overlay) Key() string {
	if ov == nil {
		return ""
	}
	return ov.key
}

// Tags returns a copy of the tags in canonical order
func (ov *Overlay) Tags() []Tag {
	if ov == nil {
		return nil
	}
	return slices.Clone(ov.tags)
}

func (ov *Overlay) Len() int {
	if ov == nil {
		return 0
	}
	return len(ov.tags)
}

func (ov *Overlay) Contains(t Tag) bool {
	if ov == nil {
		return false
	}
	_, found := slices.BinarySearch(ov.tags, t)
	return found
}

// HasBuilderID is true if any tag belongs to builderID
func (ov *Overlay) HasBuilderID(builderID int) bool {
	if ov == nil {
		return false
	}
	for _, t := range ov.tags {
		if t.BuilderID() == builderID {
			return true
		}
	}
	return false
}

// HasFlagFor is true if the overlay holds (builderID, flag)
func (ov *Overlay) HasFlagFor(builderID int, flag Flag) bool {
	if ov == nil || !flag.valid() {
		return false
	}
	return ov.Contains(Tag(uint32(builderID) | uint32(flag)))
}

// HasEdgeFor is true if the overlay holds any edge tag of builderID
func (ov *Overlay) HasEdgeFor(builderID int) bool {
	return ov.HasFlagFor(builderID, FlagNormalEdge) ||
		ov.HasFlagFor(builderID, FlagContourEdge) ||
		ov.HasFlagFor(builderID, FlagInvertEdge)
}

// BackgroundOtherThan is true if some builder other than builderID claims the cell as filled
func (ov *Overlay) BackgroundOtherThan(builderID int) bool {
	if ov == nil || ov.background == 0 {
		return false
	}
	for _, t := range ov.tags {
		if t.Flag() == FlagBackground && t.BuilderID() != builderID {
			return true
		}
	}
	return false
}

// HasAnyOf is true if a tag of any of the builder IDs is present
func (ov *Overlay) HasAnyOf(builderIDs []int) bool {
	for _, id := range builderIDs {
		if ov.HasBuilderID(id) {
			return true
		}
	}
	return false
}

func (ov *Overlay) BackgroundCount() int {
	if ov == nil {
		return 0
	}
	return ov.background
}

func (ov *Overlay) NormalEdgeCount() int {
	if ov == nil {
		return 0
	}
	return ov.normalEdge
}

func (ov *Overlay) ContourEdgeCount() int {
	if ov == nil {
		return 0
	}
	return ov.contourEdge
}

func (ov *Overlay) InvertEdgeCount() int {
	if ov == nil {
		return 0
	}
	return ov.invertEdge
}

// EdgeCount sums all the edge flavours
func (ov *Overlay) EdgeCount() int {
	return ov.NormalEdgeCount() + ov.ContourEdgeCount() + ov.InvertEdgeCount()
}

func (ov *Overlay) String() string {
	if ov == nil {
		return "Overlay #0 {}"
	}
	parts := make([]string, len(ov.tags))
	for i, t := range ov.tags {
		parts[i] = t.String()
	}
	return "Overlay #" + strconv.Itoa(ov.id) + " {" + strings.Join(parts, ", ") + "}"
}
