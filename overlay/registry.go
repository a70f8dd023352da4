package overlay

import (
	"fmt"
	"slices"
)

// MaxOverlayID is the number of distinct overlays one registry can issue
const MaxOverlayID = 1 << 24

// Registry interns overlays for one conversion run: equal tag sets always
// map to the same *Overlay. ID 0 is reserved for the empty overlay.
type Registry struct {
	byKey map[string]*Overlay
	byID  []*Overlay // index is the overlay ID, [0] stays nil
	limit int
}

func NewRegistry() *Registry {
	return newRegistryWithLimit(MaxOverlayID)
}

func newRegistryWithLimit(limit int) *Registry {
	return &Registry{
		byKey: make(map[string]*Overlay),
		byID:  make([]*Overlay, 1, 1024),
		limit: limit,
	}
}

// Len is the number of overlays issued so far, the empty one excluded
func (r *Registry) Len() int {
	return len(r.byID) - 1
}

// Lookup returns the overlay with the given ID, nil for 0.
// An ID never issued by this registry panics with ErrUnknownOverlay.
func (r *Registry) Lookup(id int) *Overlay {
	if id == 0 {
		return nil
	}
	if id < 0 || id >= len(r.byID) {
		panic(fmt.Errorf("%w: %d", ErrUnknownOverlay, id))
	}
	return r.byID[id]
}

// GetOrCreate returns the overlay holding only tag
func (r *Registry) GetOrCreate(tag Tag) *Overlay {
	checkTag(tag)
	return r.intern([]Tag{tag})
}

// AddTag returns the overlay holding the tags of existingID plus tag.
// Adding a tag already present returns the existing overlay.
func (r *Registry) AddTag(existingID int, tag Tag) *Overlay {
	checkTag(tag)
	existing := r.Lookup(existingID)
	if existing == nil {
		return r.intern([]Tag{tag})
	}
	pos, found := slices.BinarySearch(existing.tags, tag)
	if found {
		return existing
	}
	tags := make([]Tag, 0, len(existing.tags)+1)
	tags = append(tags, existing.tags[:pos]...)
	tags = append(tags, tag)
	tags = append(tags, existing.tags[pos:]...)
	return r.intern(tags)
}

// RemoveTag returns the overlay of existingID without tag.
// A missing tag is not an error, the existing overlay is returned.
// Removing the last tag yields the empty overlay (nil).
func (r *Registry) RemoveTag(existingID int, tag Tag) *Overlay {
	checkTag(tag)
	existing := r.Lookup(existingID)
	if existing == nil {
		return nil
	}
	pos, found := slices.BinarySearch(existing.tags, tag)
	if !found {
		return existing
	}
	tags := make([]Tag, 0, len(existing.tags)-1)
	tags = append(tags, existing.tags[:pos]...)
	tags = append(tags, existing.tags[pos+1:]...)
	return r.intern(tags)
}

// RemoveBuilderID drops every tag of builderID from the overlay of existingID
func (r *Registry) RemoveBuilderID(existingID int, builderID int) *Overlay {
	existing := r.Lookup(existingID)
	if existing == nil || !existing.HasBuilderID(builderID) {
		return existing
	}
	return r.filter(existing, func(t Tag) bool { return t.BuilderID() != builderID })
}

// RemoveFlag drops every tag carrying flag, whatever builder it belongs to,
// except the tags of keepID
func (r *Registry) RemoveFlag(existingID int, flag Flag, keepID int) *Overlay {
	existing := r.Lookup(existingID)
	if existing == nil {
		return nil
	}
	return r.filter(existing, func(t Tag) bool { return t.Flag() != flag || t.BuilderID() == keepID })
}

func (r *Registry) filter(existing *Overlay, keep func(Tag) bool) *Overlay {
	tags := make([]Tag, 0, len(existing.tags))
	for _, t := range existing.tags {
		if keep(t) {
			tags = append(tags, t)
		}
	}
	if len(tags) == len(existing.tags) {
		return existing
	}
	return r.intern(tags)
}

// intern takes ownership of sorted tags
func (r *Registry) intern(tags []Tag) *Overlay {
	if len(tags) == 0 {
		return nil
	}
	key := identKey(tags)
	if ov, ok := r.byKey[key]; ok {
		return ov
	}
	id := len(r.byID)
	if id > r.limit {
		panic(fmt.Errorf("%w: more than %d overlays", ErrIDSpaceExhausted, r.limit))
	}
	ov := newOverlay(id, tags)
	r.byKey[key] = ov
	r.byID = append(r.byID, ov)
	return ov
}
