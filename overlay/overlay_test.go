package overlay

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allFlags = []Flag{FlagBackground, FlagNormalEdge, FlagContourEdge, FlagInvertEdge}

func TestNewTag_SingleFlag(t *testing.T) {
	for _, f := range allFlags {
		tag := NewTag(42, f)
		assert.Equal(t, 42, tag.BuilderID())
		assert.Equal(t, f, tag.Flag())
	}
}

func TestNewTag_BadFlags(t *testing.T) {
	bad := []Flag{
		0,
		FlagBackground | FlagNormalEdge,
		FlagContourEdge | FlagInvertEdge,
		FlagBackground | FlagNormalEdge | FlagContourEdge | FlagInvertEdge,
		1 << 28,
		1,
	}
	for _, f := range bad {
		_, err := MakeTag(1, f)
		require.Error(t, err, "flag 0x%x", uint32(f))
		assert.True(t, errors.Is(err, ErrInvalidTag))
		assert.Panics(t, func() { NewTag(1, f) })
	}
}

func TestNewTag_BuilderIDRange(t *testing.T) {
	_, err := MakeTag(0, FlagBackground)
	assert.ErrorIs(t, err, ErrInvalidTag)
	_, err = MakeTag(MaxBuilderID+1, FlagBackground)
	assert.ErrorIs(t, err, ErrInvalidTag)
	tag, err := MakeTag(MaxBuilderID, FlagInvertEdge)
	require.NoError(t, err)
	assert.Equal(t, MaxBuilderID, tag.BuilderID())
}

func TestTag_Hex(t *testing.T) {
	assert.Equal(t, "01000005", NewTag(5, FlagBackground).Hex())
	assert.Equal(t, "02000005", NewTag(5, FlagNormalEdge).Hex())
}

func TestRegistry_LookupZeroAndUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Lookup(0))
	assert.Panics(t, func() { r.Lookup(1) })
	ov := r.GetOrCreate(NewTag(1, FlagBackground))
	assert.Same(t, ov, r.Lookup(ov.ID()))
	assert.Panics(t, func() { r.Lookup(ov.ID() + 1) })
}

func TestRegistry_UnknownOverlayIsWrapped(t *testing.T) {
	r := NewRegistry()
	defer func() {
		rec := recover()
		err, ok := rec.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrUnknownOverlay)
	}()
	r.Lookup(7)
}

func TestRegistry_GetOrCreateInterns(t *testing.T) {
	r := NewRegistry()
	a := r.GetOrCreate(NewTag(3, FlagNormalEdge))
	b := r.GetOrCreate(NewTag(3, FlagNormalEdge))
	assert.Same(t, a, b)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, a.NormalEdgeCount())
}

func TestRegistry_AddTagIdempotent(t *testing.T) {
	r := NewRegistry()
	tag := NewTag(9, FlagBackground)
	a := r.GetOrCreate(tag)
	b := r.AddTag(a.ID(), tag)
	assert.Same(t, a, b)
	c := r.AddTag(0, tag)
	assert.Same(t, a, c)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_OrderIndependentCanonicalization(t *testing.T) {
	tags := []Tag{
		NewTag(1, FlagBackground),
		NewTag(2, FlagNormalEdge),
		NewTag(3, FlagInvertEdge),
		NewTag(2, FlagContourEdge),
		NewTag(17, FlagBackground),
	}
	r := NewRegistry()
	build := func(order []Tag) *Overlay {
		id := 0
		for _, tag := range order {
			id = r.AddTag(id, tag).ID()
		}
		return r.Lookup(id)
	}
	want := build(tags)
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		perm := make([]Tag, len(tags))
		for j, k := range rnd.Perm(len(tags)) {
			perm[j] = tags[k]
		}
		// adding a tag twice must not fork a new overlay
		perm = append(perm, perm[0])
		assert.Same(t, want, build(perm))
	}
	assert.Equal(t, 2, want.BackgroundCount())
	assert.Equal(t, 1, want.NormalEdgeCount())
	assert.Equal(t, 1, want.ContourEdgeCount())
	assert.Equal(t, 1, want.InvertEdgeCount())
}

func TestRegistry_RemoveTag(t *testing.T) {
	r := NewRegistry()
	bg := NewTag(1, FlagBackground)
	edge := NewTag(2, FlagNormalEdge)
	both := r.AddTag(r.GetOrCreate(bg).ID(), edge)

	onlyEdge := r.RemoveTag(both.ID(), bg)
	assert.Same(t, r.GetOrCreate(edge), onlyEdge)

	// absent tag is a no-op
	same := r.RemoveTag(onlyEdge.ID(), bg)
	assert.Same(t, onlyEdge, same)

	assert.Nil(t, r.RemoveTag(onlyEdge.ID(), edge))
	assert.Nil(t, r.RemoveTag(0, edge))
}

func TestRegistry_RemoveBuilderID(t *testing.T) {
	r := NewRegistry()
	id := 0
	for _, tag := range []Tag{NewTag(4, FlagBackground), NewTag(4, FlagNormalEdge), NewTag(5, FlagBackground)} {
		id = r.AddTag(id, tag).ID()
	}
	ov := r.RemoveBuilderID(id, 4)
	require.NotNil(t, ov)
	assert.Equal(t, []Tag{NewTag(5, FlagBackground)}, ov.Tags())
	assert.Same(t, r.Lookup(id), r.RemoveBuilderID(id, 99))
}

func TestRegistry_RemoveFlag(t *testing.T) {
	r := NewRegistry()
	id := 0
	for _, tag := range []Tag{NewTag(1, FlagInvertEdge), NewTag(2, FlagInvertEdge), NewTag(1, FlagBackground)} {
		id = r.AddTag(id, tag).ID()
	}
	ov := r.RemoveFlag(id, FlagInvertEdge, 2)
	assert.Equal(t, []Tag{NewTag(1, FlagBackground), NewTag(2, FlagInvertEdge)}, ov.Tags())
}

func TestRegistry_InvalidTagPanics(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() { r.GetOrCreate(Tag(5)) })
	assert.Panics(t, func() { r.AddTag(0, Tag(uint32(FlagBackground|FlagNormalEdge)|5)) })
	assert.Panics(t, func() { r.RemoveTag(0, Tag(uint32(FlagBackground))) })
}

func TestRegistry_Exhaustion(t *testing.T) {
	r := newRegistryWithLimit(2)
	r.GetOrCreate(NewTag(1, FlagBackground))
	r.GetOrCreate(NewTag(2, FlagBackground))
	assert.Panics(t, func() { r.GetOrCreate(NewTag(3, FlagBackground)) })
}

func TestBuilderIDs(t *testing.T) {
	ids := NewBuilderIDs()
	assert.Equal(t, 0, ids.Last())
	assert.Equal(t, 1, ids.Next())
	assert.Equal(t, 2, ids.Next())
	ids.limit = 2
	assert.Panics(t, func() { ids.Next() })
}

func TestOverlay_NilIsEmpty(t *testing.T) {
	var ov *Overlay
	assert.Equal(t, 0, ov.ID())
	assert.Equal(t, 0, ov.Len())
	assert.False(t, ov.Contains(NewTag(1, FlagBackground)))
	assert.False(t, ov.BackgroundOtherThan(1))
	assert.Equal(t, "Overlay #0 {}", ov.String())
}

func TestOverlay_BackgroundOtherThan(t *testing.T) {
	r := NewRegistry()
	ov := r.AddTag(r.GetOrCreate(NewTag(1, FlagBackground)).ID(), NewTag(2, FlagNormalEdge))
	assert.False(t, ov.BackgroundOtherThan(1))
	assert.True(t, ov.BackgroundOtherThan(2))
	assert.True(t, ov.HasEdgeFor(2))
	assert.False(t, ov.HasEdgeFor(1))
}
