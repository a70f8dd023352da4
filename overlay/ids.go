package overlay

import "fmt"

// BuilderIDs hands out builder IDs for one conversion run.
// IDs start at 1, zero means "nothing was drawn".
type BuilderIDs struct {
	last  int
	limit int
}

func NewBuilderIDs() *BuilderIDs {
	return &BuilderIDs{limit: MaxBuilderID}
}

// Next returns a fresh ID, panics with ErrIDSpaceExhausted past the limit
func (ids *BuilderIDs) Next() int {
	if ids.last >= ids.limit {
		panic(fmt.Errorf("%w: more than %d builder ids", ErrIDSpaceExhausted, ids.limit))
	}
	ids.last++
	return ids.last
}

// Last returns the most recently issued ID or 0
func (ids *BuilderIDs) Last() int {
	return ids.last
}
