package strings_storage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testArray = []string{
	"G17",
	"G21",
	"G90",
	"M03",
	"G00 Z1.000",
	"G00 X0.000 Y0.000",
	"G01 Z-0.050 F50",
	"G01 X10.000 Y0.000 F100",
	"M05",
	"M02",
}

func filled() *Storage {
	s := NewStorage()
	s.AcceptAll(testArray)
	return s
}

func TestStorage_EmptyRead(t *testing.T) {
	s := NewStorage()
	assert.Zero(t, s.Len())
	assert.Equal(t, "", s.String())
}

func TestStorage_SequentialRead(t *testing.T) {
	s := filled()
	require.Equal(t, len(testArray), s.Len())
	for i, want := range testArray {
		require.Equal(t, i, s.PeekPos())
		require.Equal(t, want, s.String())
	}
	assert.Equal(t, "", s.String())
	s.ResetPos()
	assert.Equal(t, testArray[0], s.String())
}

func TestStorage_DiscardsEmpty(t *testing.T) {
	s := NewStorage()
	s.Accept("")
	s.Accept("M02")
	s.Accept("")
	assert.Equal(t, []string{"M02"}, s.ToArray())
}

func TestStorage_ToArrayIsACopy(t *testing.T) {
	s := filled()
	arr := s.ToArray()
	arr[0] = "changed"
	s.ResetPos()
	assert.Equal(t, "G17", s.String())
}

func TestStorage_Empty(t *testing.T) {
	s := filled()
	_ = s.String()
	s.Empty()
	assert.Zero(t, s.Len())
	assert.Zero(t, s.PeekPos())
}

func TestStorage_Filter(t *testing.T) {
	s := filled()
	s.Filter(func(line, next string) bool {
		return !strings.HasPrefix(line, "G00") || !strings.HasPrefix(next, "G00")
	})
	assert.NotContains(t, s.ToArray(), "G00 Z1.000")
	assert.Contains(t, s.ToArray(), "G00 X0.000 Y0.000")
	assert.Equal(t, len(testArray)-1, s.Len())
}

func TestStorage_JoinAndWrite(t *testing.T) {
	s := NewStorage()
	s.AcceptAll([]string{"G90", "M02"})
	assert.Equal(t, "G90\r\nM02\r\n", s.Join("\r\n"))

	var buf bytes.Buffer
	n, err := s.WriteLines(&buf, "\n")
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, "G90\nM02\n", buf.String())
}
