package gerber2gcode

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VasiliyTurchenko/gerber2gcode/configurator"
	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
	"github.com/VasiliyTurchenko/gerber2gcode/overlay"
	"github.com/VasiliyTurchenko/gerber2gcode/steps"
)

func config() *viper.Viper {
	v := viper.New()
	configurator.SetDefaults(v)
	return v
}

func script(t *testing.T, name, operation, body string) *steps.Script {
	t.Helper()
	doc := "name: " + name + "\nunits: mm\npointsPerUnit: 10\nwidth: 30\nheight: 30\noperation: " + operation + "\n" + body
	s, err := steps.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return s
}

const pads = `steps:
  - op: circle
    x: 10
    y: 10
    radius: 5
  - op: rect
    x: 20
    y: 20
    width: 6
    height: 4
`

func TestRun_Isolation(t *testing.T) {
	c := New(config(), nil)
	res, err := c.Run(context.Background(), script(t, "top", "isolation", pads))
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, gbt.OpIsolationCut, res.Mode)
	assert.Equal(t, 2, res.Chain.Paths)
	assert.Equal(t, 2, res.Chain.ClosedPaths)
	assert.Zero(t, res.Chain.Unchained)
	assert.Equal(t, 2, res.Plotter.ArcMoves)
	assert.Contains(t, res.GCode, "G03 ")
	assert.Contains(t, res.GCode, "(run "+res.RunID+")")
	assert.True(t, strings.HasSuffix(res.GCode, "M02\r\n"))
	assert.Equal(t, res.Lines, strings.Count(res.GCode, "\r\n"))
}

func TestRun_EdgeMillKeepsTabs(t *testing.T) {
	body := `steps:
  - op: tabs
    count: 1
    length: 2
  - op: rect
    x: 15
    y: 15
    width: 20
    height: 20
    flag: contour
    fill: none
`
	v := config()
	c := New(v, nil)
	res, err := c.Run(context.Background(), script(t, "outline", "edgemill", body))
	require.NoError(t, err)
	withTabs := res.Plotter.Rapids

	iso, err := c.Run(context.Background(), script(t, "outline", "isolation", body))
	require.NoError(t, err)
	assert.Greater(t, withTabs, iso.Plotter.Rapids, "every tab lifts the tool once more")
}

func TestRun_Drill(t *testing.T) {
	body := `steps:
  - op: drill
    x: 5
    y: 5
    tool: 2
    diameter: 0.8
  - op: drill
    x: 10
    y: 5
    tool: 1
    diameter: 1.0
  - op: drill
    x: 15
    y: 5
    tool: 2
    diameter: 0.8
`
	res, err := New(config(), nil).Run(context.Background(), script(t, "drill", "drill", body))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Holes)
	assert.Equal(t, 2, res.Plotter.ToolChanges)
	assert.Less(t, strings.Index(res.GCode, "T02 M6"), strings.Index(res.GCode, "T01 M6"))
	assert.Equal(t, 3, strings.Count(res.GCode, "G04 P0.2"))
}

func TestRun_ReferencePins(t *testing.T) {
	v := config()
	v.Set(configurator.CfgPinsPoints, []interface{}{[]interface{}{1.0, 1.0}, []interface{}{29.0, 1.0}})
	res, err := New(v, nil).Run(context.Background(), script(t, "pins", "pins", "steps: []\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Holes)
	assert.Contains(t, res.GCode, "G00 X29.000 Y1.000")
}

func TestRun_BedFlattening(t *testing.T) {
	body := "flatten:\n  x0: 0\n  y0: 0\n  x1: 10\n  y1: 9\nsteps: []\n"
	v := config()
	v.Set(configurator.CfgPinsPoints, []interface{}{})
	res, err := New(v, nil).Run(context.Background(), script(t, "bed", "flatten", body))
	require.NoError(t, err)
	// 3 mm step over 9 mm: 4 rows, 3 links
	assert.Equal(t, 7, res.Plotter.LinearMoves)
	assert.Contains(t, res.GCode, "X10.000 Y9.000")
}

func TestRun_StepErrorAbortsLayer(t *testing.T) {
	bad := script(t, "bad", "isolation", "steps:\n  - op: circle\n    radius: 1\n    fill: sideways\n")
	_, err := New(config(), nil).Run(context.Background(), bad)
	assert.ErrorIs(t, err, gbt.ErrUnknownValue)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(config(), nil).Run(ctx, script(t, "top", "isolation", pads))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecovered(t *testing.T) {
	err := recovered("top", overlay.ErrUnknownOverlay)
	assert.ErrorIs(t, err, ErrLayerAborted)
	assert.ErrorIs(t, err, overlay.ErrUnknownOverlay)

	err = recovered("top", "boom")
	assert.ErrorIs(t, err, ErrLayerAborted)
	assert.Contains(t, err.Error(), "boom")
}

func TestRunAll_IndependentLayers(t *testing.T) {
	layers := []*steps.Script{
		script(t, "a", "isolation", pads),
		script(t, "bad", "isolation", "steps:\n  - op: circle\n    radius: 1\n    fill: sideways\n"),
		script(t, "a", "isolation", pads),
	}
	results, err := New(config(), nil).RunAll(context.Background(), layers, 2)
	require.Error(t, err)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	// same input, same program apart from the run ID comment
	strip := func(s string) string { return strings.ReplaceAll(s, results[0].RunID, "") }
	assert.Equal(t, strip(results[0].GCode), strings.ReplaceAll(results[2].GCode, results[2].RunID, ""))
	assert.NotEqual(t, results[0].RunID, results[2].RunID)
}

func TestRun_WritesFiles(t *testing.T) {
	v := config()
	v.Set(configurator.CfgRenderGeneratePNG, true)
	c := New(v, nil)
	c.OutDir = t.TempDir()
	res, err := c.Run(context.Background(), script(t, "top", "isolation", pads))
	require.NoError(t, err)

	data, err := os.ReadFile(res.OutFile)
	require.NoError(t, err)
	assert.Equal(t, res.GCode, string(data))
	info, err := os.Stat(res.PNGFile)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestPrintStatistic(t *testing.T) {
	var buf bytes.Buffer
	PrintStatistic(&buf, []*Result{
		{Name: "top", Mode: gbt.OpIsolationCut, Lines: 12345, Segments: 3},
		{Name: "bad", Mode: gbt.OpDrill, Err: errors.New("no holes")},
		nil,
	})
	out := buf.String()
	assert.Contains(t, out, "G-code lines 12,345")
	assert.Contains(t, out, "failed: no holes")
}
