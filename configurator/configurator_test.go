package configurator

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
	"github.com/VasiliyTurchenko/gerber2gcode/plotter"
	"github.com/VasiliyTurchenko/gerber2gcode/segments"
	"github.com/VasiliyTurchenko/gerber2gcode/xy"
)

func defaults() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(name, []byte(body), 0o644))
	return name
}

func TestDefaults(t *testing.T) {
	v := defaults()
	opts, err := PlotterOptions(v, gbt.UnitsMillimeters, 100)
	require.NoError(t, err)

	want := plotter.DefaultOptions()
	want.PointsPerUnit = 100
	assert.Equal(t, want, opts)

	head := ToolHead(v, gbt.OpIsolationCut)
	def := plotter.DefaultToolHead()
	def.Name = head.Name
	assert.Equal(t, def, head)
	assert.Equal(t, segments.DefaultOptions(), ChainOptions(v))

	pins, err := Pins(v)
	require.NoError(t, err)
	assert.Empty(t, pins)
}

func TestProcessConfigFile(t *testing.T) {
	name := writeConfig(t, `
[output]
units = "in"
lineterminator = "lf"

[pcb]
mirror = "relative"
mirroraxisx = 50.0
xorigin = 1.5

[isolation]
zcut = -0.1

[chain]
maxdistance = 5

[pins]
points = [[1, 2], [3.5, 4]]
`)
	v := defaults()
	require.NoError(t, ProcessConfigFile(v, name))

	opts, err := PlotterOptions(v, gbt.UnitsMillimeters, 10)
	require.NoError(t, err)
	assert.Equal(t, gbt.UnitsInches, opts.OutputUnits)
	assert.Equal(t, "\n", opts.LineTerminator)
	assert.Equal(t, gbt.MirrorRelative, opts.Mirror)
	assert.Equal(t, 50.0, opts.MirrorAxisX)
	assert.Equal(t, xy.NewXY(1.5, 0), opts.Origin)

	assert.Equal(t, -0.1, ToolHead(v, gbt.OpIsolationCut).ZCut)
	assert.Equal(t, heads[gbt.OpEdgeMill].ZCut, ToolHead(v, gbt.OpEdgeMill).ZCut)
	assert.Equal(t, 5.0, ChainOptions(v).MaxDistance)

	pins, err := Pins(v)
	require.NoError(t, err)
	assert.Equal(t, []xy.XY{xy.NewXY(1, 2), xy.NewXY(3.5, 4)}, pins)
}

func TestPlotterOptions_Errors(t *testing.T) {
	for key, value := range map[string]interface{}{
		CfgPcbMirror:            "diagonal",
		CfgOutputUnits:          "cubits",
		CfgOutputLineTerminator: "nul",
		CfgOutputLineNumberStep: 0,
	} {
		v := defaults()
		v.Set(key, value)
		_, err := PlotterOptions(v, gbt.UnitsMillimeters, 1)
		assert.ErrorIs(t, err, ErrBadConfig, key)
	}
	_, err := PlotterOptions(defaults(), gbt.UnitsMillimeters, 0)
	assert.ErrorIs(t, err, ErrBadConfig)
}

func TestPins_Malformed(t *testing.T) {
	v := defaults()
	v.Set(CfgPinsPoints, []interface{}{[]interface{}{1.0}})
	_, err := Pins(v)
	assert.ErrorIs(t, err, ErrBadConfig)

	v.Set(CfgPinsPoints, "here")
	_, err = Pins(v)
	assert.ErrorIs(t, err, ErrBadConfig)
}

func TestProcessConfigFile_NotFound(t *testing.T) {
	v := viper.New()
	v.SetConfigName("no-such-config")
	v.SetConfigType("toml")
	v.AddConfigPath(t.TempDir())
	err := ProcessConfigFile(v, "")
	require.Error(t, err)
	assert.True(t, NotFound(err))
}

func TestWriteDefaults_Loads(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDefaults(&buf))
	assert.Contains(t, buf.String(), "[isolation]")

	v := viper.New()
	require.NoError(t, ProcessConfigFile(v, writeConfig(t, buf.String())))
	for _, m := range modes {
		assert.Equal(t, ToolHead(defaults(), m), ToolHead(v, m), m.String())
	}
	assert.Equal(t, "crlf", v.GetString(CfgOutputLineTerminator))
}

func TestDiagnosticAllCfgPrint(t *testing.T) {
	var buf bytes.Buffer
	DiagnosticAllCfgPrint(defaults(), &buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "bedflatten.dwell"), lines[0])
}
