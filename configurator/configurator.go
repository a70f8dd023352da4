package configurator

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
	"github.com/VasiliyTurchenko/gerber2gcode/plotter"
	"github.com/VasiliyTurchenko/gerber2gcode/segments"
	"github.com/VasiliyTurchenko/gerber2gcode/xy"
)

var ErrBadConfig = errors.New("configuration error")

const (
	CfgCommonPrintStatistic string = "common.PrintStatistic"
	CfgCommonLogLevel       string = "common.LogLevel"
	CfgCommonJobs           string = "common.Jobs"

	CfgOutputUnits           string = "output.Units"
	CfgOutputLineTerminator  string = "output.LineTerminator"
	CfgOutputShowLineNumbers string = "output.ShowLineNumbers"
	CfgOutputLineNumberWidth string = "output.LineNumberWidth"
	CfgOutputLineNumberStep  string = "output.LineNumberStep"
	CfgOutputDecimalPlaces   string = "output.DecimalPlaces"
	CfgOutputArcRadiusWord   string = "output.ArcRadiusWord"
	CfgOutputSetPosition     string = "output.SetPosition"
	CfgOutputRunIDComment    string = "output.RunIDComment"
	CfgOutputDirectory       string = "output.Directory"

	CfgPcbXOrigin    string = "pcb.xOrigin"
	CfgPcbYOrigin    string = "pcb.yOrigin"
	CfgPcbXOffset    string = "pcb.xOffset"
	CfgPcbYOffset    string = "pcb.yOffset"
	CfgPcbMirror     string = "pcb.Mirror"
	CfgPcbMirrorAxis string = "pcb.MirrorAxisX"
	CfgPcbReZero     string = "pcb.ReZero"
	CfgPcbXReZero    string = "pcb.xReZero"
	CfgPcbYReZero    string = "pcb.yReZero"

	CfgChainMaxDistance string = "chain.MaxDistance"

	CfgRenderGeneratePNG string = "renderer.GeneratePNG"
	CfgRenderMaxSide     string = "renderer.MaxSide"
	CfgRenderDrawPaths   string = "renderer.DrawPaths"

	CfgPinsPoints   string = "pins.Points"
	CfgPinsTool     string = "pins.Tool"
	CfgPinsDiameter string = "pins.Diameter"

	CfgFlattenX0 string = "bedflatten.X0"
	CfgFlattenY0 string = "bedflatten.Y0"
	CfgFlattenX1 string = "bedflatten.X1"
	CfgFlattenY1 string = "bedflatten.Y1"
)

// tool head keys, prefixed by the operation key
const (
	CfgHeadZCut      string = "ZCut"
	CfgHeadZMove     string = "ZMove"
	CfgHeadZClear    string = "ZClear"
	CfgHeadXYFeed    string = "XYFeed"
	CfgHeadZFeed     string = "ZFeed"
	CfgHeadToolWidth string = "ToolWidth"
	CfgHeadDwell     string = "Dwell"
)

func headKey(mode gbt.OperationMode, key string) string {
	return mode.Key() + "." + key
}

var modes = []gbt.OperationMode{gbt.OpIsolationCut, gbt.OpEdgeMill, gbt.OpDrill, gbt.OpReferencePins, gbt.OpBedFlattening}

// default tool heads, millimeters
var heads = map[gbt.OperationMode]plotter.ToolHead{
	gbt.OpIsolationCut:  {ZCut: -0.05, ZMove: 1, ZClear: 5, XYFeed: 100, ZFeed: 50, ToolWidth: 0.2},
	gbt.OpEdgeMill:      {ZCut: -1.8, ZMove: 1, ZClear: 5, XYFeed: 60, ZFeed: 20, ToolWidth: 2},
	gbt.OpDrill:         {ZCut: -2, ZMove: 1, ZClear: 5, XYFeed: 200, ZFeed: 30, ToolWidth: 0.8, Dwell: 0.2},
	gbt.OpReferencePins: {ZCut: -4, ZMove: 1, ZClear: 5, XYFeed: 200, ZFeed: 30, ToolWidth: 3, Dwell: 0.5},
	gbt.OpBedFlattening: {ZCut: -0.1, ZMove: 1, ZClear: 5, XYFeed: 300, ZFeed: 50, ToolWidth: 3},
}

func SetDefaults(v *viper.Viper) {
	v.SetConfigName("config") // no need to include file extension
	v.AddConfigPath(".")      // set the path of your config file
	v.SetConfigType("toml")

	// diagnostic messages
	v.SetDefault(CfgCommonPrintStatistic, true)
	v.SetDefault(CfgCommonLogLevel, "info")
	v.SetDefault(CfgCommonJobs, 4)

	//
	v.SetDefault(CfgOutputUnits, "mm")
	v.SetDefault(CfgOutputLineTerminator, "crlf")
	v.SetDefault(CfgOutputShowLineNumbers, false)
	v.SetDefault(CfgOutputLineNumberWidth, 5)
	v.SetDefault(CfgOutputLineNumberStep, 1)
	v.SetDefault(CfgOutputDecimalPlaces, 3)
	v.SetDefault(CfgOutputArcRadiusWord, false)
	v.SetDefault(CfgOutputSetPosition, false)
	v.SetDefault(CfgOutputRunIDComment, true)
	v.SetDefault(CfgOutputDirectory, ".")

	//
	v.SetDefault(CfgPcbXOrigin, 0.0)
	v.SetDefault(CfgPcbYOrigin, 0.0)
	v.SetDefault(CfgPcbXOffset, 0.0)
	v.SetDefault(CfgPcbYOffset, 0.0)
	v.SetDefault(CfgPcbMirror, "none")
	v.SetDefault(CfgPcbMirrorAxis, 0.0)
	v.SetDefault(CfgPcbReZero, false)
	v.SetDefault(CfgPcbXReZero, 0.0)
	v.SetDefault(CfgPcbYReZero, 0.0)

	//
	v.SetDefault(CfgChainMaxDistance, segments.DefaultMaxDistance)

	//
	v.SetDefault(CfgRenderGeneratePNG, false)
	v.SetDefault(CfgRenderMaxSide, 2048)
	v.SetDefault(CfgRenderDrawPaths, true)

	//
	for _, m := range modes {
		h := heads[m]
		v.SetDefault(headKey(m, CfgHeadZCut), h.ZCut)
		v.SetDefault(headKey(m, CfgHeadZMove), h.ZMove)
		v.SetDefault(headKey(m, CfgHeadZClear), h.ZClear)
		v.SetDefault(headKey(m, CfgHeadXYFeed), h.XYFeed)
		v.SetDefault(headKey(m, CfgHeadZFeed), h.ZFeed)
		v.SetDefault(headKey(m, CfgHeadToolWidth), h.ToolWidth)
		v.SetDefault(headKey(m, CfgHeadDwell), h.Dwell)
	}

	//
	v.SetDefault(CfgPinsPoints, []interface{}{})
	v.SetDefault(CfgPinsTool, 1)
	v.SetDefault(CfgPinsDiameter, 3.0)
	v.SetDefault(CfgFlattenX0, 0.0)
	v.SetDefault(CfgFlattenY0, 0.0)
	v.SetDefault(CfgFlattenX1, 0.0)
	v.SetDefault(CfgFlattenY1, 0.0)
}

// ProcessConfigFile reads the named file, or config.toml from the
// working directory when name is empty
func ProcessConfigFile(v *viper.Viper, name string) error {
	if name != "" {
		v.SetConfigFile(name)
	}
	return v.ReadInConfig()
}

// NotFound tells a missing default config file apart from a broken one
func NotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf)
}

func lineTerminator(s string) (string, error) {
	switch s {
	case "crlf", "CRLF", "":
		return "\r\n", nil
	case "lf", "LF":
		return "\n", nil
	case "cr", "CR":
		return "\r", nil
	}
	return "", fmt.Errorf("%w: line terminator %q", ErrBadConfig, s)
}

// PlotterOptions builds the run options for a layer in source units
// rasterized at pointsPerUnit
func PlotterOptions(v *viper.Viper, source gbt.Units, pointsPerUnit float64) (plotter.Options, error) {
	opts := plotter.DefaultOptions()
	var err error
	if opts.OutputUnits, err = gbt.ParseUnits(v.GetString(CfgOutputUnits)); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrBadConfig, err)
	}
	if opts.Mirror, err = gbt.ParseMirrorMode(v.GetString(CfgPcbMirror)); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrBadConfig, err)
	}
	if opts.LineTerminator, err = lineTerminator(v.GetString(CfgOutputLineTerminator)); err != nil {
		return opts, err
	}
	opts.SourceUnits = source
	opts.PointsPerUnit = pointsPerUnit
	opts.MirrorAxisX = v.GetFloat64(CfgPcbMirrorAxis)
	opts.Origin = xy.NewXY(v.GetFloat64(CfgPcbXOrigin), v.GetFloat64(CfgPcbYOrigin))
	opts.Offset = xy.NewXY(v.GetFloat64(CfgPcbXOffset), v.GetFloat64(CfgPcbYOffset))
	opts.ReZero = v.GetBool(CfgPcbReZero)
	opts.ReZeroFactor = xy.NewXY(v.GetFloat64(CfgPcbXReZero), v.GetFloat64(CfgPcbYReZero))
	opts.ShowLineNumbers = v.GetBool(CfgOutputShowLineNumbers)
	opts.LineNumberWidth = v.GetInt(CfgOutputLineNumberWidth)
	opts.LineNumberStep = v.GetInt(CfgOutputLineNumberStep)
	opts.DecimalPlaces = v.GetInt(CfgOutputDecimalPlaces)
	opts.ArcRadiusWord = v.GetBool(CfgOutputArcRadiusWord)
	opts.SetPosition = v.GetBool(CfgOutputSetPosition)
	if pointsPerUnit <= 0 {
		return opts, fmt.Errorf("%w: points per unit %g", ErrBadConfig, pointsPerUnit)
	}
	if opts.LineNumberStep < 1 || opts.DecimalPlaces < 0 {
		return opts, fmt.Errorf("%w: line number step %d, decimal places %d", ErrBadConfig, opts.LineNumberStep, opts.DecimalPlaces)
	}
	return opts, nil
}

// ToolHead reads the Z levels and feeds of one operation
func ToolHead(v *viper.Viper, mode gbt.OperationMode) plotter.ToolHead {
	return plotter.ToolHead{
		Name:      mode.String(),
		ZCut:      v.GetFloat64(headKey(mode, CfgHeadZCut)),
		ZMove:     v.GetFloat64(headKey(mode, CfgHeadZMove)),
		ZClear:    v.GetFloat64(headKey(mode, CfgHeadZClear)),
		XYFeed:    v.GetFloat64(headKey(mode, CfgHeadXYFeed)),
		ZFeed:     v.GetFloat64(headKey(mode, CfgHeadZFeed)),
		ToolWidth: v.GetFloat64(headKey(mode, CfgHeadToolWidth)),
		Dwell:     v.GetFloat64(headKey(mode, CfgHeadDwell)),
	}
}

func ChainOptions(v *viper.Viper) segments.Options {
	return segments.Options{MaxDistance: v.GetFloat64(CfgChainMaxDistance)}
}

// Pins returns the reference pin locations, board units
func Pins(v *viper.Viper) ([]xy.XY, error) {
	raw, ok := v.Get(CfgPinsPoints).([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a list of [x, y] pairs", ErrBadConfig, CfgPinsPoints)
	}
	pins := make([]xy.XY, 0, len(raw))
	for i, item := range raw {
		pair, ok := item.([]interface{})
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%w: %s[%d] is not an [x, y] pair", ErrBadConfig, CfgPinsPoints, i)
		}
		x, okx := number(pair[0])
		y, oky := number(pair[1])
		if !okx || !oky {
			return nil, fmt.Errorf("%w: %s[%d] is not numeric", ErrBadConfig, CfgPinsPoints, i)
		}
		pins = append(pins, xy.NewXY(x, y))
	}
	return pins, nil
}

func number(i interface{}) (float64, bool) {
	switch n := i.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// FlattenArea is the configured bed flattening rectangle, board units
func FlattenArea(v *viper.Viper) (xy.XY, xy.XY) {
	return xy.NewXY(v.GetFloat64(CfgFlattenX0), v.GetFloat64(CfgFlattenY0)),
		xy.NewXY(v.GetFloat64(CfgFlattenX1), v.GetFloat64(CfgFlattenY1))
}

// DiagnosticAllCfgPrint lists every setting, sorted by key
func DiagnosticAllCfgPrint(v *viper.Viper, w io.Writer) {
	keys := v.AllKeys()
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintln(w, key, ":", v.Get(key))
	}
	fmt.Fprintln(w)
}

// WriteDefaults writes a config file holding every default
func WriteDefaults(w io.Writer) error {
	v := viper.New()
	SetDefaults(v)
	return toml.NewEncoder(w).Encode(v.AllSettings())
}
