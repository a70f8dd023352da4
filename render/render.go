// PNG preview of an isoplot grid with the chained tool paths on top
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	gbt "github.com/VasiliyTurchenko/gerber2gcode/gerberbasetypes"
	"github.com/VasiliyTurchenko/gerber2gcode/isoplot"
	"github.com/VasiliyTurchenko/gerber2gcode/overlay"
	"github.com/VasiliyTurchenko/gerber2gcode/segments"
)

/*
 ************************** Rendering context ****************************
 */
type Render struct {
	// one pixel per grid cell, Y axis pointing up in the grid and down in the image
	Img    *image.NRGBA
	width  int
	height int

	BackgroundColor color.RGBA
	CopperColor     color.RGBA
	EdgeColor       color.RGBA
	InvertColor     color.RGBA
	ContourColor    color.RGBA
	PathColor       color.RGBA
	JumpColor       color.RGBA

	// path stroke width in pixels
	PenWidth float64

	//statistic
	CopperCells int
	EdgeCells   int
	Segments    int
	Jumps       int
}

func NewRender(width, height int) *Render {
	rc := &Render{
		Img:             image.NewNRGBA(image.Rect(0, 0, width, height)),
		width:           width,
		height:          height,
		BackgroundColor: color.RGBA{255, 255, 255, 255},
		CopperColor:     color.RGBA{255, 200, 120, 255},
		EdgeColor:       color.RGBA{255, 0, 0, 255},
		InvertColor:     color.RGBA{255, 0, 255, 255},
		ContourColor:    color.RGBA{0, 255, 0, 255},
		PathColor:       color.RGBA{0, 0, 255, 255},
		JumpColor:       color.RGBA{100, 100, 100, 255},
		PenWidth:        1,
	}
	draw.Draw(rc.Img, rc.Img.Bounds(), &image.Uniform{C: rc.BackgroundColor}, image.Point{}, draw.Src)
	return rc
}

// flip maps a grid row to an image row
func (rc *Render) flip(y float64) float64 {
	return float64(rc.height-1) - y
}

// DrawGrid paints copper cells and live edges
func (rc *Render) DrawGrid(g *isoplot.Grid) {
	g.Walk(g.Bounds(), func(x, y int, ov *overlay.Overlay) {
		col, ok := rc.cellColor(ov)
		if !ok {
			return
		}
		rc.Img.SetNRGBA(x, int(rc.flip(float64(y))), color.NRGBAModel.Convert(col).(color.NRGBA))
	})
}

func (rc *Render) cellColor(ov *overlay.Overlay) (color.Color, bool) {
	for _, t := range ov.Tags() {
		if !t.Flag().IsEdge() || !isoplot.IsLiveEdge(ov, t.BuilderID()) {
			continue
		}
		rc.EdgeCells++
		switch t.Flag() {
		case overlay.FlagInvertEdge:
			return rc.InvertColor, true
		case overlay.FlagContourEdge:
			return rc.ContourColor, true
		}
		return rc.EdgeColor, true
	}
	if ov.BackgroundCount() > 0 {
		rc.CopperCells++
		return rc.CopperColor, true
	}
	return nil, false
}

// DrawPaths strokes the segments of every path, gaps bridged inside a path
// are dashed
func (rc *Render) DrawPaths(paths []*segments.Path) error {
	dc := gg.NewContextForImage(rc.Img)
	defer dc.Close()
	dc.SetLineWidth(rc.PenWidth)

	for _, path := range paths {
		dc.SetColor(rc.PathColor)
		dc.ClearDash()
		var jumps [][4]float64
		px, py, started := 0, 0, false
		for _, seg := range path.Segments {
			c := seg.Common()
			if c.IsDuplicate {
				continue
			}
			x0, y0 := c.Start()
			x1, y1 := c.End()
			if started && (px != x0 || py != y0) {
				jumps = append(jumps, [4]float64{float64(px), float64(py), float64(x0), float64(y0)})
			}
			rc.segment(dc, seg, x0, y0, x1, y1)
			px, py, started = x1, y1, true
			rc.Segments++
		}
		if err := dc.Stroke(); err != nil {
			return err
		}
		if len(jumps) == 0 {
			continue
		}
		dc.SetColor(rc.JumpColor)
		dc.SetDash(4, 4)
		for _, j := range jumps {
			dc.DrawLine(j[0], rc.flip(j[1]), j[2], rc.flip(j[3]))
			rc.Jumps++
		}
		if err := dc.Stroke(); err != nil {
			return err
		}
	}
	img, ok := dc.Image().(*image.NRGBA)
	if !ok {
		img = image.NewNRGBA(rc.Img.Bounds())
		draw.Draw(img, img.Bounds(), dc.Image(), image.Point{}, draw.Src)
	}
	rc.Img = img
	return nil
}

func (rc *Render) segment(dc *gg.Context, seg segments.Segment, x0, y0, x1, y1 int) {
	switch s := seg.(type) {
	case *segments.Line:
		dc.DrawLine(float64(x0), rc.flip(float64(y0)), float64(x1), rc.flip(float64(y1)))
	case *segments.Arc:
		// image space mirrors Y, so a counter-clockwise arc turns clockwise
		cy := rc.flip(s.CenterY)
		a0 := math.Atan2(rc.flip(float64(y0))-cy, float64(x0)-s.CenterX)
		a1 := math.Atan2(rc.flip(float64(y1))-cy, float64(x1)-s.CenterX)
		if s.Direction() == gbt.IPModeCCwC {
			a0, a1 = a1, a0
		}
		dc.NewSubPath()
		dc.DrawArc(s.CenterX, cy, s.Radius, a0, a1)
		dc.NewSubPath()
	}
}

// Scaled fits the image into maxSide pixels, smaller images are returned as is
func (rc *Render) Scaled(maxSide int) image.Image {
	w, h := rc.Img.Bounds().Dx(), rc.Img.Bounds().Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return rc.Img
	}
	k := float64(maxSide) / float64(max(w, h))
	dst := image.NewNRGBA(image.Rect(0, 0, max(1, int(float64(w)*k)), max(1, int(float64(h)*k))))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), rc.Img, rc.Img.Bounds(), draw.Src, nil)
	return dst
}

func (rc *Render) WritePNG(w io.Writer, maxSide int) error {
	return png.Encode(w, rc.Scaled(maxSide))
}

func (rc *Render) SavePNG(name string, maxSide int) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := rc.WritePNG(f, maxSide); err != nil {
		f.Close()
		return fmt.Errorf("png %s: %w", name, err)
	}
	return f.Close()
}

// Preview renders the grid and the paths in one go
func Preview(g *isoplot.Grid, paths []*segments.Path) (*Render, error) {
	rc := NewRender(g.Width(), g.Height())
	rc.DrawGrid(g)
	if err := rc.DrawPaths(paths); err != nil {
		return nil, err
	}
	return rc, nil
}
