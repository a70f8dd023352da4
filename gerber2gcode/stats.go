package gerber2gcode

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrintStatistic writes one summary block per layer, numbers digit grouped
func PrintStatistic(w io.Writer, results []*Result) {
	p := message.NewPrinter(language.English)
	for _, r := range results {
		if r == nil {
			continue
		}
		p.Fprintf(w, "layer %s (%s) run %s\n", r.Name, r.Mode, r.RunID)
		if r.Err != nil {
			p.Fprintf(w, "\tfailed: %v\n", r.Err)
			continue
		}
		p.Fprintf(w, "\tshapes %d, degenerate %d, fills %d, erasures %d\n",
			r.Builder.Shapes, r.Builder.Degenerate, r.Builder.Fills, r.Builder.Erasures)
		p.Fprintf(w, "\tgrid cells used %d, overlays %d\n", r.UsedCells, r.Overlays)
		if r.Segments > 0 {
			p.Fprintf(w, "\tsegments %d, duplicates %d, paths %d (%d closed), distance chained %d, isolated %d\n",
				r.Segments, r.Chain.Duplicates, r.Chain.Paths, r.Chain.ClosedPaths, r.Chain.DistanceChained, r.Chain.Unchained)
		}
		p.Fprintf(w, "\tG-code lines %d: rapids %d, linear %d, arcs %d, holes %d, tool changes %d\n",
			r.Lines, r.Plotter.Rapids, r.Plotter.LinearMoves, r.Plotter.ArcMoves, r.Plotter.Holes, r.Plotter.ToolChanges)
		p.Fprintf(w, "\telapsed %v\n", r.Elapsed)
		if r.OutFile != "" {
			p.Fprintf(w, "\toutput %s\n", r.OutFile)
		}
		if r.PNGFile != "" {
			p.Fprintf(w, "\tpreview %s\n", r.PNGFile)
		}
	}
}
