package director

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// SavePreview plots an orbit plan seen from above: the camera path, the
// first camera position and the anchor. The file type follows the extension.
func SavePreview(p *FramePlan, path string) error {
	if p.Mode != ModeOrbit || p.Anchor == nil {
		return fmt.Errorf("preview needs an orbit plan, got %q", p.Mode)
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("Orbit - %d frames, r=%.2f, elev=%.1f°",
		len(p.Entries), p.Anchor.Radius, p.Anchor.Elevation*180/math.Pi)
	pl.X.Label.Text = "X"
	pl.Y.Label.Text = "Y"

	path3 := make(plotter.XYs, 0, len(p.Entries)+1)
	for _, e := range p.Entries {
		path3 = append(path3, plotter.XY{X: e.Shot.Location[0], Y: e.Shot.Location[1]})
	}
	// close the loop
	path3 = append(path3, path3[0])

	line, err := plotter.NewLine(path3)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 40, G: 90, B: 200, A: 255}
	line.Width = vg.Points(1)

	stops, err := plotter.NewScatter(path3[:len(path3)-1])
	if err != nil {
		return err
	}
	stops.GlyphStyle.Radius = vg.Points(2)
	stops.GlyphStyle.Color = line.Color

	start, err := plotter.NewScatter(path3[:1])
	if err != nil {
		return err
	}
	start.GlyphStyle.Shape = draw.TriangleGlyph{}
	start.GlyphStyle.Radius = vg.Points(4)
	start.GlyphStyle.Color = color.RGBA{R: 30, G: 160, B: 60, A: 255}

	anchor, err := plotter.NewScatter(plotter.XYs{{X: p.Anchor.Point[0], Y: p.Anchor.Point[1]}})
	if err != nil {
		return err
	}
	anchor.GlyphStyle.Shape = draw.CrossGlyph{}
	anchor.GlyphStyle.Radius = vg.Points(4)
	anchor.GlyphStyle.Color = color.RGBA{R: 200, A: 255}

	pl.Add(plotter.NewGrid(), line, stops, start, anchor)
	pl.Legend.Add("path", line)
	pl.Legend.Add("frame 0", start)
	pl.Legend.Add("anchor", anchor)
	pl.Legend.Top = true
	pl.Legend.Left = false

	return pl.Save(6*vg.Inch, 6*vg.Inch, path)
}
