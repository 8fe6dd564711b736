package chart

import (
	"fmt"
	"image/color"
	"io"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var fallbackColor = color.RGBA{R: 0x60, G: 0x7D, B: 0x8B, A: 0xFF}

func parseColor(hex string) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return fallbackColor
	}
	return c
}

func unix(p Point) float64 {
	return float64(p.Time.Unix())
}

// Plot builds the gonum plot for c.
func Plot(c Chart) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = Title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Word Count"
	p.X.Tick.Marker = plot.TimeTicks{Format: DateFormat}
	p.Legend.Top = true
	p.Legend.Left = true

	grid := plotter.NewGrid()
	grid.Vertical.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	grid.Horizontal.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	p.Add(grid)

	xys := make(plotter.XYs, len(c.Points))
	for i, pt := range c.Points {
		xys[i].X = unix(pt)
		xys[i].Y = float64(pt.Words)
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return nil, fmt.Errorf("word count line: %w", err)
	}
	lineColor := parseColor(c.LineColor)
	line.Color = lineColor
	line.Width = vg.Points(2)
	points.Color = lineColor
	points.Shape = draw.CircleGlyph{}
	points.Radius = vg.Points(3)
	p.Add(line, points)
	p.Legend.Add("Word Count", line, points)

	if err := addMarkers(p, c); err != nil {
		return nil, err
	}

	p.X.Min = float64(c.XMin.Unix())
	p.X.Max = float64(c.XMax.Unix())
	p.Y.Min = c.YMin
	p.Y.Max = c.YMax
	return p, nil
}

func addMarkers(p *plot.Plot, c Chart) error {
	if len(c.Markers) == 0 {
		return nil
	}

	byCategory := make(map[string]plotter.XYs)
	colors := make(map[string]color.Color)
	labels := plotter.XYLabels{XYs: make(plotter.XYs, len(c.Markers)), Labels: make([]string, len(c.Markers))}
	for i, m := range c.Markers {
		xy := plotter.XY{X: float64(m.Time.Unix()), Y: m.Y}
		byCategory[m.Category] = append(byCategory[m.Category], xy)
		if _, ok := colors[m.Category]; !ok {
			colors[m.Category] = parseColor(m.Color)
		}
		labels.XYs[i] = xy
		labels.Labels[i] = m.Label
	}

	for _, name := range c.Categories {
		s, err := plotter.NewScatter(byCategory[name])
		if err != nil {
			return fmt.Errorf("annotation markers %s: %w", name, err)
		}
		s.GlyphStyle.Color = colors[name]
		s.GlyphStyle.Shape = draw.TriangleGlyph{}
		s.GlyphStyle.Radius = vg.Points(4)
		p.Add(s)
		p.Legend.Add(name, s)
	}

	l, err := plotter.NewLabels(labels)
	if err != nil {
		return fmt.Errorf("annotation labels: %w", err)
	}
	for i, m := range c.Markers {
		l.TextStyle[i].Color = parseColor(m.Color)
		l.TextStyle[i].Font.Size = vg.Points(7)
		l.TextStyle[i].XAlign = text.XCenter
		l.TextStyle[i].YAlign = text.YTop
	}
	l.Offset = vg.Point{Y: -vg.Points(5)}
	p.Add(l)
	return nil
}

// Render draws c as a PNG into w.
func Render(w io.Writer, c Chart) error {
	p, err := Plot(c)
	if err != nil {
		return err
	}

	width := vg.Length(c.Width) * vg.Inch
	height := vg.Length(c.Height) * vg.Inch
	canvas := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(c.DPI))
	p.Draw(draw.New(canvas))

	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
