// Package chart turns the progress log and commit annotations into a PNG line chart.
//
// Build produces a plain model of what will be drawn so the layout can be checked
// without decoding images; Render draws that model with gonum/plot.
package chart

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/marcin-skalski/progress-tracker/internal/annotate"
	"github.com/marcin-skalski/progress-tracker/internal/config"
	"github.com/marcin-skalski/progress-tracker/internal/store"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no progress data to plot")

const (
	Title      = "Manuscript Progress Tracking"
	DateFormat = "01/02"

	// Share of the data span reserved below the curve for annotations.
	bandFraction = 0.3
	// Headroom above the highest count.
	marginFraction = 0.05
)

type Point struct {
	Time  time.Time
	Words int
}

type Marker struct {
	Time     time.Time
	Y        float64
	Category string
	Color    string
	Label    string
}

type Chart struct {
	Points     []Point
	Markers    []Marker
	Categories []string // legend entries, sorted

	XMin, XMax time.Time
	YMin, YMax float64

	Width, Height float64 // inches
	DPI           int
	LineColor     string
}

// Build lays out the chart. It is a pure function of its inputs.
func Build(records []store.Record, annotations []annotate.Annotation, style config.PlotStyle) (Chart, error) {
	if len(records) == 0 {
		return Chart{}, ErrNoData
	}

	c := Chart{
		Width:     style.FigureSize[0],
		Height:    style.FigureSize[1],
		DPI:       style.DPI,
		LineColor: style.LineColor,
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	c.XMin, c.XMax = records[0].Timestamp, records[0].Timestamp
	for _, r := range records {
		c.Points = append(c.Points, Point{Time: r.Timestamp, Words: r.WordCount})
		minY = math.Min(minY, float64(r.WordCount))
		maxY = math.Max(maxY, float64(r.WordCount))
		c.XMin = earliest(c.XMin, r.Timestamp)
		c.XMax = latest(c.XMax, r.Timestamp)
	}

	span := maxY - minY
	if span == 0 {
		span = math.Max(1, maxY)
	}
	c.YMin = minY - span*marginFraction
	c.YMax = maxY + span*marginFraction

	if len(annotations) > 0 {
		rows := style.AnnotationHeight
		if rows < 1 {
			rows = 1
		}
		band := span * bandFraction
		c.YMin = minY - band

		seen := make(map[string]bool)
		for i, a := range annotations {
			row := i % rows
			c.Markers = append(c.Markers, Marker{
				Time:     a.Date,
				Y:        minY - band*float64(row+1)/float64(rows+1),
				Category: a.Category,
				Color:    a.Color,
				Label:    annotate.Label(a, annotate.LabelWidth) + " (" + a.Date.Format(DateFormat) + ")",
			})
			c.XMin = earliest(c.XMin, a.Date)
			c.XMax = latest(c.XMax, a.Date)
			if !seen[a.Category] {
				seen[a.Category] = true
				c.Categories = append(c.Categories, a.Category)
			}
		}
		sort.Strings(c.Categories)
	}

	if c.XMin.Equal(c.XMax) {
		c.XMin = c.XMin.Add(-12 * time.Hour)
		c.XMax = c.XMax.Add(12 * time.Hour)
	}

	return c, nil
}

func earliest(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
