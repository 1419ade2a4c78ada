// Package plot renders the sample line charts shown in the main window.
package plot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Figure fixes the rendered size, resolution and colors of a chart.
type Figure struct {
	Width  int
	Height int
	DPI    int
	Face   color.NRGBA
	Edge   color.NRGBA
}

// DefaultFigure is a 600x600 white figure with a black edge at 72 DPI.
var DefaultFigure = Figure{
	Width:  600,
	Height: 600,
	DPI:    72,
	Face:   color.NRGBA{R: 255, G: 255, B: 255, A: 255},
	Edge:   color.NRGBA{A: 255},
}

// Series is a line through Y, plotted against its indices.
type Series struct {
	Name string
	Y    []float64
}

// Samples returns the two placeholder series shown by the plot panel.
func Samples() []Series {
	return []Series{
		{Name: "sample 1", Y: []float64{0, 1}},
		{Name: "sample 2", Y: []float64{0, 2}},
	}
}

// NewFigure builds a figure from hex colors such as "#ffffff".
func NewFigure(width, height, dpi int, face, edge string) (Figure, error) {
	faceColor, err := ParseHexColor(face)
	if err != nil {
		return Figure{}, err
	}
	edgeColor, err := ParseHexColor(edge)
	if err != nil {
		return Figure{}, err
	}
	return Figure{Width: width, Height: height, DPI: dpi, Face: faceColor, Edge: edgeColor}, nil
}

// ParseHexColor parses "#rrggbb".
func ParseHexColor(s string) (color.NRGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// WritePNG renders s on fig as PNG.
func WritePNG(w io.Writer, s Series, fig Figure) error {
	if len(s.Y) < 2 {
		return fmt.Errorf("series %q: need at least two points, got %d", s.Name, len(s.Y))
	}
	if fig.Width <= 0 || fig.Height <= 0 || fig.DPI <= 0 {
		return fmt.Errorf("invalid figure %dx%d at %d dpi", fig.Width, fig.Height, fig.DPI)
	}

	xs := make([]float64, len(s.Y))
	for i := range xs {
		xs[i] = float64(i)
	}

	graph := chart.Chart{
		Width:  fig.Width,
		Height: fig.Height,
		DPI:    float64(fig.DPI),
		Background: chart.Style{
			FillColor:   toDrawing(fig.Face),
			StrokeColor: toDrawing(fig.Edge),
			StrokeWidth: 1,
		},
		Canvas: chart.Style{
			FillColor: toDrawing(fig.Face),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    s.Name,
				XValues: xs,
				YValues: s.Y,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 2,
				},
			},
		},
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %q: %w", s.Name, err)
	}
	return nil
}

// Render renders s on fig to an image.
func Render(s Series, fig Figure) (image.Image, error) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, s, fig); err != nil {
		return nil, err
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", s.Name, err)
	}
	return img, nil
}

// Blank returns a face-colored image of the figure size, shown when
// rendering fails.
func Blank(fig Figure) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, max(fig.Width, 1), max(fig.Height, 1)))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = fig.Face.R, fig.Face.G, fig.Face.B, fig.Face.A
	}
	return img
}

func toDrawing(c color.NRGBA) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}
