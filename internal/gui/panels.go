package gui

import (
	"sync"
	"time"

	"xrayphasemap/internal/config"
	"xrayphasemap/internal/log"
	"xrayphasemap/internal/plot"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Panel titles.
const (
	MainLayoutTitle = "Main layout"
	PlotLayoutTitle = "Plot layout"
)

// plotWeights are the vertical stretch factors of the two sample plots.
var plotWeights = []float32{1, 2}

// weightedVBox stacks objects vertically, sharing the height by weight.
type weightedVBox struct {
	weights []float32
}

func newWeightedVBox(weights ...float32) fyne.Layout {
	return &weightedVBox{weights: weights}
}

func (l *weightedVBox) weight(i int) float32 {
	if i < len(l.weights) && l.weights[i] > 0 {
		return l.weights[i]
	}
	return 1
}

// Layout implements fyne.Layout.
func (l *weightedVBox) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	var total float32
	for i, o := range objects {
		if o.Visible() {
			total += l.weight(i)
		}
	}
	if total == 0 {
		return
	}

	y := float32(0)
	for i, o := range objects {
		if !o.Visible() {
			continue
		}
		h := size.Height * l.weight(i) / total
		o.Move(fyne.NewPos(0, y))
		o.Resize(fyne.NewSize(size.Width, h))
		y += h
	}
}

// MinSize implements fyne.Layout.
func (l *weightedVBox) MinSize(objects []fyne.CanvasObject) fyne.Size {
	size := fyne.NewSize(0, 0)
	for _, o := range objects {
		if !o.Visible() {
			continue
		}
		m := o.MinSize()
		size.Width = fyne.Max(size.Width, m.Width)
		size.Height += m.Height
	}
	return size
}

// figureFromConfig falls back to plot.DefaultFigure for unusable settings.
func figureFromConfig(cfg *config.Config) plot.Figure {
	fig, err := plot.NewFigure(cfg.Plot.Width, cfg.Plot.Height, cfg.Plot.DPI, cfg.Plot.FaceColor, cfg.Plot.EdgeColor)
	if err != nil {
		log.Warnf("Using default plot figure: %v", err)
		return plot.DefaultFigure
	}
	return fig
}

// newPlotPanel renders the sample series into images stacked by plotWeights.
func newPlotPanel(fig plot.Figure) *fyne.Container {
	var objects []fyne.CanvasObject
	for _, s := range plot.Samples() {
		img, err := plot.Render(s, fig)
		if err != nil {
			log.LogWithFields(log.F("series", s.Name), log.F("error", err)).Error("Failed to render plot")
			img = plot.Blank(fig)
		}
		c := canvas.NewImageFromImage(img)
		c.FillMode = canvas.ImageFillContain
		c.SetMinSize(fyne.NewSize(80, 60))
		objects = append(objects, c)
	}
	return container.New(newWeightedVBox(plotWeights...), objects...)
}

// statusBar shows transient messages.
type statusBar struct {
	label *widget.Label

	mu    sync.Mutex
	msg   string
	seq   int
	timer *time.Timer
}

func newStatusBar() *statusBar {
	return &statusBar{label: widget.NewLabel("")}
}

// SetMessage shows msg. A positive timeout clears it again unless another
// message replaced it in the meantime.
func (s *statusBar) SetMessage(msg string, timeout time.Duration) {
	s.mu.Lock()
	s.msg = msg
	s.seq++
	seq := s.seq
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if timeout > 0 {
		s.timer = time.AfterFunc(timeout, func() { s.clear(seq) })
	}
	s.mu.Unlock()

	s.label.SetText(msg)
}

// Message returns the text currently shown.
func (s *statusBar) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg
}

func (s *statusBar) clear(seq int) {
	s.mu.Lock()
	current := seq == s.seq
	if current {
		s.msg = ""
	}
	s.mu.Unlock()
	if current {
		s.label.SetText("")
	}
}
