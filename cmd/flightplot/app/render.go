package app

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/image/vector"
)

const (
	pixelsPerXLabel = 100
	pixelsPerYLabel = 40
	tickMarkLength  = 5
	legendLineWidth = 20
	legendPadding   = 6
	halfLineWidth   = 0.75

	// Default border sizes in pixels
	defaultTopBorder    = 30
	defaultLeftBorder   = 70
	defaultBottomBorder = 40
	defaultRightBorder  = 20
	defaultPanelGap     = 55
)

var ErrNoRecords = errors.New("flight has no records to plot")

// BorderConfig defines the sizes of white space around the panels
type BorderConfig struct {
	Top    int // Space for the first panel title
	Left   int // Space for value scales
	Bottom int // Space for information bar
	Right  int // Right padding
	Gap    int // Space between panels for the time scale and the next title
}

// RenderConfig holds all configuration options for chart rendering
type RenderConfig struct {
	Width  int
	Height int

	FontSize     float64 // Font size in points
	BorderConfig BorderConfig
}

// ChartRenderer draws flight data as stacked line chart panels sharing the
// time axis.
type ChartRenderer struct {
	config RenderConfig
}

// NewChartRenderer creates a new chart renderer with the given configuration
func NewChartRenderer(config RenderConfig) (*ChartRenderer, error) {
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}
	if config.BorderConfig.Gap == 0 {
		config.BorderConfig.Gap = defaultPanelGap
	}

	if config.Width < minWidth || config.Height < minHeight {
		return nil, fmt.Errorf("image size %dx%d is below the minimum of %dx%d",
			config.Width, config.Height, minWidth, minHeight)
	}

	return &ChartRenderer{config: config}, nil
}

// Render draws all panels of data into a new image.
func (r *ChartRenderer) Render(data *FlightData) (*image.RGBA, error) {
	if data.Len() == 0 {
		return nil, ErrNoRecords
	}

	img := image.NewRGBA(image.Rect(0, 0, r.config.Width, r.config.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	ann, err := newAnnotator(r.config.FontSize)
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()
	ann.setDst(img)

	panels := data.Panels()
	areas := r.panelAreas(len(panels))

	var numSeries int
	for _, p := range panels {
		numSeries += len(p.Series)
	}
	palette := seriesPalette(numSeries)

	tLo, tHi := data.TimeRange()
	xAxis := newAxis(tLo, tHi, areas[0].Dx()/pixelsPerXLabel)

	for i, p := range panels {
		area := areas[i]

		values := make([][]float64, len(p.Series))
		for j, s := range p.Series {
			values[j] = s.Values
		}
		lo, hi := finiteRange(values...)
		yAxis := newAxis(lo, hi, area.Dy()/pixelsPerYLabel)

		drawGrid(img, area, xAxis, yAxis)

		colors := palette[:len(p.Series)]
		palette = palette[len(p.Series):]
		for j, s := range p.Series {
			drawSeries(img, area, xAxis, yAxis, data.Times, s.Values, colors[j])
		}

		if err = ann.annotatePanel(img, area, p, xAxis, yAxis, colors); err != nil {
			return nil, fmt.Errorf("annotating panel '%s': %w", p.Title, err)
		}
	}

	if err = ann.drawInfoBar(img, r.config.BorderConfig, data); err != nil {
		return nil, fmt.Errorf("drawing info bar: %w", err)
	}

	return img, nil
}

// panelAreas splits the space inside the borders into n stacked plot areas.
func (r *ChartRenderer) panelAreas(n int) []image.Rectangle {
	b := r.config.BorderConfig
	avail := r.config.Height - b.Top - b.Bottom - (n-1)*b.Gap
	h := avail / n

	areas := make([]image.Rectangle, n)
	for i := range areas {
		top := b.Top + i*(h+b.Gap)
		areas[i] = image.Rect(b.Left, top, r.config.Width-b.Right, top+h)
	}
	return areas
}

// axis maps values onto pixels. Its bounds are multiples of step.
type axis struct {
	lo, hi, step float64
}

func newAxis(lo, hi float64, maxTicks int) axis {
	if math.IsNaN(lo) || math.IsNaN(hi) {
		lo, hi = 0, 1
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}

	step := niceStep(hi-lo, maxTicks)
	return axis{
		lo:   math.Floor(lo/step) * step,
		hi:   math.Ceil(hi/step) * step,
		step: step,
	}
}

func (a axis) ticks() []float64 {
	n := int(math.Round((a.hi - a.lo) / a.step))
	ticks := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		v := a.lo + float64(i)*a.step
		if math.Abs(v) < a.step*1e-9 {
			v = 0
		}
		ticks = append(ticks, v)
	}
	return ticks
}

// pixel maps v linearly so that lo lands on from and hi on to.
func (a axis) pixel(v float64, from, to int) int {
	return int(math.Round(a.position(v, float64(from), float64(to))))
}

// position is the unrounded form of pixel.
func (a axis) position(v, from, to float64) float64 {
	return from + (v-a.lo)/(a.hi-a.lo)*(to-from)
}

// niceStep returns a 1, 2, 2.5 or 5 times power of ten step that splits span
// into at most maxTicks intervals.
func niceStep(span float64, maxTicks int) float64 {
	raw := span / float64(max(maxTicks, 2))
	mag := math.Pow(10, math.Floor(math.Log10(raw)))

	for _, m := range []float64{1, 2, 2.5, 5} {
		if m*mag >= raw {
			return m * mag
		}
	}
	return 10 * mag
}

func drawGrid(img *image.RGBA, area image.Rectangle, xAxis, yAxis axis) {
	for _, t := range xAxis.ticks() {
		x := xAxis.pixel(t, area.Min.X, area.Max.X-1)
		fillRect(img, image.Rect(x, area.Min.Y, x+1, area.Max.Y), gridColor)
		fillRect(img, image.Rect(x, area.Max.Y, x+1, area.Max.Y+tickMarkLength), frameColor)
	}
	for _, v := range yAxis.ticks() {
		y := yAxis.pixel(v, area.Max.Y-1, area.Min.Y)
		fillRect(img, image.Rect(area.Min.X, y, area.Max.X, y+1), gridColor)
		fillRect(img, image.Rect(area.Min.X-tickMarkLength, y, area.Min.X, y+1), frameColor)
	}

	// frame
	fillRect(img, image.Rect(area.Min.X, area.Min.Y, area.Max.X, area.Min.Y+1), frameColor)
	fillRect(img, image.Rect(area.Min.X, area.Max.Y-1, area.Max.X, area.Max.Y), frameColor)
	fillRect(img, image.Rect(area.Min.X, area.Min.Y, area.Min.X+1, area.Max.Y), frameColor)
	fillRect(img, image.Rect(area.Max.X-1, area.Min.Y, area.Max.X, area.Max.Y), frameColor)
}

// drawSeries strokes consecutive finite samples as one anti-aliased path.
// Non-finite samples leave a gap. Drawing is clipped to area.
func drawSeries(img *image.RGBA, area image.Rectangle, xAxis, yAxis axis, times, values []float64, c color.Color) {
	plot := area.Inset(1)
	if plot.Empty() {
		return
	}

	st := newStroker(plot.Dx(), plot.Dy())

	// Pixel centres relative to the plot origin.
	toPlot := func(t, v float64) point {
		return point{
			x: float32(xAxis.position(t, 0, float64(plot.Dx()-1)) + 0.5),
			y: float32(yAxis.position(v, float64(plot.Dy()-1), 0) + 0.5),
		}
	}

	var prev point
	prevOK, isolated := false, false
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.IsNaN(times[i]) {
			if isolated {
				st.dot(prev)
			}
			prevOK, isolated = false, false
			continue
		}

		p := toPlot(times[i], v)
		if prevOK {
			st.segment(prev, p)
			isolated = false
		} else {
			isolated = true
		}
		prev, prevOK = p, true
	}
	if isolated {
		st.dot(prev)
	}

	st.z.Draw(img, plot, image.NewUniform(c), image.Point{})
}

type point struct {
	x, y float32
}

// stroker outlines line strokes on a vector.Rasterizer. Every outline has
// the same winding so overlapping strokes do not cancel out.
type stroker struct {
	z    *vector.Rasterizer
	w, h float32
}

func newStroker(w, h int) *stroker {
	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Over
	return &stroker{z: z, w: float32(w), h: float32(h)}
}

// clip keeps vertices inside the rasterizer bounds.
func (s *stroker) clip(p point) (float32, float32) {
	return min(max(p.x, 0), s.w), min(max(p.y, 0), s.h)
}

func (s *stroker) polygon(pts ...point) {
	s.z.MoveTo(s.clip(pts[0]))
	for _, p := range pts[1:] {
		s.z.LineTo(s.clip(p))
	}
	s.z.ClosePath()
}

// segment adds a line of width 2*halfLineWidth from a to b.
func (s *stroker) segment(a, b point) {
	dx, dy := b.x-a.x, b.y-a.y
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		s.dot(a)
		return
	}

	nx, ny := -dy/length*halfLineWidth, dx/length*halfLineWidth
	s.polygon(
		point{a.x + nx, a.y + ny},
		point{b.x + nx, b.y + ny},
		point{b.x - nx, b.y - ny},
		point{a.x - nx, a.y - ny},
	)
}

// dot adds a square of side 2*halfLineWidth centred on p.
func (s *stroker) dot(p point) {
	const d = halfLineWidth
	s.polygon(
		point{p.x - d, p.y - d},
		point{p.x - d, p.y + d},
		point{p.x + d, p.y + d},
		point{p.x + d, p.y - d},
	)
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func formatTick(v float64) string {
	return humanize.FtoaWithDigits(v, 3)
}

func infoText(data *FlightData) string {
	s := data.Summary

	parts := []string{
		"Source: " + data.Source,
		"Records: " + humanize.Comma(int64(s.Records)),
		"Duration: " + s.Duration().String(),
	}
	if alt, at, ok := s.Apogee(); ok {
		parts = append(parts, fmt.Sprintf("Apogee: %s m at %s s",
			humanize.FtoaWithDigits(alt, 1), humanize.FtoaWithDigits(float64(at)/1000, 2)))
	}
	if !math.IsInf(s.MaxClimbRate, -1) {
		parts = append(parts, fmt.Sprintf("Max climb rate: %s m/s", humanize.FtoaWithDigits(s.MaxClimbRate, 1)))
	}
	return strings.Join(parts, "; ")
}
