package app

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/flightlog/internal/telemetry"
)

func sampleFlight(n int) *FlightData {
	data := NewFlightData("FL0001.BIN")
	for i := 0; i < n; i++ {
		t := float64(i) / 10
		data.Update(&telemetry.FlightRecord{
			Baro: telemetry.Baro{
				Altitude:  float32(300 * math.Sin(t/4)),
				ClimbRate: float32(75 * math.Cos(t/4)),
			},
			Roll:         float32(20 * math.Sin(t)),
			Pitch:        float32(10 * math.Cos(t)),
			Yaw:          float32(i % 360),
			State:        telemetry.FlightState(min(i/20, 6)),
			RecordTimeMs: uint32(i * 100),
		})
	}
	return data
}

func TestChartRenderer_Render(t *testing.T) {
	renderer, err := NewChartRenderer(RenderConfig{Width: 900, Height: 600})
	require.NoError(t, err)

	img, err := renderer.Render(sampleFlight(150))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 900, 600), img.Bounds())

	// corners stay background
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, img.RGBAAt(899, 0))

	areas := renderer.panelAreas(2)
	for _, area := range areas {
		assert.Equal(t, color.RGBA{A: 0xff}, img.RGBAAt(area.Min.X, area.Min.Y+area.Dy()/2), "frame")
	}

	palette := seriesPalette(5)
	var found bool
	want := color.RGBAModel.Convert(palette[0]).(color.RGBA)
	for y := areas[0].Min.Y; y < areas[0].Max.Y && !found; y++ {
		for x := areas[0].Min.X; x < areas[0].Max.X; x++ {
			if img.RGBAAt(x, y) == want {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "altitude series is drawn")
}

func TestChartRenderer_Errors(t *testing.T) {
	_, err := NewChartRenderer(RenderConfig{Width: 100, Height: 100})
	assert.Error(t, err)

	renderer, err := NewChartRenderer(RenderConfig{Width: minWidth, Height: minHeight})
	require.NoError(t, err)

	_, err = renderer.Render(NewFlightData("empty"))
	assert.ErrorIs(t, err, ErrNoRecords)

	// a single record and all-NaN series still render
	data := NewFlightData("single")
	data.Update(&telemetry.FlightRecord{Roll: float32(math.NaN()), RecordTimeMs: 10})
	img, err := renderer.Render(data)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, minWidth, minHeight), img.Bounds())
}

func TestNiceStep(t *testing.T) {
	tests := []struct {
		span     float64
		maxTicks int
		want     float64
	}{
		{span: 10, maxTicks: 10, want: 1},
		{span: 10, maxTicks: 4, want: 2.5},
		{span: 100, maxTicks: 8, want: 20},
		{span: 0.3, maxTicks: 5, want: 0.1},
		{span: 7, maxTicks: 0, want: 5},
		{span: 950, maxTicks: 2, want: 500},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, niceStep(tt.span, tt.maxTicks), 1e-12, "span %v ticks %d", tt.span, tt.maxTicks)
	}
}

func TestAxis(t *testing.T) {
	a := newAxis(-3, 17, 5)
	assert.Equal(t, axis{lo: -5, hi: 20, step: 5}, a)
	assert.Equal(t, []float64{-5, 0, 5, 10, 15, 20}, a.ticks())
	assert.Equal(t, 0, a.pixel(-5, 0, 100))
	assert.Equal(t, 100, a.pixel(20, 0, 100))
	assert.Equal(t, 80, a.pixel(0, 100, 0))

	flat := newAxis(4, 4, 4)
	assert.Less(t, flat.lo, 4.0)
	assert.Greater(t, flat.hi, 4.0)

	empty := newAxis(math.NaN(), math.NaN(), 4)
	assert.Equal(t, 0.0, empty.lo)
	assert.Equal(t, 1.0, empty.hi)

	fine := newAxis(-0.3, 0.3, 6)
	assert.Contains(t, fine.ticks(), 0.0)
}

func TestDrawSeries(t *testing.T) {
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	red := color.RGBA{R: 0xff, A: 0xff}

	img := image.NewRGBA(image.Rect(0, 0, 60, 40))
	draw.Draw(img, img.Bounds(), image.NewUniform(white), image.Point{}, draw.Src)

	area := image.Rect(5, 5, 55, 35)
	xAxis := axis{lo: 0, hi: 10}
	yAxis := axis{lo: 0, hi: 10}
	times := []float64{0, 2, 4, 5, 6, 8, 10}
	values := []float64{5, 5, 5, math.NaN(), 5, 5, math.Inf(1)}

	drawSeries(img, area, xAxis, yAxis, times, values, red)

	plot := area.Inset(1)
	midY := plot.Min.Y + plot.Dy()/2

	// horizontal run at v=5 crosses the middle of the plot
	for _, x := range []int{plot.Min.X + 3, plot.Min.X + 10, plot.Max.X - 12} {
		px := img.RGBAAt(x, midY)
		assert.GreaterOrEqual(t, px.R, uint8(250), "x=%d", x)
		assert.Less(t, px.G, uint8(128), "x=%d", x)
	}

	// the NaN sample at t=5 leaves a gap between t=4 and t=6
	gapX := plot.Min.X + int(0.5*float64(plot.Dx()-1))
	assert.Equal(t, white, img.RGBAAt(gapX, midY))

	// nothing is drawn outside the plot
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if (image.Point{X: x, Y: y}).In(plot) {
				continue
			}
			require.Equal(t, white, img.RGBAAt(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestDrawSeries_SteepOverlap(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 30, 30))
	red := color.RGBA{R: 0xff, A: 0xff}

	// both sides of the spike cover this pixel, one of them fully
	drawSeries(img, img.Bounds(), axis{lo: 0, hi: 2}, axis{lo: 0, hi: 1},
		[]float64{0, 1, 2}, []float64{0, 1, 0}, red)

	assert.GreaterOrEqual(t, img.RGBAAt(14, 2).A, uint8(250))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(2, 2))
}

func TestSeriesPalette(t *testing.T) {
	palette := seriesPalette(5)
	require.Len(t, palette, 5)

	seen := map[color.RGBA]bool{}
	for _, c := range palette {
		seen[color.RGBAModel.Convert(c).(color.RGBA)] = true
	}
	assert.Len(t, seen, 5)
}

func TestInfoText(t *testing.T) {
	text := infoText(sampleFlight(50))
	assert.Contains(t, text, "Source: FL0001.BIN")
	assert.Contains(t, text, "Records: 50")
	assert.Contains(t, text, "Duration: 4.9s")
	assert.Contains(t, text, "Apogee: ")
}
