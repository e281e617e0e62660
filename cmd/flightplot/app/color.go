package app

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	hueStart   = 210.0
	saturation = 0.85
	value      = 0.80
)

var (
	frameColor = color.Black
	gridColor  = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
)

// seriesPalette returns n colours with evenly spaced hues.
func seriesPalette(n int) []color.Color {
	palette := make([]color.Color, n)
	for i := range palette {
		hue := hueStart + float64(i)*360/float64(n)
		for hue >= 360 {
			hue -= 360
		}
		palette[i] = colorful.Hsv(hue, saturation, value).Clamped()
	}
	return palette
}
