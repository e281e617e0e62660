package app

import (
	"fmt"
	"image"
	"image/color"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi      = 72.0
	fontSize = 12.0
)

const timeAxisLabel = "Time [s]"

type annotator struct {
	context  *freetype.Context
	fontFace font.Face
}

func newAnnotator(size float64) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(size)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    size,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) setDst(img *image.RGBA) {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)
}

func (a *annotator) textWidth(s string) int {
	return font.MeasureString(a.fontFace, s).Round()
}

func (a *annotator) fontHeight() int {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

// drawString draws s with its baseline at y.
func (a *annotator) drawString(s string, x, y int, c color.Color) error {
	a.context.SetSrc(image.NewUniform(c))
	_, err := a.context.DrawString(s, freetype.Pt(x, y))
	return err
}

func (a *annotator) annotatePanel(img *image.RGBA, area image.Rectangle, p Panel, xAxis, yAxis axis, colors []color.Color) error {
	if err := a.drawString(p.Title, area.Min.X, area.Min.Y-8, frameColor); err != nil {
		return fmt.Errorf("drawing title: %w", err)
	}
	if err := a.drawTimeScale(area, xAxis); err != nil {
		return fmt.Errorf("drawing time scale: %w", err)
	}
	if err := a.drawValueScale(area, yAxis); err != nil {
		return fmt.Errorf("drawing value scale: %w", err)
	}
	if err := a.drawLegend(img, area, p, colors); err != nil {
		return fmt.Errorf("drawing legend: %w", err)
	}
	return nil
}

func (a *annotator) drawTimeScale(area image.Rectangle, xAxis axis) error {
	textY := area.Max.Y + tickMarkLength + a.fontHeight()

	for _, t := range xAxis.ticks() {
		x := xAxis.pixel(t, area.Min.X, area.Max.X-1)
		label := formatTick(t)
		if err := a.drawString(label, x-a.textWidth(label)/2, textY, frameColor); err != nil {
			return err
		}
	}

	x := area.Max.X - a.textWidth(timeAxisLabel)
	return a.drawString(timeAxisLabel, x, textY+a.fontHeight()+2, frameColor)
}

func (a *annotator) drawValueScale(area image.Rectangle, yAxis axis) error {
	metrics := a.fontFace.Metrics()
	offset := a.fontHeight()/2 - metrics.Descent.Round()

	for _, v := range yAxis.ticks() {
		y := yAxis.pixel(v, area.Max.Y-1, area.Min.Y)
		label := formatTick(v)
		x := area.Min.X - tickMarkLength - 3 - a.textWidth(label)
		if err := a.drawString(label, x, y+offset, frameColor); err != nil {
			return err
		}
	}
	return nil
}

// drawLegend draws a boxed legend in the top right corner of area.
func (a *annotator) drawLegend(img *image.RGBA, area image.Rectangle, p Panel, colors []color.Color) error {
	lineHeight := a.fontHeight() + 4

	var labelWidth int
	for _, s := range p.Series {
		labelWidth = max(labelWidth, a.textWidth(s.Label))
	}

	w := legendPadding*3 + legendLineWidth + labelWidth
	h := legendPadding*2 + lineHeight*len(p.Series)
	box := image.Rect(area.Max.X-w-legendPadding, area.Min.Y+legendPadding, area.Max.X-legendPadding, area.Min.Y+legendPadding+h)

	fillRect(img, box, gridColor)
	fillRect(img, box.Inset(1), color.White)

	metrics := a.fontFace.Metrics()
	for i, s := range p.Series {
		mid := box.Min.Y + legendPadding + i*lineHeight + lineHeight/2
		lineX := box.Min.X + legendPadding
		fillRect(img, image.Rect(lineX, mid-1, lineX+legendLineWidth, mid+1), colors[i])

		baseline := mid + a.fontHeight()/2 - metrics.Descent.Round()
		if err := a.drawString(s.Label, lineX+legendLineWidth+legendPadding, baseline, frameColor); err != nil {
			return err
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, borders BorderConfig, data *FlightData) error {
	metrics := a.fontFace.Metrics()

	// Center text vertically in bottom border
	textY := img.Bounds().Max.Y - (borders.Bottom-a.fontHeight())/2 - metrics.Descent.Round()

	return a.drawString(infoText(data), borders.Left, textY, frameColor)
}
