package charts

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/dustin/go-humanize"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/iafilius/JobAnalytics/src/types"
)

// Palette
const (
	colorPrimary  = "007bff"
	colorPositive = "4caf50"
	colorNegative = "f44336"
	colorNeutral  = "ffc107"
)

// cityPalette colours the donut slices; it wraps around after five cities.
var cityPalette = []string{"4caf50", "2196f3", "ff9800", "e91e63", "9c27b0"}

// renderable is satisfied by chart.Chart, chart.BarChart and chart.DonutChart.
type renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

// rasterize renders c as PNG and decodes it back into an image. Values are not
// validated upstream, so a panic inside go-chart is reported as an error.
func rasterize(c renderable) (img image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			img, err = nil, fmt.Errorf("render panic: %v", rec)
		}
	}()
	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	img, err = png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// blank returns a white surface, shown when a chart has nothing renderable
// (go-chart refuses empty datasets and zero-width ranges).
func blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func hex(c string) drawing.Color { return drawing.ColorFromHex(c) }

// countFormatter prints axis values as grouped integers (1,250).
func countFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return humanize.Comma(int64(math.Round(f)))
	}
	return fmt.Sprintf("%v", v)
}

func scoreFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.1f", f)
	}
	return fmt.Sprintf("%v", v)
}

// countRange spans 0..max with headroom. go-chart rejects a zero-width range,
// so an all-zero dataset still gets 0..1.
func countRange(values []float64) *chart.ContinuousRange {
	maxV := 0.0
	for _, v := range values {
		if v > maxV && !math.IsInf(v, 1) {
			maxV = v
		}
	}
	if maxV <= 0 {
		maxV = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: math.Ceil(maxV * 1.1)}
}

// barWidth shrinks bars so that n bars and their gaps fit in w pixels.
func barWidth(w, n int) int {
	if n <= 0 {
		return 50
	}
	bw := (w - 80) / (2 * n)
	if bw < 6 {
		bw = 6
	}
	if bw > 60 {
		bw = 60
	}
	return bw
}

func chartBackground() chart.Style {
	// Extra top padding leaves room for the title stamped by the exporter.
	return chart.Style{Padding: chart.Box{Top: 36, Left: 16, Right: 16, Bottom: 12}}
}

// buildTopSkills draws the top-skills bar chart.
func buildTopSkills(labels []string, values []float64, w, h int) renderable {
	bars := make([]chart.Value, len(labels))
	for i := range labels {
		bars[i] = chart.Value{
			Label: labels[i],
			Value: values[i],
			Style: chart.Style{FillColor: hex(colorPrimary), StrokeColor: hex(colorPrimary)},
		}
	}
	yr, yt := countAxis(values)
	return chart.BarChart{
		Width:      w,
		Height:     h,
		Background: chartBackground(),
		BarWidth:   barWidth(w, len(bars)),
		BarSpacing: barWidth(w, len(bars)),
		YAxis:      chart.YAxis{Range: yr, Ticks: yt, ValueFormatter: countFormatter},
		Bars:       bars,
	}
}

// buildCity draws the jobs-by-city donut. The bottom of the surface is left
// for the legend strip added by drawLegend.
func buildCity(labels []string, values []float64, w, h int) renderable {
	var slices []chart.Value
	for i := range labels {
		if !(values[i] > 0) {
			continue
		}
		c := hex(cityPalette[i%len(cityPalette)])
		slices = append(slices, chart.Value{
			Label: labels[i],
			Value: values[i],
			Style: chart.Style{FillColor: c, StrokeColor: drawing.ColorWhite},
		})
	}
	// go-chart strokes a lone value as an unfilled circle; two halves of the
	// same colour fill the whole ring.
	if len(slices) == 1 {
		half := slices[0]
		half.Value /= 2
		half.Style.StrokeColor = half.Style.FillColor
		rest := half
		rest.Label = ""
		slices = []chart.Value{half, rest}
	}
	bg := chartBackground()
	bg.Padding.Bottom = legendHeight
	return chart.DonutChart{
		Width:      w,
		Height:     h,
		Background: bg,
		Values:     slices,
	}
}

// legendHeight is the strip under the donut holding one swatch per city.
const legendHeight = 28

// drawLegend stamps a centred row of colour swatches and city names along the
// bottom of src. Entries that do not fit the width are dropped.
func drawLegend(src image.Image, labels []string) image.Image {
	if len(labels) == 0 {
		return src
	}
	const swatch, gap = 10, 14
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)

	widths := make([]int, len(labels))
	total := 0
	for i, l := range labels {
		widths[i] = swatch + 4 + font.MeasureString(basicfont.Face7x13, l).Ceil()
		total += widths[i] + gap
	}
	x := b.Min.X + max(8, (b.Dx()-total+gap)/2)
	y := b.Max.Y - legendHeight + 8
	for i, l := range labels {
		if x+widths[i] > b.Max.X {
			break
		}
		c := hex(cityPalette[i%len(cityPalette)])
		draw.Draw(dst, image.Rect(x, y, x+swatch, y+swatch), image.NewUniform(c), image.Point{}, draw.Src)
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(color.Black),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(x+swatch+4, y+swatch),
		}
		d.DrawString(l)
		x += widths[i] + gap
	}
	return dst
}

// buildTrend draws jobs per week as a line over the week labels.
func buildTrend(labels []string, values []float64, w, h int) renderable {
	xs := make([]float64, len(values))
	ticks := make([]chart.Tick, len(labels))
	for i := range values {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: labels[i]}
	}
	// The x range comes from the ticks, and a single tick has zero width. One
	// week is drawn as a level segment across a blank-labelled span around it.
	if len(values) == 1 {
		xs = []float64{-0.5, 0.5}
		values = []float64{values[0], values[0]}
		ticks = []chart.Tick{{Value: -0.5}, {Value: 0, Label: labels[0]}, {Value: 0.5}}
	}
	xr := &chart.ContinuousRange{Min: xs[0], Max: xs[len(xs)-1]}
	yr, yt := countAxis(values)
	return chart.Chart{
		Width:      w,
		Height:     h,
		Background: chartBackground(),
		XAxis:      chart.XAxis{Name: "Week", Ticks: ticks, Range: xr},
		YAxis:      chart.YAxis{Name: "Jobs", Range: yr, Ticks: yt, ValueFormatter: countFormatter},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Jobs per Week",
				XValues: xs,
				YValues: values,
				Style: chart.Style{
					StrokeColor: hex(colorPrimary),
					StrokeWidth: 2,
					DotColor:    hex(colorPrimary),
					DotWidth:    3,
				},
			},
		},
	}
}

// buildSentiment draws one bar per city around a zero baseline, coloured by
// polarity bucket, on a fixed [-1, 1] axis.
func buildSentiment(labels []string, values []float64, colors []string, w, h int) renderable {
	bars := make([]chart.Value, len(labels))
	for i := range labels {
		bars[i] = chart.Value{
			Label: labels[i],
			Value: values[i],
			Style: chart.Style{FillColor: hex(colors[i]), StrokeColor: hex(colors[i])},
		}
	}
	return chart.BarChart{
		Width:        w,
		Height:       h,
		Background:   chartBackground(),
		BarWidth:     barWidth(w, len(bars)),
		BarSpacing:   barWidth(w, len(bars)),
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			Name:           "Polarity Score",
			Range:          &chart.ContinuousRange{Min: -1, Max: 1},
			Ticks:          labelTicks(niceTicks(-1, 1, 5, false), scoreFormatter),
			ValueFormatter: scoreFormatter,
		},
		Bars: bars,
	}
}

// SentimentColor maps a polarity score to its bar colour (hex, no '#').
func SentimentColor(score float64) string {
	switch types.Classify(score) {
	case types.Positive:
		return colorPositive
	case types.Negative:
		return colorNegative
	default:
		return colorNeutral
	}
}

// SentimentTooltip formats the hover text of a sentiment bar.
func SentimentTooltip(score float64) string {
	return fmt.Sprintf("Sentiment: %.2f", score)
}
