// Package export snapshots the dashboard: a composite PNG of the four charts
// and an xlsx workbook of the data behind them.
package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/iafilius/JobAnalytics/src/charts"
)

// Composite layout. Canvas size and cell positions are a compatibility
// contract for byte-level consumers of the exported image. Cells sit at
// 20 + col*620, 20 + row*420, so the right and bottom cells end flush with the
// canvas edge and only the left, top and inner gutters are padded.
const (
	CanvasWidth  = 1240
	CanvasHeight = 840
	Padding      = 20
	Columns      = 2
	CellWidth    = 600
	CellHeight   = 400
)

// Filename is the fixed name of the composite download.
const Filename = "job-analytics.png"

// SurfaceSource yields the rendered raster of a chart slot, nil when absent.
type SurfaceSource interface {
	Surface(s charts.Slot) image.Image
}

// CellOrigin returns the top-left corner of the i-th cell in export order:
// (0,0) top-skills, (1,0) city, (0,1) trend, (1,1) sentiment.
func CellOrigin(i int) image.Point {
	col, row := i%Columns, i/Columns
	return image.Point{
		X: Padding + col*(CellWidth+Padding),
		Y: Padding + row*(CellHeight+Padding),
	}
}

// CellRect returns the rectangle of the i-th cell.
func CellRect(i int) image.Rectangle {
	o := CellOrigin(i)
	return image.Rect(o.X, o.Y, o.X+CellWidth, o.Y+CellHeight)
}

// Composite draws every chart surface into a white 2x2 grid and stamps each
// cell with its title. A missing surface leaves its cell blank.
func Composite(src SurfaceSource) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, CanvasWidth, CanvasHeight))
	xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)

	for i, slot := range charts.Slots {
		cell := CellRect(i)
		if surf := src.Surface(slot); surf != nil && !surf.Bounds().Empty() {
			// Chart surfaces default to the cell size and are copied 1:1; a
			// differently sized surface is stretched to fill the cell.
			if surf.Bounds().Size() == cell.Size() {
				xdraw.Draw(canvas, cell, surf, surf.Bounds().Min, xdraw.Over)
			} else {
				xdraw.ApproxBiLinear.Scale(canvas, cell, surf, surf.Bounds(), xdraw.Over, nil)
			}
		}
		drawTitle(canvas, slot.Title(), cell.Min.X+10, cell.Min.Y+20)
	}
	return canvas
}

// drawTitle writes text in black with its baseline at (x, y).
func drawTitle(dst *image.RGBA, text string, x, y int) {
	if text == "" {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("png encode: %w", err)
	}
	return nil
}

// WriteFile composes src and writes it as dir/job-analytics.png.
func WriteFile(dir string, src SurfaceSource) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create out dir: %w", err)
	}
	path := filepath.Join(dir, Filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, Composite(src)); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
