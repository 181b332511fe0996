package charts

import (
	"image"
	"image/color"
)

// nonWhite counts pixels that are not pure white.
func nonWhite(img image.Image) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.RGBAModel.Convert(img.At(x, y)).(color.RGBA) != (color.RGBA{255, 255, 255, 255}) {
				n++
			}
		}
	}
	return n
}

// countNear counts pixels within tol of the hex colour on every channel.
func countNear(img image.Image, hexColor string, tol int) int {
	want := color.RGBAModel.Convert(hex(hexColor)).(color.RGBA)
	near := func(a, b uint8) bool {
		d := int(a) - int(b)
		return d <= tol && d >= -tol
	}
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if near(c.R, want.R) && near(c.G, want.G) && near(c.B, want.B) {
				n++
			}
		}
	}
	return n
}
