package imaging

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const boxThickness = 3

func DrawBox(img *image.RGBA, rect image.Rectangle, col color.Color) {
	bounds := img.Bounds()

	setPixel := func(x, y int) {
		if (image.Point{X: x, Y: y}).In(bounds) {
			img.Set(x, y, col)
		}
	}

	for t := 0; t < boxThickness; t++ {
		for x := rect.Min.X; x <= rect.Max.X; x++ {
			setPixel(x, rect.Min.Y+t)
			setPixel(x, rect.Max.Y-t)
		}
		for y := rect.Min.Y; y <= rect.Max.Y; y++ {
			setPixel(rect.Min.X+t, y)
			setPixel(rect.Max.X-t, y)
		}
	}
}

// DrawLabel writes text just above the top-left corner of rect,
// or inside it when there is no room above.
func DrawLabel(img *image.RGBA, rect image.Rectangle, text string, col color.Color) {
	face := basicfont.Face7x13
	metrics := face.Metrics()

	y := rect.Min.Y - boxThickness
	if y-metrics.Ascent.Ceil() < img.Bounds().Min.Y {
		y = rect.Min.Y + boxThickness + metrics.Ascent.Ceil()
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(rect.Min.X+boxThickness, y),
	}
	d.DrawString(text)
}
