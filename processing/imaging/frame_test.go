package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertColorSwapsRedAndBlue(t *testing.T) {
	f := NewFrame(2, 1, BGR)
	copy(f.Pix, []byte{1, 2, 3, 4, 5, 6})

	out := ConvertColor(f, BGR2RGB)

	assert.Equal(t, RGB, out.Order)
	assert.Equal(t, []byte{3, 2, 1, 6, 5, 4}, out.Pix)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, f.Pix, "input must not be modified")
}

func TestConvertColorSameOrderCopies(t *testing.T) {
	f := NewFrame(1, 1, RGB)
	copy(f.Pix, []byte{9, 8, 7})

	out := ConvertColor(f, BGR2RGB)

	assert.Equal(t, []byte{9, 8, 7}, out.Pix)
	out.Pix[0] = 0
	assert.Equal(t, byte(9), f.Pix[0])
}

func TestResizeProducesTargetDimensions(t *testing.T) {
	sizes := []image.Point{{1920, 1080}, {640, 480}, {17, 3}, {320, 240}}

	for _, size := range sizes {
		f := NewFrame(size.X, size.Y, RGB)
		out := Resize(f, 320, 240)

		require.NoError(t, out.Validate())
		assert.Equal(t, 320, out.Width)
		assert.Equal(t, 240, out.Height)
		assert.Equal(t, RGB, out.Order)
	}
}

func TestResizeKeepsBGROrder(t *testing.T) {
	f := NewFrame(4, 4, BGR)
	for i := 0; i < len(f.Pix); i += 3 {
		f.Pix[i] = 200 // blue
	}

	out := Resize(f, 2, 2)

	assert.Equal(t, BGR, out.Order)
	assert.InDelta(t, 200, int(out.Pix[0]), 1)
	assert.InDelta(t, 0, int(out.Pix[2]), 1)
}

func TestRGBARoundTripHonoursOrder(t *testing.T) {
	f := NewFrame(1, 1, BGR)
	copy(f.Pix, []byte{10, 20, 30})

	img := f.RGBA()

	assert.Equal(t, color.RGBA{R: 30, G: 20, B: 10, A: 255}, img.RGBAAt(0, 0))

	back := FromImage(img)
	assert.Equal(t, RGB, back.Order)
	assert.Equal(t, []byte{30, 20, 10}, back.Pix)
}

func TestValidateRejectsShortBuffer(t *testing.T) {
	f := &Frame{Pix: make([]byte, 5), Width: 2, Height: 1}
	assert.ErrorIs(t, f.Validate(), ErrBadDimensions)
}

func TestDrawBoxStaysInBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	green := color.RGBA{G: 255, A: 255}

	DrawBox(img, image.Rect(-5, -5, 30, 30), green)
	DrawBox(img, image.Rect(2, 2, 15, 15), green)

	assert.Equal(t, green, img.RGBAAt(2, 2))
	assert.Equal(t, green, img.RGBAAt(15, 8))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(9, 9))
}
