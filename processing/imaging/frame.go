package imaging

import (
	"errors"
	"image"

	"golang.org/x/image/draw"
)

type ChannelOrder uint8

const (
	BGR ChannelOrder = iota
	RGB
)

func (o ChannelOrder) String() string {
	if o == BGR {
		return "BGR"
	}
	return "RGB"
}

type Conversion uint8

const (
	BGR2RGB Conversion = iota
	RGB2BGR
)

const channels = 3

var ErrBadDimensions = errors.New("frame buffer does not match its dimensions")

// Frame is a packed height x width x 3 buffer of 8-bit channels.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
	Order  ChannelOrder
}

func NewFrame(width, height int, order ChannelOrder) *Frame {
	return &Frame{
		Pix:    make([]byte, width*height*channels),
		Width:  width,
		Height: height,
		Order:  order,
	}
}

func (f *Frame) Stride() int { return f.Width * channels }

func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 || len(f.Pix) != f.Width*f.Height*channels {
		return ErrBadDimensions
	}
	return nil
}

func (f *Frame) Clone() *Frame {
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{Pix: pix, Width: f.Width, Height: f.Height, Order: f.Order}
}

// ConvertColor returns a copy of f with its channels reordered.
// A frame already in the requested order is copied unchanged.
func ConvertColor(f *Frame, conv Conversion) *Frame {
	out := f.Clone()

	target := RGB
	if conv == RGB2BGR {
		target = BGR
	}
	if f.Order == target {
		return out
	}

	for i := 0; i+2 < len(out.Pix); i += channels {
		out.Pix[i], out.Pix[i+2] = out.Pix[i+2], out.Pix[i]
	}
	out.Order = target

	return out
}

// RGBA expands the frame into an opaque *image.RGBA.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))

	r, b := 0, 2
	if f.Order == BGR {
		r, b = 2, 0
	}

	for src, dst := 0, 0; src+2 < len(f.Pix); src, dst = src+channels, dst+4 {
		img.Pix[dst] = f.Pix[src+r]
		img.Pix[dst+1] = f.Pix[src+1]
		img.Pix[dst+2] = f.Pix[src+b]
		img.Pix[dst+3] = 0xff
	}

	return img
}

// FromImage packs any image into an RGB frame, dropping alpha.
func FromImage(img image.Image) *Frame {
	bounds := img.Bounds()

	rgba, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	f := NewFrame(bounds.Dx(), bounds.Dy(), RGB)
	for y := 0; y < f.Height; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		out := f.Pix[y*f.Stride():]
		for x := 0; x < f.Width; x++ {
			out[x*3] = row[x*4]
			out[x*3+1] = row[x*4+1]
			out[x*3+2] = row[x*4+2]
		}
	}

	return f
}

// Resize scales f to exactly width x height, keeping its channel order.
func Resize(f *Frame, width, height int) *Frame {
	if f.Width == width && f.Height == height {
		return f.Clone()
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), f.RGBA(), image.Rect(0, 0, f.Width, f.Height), draw.Src, nil)

	out := FromImage(dst)
	if f.Order == BGR {
		return ConvertColor(out, RGB2BGR)
	}

	return out
}
