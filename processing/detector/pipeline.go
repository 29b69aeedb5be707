package detector

import (
	"context"

	"emili/internal/models"
	"emili/processing/imaging"
)

const TopicImage = "image"

// Output is what a pipeline produces for one frame.
type Output struct {
	Image   *imaging.Frame
	Boxes2D []models.Box2D

	// Extra holds any additional named images a pipeline publishes.
	Extra map[string]*imaging.Frame
}

// Topic returns the image published under name, or nil.
func (o *Output) Topic(name string) *imaging.Frame {
	if o == nil {
		return nil
	}
	if name == TopicImage {
		return o.Image
	}
	return o.Extra[name]
}

type Pipeline interface {
	Process(ctx context.Context, frame *imaging.Frame) (*Output, error)
}

// PipelineFunc adapts a function to Pipeline.
type PipelineFunc func(ctx context.Context, frame *imaging.Frame) (*Output, error)

func (f PipelineFunc) Process(ctx context.Context, frame *imaging.Frame) (*Output, error) {
	return f(ctx, frame)
}
