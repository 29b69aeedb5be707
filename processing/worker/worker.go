package worker

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"emili/internal/metrics"
	"emili/processing/capture"
	"emili/processing/detector"
	"emili/processing/imaging"
)

var ErrCameraNotStarted = errors.New("camera has not started, call Start first")

type Options struct {
	Width  int
	Height int
	// Topic selects which pipeline image is displayed.
	Topic string
}

// FrameWorker pulls frames from a camera, runs them through the FER
// pipeline and publishes resized results on FrameReady.
type FrameWorker struct {
	camera   capture.Camera
	pipeline detector.Pipeline
	opts     Options

	frameReady chan image.Image
	stopFlag   atomic.Bool

	mu      sync.RWMutex
	latency time.Duration
	fps     uint

	log *slog.Logger
}

func New(camera capture.Camera, pipeline detector.Pipeline, opts Options) *FrameWorker {
	if opts.Topic == "" {
		opts.Topic = detector.TopicImage
	}

	return &FrameWorker{
		camera:     camera,
		pipeline:   pipeline,
		opts:       opts,
		frameReady: make(chan image.Image, 1),
		log:        slog.With("component", "frame-worker"),
	}
}

// FrameReady delivers the newest published frame. Frames nobody has
// received yet are replaced, never queued.
func (w *FrameWorker) FrameReady() <-chan image.Image {
	return w.frameReady
}

// Stop asks Run to exit after the current iteration. A stopped worker
// stays stopped.
func (w *FrameWorker) Stop() {
	w.stopFlag.Store(true)
}

func (w *FrameWorker) Latency() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.latency
}

func (w *FrameWorker) FPS() uint {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fps
}

// Step reads one frame and runs it through the pipeline. A missing frame
// yields (nil, nil).
func (w *FrameWorker) Step(ctx context.Context) (*detector.Output, error) {
	if !w.camera.IsOpen() {
		return nil, ErrCameraNotStarted
	}

	frame := w.camera.Read()
	if frame == nil {
		w.log.Debug("Frame: None")
		metrics.ObserveFrameSkipped("no_frame")
		return nil, nil
	}

	frame = imaging.ConvertColor(frame, imaging.BGR2RGB)

	start := time.Now()
	out, err := w.pipeline.Process(ctx, frame)
	elapsed := time.Since(start)
	metrics.ObservePipeline(elapsed)

	w.mu.Lock()
	w.latency = elapsed
	w.mu.Unlock()

	return out, err
}

// Run starts the camera and loops until Stop is called or ctx is done.
// The camera is stopped on return. A camera that closes after having been
// open, such as a video file reaching its end, ends Run with a
// "camera closed" error wrapping ErrCameraNotStarted.
func (w *FrameWorker) Run(ctx context.Context) error {
	if err := w.camera.Start(); err != nil {
		return err
	}
	defer w.camera.Stop()

	var frameCount uint
	lastFpsUpdate := time.Now()
	wasOpen := false

	for !w.stopFlag.Load() {
		if ctx.Err() != nil {
			return nil
		}

		out, err := w.Step(ctx)
		if errors.Is(err, ErrCameraNotStarted) {
			if wasOpen {
				return fmt.Errorf("camera closed: %w", err)
			}
			return err
		}
		wasOpen = true
		if err != nil {
			w.log.Warn("pipeline failed", "error", err)
			metrics.ObserveFrameSkipped("pipeline_error")
			continue
		}

		img := out.Topic(w.opts.Topic)
		if img == nil {
			if out != nil {
				metrics.ObserveFrameSkipped("no_image")
			}
			continue
		}

		img = imaging.Resize(img, w.opts.Width, w.opts.Height)
		w.publish(img.RGBA())

		frameCount++
		if time.Since(lastFpsUpdate) >= time.Second {
			w.mu.Lock()
			w.fps = frameCount
			w.mu.Unlock()
			frameCount = 0
			lastFpsUpdate = time.Now()
		}
	}

	return nil
}

func (w *FrameWorker) publish(img image.Image) {
	select {
	case <-w.frameReady:
	default:
	}

	select {
	case w.frameReady <- img:
		metrics.ObserveFramePublished()
	default:
	}
}
