package capture

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"emili/processing/imaging"
)

const defaultReadTimeout = time.Second

// FFmpegCamera reads raw bgr24 frames from an ffmpeg subprocess.
// Only the newest undelivered frame is kept.
type FFmpegCamera struct {
	input       []string
	width       int
	height      int
	targetFPS   uint
	readTimeout time.Duration

	mu       sync.Mutex
	cmd      *exec.Cmd
	stderr   bytes.Buffer
	stopChan chan struct{}
	stopOnce *sync.Once

	open   atomic.Bool
	frames chan *imaging.Frame
	log    *slog.Logger
}

func newFFmpegCamera(input []string, targetFPS uint, width, height int) *FFmpegCamera {
	return &FFmpegCamera{
		input:       input,
		width:       width,
		height:      height,
		targetFPS:   targetFPS,
		readTimeout: defaultReadTimeout,
		frames:      make(chan *imaging.Frame, 1),
		log:         slog.With("component", "camera"),
	}
}

func NewWebcam(deviceName string, targetFPS uint, width, height int) *FFmpegCamera {
	var input []string
	if runtime.GOOS == "windows" {
		input = []string{"-f", "dshow", "-i", fmt.Sprintf("video=%s", deviceName)}
	} else {
		input = []string{"-f", "v4l2", "-i", deviceName}
	}
	return newFFmpegCamera(input, targetFPS, width, height)
}

// NewVideoFile plays a local file in real time at its own resolution.
func NewVideoFile(path string, targetFPS uint) (*FFmpegCamera, error) {
	w, h, err := probeVideoDimensions(path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}
	return newFFmpegCamera([]string{"-re", "-i", path}, targetFPS, int(w), int(h)), nil
}

func (c *FFmpegCamera) args() []string {
	args := append([]string{}, c.input...)
	return append(args,
		"-vf", fmt.Sprintf("fps=%d,scale=%d:%d", c.targetFPS, c.width, c.height),
		"-f", "image2pipe",
		"-pix_fmt", "bgr24",
		"-vcodec", "rawvideo",
		"-",
	)
}

func (c *FFmpegCamera) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open.Load() {
		return nil
	}

	c.cmd = exec.Command("ffmpeg", c.args()...)
	c.stderr.Reset()
	c.cmd.Stderr = &c.stderr

	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w. Details: %s", err, c.stderr.String())
	}

	c.stopChan = make(chan struct{})
	c.stopOnce = &sync.Once{}
	c.open.Store(true)

	go c.readLoop(stdout, c.stopChan)

	c.log.Info("camera started", "args", c.input, "width", c.width, "height", c.height)
	return nil
}

func (c *FFmpegCamera) IsOpen() bool { return c.open.Load() }

func (c *FFmpegCamera) Read() *imaging.Frame {
	if !c.open.Load() {
		// a frame decoded before the stream ended is still served
		select {
		case f := <-c.frames:
			return f
		default:
			return nil
		}
	}

	timer := time.NewTimer(c.readTimeout)
	defer timer.Stop()

	select {
	case f := <-c.frames:
		return f
	case <-timer.C:
		return nil
	}
}

func (c *FFmpegCamera) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopOnce == nil {
		return
	}
	c.stopOnce.Do(func() {
		close(c.stopChan)
		c.open.Store(false)
		c.stopCmdOut()
		c.log.Info("camera stopped")
	})
}

func (c *FFmpegCamera) stopCmdOut() {
	if c.cmd != nil && c.cmd.Process != nil {
		c.cmd.Process.Kill()
		c.cmd.Wait()
	}
}

func (c *FFmpegCamera) readLoop(r io.Reader, stop <-chan struct{}) {
	frameSize := c.width * c.height * 3
	buffer := make([]byte, frameSize)

	for {
		if _, err := io.ReadFull(r, buffer); err != nil {
			select {
			case <-stop:
			default:
				c.log.Error("camera read failed", "error", err)
				c.open.Store(false)
			}
			return
		}

		frame := imaging.NewFrame(c.width, c.height, imaging.BGR)
		copy(frame.Pix, buffer)

		// drop the stale frame if the reader has not picked it up
		select {
		case <-c.frames:
		default:
		}

		select {
		case c.frames <- frame:
		case <-stop:
			return
		}
	}
}
