package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"emili/internal/models"
	"emili/processing/imaging"
)

var boxColor = color.RGBA{0, 255, 0, 255}

// RemoteFER runs face detection and emotion classification on a remote
// server. Frames go out as JPEG binary messages and each one is answered
// with a JSON array of models.DetectionResult.
type RemoteFER struct {
	serverURL string
	timeout   time.Duration
	dialer    *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn

	log *slog.Logger
}

func NewRemoteFER(host string, timeout time.Duration) *RemoteFER {
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}

	return &RemoteFER{
		serverURL: u.String(),
		timeout:   timeout,
		dialer:    websocket.DefaultDialer,
		log:       slog.With("component", "fer", "url", u.String()),
	}
}

func (d *RemoteFER) Process(ctx context.Context, frame *imaging.Frame) (*Output, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.RGBA(), nil); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	conn, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(d.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}

	conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
		d.dropConn(err)
		return nil, fmt.Errorf("send frame: %w", err)
	}

	conn.SetReadDeadline(deadline)
	_, message, err := conn.ReadMessage()
	if err != nil {
		d.dropConn(err)
		return nil, fmt.Errorf("read results: %w", err)
	}

	var results []models.DetectionResult
	if err := json.Unmarshal(message, &results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}

	annotated, boxes := Annotate(frame, results)

	return &Output{Image: annotated, Boxes2D: boxes}, nil
}

func (d *RemoteFER) connect(ctx context.Context) (*websocket.Conn, error) {
	if d.conn != nil {
		return d.conn, nil
	}

	d.log.Info("connecting to FER server...")

	dialCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	conn, _, err := d.dialer.DialContext(dialCtx, d.serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial FER server: %w", err)
	}

	d.log.Info("connected to FER server")
	d.conn = conn

	return conn, nil
}

func (d *RemoteFER) dropConn(err error) {
	d.log.Warn("connection lost", "error", err)
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

func (d *RemoteFER) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = d.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := d.conn.Close()
	d.conn = nil

	return err
}

// Annotate draws a box and an emotion label for each result onto a copy of
// frame and returns the pixel boxes that were drawn.
func Annotate(frame *imaging.Frame, results []models.DetectionResult) (*imaging.Frame, []models.Box2D) {
	boxes := make([]models.Box2D, 0, len(results))
	for _, res := range results {
		if box, ok := res.ToBox2D(frame.Width, frame.Height); ok {
			boxes = append(boxes, box)
		}
	}

	if len(boxes) == 0 {
		return frame.Clone(), boxes
	}

	img := frame.RGBA()
	for _, box := range boxes {
		rect := image.Rect(box.X1, box.Y1, box.X2, box.Y2)
		imaging.DrawBox(img, rect, boxColor)
		imaging.DrawLabel(img, rect, fmt.Sprintf("%s %.0f%%", box.ClassName, box.Score*100), boxColor)
	}

	out := imaging.FromImage(img)
	if frame.Order == imaging.BGR {
		out = imaging.ConvertColor(out, imaging.RGB2BGR)
	}

	return out, boxes
}
