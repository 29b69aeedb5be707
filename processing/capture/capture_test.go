package capture

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emili/internal/config"
	"emili/processing/imaging"
)

func TestReadOnClosedCameraReturnsNil(t *testing.T) {
	cam := NewWebcam("/dev/null", 10, 2, 2)

	assert.False(t, cam.IsOpen())
	assert.Nil(t, cam.Read())
}

func TestReadLoopDeliversBGRFrames(t *testing.T) {
	cam := newFFmpegCamera(nil, 10, 2, 1)
	cam.readTimeout = time.Second
	cam.open.Store(true)

	raw := []byte{1, 2, 3, 4, 5, 6}
	stop := make(chan struct{})
	defer close(stop)
	go cam.readLoop(bytes.NewReader(raw), stop)

	f := cam.Read()
	require.NotNil(t, f)
	assert.Equal(t, imaging.BGR, f.Order)
	assert.Equal(t, raw, f.Pix)
	assert.Equal(t, 2, f.Width)
	assert.Equal(t, 1, f.Height)
}

func TestReadLoopClosesCameraOnEOF(t *testing.T) {
	cam := newFFmpegCamera(nil, 10, 2, 1)
	cam.readTimeout = 20 * time.Millisecond
	cam.open.Store(true)

	cam.readLoop(bytes.NewReader([]byte{1, 2}), make(chan struct{}))

	assert.False(t, cam.IsOpen())
	assert.Nil(t, cam.Read())
}

func TestReadTimesOutWithoutFrame(t *testing.T) {
	cam := newFFmpegCamera(nil, 10, 2, 1)
	cam.readTimeout = 10 * time.Millisecond
	cam.open.Store(true)

	assert.Nil(t, cam.Read())
}

func TestArgsRequestBGR24(t *testing.T) {
	cam := newFFmpegCamera([]string{"-i", "in.mp4"}, 12, 320, 240)

	args := cam.args()

	assert.Equal(t, []string{"-i", "in.mp4"}, args[:2])
	assert.Contains(t, args, "bgr24")
	assert.Contains(t, args, "fps=12,scale=320:240")
}

func TestParseProbe(t *testing.T) {
	w, h, err := parseProbe([]byte(`{"streams":[{"width":1280,"height":720}]}`))
	require.NoError(t, err)
	assert.Equal(t, uint16(1280), w)
	assert.Equal(t, uint16(720), h)

	_, _, err = parseProbe([]byte(`{"streams":[]}`))
	assert.Error(t, err)
}

func TestParseDshowDevices(t *testing.T) {
	out := `[dshow] "Integrated Camera" (video)
[dshow] "Integrated Camera" (video)
[dshow] "Microphone" (audio)
[dshow] "OBS Virtual Camera" (video)`

	assert.Equal(t, []string{"Integrated Camera", "OBS Virtual Camera"}, parseDshowDevices(out))
}

func TestNewCameraRejectsUnknownSource(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.ActiveSource = "YouTube"

	_, err := NewCamera(cfg)
	assert.Error(t, err)
}
