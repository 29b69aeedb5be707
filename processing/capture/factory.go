package capture

import (
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"

	"emili/internal/config"
)

func NewCamera(cfg *config.Config) (Camera, error) {
	switch cfg.ActiveSource {
	case config.SourceWebcam:
		size := cfg.GetCameraSize()
		return NewWebcam(cfg.Webcam.DeviceID, cfg.GetFPS(), size.Width, size.Height), nil
	case config.SourceLocal:
		cam, err := NewVideoFile(cfg.Local.Path, cfg.GetFPS())
		if err != nil {
			return nil, err
		}
		return cam, nil
	default:
		return nil, fmt.Errorf("unknown source: %s", cfg.ActiveSource)
	}
}

var dshowDevice = regexp.MustCompile(`"([^"]+)"\s+\(video\)`)

func ListCameras() ([]string, error) {
	if runtime.GOOS != "windows" {
		return []string{"/dev/video0", "/dev/video1"}, nil
	}

	cmd := exec.Command("ffmpeg", "-list_devices", "true", "-f", "dshow", "-i", "dummy")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// ffmpeg always exits non-zero here; the listing is on stderr
	_ = cmd.Run()

	return parseDshowDevices(stderr.String()), nil
}

func parseDshowDevices(output string) []string {
	var cameras []string
	seen := make(map[string]bool)

	for _, m := range dshowDevice.FindAllStringSubmatch(output, -1) {
		name := m[1]
		if name != "dummy" && !seen[name] {
			cameras = append(cameras, name)
			seen[name] = true
		}
	}

	return cameras
}
