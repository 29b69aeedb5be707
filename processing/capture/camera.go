package capture

import "emili/processing/imaging"

// Camera is a frame source that must be started before it is read.
type Camera interface {
	IsOpen() bool
	Start() error
	Stop()
	// Read returns the next frame, or nil when none is available yet.
	Read() *imaging.Frame
}
