package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/cjeanneret/SnapGo/internal/logic/geometry"
)

// Resolution is a capture resolution option reported by a device.
type Resolution struct {
	Width  int
	Height int
}

// Area returns Width × Height in pixels.
func (r Resolution) Area() int {
	return r.Width * r.Height
}

// Aspect returns the width/height ratio.
func (r Resolution) Aspect() float64 {
	if r.Height == 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// PickResolution returns the resolution maximizing pixel area.
// Ties are resolved in favor of the first encountered entry.
// Returns false for an empty list.
func PickResolution(options []Resolution) (Resolution, bool) {
	if len(options) == 0 {
		return Resolution{}, false
	}
	best := options[0]
	for _, r := range options[1:] {
		if r.Area() > best.Area() {
			best = r
		}
	}
	return best, true
}

// PixelFormat identifies the raw pixel layout of captured frames.
type PixelFormat int

const (
	// FormatBGRA32 is 8 bits per channel, blue first, 4 bytes per pixel.
	// The only format the pipeline requests.
	FormatBGRA32 PixelFormat = iota
)

// BytesPerPixel returns the per-pixel byte count of the format.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatBGRA32:
		return 4
	default:
		return 0
	}
}

// PhotoModeParams configures a device's photo mode.
type PhotoModeParams struct {
	Resolution Resolution
	Format     PixelFormat
	// HologramOpacity is the opacity of any holographic overlay rendered
	// into the capture. Always 0 here: photos carry camera pixels only.
	HologramOpacity float64
}

// ResultCode is the device-reported outcome of a photo request.
type ResultCode int

const (
	ResultOK ResultCode = iota
	ResultFailed
	ResultTimeout
	ResultBusy
)

var (
	ErrCaptureFailed  = errors.New("provider: capture failed")
	ErrCaptureTimeout = errors.New("provider: capture timed out")
	ErrDeviceBusy     = errors.New("provider: device busy")
)

// Err maps a non-OK result code to its error, nil for ResultOK.
func (c ResultCode) Err() error {
	switch c {
	case ResultOK:
		return nil
	case ResultTimeout:
		return ErrCaptureTimeout
	case ResultBusy:
		return ErrDeviceBusy
	default:
		return ErrCaptureFailed
	}
}

// Frame is one still-image capture result: raw pixels plus optional
// spatial pose metadata. Pose data is absent on device/runtime
// combinations that cannot locate the camera; callers degrade placement
// rather than fail.
type Frame interface {
	// CopyPixels fills dst with the frame's raw pixel data.
	// dst must be sized width*height*bytes-per-pixel.
	CopyPixels(dst []byte) error

	// CameraToWorld returns the camera-to-world transform for the frame,
	// and whether the device reported one.
	CameraToWorld() (geometry.Mat4, bool)

	// Projection returns the camera projection transform for the frame,
	// and whether the device reported one.
	Projection() (geometry.Mat4, bool)
}

// PhotoResult is the completion of a single photo request.
type PhotoResult struct {
	Code  ResultCode
	Frame Frame
}

// OpenResult is the completion of an asynchronous device open.
type OpenResult struct {
	Device Device
	Err    error
}

// Provider is the host-supplied subsystem that owns the physical or
// simulated camera and streams single frames on request. All long
// operations complete on channels; each channel delivers exactly one
// value and is then closed.
type Provider interface {
	// SupportedResolutions enumerates the capture resolutions the
	// underlying camera offers.
	SupportedResolutions() []Resolution

	// Open asynchronously creates a capture device session.
	Open(ctx context.Context) <-chan OpenResult
}

// Device is an active capture session handle.
type Device interface {
	// StartPhotoMode asynchronously enters photo mode with the given
	// parameters.
	StartPhotoMode(ctx context.Context, params PhotoModeParams) <-chan error

	// TakePhoto asynchronously captures exactly one frame.
	TakePhoto(ctx context.Context) <-chan PhotoResult

	// StopPhotoMode asynchronously exits photo mode.
	StopPhotoMode(ctx context.Context) <-chan error

	// Close releases the device handle.
	Close() error
}
