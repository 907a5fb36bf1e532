package provider

import (
	"context"
	"errors"
	"time"

	"github.com/cjeanneret/SnapGo/internal/debug"
	"github.com/cjeanneret/SnapGo/internal/logic/geometry"
)

// SimulatedOptions configures the simulated provider.
type SimulatedOptions struct {
	// Resolutions advertised to the session. Empty means a small
	// default set.
	Resolutions []Resolution

	// WithPose controls whether synthetic frames carry a
	// camera-to-world and projection transform.
	WithPose bool

	// CameraToWorld is the transform attached to frames when WithPose
	// is set. Zero value means identity.
	CameraToWorld geometry.Mat4

	// Latency is an artificial delay applied to every async operation.
	Latency time.Duration

	// FailOpen makes Open report an error, simulating a camera that
	// never yields a handle.
	FailOpen bool

	// PhotoCode is the result code returned for every photo request.
	PhotoCode ResultCode
}

// Simulated is a Provider backed by no hardware at all: it produces
// BGRA gradient frames at the requested resolution. Used for bench
// development on PC and in tests, the same way the rig used a mock
// GPIO driver off-device.
type Simulated struct {
	opts SimulatedOptions
}

// NewSimulated creates a simulated capture provider.
func NewSimulated(opts SimulatedOptions) *Simulated {
	if len(opts.Resolutions) == 0 {
		opts.Resolutions = []Resolution{
			{Width: 1280, Height: 720},
			{Width: 1920, Height: 1080},
			{Width: 896, Height: 504},
		}
	}
	if opts.WithPose && opts.CameraToWorld == (geometry.Mat4{}) {
		opts.CameraToWorld = geometry.Identity4()
	}
	return &Simulated{opts: opts}
}

func (s *Simulated) SupportedResolutions() []Resolution {
	out := make([]Resolution, len(s.opts.Resolutions))
	copy(out, s.opts.Resolutions)
	return out
}

func (s *Simulated) Open(ctx context.Context) <-chan OpenResult {
	ch := make(chan OpenResult, 1)
	go func() {
		defer close(ch)
		if !s.sleep(ctx) {
			ch <- OpenResult{Err: ctx.Err()}
			return
		}
		if s.opts.FailOpen {
			debug.Verbose("Simulated provider: refusing to open device")
			ch <- OpenResult{Err: errors.New("simulated: no capture device available")}
			return
		}
		debug.Verbose("Simulated provider: device opened")
		ch <- OpenResult{Device: &simulatedDevice{opts: s.opts}}
	}()
	return ch
}

func (s *Simulated) sleep(ctx context.Context) bool {
	if s.opts.Latency <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-time.After(s.opts.Latency):
		return true
	case <-ctx.Done():
		return false
	}
}

type simulatedDevice struct {
	opts   SimulatedOptions
	params PhotoModeParams
	closed bool
}

func (d *simulatedDevice) StartPhotoMode(ctx context.Context, params PhotoModeParams) <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		if err := ctx.Err(); err != nil {
			ch <- err
			return
		}
		d.params = params
		debug.Verbose("Simulated provider: photo mode started (%s, overlay opacity %.1f)",
			params.Resolution, params.HologramOpacity)
		ch <- nil
	}()
	return ch
}

func (d *simulatedDevice) TakePhoto(ctx context.Context) <-chan PhotoResult {
	ch := make(chan PhotoResult, 1)
	go func() {
		defer close(ch)
		if ctx.Err() != nil {
			ch <- PhotoResult{Code: ResultFailed}
			return
		}
		if d.opts.PhotoCode != ResultOK {
			ch <- PhotoResult{Code: d.opts.PhotoCode}
			return
		}
		ch <- PhotoResult{
			Code: ResultOK,
			Frame: &simulatedFrame{
				res:      d.params.Resolution,
				format:   d.params.Format,
				withPose: d.opts.WithPose,
				c2w:      d.opts.CameraToWorld,
			},
		}
	}()
	return ch
}

func (d *simulatedDevice) StopPhotoMode(ctx context.Context) <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		debug.Verbose("Simulated provider: photo mode stopped")
		ch <- ctx.Err()
	}()
	return ch
}

func (d *simulatedDevice) Close() error {
	d.closed = true
	debug.Verbose("Simulated provider: device closed")
	return nil
}

// simulatedFrame is a synthetic BGRA gradient frame.
type simulatedFrame struct {
	res      Resolution
	format   PixelFormat
	withPose bool
	c2w      geometry.Mat4
}

func (f *simulatedFrame) CopyPixels(dst []byte) error {
	bpp := f.format.BytesPerPixel()
	want := f.res.Width * f.res.Height * bpp
	if len(dst) != want {
		return errors.New("simulated: pixel buffer size mismatch")
	}
	// Horizontal blue ramp, vertical green ramp, full alpha.
	i := 0
	for y := 0; y < f.res.Height; y++ {
		g := byte(y * 255 / max(f.res.Height-1, 1))
		for x := 0; x < f.res.Width; x++ {
			dst[i] = byte(x * 255 / max(f.res.Width-1, 1)) // B
			dst[i+1] = g                                   // G
			dst[i+2] = 0                                   // R
			dst[i+3] = 0xFF                                // A
			i += bpp
		}
	}
	return nil
}

func (f *simulatedFrame) CameraToWorld() (geometry.Mat4, bool) {
	if !f.withPose {
		return geometry.Mat4{}, false
	}
	return f.c2w, true
}

func (f *simulatedFrame) Projection() (geometry.Mat4, bool) {
	if !f.withPose {
		return geometry.Mat4{}, false
	}
	// Fixed symmetric perspective projection; the aspect ratio follows
	// the requested resolution.
	aspect := f.res.Aspect()
	if aspect == 0 {
		aspect = 1
	}
	const near, far = 0.1, 20.0
	const fovScale = 1.5 // ~67° vertical field of view
	return geometry.Mat4{
		fovScale / aspect, 0, 0, 0,
		0, fovScale, 0, 0,
		0, 0, -(far + near) / (far - near), -1,
		0, 0, -2 * far * near / (far - near), 0,
	}, true
}
