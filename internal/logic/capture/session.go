// Package capture contains the photo capture session: the lifecycle of
// one capture device, from opening it through single-shot photos to
// teardown. Each successful photo becomes a freshly instantiated scene
// surface carrying the frame's texture and, when the device reported
// one, the decomposed camera pose.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cjeanneret/SnapGo/internal/debug"
	"github.com/cjeanneret/SnapGo/internal/hw/provider"
	"github.com/cjeanneret/SnapGo/internal/hw/shutter"
	"github.com/cjeanneret/SnapGo/internal/logic/geometry"
	"github.com/cjeanneret/SnapGo/internal/scene"
)

// State is the capture session lifecycle state.
type State int

const (
	Uninitialized State = iota
	Ready
	Capturing
	Stopping
	Disposed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Capturing:
		return "capturing"
	case Stopping:
		return "stopping"
	case Disposed:
		return "disposed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrNotInitialized: the session has no device handle; nothing was
	// captured and no cue was played.
	ErrNotInitialized = errors.New("capture: session not initialized")
	// ErrCaptureInFlight: a photo request is already running. One photo
	// at a time, enforced rather than assumed.
	ErrCaptureInFlight = errors.New("capture: photo already in flight")
	// ErrInvalidState: the operation is not legal in the current state
	// (e.g. Stop before Initialize, anything after Dispose).
	ErrInvalidState = errors.New("capture: invalid session state")
)

// Options configures a session.
type Options struct {
	// Prefab is the template instantiated once per captured photo.
	Prefab *scene.Prefab

	// Cue, when non-nil, is played at the start of every photo request.
	Cue shutter.Cue

	// VignetteScale is the fixed scalar bound on every photo material.
	// 0 means the default (0.6).
	VignetteScale float64

	// PrefsPath is logged at initialization for diagnostics; the
	// session itself never touches the store.
	PrefsPath string
}

// Session owns one capture device. Methods are safe for concurrent
// use; exactly one photo request runs at a time and overlapping calls
// fail fast.
type Session struct {
	mu      sync.Mutex
	state   State
	opening bool

	provider provider.Provider
	device   provider.Device

	resolution provider.Resolution
	aspect     float64

	prefab    *scene.Prefab
	cue       shutter.Cue
	vignette  float64
	prefsPath string
}

// NewSession creates a session in the Uninitialized state.
func NewSession(p provider.Provider, opts Options) (*Session, error) {
	if p == nil {
		return nil, fmt.Errorf("capture: provider is required")
	}
	if opts.Prefab == nil {
		return nil, fmt.Errorf("capture: prefab is required")
	}
	if err := opts.Prefab.Validate(); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	vignette := opts.VignetteScale
	if vignette == 0 {
		vignette = 0.6
	}

	return &Session{
		state:     Uninitialized,
		provider:  p,
		prefab:    opts.Prefab,
		cue:       opts.Cue,
		vignette:  vignette,
		prefsPath: opts.PrefsPath,
	}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Resolution returns the capture resolution chosen at initialization.
func (s *Session) Resolution() provider.Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolution
}

// AspectRatio returns width/height of the chosen resolution.
func (s *Session) AspectRatio() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aspect
}

// Initialize selects the capture resolution (largest pixel area wins,
// first encountered on ties) and opens the device. On failure the
// session stays Uninitialized and every TakePicture call fails with
// ErrNotInitialized.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Uninitialized || s.opening {
		s.mu.Unlock()
		return fmt.Errorf("%w: initialize in state %s", ErrInvalidState, s.state)
	}
	s.opening = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.opening = false
		s.mu.Unlock()
	}()

	debug.Section("Capture Session Initialization")
	if s.prefsPath != "" {
		debug.Value("Preference store path", s.prefsPath)
	}

	res, ok := provider.PickResolution(s.provider.SupportedResolutions())
	if !ok {
		return fmt.Errorf("capture: provider reports no resolutions")
	}
	aspect := res.Aspect()
	debug.Resolution(res.Width, res.Height, aspect)

	result := <-s.provider.Open(ctx)
	if result.Err != nil {
		debug.Error(result.Err)
		return fmt.Errorf("capture: open device: %w", result.Err)
	}

	s.mu.Lock()
	s.device = result.Device
	s.resolution = res
	s.aspect = aspect
	s.state = Ready
	s.mu.Unlock()

	debug.Info("Capture session ready")
	return nil
}

// TakePicture captures exactly one photo and returns the surface
// instance holding it. Fails fast with ErrNotInitialized before
// Initialize, ErrCaptureInFlight while another photo is running, and
// ErrInvalidState once stopping or disposed. No surface is created and
// no cue is played on any of those paths.
func (s *Session) TakePicture(ctx context.Context) (*scene.Surface, error) {
	s.mu.Lock()
	switch s.state {
	case Ready:
		// proceed
	case Uninitialized:
		s.mu.Unlock()
		return nil, ErrNotInitialized
	case Capturing:
		s.mu.Unlock()
		return nil, ErrCaptureInFlight
	default:
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: take picture in state %s", ErrInvalidState, s.state)
	}
	s.state = Capturing
	device := s.device
	res := s.resolution
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.state == Capturing {
			s.state = Ready
		}
		s.mu.Unlock()
	}()

	params := provider.PhotoModeParams{
		Resolution: res,
		Format:     provider.FormatBGRA32,
		// Photos carry camera pixels only, never rendered overlays.
		HologramOpacity: 0,
	}

	if s.cue != nil {
		if err := s.cue.Play(); err != nil {
			debug.Error(fmt.Errorf("shutter cue: %w", err))
		}
	}

	if err := <-device.StartPhotoMode(ctx, params); err != nil {
		return nil, fmt.Errorf("capture: start photo mode: %w", err)
	}

	photo := <-device.TakePhoto(ctx)
	if err := photo.Code.Err(); err != nil {
		return nil, fmt.Errorf("capture: take photo: %w", err)
	}
	if photo.Frame == nil {
		return nil, fmt.Errorf("capture: provider returned no frame")
	}

	surface, err := s.buildSurface(photo.Frame, res)
	if err != nil {
		return nil, err
	}

	debug.Capture(surface.ID, res.Width, res.Height)
	return surface, nil
}

// buildSurface turns one frame into a textured, optionally posed,
// prefab instance.
func (s *Session) buildSurface(frame provider.Frame, res provider.Resolution) (*scene.Surface, error) {
	texture, err := scene.NewTexture(res.Width, res.Height)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	if err := texture.Upload(frame); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	surface := s.prefab.Instantiate()
	child := surface.Child(s.prefab.ChildName)
	if child == nil {
		return nil, fmt.Errorf("capture: prefab child %q not found", s.prefab.ChildName)
	}

	material := child.Material
	material.Shader = scene.BlendShader
	material.MainTexture = texture

	c2w, located := frame.CameraToWorld()
	if !located {
		// Some device/runtime combinations never report location data.
		// The surface keeps the prefab's default transform.
		debug.Verbose("Frame carries no location data; surface keeps default transform")
		return surface, nil
	}

	pose, ok := geometry.DecomposePose(c2w)
	if !ok {
		debug.Verbose("Camera-to-world matrix not finite; surface keeps default transform")
		return surface, nil
	}

	if w2c, invertible := c2w.Inverse(); invertible {
		material.SetMatrix(scene.ParamWorldToCamera, w2c)
	}
	if projection, has := frame.Projection(); has {
		material.SetMatrix(scene.ParamProjection, projection)
	}
	material.SetFloat(scene.ParamVignetteScale, s.vignette)

	placed := scene.Transform{Position: pose.Position, Rotation: pose.Rotation}
	surface.Transform = placed
	child.Transform = placed

	debug.Pose(pose.Position.X, pose.Position.Y, pose.Position.Z,
		pose.Rotation.W, pose.Rotation.X, pose.Rotation.Y, pose.Rotation.Z)
	debug.Placed(surface.ID, pose.Position.X, pose.Position.Y, pose.Position.Z)

	return surface, nil
}

// Stop exits photo mode and releases the device. The handle is closed
// and invalidated unconditionally, even when the provider reports an
// error on the way out. Stop before Initialize, or twice, fails with
// ErrInvalidState; Stop during a capture fails with ErrCaptureInFlight.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case Ready:
		// proceed
	case Capturing:
		s.mu.Unlock()
		return ErrCaptureInFlight
	default:
		s.mu.Unlock()
		return fmt.Errorf("%w: stop in state %s", ErrInvalidState, s.state)
	}
	s.state = Stopping
	device := s.device
	s.mu.Unlock()

	stopErr := <-device.StopPhotoMode(ctx)
	closeErr := device.Close()

	s.mu.Lock()
	s.device = nil
	s.state = Disposed
	s.mu.Unlock()

	debug.Info("Capture session disposed")

	if stopErr != nil {
		return fmt.Errorf("capture: stop photo mode: %w", stopErr)
	}
	if closeErr != nil {
		return fmt.Errorf("capture: close device: %w", closeErr)
	}
	return nil
}
