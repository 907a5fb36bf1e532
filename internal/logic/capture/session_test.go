package capture

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/cjeanneret/SnapGo/internal/hw/provider"
	"github.com/cjeanneret/SnapGo/internal/logic/geometry"
	"github.com/cjeanneret/SnapGo/internal/scene"
)

// countingCue records how many times the shutter cue was played.
type countingCue struct {
	mu sync.Mutex
	n  int
}

func (c *countingCue) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return nil
}

func (c *countingCue) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func testPrefab() *scene.Prefab {
	return &scene.Prefab{
		Name:      "PhotoQuad",
		ChildName: "Quad",
		DefaultTransform: scene.Transform{
			Position: geometry.Vec3{X: 9, Y: 9, Z: 9},
			Rotation: geometry.QuatIdentity(),
		},
	}
}

func newTestSession(t *testing.T, simOpts provider.SimulatedOptions, cue *countingCue) *Session {
	t.Helper()
	opts := Options{Prefab: testPrefab()}
	if cue != nil {
		opts.Cue = cue
	}
	s, err := NewSession(provider.NewSimulated(simOpts), opts)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return s
}

func TestNewSession_Validation(t *testing.T) {
	if _, err := NewSession(nil, Options{Prefab: testPrefab()}); err == nil {
		t.Error("expected error for nil provider")
	}
	if _, err := NewSession(provider.NewSimulated(provider.SimulatedOptions{}), Options{}); err == nil {
		t.Error("expected error for nil prefab")
	}
	if _, err := NewSession(provider.NewSimulated(provider.SimulatedOptions{}),
		Options{Prefab: &scene.Prefab{Name: "X"}}); err == nil {
		t.Error("expected error for invalid prefab")
	}
}

func TestInitialize_PicksLargestResolution(t *testing.T) {
	s := newTestSession(t, provider.SimulatedOptions{
		Resolutions: []provider.Resolution{
			{Width: 640, Height: 480},
			{Width: 1920, Height: 1080},
			{Width: 1280, Height: 720},
		},
	}, nil)

	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	want := provider.Resolution{Width: 1920, Height: 1080}
	if got := s.Resolution(); got != want {
		t.Errorf("Resolution() = %v, want %v", got, want)
	}
	if got, want := s.AspectRatio(), 1920.0/1080.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("AspectRatio() = %v, want %v", got, want)
	}
	if got := s.State(); got != Ready {
		t.Errorf("State() = %v, want Ready", got)
	}
}

func TestInitialize_OpenFailure(t *testing.T) {
	cue := &countingCue{}
	s := newTestSession(t, provider.SimulatedOptions{FailOpen: true}, cue)

	if err := s.Initialize(context.Background()); err == nil {
		t.Fatal("expected Initialize to fail")
	}
	if got := s.State(); got != Uninitialized {
		t.Errorf("State() = %v, want Uninitialized", got)
	}

	// All capture requests are dead: no surface, no cue.
	surface, err := s.TakePicture(context.Background())
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("TakePicture error = %v, want ErrNotInitialized", err)
	}
	if surface != nil {
		t.Error("expected no surface")
	}
	if cue.count() != 0 {
		t.Errorf("cue played %d times, want 0", cue.count())
	}
}

func TestTakePicture_BeforeInitialize(t *testing.T) {
	cue := &countingCue{}
	s := newTestSession(t, provider.SimulatedOptions{}, cue)

	surface, err := s.TakePicture(context.Background())
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("error = %v, want ErrNotInitialized", err)
	}
	if surface != nil {
		t.Error("expected no surface")
	}
	if cue.count() != 0 {
		t.Errorf("cue played %d times, want 0", cue.count())
	}
}

func TestTakePicture_WithPose(t *testing.T) {
	c2w := geometry.TRS(geometry.Vec3{X: 1, Y: 2, Z: 3}, geometry.QuatIdentity())
	cue := &countingCue{}
	s := newTestSession(t, provider.SimulatedOptions{
		Resolutions:   []provider.Resolution{{Width: 8, Height: 4}},
		WithPose:      true,
		CameraToWorld: c2w,
	}, cue)

	ctx := context.Background()
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	surface, err := s.TakePicture(ctx)
	if err != nil {
		t.Fatalf("TakePicture failed: %v", err)
	}
	if cue.count() != 1 {
		t.Errorf("cue played %d times, want 1", cue.count())
	}

	// position = translation - forward = (1,2,3) - (0,0,1)
	wantPos := geometry.Vec3{X: 1, Y: 2, Z: 2}
	if got := surface.Transform.Position; got != wantPos {
		t.Errorf("surface position = %+v, want %+v", got, wantPos)
	}
	// LookRotation(-forward, up) for an identity camera: half-turn about Y
	gotRot := surface.Transform.Rotation
	if math.Abs(gotRot.W) > 1e-9 || math.Abs(gotRot.X) > 1e-9 ||
		math.Abs(gotRot.Y-1) > 1e-9 || math.Abs(gotRot.Z) > 1e-9 {
		t.Errorf("surface rotation = %+v, want half-turn about Y", gotRot)
	}

	child := surface.Child("Quad")
	if child == nil {
		t.Fatal("expected child 'Quad'")
	}
	if child.Material.Shader != scene.BlendShader {
		t.Errorf("shader = %q, want %q", child.Material.Shader, scene.BlendShader)
	}
	tex := child.Material.MainTexture
	if tex == nil {
		t.Fatal("expected main texture")
	}
	if tex.Width != 8 || tex.Height != 4 {
		t.Errorf("texture size = %dx%d, want 8x4", tex.Width, tex.Height)
	}

	w2c, ok := child.Material.Matrix(scene.ParamWorldToCamera)
	if !ok {
		t.Fatal("expected world-to-camera matrix bound")
	}
	wantW2C, _ := c2w.Inverse()
	if w2c != wantW2C {
		t.Errorf("world-to-camera = %v, want inverse of camera-to-world", w2c)
	}
	if _, ok := child.Material.Matrix(scene.ParamProjection); !ok {
		t.Error("expected projection matrix bound")
	}
	if v, ok := child.Material.Float(scene.ParamVignetteScale); !ok || v != 0.6 {
		t.Errorf("vignette scale = %v, %v; want 0.6, true", v, ok)
	}
}

func TestTakePicture_WithoutPose(t *testing.T) {
	s := newTestSession(t, provider.SimulatedOptions{
		Resolutions: []provider.Resolution{{Width: 4, Height: 4}},
	}, nil)

	ctx := context.Background()
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	surface, err := s.TakePicture(ctx)
	if err != nil {
		t.Fatalf("TakePicture failed: %v", err)
	}

	// No location data: prefab default transform, no matrices bound.
	want := testPrefab().DefaultTransform
	if surface.Transform != want {
		t.Errorf("surface transform = %+v, want prefab default %+v", surface.Transform, want)
	}
	child := surface.Child("Quad")
	if _, ok := child.Material.Matrix(scene.ParamWorldToCamera); ok {
		t.Error("expected no world-to-camera matrix without pose")
	}
	if _, ok := child.Material.Float(scene.ParamVignetteScale); ok {
		t.Error("expected no vignette scale without pose")
	}
	// The texture still arrives.
	if child.Material.MainTexture == nil {
		t.Error("expected main texture")
	}
}

func TestTakePicture_FreshSurfacePerCall(t *testing.T) {
	s := newTestSession(t, provider.SimulatedOptions{
		Resolutions: []provider.Resolution{{Width: 2, Height: 2}},
	}, nil)

	ctx := context.Background()
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	a, err := s.TakePicture(ctx)
	if err != nil {
		t.Fatalf("first TakePicture failed: %v", err)
	}
	b, err := s.TakePicture(ctx)
	if err != nil {
		t.Fatalf("second TakePicture failed: %v", err)
	}
	if a.ID == b.ID {
		t.Error("expected a new surface instance per capture")
	}
}

func TestTakePicture_ProviderFailureCode(t *testing.T) {
	s := newTestSession(t, provider.SimulatedOptions{
		Resolutions: []provider.Resolution{{Width: 2, Height: 2}},
		PhotoCode:   provider.ResultTimeout,
	}, nil)

	ctx := context.Background()
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if _, err := s.TakePicture(ctx); !errors.Is(err, provider.ErrCaptureTimeout) {
		t.Errorf("error = %v, want ErrCaptureTimeout", err)
	}
	if got := s.State(); got != Ready {
		t.Errorf("State() after failed capture = %v, want Ready", got)
	}
}

func TestStop_BeforeInitialize(t *testing.T) {
	s := newTestSession(t, provider.SimulatedOptions{}, nil)

	if err := s.Stop(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("error = %v, want ErrInvalidState", err)
	}
}

func TestStop_Lifecycle(t *testing.T) {
	s := newTestSession(t, provider.SimulatedOptions{}, nil)
	ctx := context.Background()

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if got := s.State(); got != Disposed {
		t.Errorf("State() = %v, want Disposed", got)
	}

	if _, err := s.TakePicture(ctx); !errors.Is(err, ErrInvalidState) {
		t.Errorf("TakePicture after Stop: error = %v, want ErrInvalidState", err)
	}
	if err := s.Stop(ctx); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Stop: error = %v, want ErrInvalidState", err)
	}
	if err := s.Initialize(ctx); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Initialize after Stop: error = %v, want ErrInvalidState", err)
	}
}

// blockingDevice holds TakePhoto open until released, to pin the
// session in the Capturing state.
type blockingDevice struct {
	release chan struct{}
}

func (d *blockingDevice) StartPhotoMode(ctx context.Context, _ provider.PhotoModeParams) <-chan error {
	ch := make(chan error, 1)
	ch <- nil
	close(ch)
	return ch
}

func (d *blockingDevice) TakePhoto(ctx context.Context) <-chan provider.PhotoResult {
	ch := make(chan provider.PhotoResult, 1)
	go func() {
		defer close(ch)
		<-d.release
		ch <- provider.PhotoResult{Code: provider.ResultFailed}
	}()
	return ch
}

func (d *blockingDevice) StopPhotoMode(ctx context.Context) <-chan error {
	ch := make(chan error, 1)
	ch <- nil
	close(ch)
	return ch
}

func (d *blockingDevice) Close() error { return nil }

type blockingProvider struct {
	device *blockingDevice
}

func (p *blockingProvider) SupportedResolutions() []provider.Resolution {
	return []provider.Resolution{{Width: 2, Height: 2}}
}

func (p *blockingProvider) Open(ctx context.Context) <-chan provider.OpenResult {
	ch := make(chan provider.OpenResult, 1)
	ch <- provider.OpenResult{Device: p.device}
	close(ch)
	return ch
}

func TestTakePicture_OverlappingCallFailsFast(t *testing.T) {
	dev := &blockingDevice{release: make(chan struct{})}
	s, err := NewSession(&blockingProvider{device: dev}, Options{Prefab: testPrefab()})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	ctx := context.Background()
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		close(started)
		_, _ = s.TakePicture(ctx)
	}()
	<-started

	// Wait until the first call holds the Capturing state.
	for s.State() != Capturing {
		time.Sleep(time.Millisecond)
	}

	if _, err := s.TakePicture(ctx); !errors.Is(err, ErrCaptureInFlight) {
		t.Errorf("overlapping call: error = %v, want ErrCaptureInFlight", err)
	}

	close(dev.release)
	<-done

	if got := s.State(); got != Ready {
		t.Errorf("State() after release = %v, want Ready", got)
	}
}
