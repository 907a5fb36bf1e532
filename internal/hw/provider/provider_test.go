package provider

import (
	"context"
	"testing"
)

func TestPickResolution_MaxArea(t *testing.T) {
	options := []Resolution{
		{Width: 1280, Height: 720},
		{Width: 1920, Height: 1080},
		{Width: 896, Height: 504},
	}

	got, ok := PickResolution(options)
	if !ok {
		t.Fatal("expected a resolution")
	}
	want := Resolution{Width: 1920, Height: 1080}
	if got != want {
		t.Errorf("PickResolution() = %v, want %v", got, want)
	}
}

func TestPickResolution_TieFirstWins(t *testing.T) {
	// Same area, different shapes: the first encountered must win.
	options := []Resolution{
		{Width: 1000, Height: 500},
		{Width: 500, Height: 1000},
	}

	got, _ := PickResolution(options)
	want := Resolution{Width: 1000, Height: 500}
	if got != want {
		t.Errorf("PickResolution() = %v, want %v (first of tie)", got, want)
	}
}

func TestPickResolution_Empty(t *testing.T) {
	if _, ok := PickResolution(nil); ok {
		t.Error("expected no resolution from an empty list")
	}
}

func TestResolution_Aspect(t *testing.T) {
	r := Resolution{Width: 1920, Height: 1080}
	want := 1920.0 / 1080.0
	if got := r.Aspect(); got != want {
		t.Errorf("Aspect() = %v, want %v", got, want)
	}

	if got := (Resolution{}).Aspect(); got != 0 {
		t.Errorf("zero resolution Aspect() = %v, want 0", got)
	}
}

func TestResultCode_Err(t *testing.T) {
	if err := ResultOK.Err(); err != nil {
		t.Errorf("ResultOK.Err() = %v, want nil", err)
	}
	if err := ResultFailed.Err(); err != ErrCaptureFailed {
		t.Errorf("ResultFailed.Err() = %v, want ErrCaptureFailed", err)
	}
	if err := ResultTimeout.Err(); err != ErrCaptureTimeout {
		t.Errorf("ResultTimeout.Err() = %v, want ErrCaptureTimeout", err)
	}
	if err := ResultBusy.Err(); err != ErrDeviceBusy {
		t.Errorf("ResultBusy.Err() = %v, want ErrDeviceBusy", err)
	}
}

func TestSimulated_OpenAndCapture(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulated(SimulatedOptions{WithPose: true})

	res := <-sim.Open(ctx)
	if res.Err != nil {
		t.Fatalf("Open failed: %v", res.Err)
	}
	dev := res.Device
	defer dev.Close()

	params := PhotoModeParams{
		Resolution: Resolution{Width: 8, Height: 4},
		Format:     FormatBGRA32,
	}
	if err := <-dev.StartPhotoMode(ctx, params); err != nil {
		t.Fatalf("StartPhotoMode failed: %v", err)
	}

	photo := <-dev.TakePhoto(ctx)
	if photo.Code != ResultOK {
		t.Fatalf("TakePhoto code = %v, want ResultOK", photo.Code)
	}
	if photo.Frame == nil {
		t.Fatal("expected a frame")
	}

	buf := make([]byte, 8*4*4)
	if err := photo.Frame.CopyPixels(buf); err != nil {
		t.Fatalf("CopyPixels failed: %v", err)
	}
	// Full alpha everywhere
	for i := 3; i < len(buf); i += 4 {
		if buf[i] != 0xFF {
			t.Fatalf("alpha at %d = %#x, want 0xFF", i, buf[i])
		}
	}

	if _, ok := photo.Frame.CameraToWorld(); !ok {
		t.Error("expected camera-to-world with WithPose")
	}
	if _, ok := photo.Frame.Projection(); !ok {
		t.Error("expected projection with WithPose")
	}

	if err := <-dev.StopPhotoMode(ctx); err != nil {
		t.Errorf("StopPhotoMode failed: %v", err)
	}
}

func TestSimulated_FailOpen(t *testing.T) {
	sim := NewSimulated(SimulatedOptions{FailOpen: true})
	res := <-sim.Open(context.Background())
	if res.Err == nil {
		t.Fatal("expected Open to fail")
	}
	if res.Device != nil {
		t.Error("expected nil device on failed open")
	}
}

func TestSimulated_NoPose(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulated(SimulatedOptions{})

	dev := (<-sim.Open(ctx)).Device
	defer dev.Close()
	<-dev.StartPhotoMode(ctx, PhotoModeParams{Resolution: Resolution{Width: 2, Height: 2}, Format: FormatBGRA32})

	photo := <-dev.TakePhoto(ctx)
	if _, ok := photo.Frame.CameraToWorld(); ok {
		t.Error("expected no camera-to-world without WithPose")
	}
	if _, ok := photo.Frame.Projection(); ok {
		t.Error("expected no projection without WithPose")
	}
}

func TestSimulated_CopyPixelsSizeMismatch(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulated(SimulatedOptions{})

	dev := (<-sim.Open(ctx)).Device
	defer dev.Close()
	<-dev.StartPhotoMode(ctx, PhotoModeParams{Resolution: Resolution{Width: 4, Height: 4}, Format: FormatBGRA32})

	photo := <-dev.TakePhoto(ctx)
	if err := photo.Frame.CopyPixels(make([]byte, 3)); err == nil {
		t.Error("expected error for undersized buffer")
	}
}

func TestSimulated_PhotoCodePropagated(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulated(SimulatedOptions{PhotoCode: ResultTimeout})

	dev := (<-sim.Open(ctx)).Device
	defer dev.Close()
	<-dev.StartPhotoMode(ctx, PhotoModeParams{Resolution: Resolution{Width: 2, Height: 2}, Format: FormatBGRA32})

	photo := <-dev.TakePhoto(ctx)
	if photo.Code != ResultTimeout {
		t.Errorf("TakePhoto code = %v, want ResultTimeout", photo.Code)
	}
	if photo.Frame != nil {
		t.Error("expected no frame on failure")
	}
}
