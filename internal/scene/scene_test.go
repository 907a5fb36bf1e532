package scene

import (
	"testing"

	"github.com/cjeanneret/SnapGo/internal/logic/geometry"
)

func testPrefab() *Prefab {
	return &Prefab{
		Name:      "PhotoQuad",
		ChildName: "Quad",
		DefaultTransform: Transform{
			Position: geometry.Vec3{X: 0, Y: 1, Z: 2},
			Rotation: geometry.QuatIdentity(),
		},
	}
}

func TestPrefab_Validate(t *testing.T) {
	p := testPrefab()
	if err := p.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := (&Prefab{ChildName: "Quad"}).Validate(); err == nil {
		t.Error("expected error for missing name")
	}
	if err := (&Prefab{Name: "PhotoQuad"}).Validate(); err == nil {
		t.Error("expected error for missing child name")
	}
}

func TestPrefab_InstantiateFreshInstances(t *testing.T) {
	p := testPrefab()

	a := p.Instantiate()
	b := p.Instantiate()

	if a.ID == "" || b.ID == "" {
		t.Fatal("expected non-empty instance ids")
	}
	if a.ID == b.ID {
		t.Error("expected distinct ids for distinct instances")
	}
	if a.Transform != p.DefaultTransform {
		t.Errorf("instance transform = %+v, want prefab default %+v", a.Transform, p.DefaultTransform)
	}
	if a.Child("Quad") == b.Child("Quad") {
		t.Error("expected instances to own separate children")
	}
}

func TestSurface_ChildLookup(t *testing.T) {
	s := testPrefab().Instantiate()

	if s.Child("Quad") == nil {
		t.Error("expected child 'Quad'")
	}
	if s.Child("NoSuchChild") != nil {
		t.Error("expected nil for unknown child name")
	}
}

func TestMaterial_Params(t *testing.T) {
	m := NewMaterial(BlendShader)

	if _, ok := m.Matrix(ParamWorldToCamera); ok {
		t.Error("expected no matrix before binding")
	}

	w2c := geometry.Identity4()
	m.SetMatrix(ParamWorldToCamera, w2c)
	if got, ok := m.Matrix(ParamWorldToCamera); !ok || got != w2c {
		t.Errorf("Matrix() = %v, %v; want identity, true", got, ok)
	}

	m.SetFloat(ParamVignetteScale, 0.7)
	if got, ok := m.Float(ParamVignetteScale); !ok || got != 0.7 {
		t.Errorf("Float() = %v, %v; want 0.7, true", got, ok)
	}
}

func TestNewTexture(t *testing.T) {
	tex, err := NewTexture(4, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tex.Pixels) != 4*2*4 {
		t.Errorf("pixel buffer size = %d, want %d", len(tex.Pixels), 4*2*4)
	}

	if _, err := NewTexture(0, 2); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := NewTexture(4, -1); err == nil {
		t.Error("expected error for negative height")
	}
}
