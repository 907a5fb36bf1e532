// Package scene models the minimal render-side objects the capture
// pipeline touches: a prefab template, instantiated surfaces with one
// named child render target, and that child's material parameters.
// Nothing here draws; the scene is the contract the host renderer
// consumes.
package scene

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cjeanneret/SnapGo/internal/logic/geometry"
)

// Shader and parameter names bound on captured-photo materials.
const (
	// BlendShader is the unlit blending shader swapped onto the child
	// surface when a photo texture is assigned.
	BlendShader = "Hidden/BlendUnlitTexture"

	ParamMainTexture   = "_MainTex"
	ParamWorldToCamera = "_WorldToCameraMatrix"
	ParamProjection    = "_CameraProjectionMatrix"
	ParamVignetteScale = "_VignetteScale"
)

// Transform is a world-space position and orientation.
type Transform struct {
	Position geometry.Vec3
	Rotation geometry.Quat
}

// IdentityTransform returns the origin with no rotation.
func IdentityTransform() Transform {
	return Transform{Rotation: geometry.QuatIdentity()}
}

// Material holds a shader reference and its bound parameters.
type Material struct {
	Shader      string
	MainTexture *Texture

	matrices map[string]geometry.Mat4
	floats   map[string]float64
}

// NewMaterial creates a material using the given shader.
func NewMaterial(shader string) *Material {
	return &Material{
		Shader:   shader,
		matrices: make(map[string]geometry.Mat4),
		floats:   make(map[string]float64),
	}
}

// SetMatrix binds a named matrix parameter.
func (m *Material) SetMatrix(name string, v geometry.Mat4) {
	m.matrices[name] = v
}

// Matrix returns a bound matrix parameter and whether it is set.
func (m *Material) Matrix(name string) (geometry.Mat4, bool) {
	v, ok := m.matrices[name]
	return v, ok
}

// SetFloat binds a named scalar parameter.
func (m *Material) SetFloat(name string, v float64) {
	m.floats[name] = v
}

// Float returns a bound scalar parameter and whether it is set.
func (m *Material) Float(name string) (float64, bool) {
	v, ok := m.floats[name]
	return v, ok
}

// Node is a named child object of a surface, carrying its own
// transform and material.
type Node struct {
	Name      string
	Transform Transform
	Material  *Material
}

// Prefab is the template surfaces are instantiated from: a name, the
// name of the child render target to texture, and the default
// transform instances start with.
type Prefab struct {
	Name             string
	ChildName        string
	DefaultTransform Transform
	Shader           string // child material shader before any swap
}

// Validate checks the prefab has the fields instantiation needs.
func (p *Prefab) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("prefab name is required")
	}
	if p.ChildName == "" {
		return fmt.Errorf("prefab child name is required")
	}
	return nil
}

// Instantiate creates a fresh surface instance from the template.
// Every call yields a new instance with its own id, child, and
// material; instances are never reused.
func (p *Prefab) Instantiate() *Surface {
	shader := p.Shader
	if shader == "" {
		shader = "Standard"
	}
	return &Surface{
		ID:        uuid.NewString(),
		Name:      p.Name,
		Transform: p.DefaultTransform,
		child: &Node{
			Name:      p.ChildName,
			Transform: p.DefaultTransform,
			Material:  NewMaterial(shader),
		},
	}
}

// Surface is one instantiated renderable holding one captured photo.
type Surface struct {
	ID        string
	Name      string
	Transform Transform

	child *Node
}

// Child returns the named child node, or nil if the surface has no
// child of that name (mirroring a failed scene lookup).
func (s *Surface) Child(name string) *Node {
	if s.child != nil && s.child.Name == name {
		return s.child
	}
	return nil
}
