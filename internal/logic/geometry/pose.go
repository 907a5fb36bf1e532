package geometry

// Pose is a decomposed camera-to-world transform: where the capturing
// camera sat in world space, and which way it looked.
type Pose struct {
	Position Vec3
	Rotation Quat
}

// DecomposePose extracts a world-space pose from a camera-to-world
// matrix. The surface is placed one unit behind the camera origin along
// its forward axis, facing back at it:
//
//	position = translation − forward
//	rotation = LookRotation(−forward, up)
//
// with forward = column 2 and up = column 1 of the matrix. Returns
// false when the matrix is not finite.
func DecomposePose(cameraToWorld Mat4) (Pose, bool) {
	if !cameraToWorld.IsFinite() {
		return Pose{}, false
	}

	forward := cameraToWorld.Col(2)
	up := cameraToWorld.Col(1)
	translation := cameraToWorld.Translation()

	return Pose{
		Position: translation.Sub(forward),
		Rotation: LookRotation(forward.Neg(), up),
	}, true
}
