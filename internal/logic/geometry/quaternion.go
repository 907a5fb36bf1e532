package geometry

import "math"

// Quat is a rotation quaternion (W + Xi + Yj + Zk).
type Quat struct {
	W, X, Y, Z float64
}

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// Normalized returns q scaled to unit length.
// The zero quaternion maps to the identity.
func (q Quat) Normalized() Quat {
	l := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if l == 0 {
		return QuatIdentity()
	}
	return Quat{q.W / l, q.X / l, q.Y / l, q.Z / l}
}

// Rotate applies the rotation q to vector v.
func (q Quat) Rotate(v Vec3) Vec3 {
	// v' = v + 2*u × (u × v + w*v), with u the vector part of q
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Add(v.Scale(q.W))
	return v.Add(u.Cross(t).Scale(2))
}

// Forward returns the +Z basis vector of the rotation.
func (q Quat) Forward() Vec3 {
	return q.Rotate(Vec3{Z: 1})
}

// Up returns the +Y basis vector of the rotation.
func (q Quat) Up() Vec3 {
	return q.Rotate(Vec3{Y: 1})
}

// LookRotation builds the rotation whose forward (+Z) axis points along
// forward, with the +Y axis aligned as closely as possible with up.
// Degenerate input (zero forward, or forward parallel to up) yields the
// identity rotation.
func LookRotation(forward, up Vec3) Quat {
	f := forward.Normalized()
	if f.Length() == 0 {
		return QuatIdentity()
	}

	right := up.Cross(f)
	if right.Length() == 0 {
		return QuatIdentity()
	}
	right = right.Normalized()
	newUp := f.Cross(right)

	// Orthonormal basis as rotation matrix columns (right, up, forward),
	// converted to a quaternion.
	m00, m01, m02 := right.X, newUp.X, f.X
	m10, m11, m12 := right.Y, newUp.Y, f.Y
	m20, m21, m22 := right.Z, newUp.Z, f.Z

	trace := m00 + m11 + m22
	var q Quat
	switch {
	case trace > 0:
		s := math.Sqrt(trace+1.0) * 2
		q = Quat{
			W: 0.25 * s,
			X: (m21 - m12) / s,
			Y: (m02 - m20) / s,
			Z: (m10 - m01) / s,
		}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1.0+m00-m11-m22) * 2
		q = Quat{
			W: (m21 - m12) / s,
			X: 0.25 * s,
			Y: (m01 + m10) / s,
			Z: (m02 + m20) / s,
		}
	case m11 > m22:
		s := math.Sqrt(1.0+m11-m00-m22) * 2
		q = Quat{
			W: (m02 - m20) / s,
			X: (m01 + m10) / s,
			Y: 0.25 * s,
			Z: (m12 + m21) / s,
		}
	default:
		s := math.Sqrt(1.0+m22-m00-m11) * 2
		q = Quat{
			W: (m10 - m01) / s,
			X: (m02 + m20) / s,
			Y: (m12 + m21) / s,
			Z: 0.25 * s,
		}
	}
	return q.Normalized()
}
