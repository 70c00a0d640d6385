// Package numerics provides the float64 spatial math used by the conversion
// passes: quaternion construction from URDF roll/pitch/yaw, axis-angle and
// rotation-matrix conversions, and the inertia tensor eigendecomposition.
package numerics

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Epsilon is the tolerance used for axis comparisons. It matches single
// precision machine epsilon because URDF authoring tools rarely carry more.
const Epsilon = 1.1920929e-07

// QuatIdentity returns the identity rotation.
func QuatIdentity() quat.Number {
	return quat.Number{Real: 1}
}

// FromRPY converts URDF fixed-axis roll/pitch/yaw angles (radians) to a
// quaternion. Roll is applied about X first, then pitch about Y, then yaw
// about Z.
func FromRPY(roll, pitch, yaw float64) quat.Number {
	qx := AxisAngle(r3.Vec{X: 1}, roll)
	qy := AxisAngle(r3.Vec{Y: 1}, pitch)
	qz := AxisAngle(r3.Vec{Z: 1}, yaw)
	return quat.Mul(qz, quat.Mul(qy, qx))
}

// AxisAngle builds the quaternion rotating by angle (radians) about axis.
// The axis is normalized; a zero axis yields the identity.
func AxisAngle(axis r3.Vec, angle float64) quat.Number {
	n := r3.Norm(axis)
	if n < Epsilon {
		return QuatIdentity()
	}
	u := r3.Scale(1/n, axis)
	s := math.Sin(angle / 2)
	return quat.Number{
		Real: math.Cos(angle / 2),
		Imag: u.X * s,
		Jmag: u.Y * s,
		Kmag: u.Z * s,
	}
}

// Rotate applies rotation q to vector v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	return r3.Rotation(q).Rotate(v)
}

// QuatFromColumns converts a proper rotation matrix, given as three
// orthonormal columns, to a unit quaternion (Shepperd's method).
func QuatFromColumns(c0, c1, c2 r3.Vec) quat.Number {
	m00, m01, m02 := c0.X, c1.X, c2.X
	m10, m11, m12 := c0.Y, c1.Y, c2.Y
	m20, m21, m22 := c0.Z, c1.Z, c2.Z

	trace := m00 + m11 + m22
	var q quat.Number
	switch {
	case trace > 0:
		s := math.Sqrt(trace+1) * 2
		q = quat.Number{
			Real: s / 4,
			Imag: (m21 - m12) / s,
			Jmag: (m02 - m20) / s,
			Kmag: (m10 - m01) / s,
		}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		q = quat.Number{
			Real: (m21 - m12) / s,
			Imag: s / 4,
			Jmag: (m01 + m10) / s,
			Kmag: (m02 + m20) / s,
		}
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		q = quat.Number{
			Real: (m02 - m20) / s,
			Imag: (m01 + m10) / s,
			Jmag: s / 4,
			Kmag: (m12 + m21) / s,
		}
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		q = quat.Number{
			Real: (m10 - m01) / s,
			Imag: (m02 + m20) / s,
			Jmag: (m12 + m21) / s,
			Kmag: s / 4,
		}
	}
	return Normalize(q)
}

// Normalize scales q to unit length. A zero quaternion becomes the identity.
func Normalize(q quat.Number) quat.Number {
	n := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if n == 0 {
		return QuatIdentity()
	}
	return quat.Number{Real: q.Real / n, Imag: q.Imag / n, Jmag: q.Jmag / n, Kmag: q.Kmag / n}
}

// Degrees converts radians to degrees.
func Degrees(radians float64) float64 {
	return radians * 180 / math.Pi
}

// AlignWithX computes the minimal rotation mapping world +X onto the
// normalized target axis, via the cross-product axis-angle construction.
// If the cross product vanishes the axes are parallel (identity) or
// anti-parallel (half turn about Z).
func AlignWithX(target r3.Vec) quat.Number {
	n := r3.Norm(target)
	if n < Epsilon {
		return QuatIdentity()
	}
	t := r3.Scale(1/n, target)
	x := r3.Vec{X: 1}
	cross := r3.Cross(x, t)
	if r3.Norm(cross) < Epsilon {
		if r3.Dot(x, t) > 0 {
			return QuatIdentity()
		}
		return AxisAngle(r3.Vec{Z: 1}, math.Pi)
	}
	dot := math.Max(-1, math.Min(1, r3.Dot(x, t)))
	return AxisAngle(cross, math.Acos(dot))
}
