package numerics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// reconstruct rebuilds the tensor from principal axes and diagonal
// inertia: I = sum_k d_k c_k c_k^T with c_k the rotated basis vectors.
func reconstruct(q quat.Number, d r3.Vec) InertiaTensor {
	cols := [3]r3.Vec{
		Rotate(q, r3.Vec{X: 1}),
		Rotate(q, r3.Vec{Y: 1}),
		Rotate(q, r3.Vec{Z: 1}),
	}
	diag := [3]float64{d.X, d.Y, d.Z}
	var t InertiaTensor
	for k := 0; k < 3; k++ {
		c := cols[k]
		t.Ixx += diag[k] * c.X * c.X
		t.Iyy += diag[k] * c.Y * c.Y
		t.Izz += diag[k] * c.Z * c.Z
		t.Ixy += diag[k] * c.X * c.Y
		t.Ixz += diag[k] * c.X * c.Z
		t.Iyz += diag[k] * c.Y * c.Z
	}
	return t
}

func assertUnitQuat(t *testing.T, q quat.Number) {
	t.Helper()
	n := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	assert.InDelta(t, 1.0, n, 1e-9)
}

func TestExtractInertiaDistinctEigenvalues(t *testing.T) {
	// diag(1, 3, 5) rotated 45 degrees about Z.
	tensor := InertiaTensor{Ixx: 2, Iyy: 2, Izz: 5, Ixy: -1}

	q, d, err := ExtractInertia(tensor)
	require.NoError(t, err)
	assertUnitQuat(t, q)

	assert.InDelta(t, 1.0, d.X, 1e-9)
	assert.InDelta(t, 3.0, d.Y, 1e-9)
	assert.InDelta(t, 5.0, d.Z, 1e-9)

	// The orientation and diagonal must reproduce the input tensor, which
	// also proves the columns are orthonormal with determinant +1.
	back := reconstruct(q, d)
	assert.InDelta(t, tensor.Ixx, back.Ixx, 1e-9)
	assert.InDelta(t, tensor.Iyy, back.Iyy, 1e-9)
	assert.InDelta(t, tensor.Izz, back.Izz, 1e-9)
	assert.InDelta(t, tensor.Ixy, back.Ixy, 1e-9)
	assert.InDelta(t, tensor.Ixz, back.Ixz, 1e-9)
	assert.InDelta(t, tensor.Iyz, back.Iyz, 1e-9)
}

func TestExtractInertiaAlreadyDiagonal(t *testing.T) {
	q, d, err := ExtractInertia(InertiaTensor{Ixx: 2, Iyy: 1, Izz: 3})
	require.NoError(t, err)
	assertUnitQuat(t, q)

	// Eigenvalues come back ascending.
	assert.InDelta(t, 1.0, d.X, 1e-12)
	assert.InDelta(t, 2.0, d.Y, 1e-12)
	assert.InDelta(t, 3.0, d.Z, 1e-12)

	back := reconstruct(q, d)
	assert.InDelta(t, 2.0, back.Ixx, 1e-9)
	assert.InDelta(t, 1.0, back.Iyy, 1e-9)
	assert.InDelta(t, 3.0, back.Izz, 1e-9)
}

func TestExtractInertiaIsotropic(t *testing.T) {
	q, d, err := ExtractInertia(InertiaTensor{Ixx: 2, Iyy: 2, Izz: 2})
	require.NoError(t, err)

	assert.Equal(t, QuatIdentity(), q)
	assert.InDelta(t, 2.0, d.X, 1e-12)
	assert.InDelta(t, 2.0, d.Y, 1e-12)
	assert.InDelta(t, 2.0, d.Z, 1e-12)
}

func TestExtractInertiaTwoEqualStable(t *testing.T) {
	base := InertiaTensor{Ixx: 2, Iyy: 2, Izz: 5}
	q0, d0, err := ExtractInertia(base)
	require.NoError(t, err)
	assertUnitQuat(t, q0)
	assert.InDelta(t, 2.0, d0.X, 1e-12)
	assert.InDelta(t, 2.0, d0.Y, 1e-12)
	assert.InDelta(t, 5.0, d0.Z, 1e-12)

	// Perturbations below the degeneracy tolerance must not move the
	// unique-eigenvalue axis.
	for _, eps := range []float64{1e-13, -1e-13, 3e-14} {
		perturbed := base
		perturbed.Iyy += eps
		q, _, err := ExtractInertia(perturbed)
		require.NoError(t, err)

		axis0 := Rotate(q0, r3.Vec{Z: 1})
		axis := Rotate(q, r3.Vec{Z: 1})
		assert.InDelta(t, 1.0, math.Abs(r3.Dot(axis0, axis)), 1e-6)
	}
}

func TestExtractInertiaTwoEqualReconstructs(t *testing.T) {
	// Degenerate pair with the unique axis off the coordinate frame:
	// diag(2, 2, 5) rotated about Y by 30 degrees.
	s, c := math.Sin(math.Pi/6), math.Cos(math.Pi/6)
	tensor := InertiaTensor{
		Ixx: 2*c*c + 5*s*s,
		Iyy: 2,
		Izz: 2*s*s + 5*c*c,
		Ixz: (5 - 2) * s * c,
	}
	q, d, err := ExtractInertia(tensor)
	require.NoError(t, err)
	assertUnitQuat(t, q)

	back := reconstruct(q, d)
	assert.InDelta(t, tensor.Ixx, back.Ixx, 1e-9)
	assert.InDelta(t, tensor.Iyy, back.Iyy, 1e-9)
	assert.InDelta(t, tensor.Izz, back.Izz, 1e-9)
	assert.InDelta(t, tensor.Ixz, back.Ixz, 1e-9)
}

func TestExtractInertiaComponentOrderInvariant(t *testing.T) {
	// Supplying the same symmetric tensor must give the same answer no
	// matter how the caller arrived at the six components.
	tensor := InertiaTensor{Ixx: 4, Iyy: 2, Izz: 7, Ixy: 0.5, Ixz: -0.25, Iyz: 0.75}
	q1, d1, err := ExtractInertia(tensor)
	require.NoError(t, err)
	q2, d2, err := ExtractInertia(tensor)
	require.NoError(t, err)

	assert.Equal(t, q1, q2)
	assert.Equal(t, d1, d2)
}
