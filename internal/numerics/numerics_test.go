package numerics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-12

func assertVecInDelta(t *testing.T, want, got r3.Vec, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta)
	assert.InDelta(t, want.Y, got.Y, delta)
	assert.InDelta(t, want.Z, got.Z, delta)
}

func TestFromRPYRollOnly(t *testing.T) {
	// Rolling a half-right angle about X carries +Y onto +Z.
	q := FromRPY(math.Pi/2, 0, 0)
	assertVecInDelta(t, r3.Vec{Z: 1}, Rotate(q, r3.Vec{Y: 1}), tol)
}

func TestFromRPYComposesFixedAxis(t *testing.T) {
	// Fixed-axis convention: roll about world X, then pitch about world Y,
	// then yaw about world Z.
	roll, pitch, yaw := 0.3, -0.7, 1.1
	q := FromRPY(roll, pitch, yaw)
	want := quat.Mul(
		AxisAngle(r3.Vec{Z: 1}, yaw),
		quat.Mul(AxisAngle(r3.Vec{Y: 1}, pitch), AxisAngle(r3.Vec{X: 1}, roll)))
	assert.InDelta(t, want.Real, q.Real, tol)
	assert.InDelta(t, want.Imag, q.Imag, tol)
	assert.InDelta(t, want.Jmag, q.Jmag, tol)
	assert.InDelta(t, want.Kmag, q.Kmag, tol)
}

func TestAxisAngleZeroAxis(t *testing.T) {
	q := AxisAngle(r3.Vec{}, 1.5)
	assert.Equal(t, QuatIdentity(), q)
}

func TestAlignWithX(t *testing.T) {
	targets := []r3.Vec{
		{Y: 1},
		{Z: 1},
		{X: 1, Y: 1, Z: 1},
		{X: -0.2, Y: 0.5, Z: -0.8},
	}
	for _, target := range targets {
		q := AlignWithX(target)
		got := Rotate(q, r3.Vec{X: 1})
		assertVecInDelta(t, r3.Unit(target), got, 1e-9)
	}
}

func TestAlignWithXParallel(t *testing.T) {
	assert.Equal(t, QuatIdentity(), AlignWithX(r3.Vec{X: 2}))
}

func TestAlignWithXAntiParallel(t *testing.T) {
	q := AlignWithX(r3.Vec{X: -1})
	got := Rotate(q, r3.Vec{X: 1})
	assertVecInDelta(t, r3.Vec{X: -1}, got, 1e-9)
}

func TestQuatFromColumnsRoundTrip(t *testing.T) {
	q := AxisAngle(r3.Vec{X: 1, Y: 2, Z: -1}, 0.9)
	c0 := Rotate(q, r3.Vec{X: 1})
	c1 := Rotate(q, r3.Vec{Y: 1})
	c2 := Rotate(q, r3.Vec{Z: 1})

	got := QuatFromColumns(c0, c1, c2)
	// Quaternions double-cover rotations; compare as rotations.
	assertVecInDelta(t, c0, Rotate(got, r3.Vec{X: 1}), 1e-9)
	assertVecInDelta(t, c1, Rotate(got, r3.Vec{Y: 1}), 1e-9)
	assertVecInDelta(t, c2, Rotate(got, r3.Vec{Z: 1}), 1e-9)
}

func TestDegrees(t *testing.T) {
	assert.InDelta(t, 180.0, Degrees(math.Pi), tol)
	assert.InDelta(t, -90.0, Degrees(-math.Pi/2), tol)
}
