package numerics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// degeneracyTol is the relative tolerance under which two eigenvalues of the
// inertia tensor are treated as equal.
const degeneracyTol = 1e-9

// InertiaTensor holds the six independent components of a symmetric 3x3
// inertia tensor, in URDF attribute order.
type InertiaTensor struct {
	Ixx, Iyy, Izz float64
	Ixy, Ixz, Iyz float64
}

// ExtractInertia diagonalizes the inertia tensor into a principal-axes
// orientation and a diagonal inertia vector. Eigenvalues are returned in
// ascending order; the orientation columns are canonicalized so that
// repeated eigenvalues still produce a deterministic, proper rotation.
func ExtractInertia(t InertiaTensor) (quat.Number, r3.Vec, error) {
	sym := mat.NewSymDense(3, []float64{
		t.Ixx, t.Ixy, t.Ixz,
		t.Ixy, t.Iyy, t.Iyz,
		t.Ixz, t.Iyz, t.Izz,
	})

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return QuatIdentity(), r3.Vec{}, fmt.Errorf("inertia tensor eigendecomposition failed")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	cols := [3]r3.Vec{column(&vecs, 0), column(&vecs, 1), column(&vecs, 2)}
	diag := r3.Vec{X: vals[0], Y: vals[1], Z: vals[2]}

	scale := math.Max(1, math.Max(math.Abs(vals[0]), math.Abs(vals[2])))
	eq01 := math.Abs(vals[0]-vals[1]) <= degeneracyTol*scale
	eq12 := math.Abs(vals[1]-vals[2]) <= degeneracyTol*scale

	switch {
	case eq01 && eq12:
		// Isotropic tensor: any orthonormal basis diagonalizes it.
		cols = [3]r3.Vec{{X: 1}, {Y: 1}, {Z: 1}}
	case eq01:
		cols = degenerateBasis(cols[2], 2)
	case eq12:
		cols = degenerateBasis(cols[0], 0)
	default:
		for i := range cols {
			cols[i] = flipLargestPositive(cols[i])
		}
		if determinant(cols) < 0 {
			cols[2] = r3.Scale(-1, cols[2])
		}
	}

	return QuatFromColumns(cols[0], cols[1], cols[2]), diag, nil
}

// degenerateBasis rebuilds a deterministic orthonormal basis when exactly two
// eigenvalues coincide. axis is the eigenvector of the unique eigenvalue and
// uniqueIdx its column position (0 when the upper pair is degenerate, 2 when
// the lower pair is).
func degenerateBasis(axis r3.Vec, uniqueIdx int) [3]r3.Vec {
	axis = r3.Unit(axis)
	axis = flipLargestPositive(axis)

	first := planeProjection(axis, r3.Vec{X: 1})
	if r3.Norm(first) < degeneracyTol {
		first = planeProjection(axis, r3.Vec{Y: 1})
	}
	first = flipLargestPositive(r3.Unit(first))
	second := r3.Cross(axis, first)

	if uniqueIdx == 0 {
		return [3]r3.Vec{axis, first, second}
	}
	return [3]r3.Vec{first, second, axis}
}

// planeProjection projects ref onto the plane perpendicular to axis.
func planeProjection(axis, ref r3.Vec) r3.Vec {
	return r3.Sub(ref, r3.Scale(r3.Dot(ref, axis), axis))
}

// flipLargestPositive flips the sign of v so its largest-magnitude component
// is positive.
func flipLargestPositive(v r3.Vec) r3.Vec {
	comps := [3]float64{v.X, v.Y, v.Z}
	largest := 0
	for i := 1; i < 3; i++ {
		if math.Abs(comps[i]) > math.Abs(comps[largest]) {
			largest = i
		}
	}
	if comps[largest] < 0 {
		return r3.Scale(-1, v)
	}
	return v
}

func determinant(c [3]r3.Vec) float64 {
	return r3.Dot(c[0], r3.Cross(c[1], c[2]))
}

func column(m *mat.Dense, j int) r3.Vec {
	return r3.Vec{X: m.At(0, j), Y: m.At(1, j), Z: m.At(2, j)}
}
