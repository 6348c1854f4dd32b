// Package transform estimates planar projective transforms from control points and applies
// them to color images and depth maps.
package transform

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.sandcal.dev/sandcal/utils"
)

// noopTolerance is how far a normalized homography may stray from the identity and still be
// treated as "no rectification".
const noopTolerance = 1e-9

// Homography is a 3x3 matrix (represented as a 2D array) used to transform a plane from one
// perspective to another. Indices are [row][column]. The zero value means no transform has
// been computed yet and behaves like the identity.
type Homography [3][3]float64

// Identity returns the identity homography.
func Identity() Homography {
	return Homography{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// NewHomography creates a homography from a slice of 9 row-major values.
func NewHomography(vals []float64) (Homography, error) {
	if len(vals) != 9 {
		return Homography{}, errors.Errorf("input to NewHomography must have length of 9. Has length of %d", len(vals))
	}
	var h Homography
	for i, v := range vals {
		if !utils.IsFinite(v) {
			return Homography{}, errors.Errorf("homography entry %d is not finite (%v)", i, v)
		}
		h[i/3][i%3] = v
	}
	return h, nil
}

// At returns the value at the given row and column.
func (h Homography) At(row, col int) float64 {
	return h[row][col]
}

// Values returns the 9 row-major entries.
func (h Homography) Values() []float64 {
	return []float64{
		h[0][0], h[0][1], h[0][2],
		h[1][0], h[1][1], h[1][2],
		h[2][0], h[2][1], h[2][2],
	}
}

// IsZero reports whether no transform was ever set.
func (h Homography) IsZero() bool {
	return h == Homography{}
}

// IsNoop reports whether applying h leaves every point where it is, either because h is the
// zero value or because it is the identity up to scale.
func (h Homography) IsNoop() bool {
	if h.IsZero() {
		return true
	}
	s := h[2][2]
	if s == 0 || !utils.IsFinite(s) {
		return false
	}
	id := Identity()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if math.Abs(h[r][c]/s-id[r][c]) > noopTolerance {
				return false
			}
		}
	}
	return true
}

// Normalized returns h scaled so that its bottom-right entry is 1. Homographies with a zero
// bottom-right entry are returned unchanged.
func (h Homography) Normalized() Homography {
	s := h[2][2]
	if s == 0 || h.IsZero() {
		return h
	}
	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r][c] = h[r][c] / s
		}
	}
	return out
}

// Apply maps pt through h. Points sent to infinity come back with infinite coordinates.
func (h Homography) Apply(pt r2.Point) r2.Point {
	if h.IsZero() {
		return pt
	}
	x := h[0][0]*pt.X + h[0][1]*pt.Y + h[0][2]
	y := h[1][0]*pt.X + h[1][1]*pt.Y + h[1][2]
	z := h[2][0]*pt.X + h[2][1]*pt.Y + h[2][2]
	if z == 0 {
		return r2.Point{X: math.Inf(1), Y: math.Inf(1)}
	}
	return r2.Point{X: x / z, Y: y / z}
}

// Mul returns the composition h·other, which applies other first and then h.
func (h Homography) Mul(other Homography) Homography {
	if h.IsZero() {
		h = Identity()
	}
	if other.IsZero() {
		other = Identity()
	}
	var out mat.Dense
	out.Mul(h.dense(), other.dense())
	return fromDense(&out)
}

// Inverse returns the inverse transform.
func (h Homography) Inverse() (Homography, error) {
	if h.IsNoop() {
		return Identity(), nil
	}
	var inv mat.Dense
	if err := inv.Inverse(h.dense()); err != nil {
		return Homography{}, errors.Wrap(err, "homography is not invertible")
	}
	return fromDense(&inv).Normalized(), nil
}

// AlmostEqual reports whether both homographies describe the same transform up to scale,
// comparing normalized entries within epsilon.
func (h Homography) AlmostEqual(other Homography, epsilon float64) bool {
	if h.IsZero() {
		h = Identity()
	}
	if other.IsZero() {
		other = Identity()
	}
	a, b := h.Normalized(), other.Normalized()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if !utils.Float64AlmostEqual(a[r][c], b[r][c], epsilon) {
				return false
			}
		}
	}
	return true
}

func (h Homography) String() string {
	return fmt.Sprintf("[[%g %g %g] [%g %g %g] [%g %g %g]]",
		h[0][0], h[0][1], h[0][2],
		h[1][0], h[1][1], h[1][2],
		h[2][0], h[2][1], h[2][2])
}

func (h Homography) dense() *mat.Dense {
	return mat.NewDense(3, 3, h.Values())
}

func fromDense(m mat.Matrix) Homography {
	var h Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			h[r][c] = m.At(r, c)
		}
	}
	return h
}
