package transform

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.sandcal.dev/sandcal/utils"
)

const (
	// collinearityTolerance bounds the normalized triangle area under which three control
	// points are treated as lying on one line.
	collinearityTolerance = 1e-9
	// rankTolerance bounds the ratio of the smallest to the largest singular value of the
	// DLT system under which the solution is not unique.
	rankTolerance = 1e-10
)

// Quad is an ordered set of four control points: top-left, top-right, bottom-right,
// bottom-left.
type Quad [4]r2.Point

// NewQuad builds a Quad from a slice, rejecting the wrong count and non-finite coordinates.
func NewQuad(pts []r2.Point) (Quad, error) {
	var q Quad
	if len(pts) != len(q) {
		return q, errors.Errorf("a quad needs exactly %d points, got %d", len(q), len(pts))
	}
	for i, pt := range pts {
		if !utils.IsFinite(pt.X) || !utils.IsFinite(pt.Y) {
			return Quad{}, errors.Errorf("quad point %d is not finite (%v)", i, pt)
		}
		q[i] = pt
	}
	return q, nil
}

// RectQuad returns the axis-aligned target rectangle [(0,0), (w,0), (w,h), (0,h)].
func RectQuad(width, height int) Quad {
	w, h := float64(width), float64(height)
	return Quad{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
}

// Mirrored swaps the diagonally opposite corners, 0 with 2 and 1 with 3.
func (q Quad) Mirrored() Quad {
	return Quad{q[2], q[3], q[0], q[1]}
}

// Points returns the quad as a slice.
func (q Quad) Points() []r2.Point {
	return q[:]
}

// DegenerateConfigurationError is returned when four correspondences do not determine a
// unique invertible homography.
type DegenerateConfigurationError struct {
	Reason string
}

// NewDegenerateConfigurationError returns a DegenerateConfigurationError with the given reason.
func NewDegenerateConfigurationError(format string, args ...interface{}) error {
	return &DegenerateConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *DegenerateConfigurationError) Error() string {
	return "degenerate control point configuration: " + e.Reason
}

// IsDegenerateConfigurationError reports whether err is, or wraps, a DegenerateConfigurationError.
func IsDegenerateConfigurationError(err error) bool {
	var target *DegenerateConfigurationError
	return errors.As(err, &target)
}

// EstimateHomography computes the homography that maps quad onto the rectangle
// [(0,0), (width,0), (width,height), (0,height)]. When mirror is set the diagonal corners of
// quad are swapped first, which flips the output both horizontally and vertically.
func EstimateHomography(quad Quad, width, height int, mirror bool) (Homography, error) {
	if width <= 0 || height <= 0 {
		return Homography{}, NewDegenerateConfigurationError("target rectangle %dx%d has no area", width, height)
	}
	if mirror {
		quad = quad.Mirrored()
	}
	return EstimateHomographyBetween(quad, RectQuad(width, height))
}

// EstimateHomographyBetween solves the direct linear transform for the four correspondences
// src[i] -> dst[i]. Points are normalized as described in Multiple View Geometry, Alg 4.2,
// before the system is solved.
func EstimateHomographyBetween(src, dst Quad) (Homography, error) {
	if err := checkQuad("source", src); err != nil {
		return Homography{}, err
	}
	if err := checkQuad("target", dst); err != nil {
		return Homography{}, err
	}

	srcNorm, tSrc := normalizePoints(src.Points())
	dstNorm, tDst := normalizePoints(dst.Points())

	// two rows per correspondence, h as a 9 vector
	a := mat.NewDense(8, 9, nil)
	for i := range srcNorm {
		x, y := srcNorm[i].X, srcNorm[i].Y
		u, v := dstNorm[i].X, dstNorm[i].Y
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return Homography{}, NewDegenerateConfigurationError("direct linear transform did not factorize")
	}
	values := svd.Values(nil)
	if values[0] == 0 || values[len(values)-1]/values[0] < rankTolerance {
		return Homography{}, NewDegenerateConfigurationError("correspondences do not determine a unique solution")
	}
	var v mat.Dense
	svd.VTo(&v)
	hData := make([]float64, 9)
	for i := range hData {
		hData[i] = v.At(i, 8)
	}
	hNorm := mat.NewDense(3, 3, hData)

	// denormalize: inv(T_dst) · H_norm · T_src
	var tDstInv, tmp, out mat.Dense
	if err := tDstInv.Inverse(tDst); err != nil {
		return Homography{}, NewDegenerateConfigurationError("target normalization is singular")
	}
	tmp.Mul(&tDstInv, hNorm)
	out.Mul(&tmp, tSrc)

	if math.Abs(out.At(2, 2)) < 1e-12 {
		return Homography{}, NewDegenerateConfigurationError("solution maps the origin to infinity")
	}
	h := fromDense(&out).Normalized()
	for _, val := range h.Values() {
		if !utils.IsFinite(val) {
			return Homography{}, NewDegenerateConfigurationError("solution is not finite")
		}
	}
	if math.Abs(mat.Det(h.dense())) < 1e-12 {
		return Homography{}, NewDegenerateConfigurationError("solution is not invertible")
	}
	return h, nil
}

// checkQuad rejects quads with non-finite, coincident, or collinear points.
func checkQuad(which string, q Quad) error {
	for i, pt := range q {
		if !utils.IsFinite(pt.X) || !utils.IsFinite(pt.Y) {
			return NewDegenerateConfigurationError("%s point %d is not finite", which, i)
		}
	}
	scale := quadScale(q)
	if scale == 0 {
		return NewDegenerateConfigurationError("%s points all coincide", which)
	}
	for i := 0; i < len(q); i++ {
		for j := i + 1; j < len(q); j++ {
			if q[i].Sub(q[j]).Norm()/scale < collinearityTolerance {
				return NewDegenerateConfigurationError("%s points %d and %d coincide", which, i, j)
			}
		}
	}
	for _, tri := range [][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}} {
		p0, p1, p2 := q[tri[0]], q[tri[1]], q[tri[2]]
		area := p1.Sub(p0).Cross(p2.Sub(p0))
		if math.Abs(area)/(scale*scale) < collinearityTolerance {
			return NewDegenerateConfigurationError("%s points %d, %d and %d are collinear", which, tri[0], tri[1], tri[2])
		}
	}
	return nil
}

// quadScale is the largest distance of a point from the centroid.
func quadScale(q Quad) float64 {
	var mu r2.Point
	for _, pt := range q {
		mu = mu.Add(pt)
	}
	mu = mu.Mul(1. / float64(len(q)))
	scale := 0.
	for _, pt := range q {
		scale = math.Max(scale, pt.Sub(mu).Norm())
	}
	return scale
}

// normalizePoints normalizes points as described in Multiple View Geometry, Alg 4.2: the
// centroid moves to the origin and the mean distance from it becomes sqrt(2).
func normalizePoints(pts []r2.Point) ([]r2.Point, *mat.Dense) {
	nPoints := len(pts)
	mu := r2.Point{X: 0, Y: 0}
	for _, pt := range pts {
		mu = mu.Add(pt)
	}
	mu = mu.Mul(1. / float64(nPoints))

	d := 0.0
	for _, pt := range pts {
		d += pt.Sub(mu).Norm() / float64(nPoints)
	}
	scale := math.Sqrt(2) / d
	T := mat.NewDense(3, 3, []float64{
		scale, 0, -scale * mu.X,
		0, scale, -scale * mu.Y,
		0, 0, 1,
	})
	pointsTransformed := make([]r2.Point, nPoints)
	for i := range pointsTransformed {
		pointsTransformed[i] = pts[i].Sub(mu).Mul(scale)
	}
	return pointsTransformed, T
}
