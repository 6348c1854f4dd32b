package transform

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestNewHomography(t *testing.T) {
	_, err := NewHomography([]float64{})
	test.That(t, err, test.ShouldBeError, errors.New("input to NewHomography must have length of 9. Has length of 0"))

	_, err = NewHomography([]float64{1, 0, 0, 0, math.NaN(), 0, 0, 0, 1})
	test.That(t, err, test.ShouldNotBeNil)

	vals := []float64{
		2.32700501e-01, -8.33535395e-03, -3.61894025e+01, -1.90671303e-03, 2.35303232e-01,
		8.38582614e+00, -6.39101664e-05, -4.64582754e-05, 1.00000000e+00,
	}
	h, err := NewHomography(vals)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h.At(0, 2), test.ShouldEqual, -3.61894025e+01)
	test.That(t, h.Values(), test.ShouldResemble, vals)
}

func TestHomographyNoop(t *testing.T) {
	test.That(t, Homography{}.IsNoop(), test.ShouldBeTrue)
	test.That(t, Homography{}.IsZero(), test.ShouldBeTrue)
	test.That(t, Identity().IsNoop(), test.ShouldBeTrue)
	test.That(t, Identity().IsZero(), test.ShouldBeFalse)

	scaled := Homography{{2, 0, 0}, {0, 2, 0}, {0, 0, 2}}
	test.That(t, scaled.IsNoop(), test.ShouldBeTrue)

	shift := Homography{{1, 0, 1}, {0, 1, 0}, {0, 0, 1}}
	test.That(t, shift.IsNoop(), test.ShouldBeFalse)
	test.That(t, shift.Apply(r2.Point{X: 2, Y: 3}), test.ShouldResemble, r2.Point{X: 3, Y: 3})
	test.That(t, Homography{}.Apply(r2.Point{X: 2, Y: 3}), test.ShouldResemble, r2.Point{X: 2, Y: 3})
}

func TestHomographyInverseAndMul(t *testing.T) {
	h := Homography{{1.2, 0.1, 5}, {-0.05, 0.9, -3}, {0.001, 0.0005, 1}}
	inv, err := h.Inverse()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h.Mul(inv).AlmostEqual(Identity(), 1e-9), test.ShouldBeTrue)

	pt := r2.Point{X: 30, Y: 40}
	back := inv.Apply(h.Apply(pt))
	test.That(t, back.X, test.ShouldAlmostEqual, pt.X, 1e-9)
	test.That(t, back.Y, test.ShouldAlmostEqual, pt.Y, 1e-9)

	_, err = Homography{{1, 2, 3}, {2, 4, 6}, {0, 0, 1}}.Inverse()
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, Homography{}.Mul(h), test.ShouldResemble, h)
	test.That(t, h.Mul(Homography{}), test.ShouldResemble, h)
}

func TestEstimateMapsQuadToRectangle(t *testing.T) {
	quads := []Quad{
		{{X: 10, Y: 12}, {X: 52, Y: 8}, {X: 60, Y: 44}, {X: 4, Y: 40}},
		{{X: 15, Y: 15}, {X: 635, Y: 15}, {X: 635, Y: 475}, {X: 15, Y: 475}},
		{{X: 0.5, Y: 3.25}, {X: 30.75, Y: 1}, {X: 29, Y: 20.5}, {X: 2, Y: 22}},
	}
	for _, q := range quads {
		for _, size := range []struct{ w, h int }{{64, 48}, {640, 480}, {7, 3}} {
			h, err := EstimateHomography(q, size.w, size.h, false)
			test.That(t, err, test.ShouldBeNil)
			rect := RectQuad(size.w, size.h)
			for i, pt := range q {
				got := h.Apply(pt)
				test.That(t, got.X, test.ShouldAlmostEqual, rect[i].X, 1e-6)
				test.That(t, got.Y, test.ShouldAlmostEqual, rect[i].Y, 1e-6)
			}
		}
	}
}

func TestEstimateRandomQuads(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	w, h := 320, 240
	for i := 0; i < 200; i++ {
		jitter := func(x, y float64) r2.Point {
			return r2.Point{X: x + (rnd.Float64()-.5)*60, Y: y + (rnd.Float64()-.5)*60}
		}
		q := Quad{jitter(40, 40), jitter(280, 40), jitter(280, 200), jitter(40, 200)}
		for _, mirror := range []bool{false, true} {
			hom, err := EstimateHomography(q, w, h, mirror)
			test.That(t, err, test.ShouldBeNil)
			target := RectQuad(w, h)
			if mirror {
				target = target.Mirrored()
			}
			for j, pt := range q {
				got := hom.Apply(pt)
				test.That(t, got.X, test.ShouldAlmostEqual, target[j].X, 1e-6)
				test.That(t, got.Y, test.ShouldAlmostEqual, target[j].Y, 1e-6)
			}
		}
	}
}

func TestEstimateMirrorSwapEquivalence(t *testing.T) {
	q := Quad{{X: 10, Y: 12}, {X: 52, Y: 8}, {X: 60, Y: 44}, {X: 4, Y: 40}}
	swapped := Quad{q[2], q[3], q[0], q[1]}

	mirrored, err := EstimateHomography(q, 64, 48, true)
	test.That(t, err, test.ShouldBeNil)
	plain, err := EstimateHomography(swapped, 64, 48, false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mirrored.AlmostEqual(plain, 1e-12), test.ShouldBeTrue)

	// the top-left control point lands on the bottom-right corner
	got := mirrored.Apply(q[0])
	test.That(t, got.X, test.ShouldAlmostEqual, 64, 1e-6)
	test.That(t, got.Y, test.ShouldAlmostEqual, 48, 1e-6)
}

func TestEstimateBoxIsIdentity(t *testing.T) {
	box := Quad{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}}
	h, err := EstimateHomography(box, 4, 4, false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h.AlmostEqual(Identity(), 1e-9), test.ShouldBeTrue)
	test.That(t, h.IsNoop(), test.ShouldBeTrue)
}

func TestEstimateDegenerate(t *testing.T) {
	for _, tc := range []struct {
		name string
		quad Quad
		w, h int
	}{
		{"collinear", Quad{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 0, Y: 5}}, 10, 10},
		{"all collinear", Quad{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}, 10, 10},
		{"coincident", Quad{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 5, Y: 5}, {X: 0, Y: 5}}, 10, 10},
		{"all coincident", Quad{{X: 3, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 3}}, 10, 10},
		{"nan", Quad{{X: math.NaN(), Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}, {X: 0, Y: 5}}, 10, 10},
		{"empty target", Quad{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}, {X: 0, Y: 5}}, 0, 10},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EstimateHomography(tc.quad, tc.w, tc.h, false)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, IsDegenerateConfigurationError(err), test.ShouldBeTrue)
		})
	}
	test.That(t, IsDegenerateConfigurationError(errors.New("other")), test.ShouldBeFalse)
}

func TestNewQuad(t *testing.T) {
	_, err := NewQuad([]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewQuad([]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: math.Inf(1)}, {X: 0, Y: 1}})
	test.That(t, err, test.ShouldNotBeNil)
	q, err := NewQuad([]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, q.Points(), test.ShouldHaveLength, 4)
	test.That(t, q.Mirrored(), test.ShouldResemble, Quad{{X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}})
}

func TestComposeSecondStage(t *testing.T) {
	box := Quad{{X: 10, Y: 12}, {X: 52, Y: 8}, {X: 60, Y: 44}, {X: 4, Y: 40}}
	mire := Quad{{X: 14, Y: 10}, {X: 50, Y: 14}, {X: 58, Y: 40}, {X: 8, Y: 38}}
	h1, err := EstimateHomography(box, 64, 48, false)
	test.That(t, err, test.ShouldBeNil)
	h2Raw, err := EstimateHomography(mire, 64, 48, true)
	test.That(t, err, test.ShouldBeNil)
	h1Inv, err := h1.Inverse()
	test.That(t, err, test.ShouldBeNil)
	h2 := h2Raw.Mul(h1Inv)

	// applying H1 then H2 is the same as applying H2_raw to the raw frame
	for _, pt := range []r2.Point{{X: 20, Y: 20}, {X: 33, Y: 27}, {X: 5, Y: 41}} {
		direct := h2Raw.Apply(pt)
		staged := h2.Apply(h1.Apply(pt))
		test.That(t, staged.X, test.ShouldAlmostEqual, direct.X, 1e-6)
		test.That(t, staged.Y, test.ShouldAlmostEqual, direct.Y, 1e-6)
	}
}
