package rectify

import (
	"math"
	"testing"
)

func pointsClose(gotX, gotY, wantX, wantY, tol float64) bool {
	return math.Abs(gotX-wantX) <= tol && math.Abs(gotY-wantY) <= tol
}

func TestHomography_Identity(t *testing.T) {
	h := Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}
	x, y := h.Apply(12.5, -3)
	if !pointsClose(x, y, 12.5, -3, 1e-9) {
		t.Errorf("identity Apply: got (%v, %v), want (12.5, -3)", x, y)
	}
}

func TestHomography_ZeroDenominator(t *testing.T) {
	h := Homography{1, 0, 0, 0, 1, 0, 0, 0, 0}
	x, y := h.Apply(1, 1)
	if !math.IsInf(x, 1) || !math.IsInf(y, 1) {
		t.Errorf("degenerate denominator should map to infinity, got (%v, %v)", x, y)
	}
}

func TestSolveHomography_AffineTranslation(t *testing.T) {
	src := []pointf{{0, 0}, {10, 0}, {0, 10}}
	dst := []pointf{{5, 7}, {15, 7}, {5, 17}}

	h, ok := solveHomography(src, dst)
	if !ok {
		t.Fatal("expected affine solution, got degenerate")
	}
	for i := range src {
		x, y := h.Apply(src[i].X, src[i].Y)
		if !pointsClose(x, y, dst[i].X, dst[i].Y, 1e-6) {
			t.Errorf("point %d: got (%v, %v), want (%v, %v)", i, x, y, dst[i].X, dst[i].Y)
		}
	}
	if h[6] != 0 || h[7] != 0 {
		t.Errorf("affine transform should have zero perspective terms, got %v, %v", h[6], h[7])
	}
}

func TestSolveHomography_AffineScaleRotate(t *testing.T) {
	// 90 degree rotation with scale 2.
	src := []pointf{{0, 0}, {1, 0}, {0, 1}}
	dst := []pointf{{0, 0}, {0, 2}, {-2, 0}}

	h, ok := solveHomography(src, dst)
	if !ok {
		t.Fatal("expected affine solution, got degenerate")
	}
	x, y := h.Apply(1, 1)
	if !pointsClose(x, y, -2, 2, 1e-6) {
		t.Errorf("Apply(1,1): got (%v, %v), want (-2, 2)", x, y)
	}
}

func TestSolveHomography_Projective(t *testing.T) {
	// A proper perspective mapping: unit square to an irregular quad.
	src := []pointf{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
	dst := []pointf{{10, 20}, {190, 5}, {170, 160}, {25, 140}}

	h, ok := solveHomography(src, dst)
	if !ok {
		t.Fatal("expected projective solution, got degenerate")
	}
	for i := range src {
		x, y := h.Apply(src[i].X, src[i].Y)
		if !pointsClose(x, y, dst[i].X, dst[i].Y, 1e-4) {
			t.Errorf("point %d: got (%v, %v), want (%v, %v)", i, x, y, dst[i].X, dst[i].Y)
		}
	}

	// An interior point must land inside the destination quad.
	x, y := h.Apply(50, 50)
	if x < 25 || x > 190 || y < 5 || y > 160 {
		t.Errorf("interior point mapped outside destination quad: (%v, %v)", x, y)
	}
}

func TestSolveHomography_Degenerate(t *testing.T) {
	// Collinear source points cannot fix a transform.
	src := []pointf{{0, 0}, {10, 10}, {20, 20}, {30, 30}}
	dst := []pointf{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if _, ok := solveHomography(src, dst); ok {
		t.Error("collinear source points should be rejected")
	}
}

func TestSolveHomography_WrongCount(t *testing.T) {
	src := []pointf{{0, 0}, {1, 1}}
	dst := []pointf{{0, 0}, {2, 2}}
	if _, ok := solveHomography(src, dst); ok {
		t.Error("two point pairs should be rejected")
	}
}

func TestSolveLinear(t *testing.T) {
	// 2x + y = 5, x - y = 1 -> x=2, y=1.
	a := [][]float64{{2, 1}, {1, -1}}
	b := []float64{5, 1}

	x, ok := solveLinear(a, b)
	if !ok {
		t.Fatal("expected solution, got singular")
	}
	if !pointsClose(x[0], x[1], 2, 1, 1e-9) {
		t.Errorf("solution: got (%v, %v), want (2, 1)", x[0], x[1])
	}
}

func TestSolveLinear_Singular(t *testing.T) {
	a := [][]float64{{1, 2}, {2, 4}}
	b := []float64{3, 6}
	if _, ok := solveLinear(a, b); ok {
		t.Error("singular system should be rejected")
	}
}
