package rectify

import "math"

// Homography is a 3x3 projective transform stored row-major. It maps
// canonical template coordinates to raw image coordinates:
//
//	x' = (h0*x + h1*y + h2) / (h6*x + h7*y + h8)
//	y' = (h3*x + h4*y + h5) / (h6*x + h7*y + h8)
type Homography [9]float64

// Apply maps the point (x, y) through the transform.
func (h Homography) Apply(x, y float64) (float64, float64) {
	denom := h[6]*x + h[7]*y + h[8]
	if denom == 0 {
		return math.Inf(1), math.Inf(1)
	}
	px := (h[0]*x + h[1]*y + h[2]) / denom
	py := (h[3]*x + h[4]*y + h[5]) / denom
	return px, py
}

type pointf struct{ X, Y float64 }

// solveHomography computes the transform mapping src[i] to dst[i].
//
// Three point pairs determine an affine transform (h6=h7=0); four pairs
// determine a full projective one via the standard 8-unknown DLT system.
// Returns false when the points are degenerate (collinear or repeated).
func solveHomography(src, dst []pointf) (Homography, bool) {
	switch len(src) {
	case 3:
		return solveAffine(src, dst)
	case 4:
		return solveProjective(src, dst)
	default:
		return Homography{}, false
	}
}

func solveAffine(src, dst []pointf) (Homography, bool) {
	// Two independent 3x3 systems: one for the x row, one for the y row.
	a := make([][]float64, 6)
	b := make([]float64, 6)
	for i := 0; i < 3; i++ {
		a[2*i] = []float64{src[i].X, src[i].Y, 1, 0, 0, 0}
		a[2*i+1] = []float64{0, 0, 0, src[i].X, src[i].Y, 1}
		b[2*i] = dst[i].X
		b[2*i+1] = dst[i].Y
	}
	h, ok := solveLinear(a, b)
	if !ok {
		return Homography{}, false
	}
	return Homography{h[0], h[1], h[2], h[3], h[4], h[5], 0, 0, 1}, true
}

func solveProjective(src, dst []pointf) (Homography, bool) {
	// 8x8 system A*h = b for h0..h7, with h8 fixed at 1.
	a := make([][]float64, 8)
	b := make([]float64, 8)
	for i := 0; i < 4; i++ {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y
		a[2*i] = []float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx}
		a[2*i+1] = []float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy}
		b[2*i] = dx
		b[2*i+1] = dy
	}
	h, ok := solveLinear(a, b)
	if !ok {
		return Homography{}, false
	}
	return Homography{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}, true
}

// solveLinear solves the square system a*x = b by Gaussian elimination with
// partial pivoting. Returns false for singular systems.
func solveLinear(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	for col := 0; col < n; col++ {
		// Pivot on the largest remaining entry in this column.
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if a[pivot][col] == 0 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		div := a[col][col]
		for c := col; c < n; c++ {
			a[col][c] /= div
		}
		b[col] /= div

		for r := 0; r < n; r++ {
			if r == col || a[r][col] == 0 {
				continue
			}
			factor := a[r][col]
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}
	return b, true
}
