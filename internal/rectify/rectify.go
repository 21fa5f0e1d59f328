package rectify

import (
	"image"
	"image/color"

	"github.com/omr-tools/mcq-scan/internal/imaging"
	"github.com/omr-tools/mcq-scan/internal/template"
)

// Result is a successful rectification: the raw photograph warped into the
// template's canonical frame, plus the marker evidence used to get there.
type Result struct {
	// Canonical is the rectified image. Its dimensions equal the template's
	// page size, so template coordinates index it directly.
	Canonical *image.RGBA

	// Markers are the detected fiducial centers in raw image coordinates,
	// in template fiducial order.
	Markers []image.Point `json:"markers"`

	// Threshold is the Otsu threshold used during marker detection.
	Threshold uint8 `json:"threshold"`

	// Distortion is the geometry score of the accepted marker
	// configuration (0 = perfect similarity).
	Distortion float64 `json:"distortion"`
}

// Rectify locates the template's fiducial markers in a raw sheet image and
// warps the sheet into the canonical frame.
//
// The pipeline is: grayscale + blur preprocessing, Otsu binarization, blob
// candidate detection, marker matching, then an inverse-mapped perspective
// warp with bilinear sampling. Any failure to establish a unique, trustworthy
// alignment is fatal and reported as *GeometryError or
// *GeometryAmbiguousError; no best-effort grid is ever attempted.
func Rectify(raw image.Image, tpl *template.Sheet) (*Result, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}

	pre := Preprocess(raw)
	threshold := imaging.OtsuThreshold(pre)
	mask := imaging.DarkMask(pre, threshold)

	bounds := raw.Bounds()
	rawW, rawH := bounds.Dx(), bounds.Dy()

	match := MatchMarkers(DetectCandidates(mask, expectedMarkerArea(tpl, rawW, rawH)), tpl, rawW, rawH)
	switch match.Outcome {
	case MatchFound:
		// fall through to the warp
	case MatchInsufficient:
		return nil, &GeometryError{Reason: "insufficient markers", Found: match.Found, Required: match.Required}
	case MatchDistorted:
		return nil, &GeometryError{Reason: "marker layout deviates beyond tolerance", Found: match.Found, Required: match.Required}
	case MatchMirrored:
		return nil, &GeometryError{Reason: "mirrored or upside-down marker layout"}
	case MatchAmbiguous:
		return nil, &GeometryAmbiguousError{Best: match.Distortion, RunnerUp: match.RunnerUp, Candidates: match.Candidates}
	}

	return &Result{
		Canonical:  warp(raw, match.Transform, tpl.Width, tpl.Height),
		Markers:    match.Markers,
		Threshold:  threshold,
		Distortion: match.Distortion,
	}, nil
}

// expectedMarkerArea estimates the pixel area a fiducial should occupy in
// the raw image, scaling the template marker size by the raw/template size
// ratio. Markers may differ in size; the mean is good enough for filtering.
func expectedMarkerArea(tpl *template.Sheet, rawW, rawH int) float64 {
	scale := (float64(rawW)/float64(tpl.Width) + float64(rawH)/float64(tpl.Height)) / 2

	var sum float64
	for _, f := range tpl.Fiducials {
		side := float64(f.Size) * scale
		sum += side * side
	}
	return sum / float64(len(tpl.Fiducials))
}

// warp resamples the raw image into a dstW x dstH canonical frame. transform
// maps canonical coordinates to raw coordinates, so each destination pixel is
// an inverse lookup with bilinear interpolation; samples falling outside the
// raw image come back white (paper).
func warp(src image.Image, transform Homography, dstW, dstH int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	bounds := src.Bounds()

	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			sx, sy := transform.Apply(float64(x), float64(y))
			dst.Set(x, y, bilinearSample(src, sx+float64(bounds.Min.X), sy+float64(bounds.Min.Y)))
		}
	}
	return dst
}

// bilinearSample interpolates the color at fractional coordinates (x, y).
// Out-of-bounds samples return white so that off-sheet regions read as blank
// paper rather than marks.
func bilinearSample(src image.Image, x, y float64) color.Color {
	b := src.Bounds()
	if x < float64(b.Min.X) || y < float64(b.Min.Y) || x > float64(b.Max.X-1) || y > float64(b.Max.Y-1) {
		return color.RGBA{255, 255, 255, 255}
	}

	x0, y0 := int(x), int(y)
	x1, y1 := x0+1, y0+1
	if x1 >= b.Max.X {
		x1 = b.Max.X - 1
	}
	if y1 >= b.Max.Y {
		y1 = b.Max.Y - 1
	}
	fx, fy := x-float64(x0), y-float64(y0)

	c00 := channelsOf(src.At(x0, y0))
	c10 := channelsOf(src.At(x1, y0))
	c01 := channelsOf(src.At(x0, y1))
	c11 := channelsOf(src.At(x1, y1))

	var out [4]uint8
	for i := 0; i < 4; i++ {
		top := c00[i] + (c10[i]-c00[i])*fx
		bottom := c01[i] + (c11[i]-c01[i])*fx
		out[i] = uint8(top + (bottom-top)*fy + 0.5)
	}
	return color.RGBA{out[0], out[1], out[2], out[3]}
}

func channelsOf(c color.Color) [4]float64 {
	r, g, b, a := c.RGBA()
	return [4]float64{float64(r >> 8), float64(g >> 8), float64(b >> 8), float64(a >> 8)}
}
