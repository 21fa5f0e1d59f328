package rectify

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"

	"github.com/omr-tools/mcq-scan/internal/imaging"
)

// blurRadius is the Gaussian radius applied before thresholding. Enough to
// suppress paper grain and JPEG noise without eroding an 80px marker.
const blurRadius = 2.0

// Preprocess conditions a raw sheet photograph for marker detection:
// grayscale conversion followed by a light Gaussian blur.
func Preprocess(src image.Image) *image.Gray {
	return imaging.ToGray(blur.Gaussian(effect.Grayscale(src), blurRadius))
}
