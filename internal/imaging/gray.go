package imaging

import (
	"image"
	"image/color"
)

// ToGray converts any image to 8-bit grayscale using ITU-R BT.601 luminance
// weights (0.299*R + 0.587*G + 0.114*B). An input that already is an
// *image.Gray is returned unchanged.
func ToGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := src.At(x, y).RGBA()
			lum := uint8(0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8))
			gray.SetGray(x, y, color.Gray{Y: lum})
		}
	}
	return gray
}

// OtsuThreshold computes a global binarization threshold by maximizing the
// between-class variance of the grayscale histogram (Otsu's method). For the
// bimodal ink-on-paper images this pipeline handles, it lands between the
// two modes without hand tuning.
func OtsuThreshold(img *image.Gray) uint8 {
	bounds := img.Bounds()

	var histogram [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			histogram[img.GrayAt(x, y).Y]++
		}
	}

	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 128
	}

	var totalSum float64
	for i, n := range histogram {
		totalSum += float64(i) * float64(n)
	}

	var sumBack float64
	var weightBack int
	var maxVariance float64
	var best uint8

	for t := 0; t < 256; t++ {
		weightBack += histogram[t]
		if weightBack == 0 {
			continue
		}
		weightFore := total - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += float64(t) * float64(histogram[t])

		meanBack := sumBack / float64(weightBack)
		meanFore := (totalSum - sumBack) / float64(weightFore)
		variance := float64(weightBack) * float64(weightFore) * (meanBack - meanFore) * (meanBack - meanFore)
		if variance > maxVariance {
			maxVariance = variance
			best = uint8(t)
		}
	}
	return best
}

// DarkMask thresholds a grayscale image into a boolean foreground mask.
// mask[y][x] is true where the pixel is strictly darker than threshold;
// indices are relative to the image bounds origin.
func DarkMask(img *image.Gray, threshold uint8) [][]bool {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	mask := make([][]bool, height)
	for y := 0; y < height; y++ {
		mask[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			mask[y][x] = img.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y < threshold
		}
	}
	return mask
}
