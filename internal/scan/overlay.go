package scan

import (
	"fmt"
	"image"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/omr-tools/mcq-scan/internal/classify"
	"github.com/omr-tools/mcq-scan/internal/imaging"
	"github.com/omr-tools/mcq-scan/internal/template"
)

// Overlay palette. Low-confidence marks blend the marked green toward white
// so they stand out from confident marks at a glance.
var (
	markedColor   = mustHex("#2e7d32")
	unmarkedColor = mustHex("#c62828")
	lowColor      = markedColor.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, 0.45)
	labelBg       = color.RGBA{0, 0, 0, 180}
)

func mustHex(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(err)
	}
	return c
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}
}

// Overlay renders classification diagnostics onto a copy of the canonical
// image: each bubble's bounding box colored by its decision (green marked,
// red unmarked, pale green low-confidence) with the measured fill ratio
// printed beside it. The source image is not modified.
func Overlay(canonical image.Image, regions []template.BubbleRegion, states []classify.BubbleState) *image.RGBA {
	img := imaging.CloneRGBA(canonical)

	for i, region := range regions {
		if i >= len(states) {
			break
		}
		st := states[i]

		c := unmarkedColor
		switch {
		case st.LowConfidence:
			c = lowColor
		case st.Marked:
			c = markedColor
		}
		imaging.DrawBox(img, region.Bounds, toRGBA(c), 2)
		imaging.DrawLabel(img, region.Bounds.Min.X, region.Bounds.Min.Y-10,
			fmt.Sprintf("%.2f", st.FillRatio), toRGBA(c), labelBg)
	}
	return img
}
