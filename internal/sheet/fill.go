package sheet

import (
	"image"
	"image/color"
	"math/rand"

	"github.com/omr-tools/mcq-scan/internal/imaging"
	"github.com/omr-tools/mcq-scan/internal/template"
)

// FillOptions controls how simulated marks are drawn.
type FillOptions struct {
	// Intensity in (0, 1] scales mark darkness: 1.0 is solid black,
	// 0.2 a faint pencil stroke.
	Intensity float64

	// Noise adds per-mark brightness jitter and speckle dots, imitating
	// hand-filled pencil texture.
	Noise bool

	// Seed initializes the noise source so simulated sheets reproduce
	// exactly.
	Seed int64
}

// DefaultFillOptions simulates a firm pencil fill without randomness.
func DefaultFillOptions() FillOptions {
	return FillOptions{Intensity: 0.8}
}

// Fill draws simulated marks onto a copy of a blank sheet image.
//
// marks maps 0-based question indices to the option indices to fill; a
// question may list several options to fabricate ambiguous answers, and
// questions absent from the map stay blank. The blank input is never
// mutated. Marks are drawn slightly inside the printed outline, the way a
// respondent fills a bubble.
func Fill(blank image.Image, tpl *template.Sheet, marks map[int][]int, opts FillOptions) *image.RGBA {
	img := imaging.CloneRGBA(blank)
	rng := rand.New(rand.NewSource(opts.Seed))

	for q := 0; q < tpl.Questions; q++ {
		for _, k := range marks[q] {
			if k < 0 || k >= tpl.Options {
				continue
			}
			drawMark(img, tpl.BubbleCenter(q, k), tpl.BubbleRadius-5, opts, rng)
		}
	}
	return img
}

func drawMark(img *image.RGBA, center image.Point, radius int, opts FillOptions, rng *rand.Rand) {
	level := int(255 * (1 - opts.Intensity))
	if opts.Noise {
		level += rng.Intn(41) - 20
	}
	level = clampLevel(level)
	imaging.FillCircle(img, center, radius, color.Gray{Y: uint8(level)})

	if opts.Noise {
		// Speckle dots darker than the base fill, like uneven pencil pressure.
		for i := 0; i < 5+rng.Intn(11); i++ {
			dot := image.Pt(
				center.X+rng.Intn(radius+1)-radius/2,
				center.Y+rng.Intn(radius+1)-radius/2,
			)
			darker := clampLevel(level - 10 - rng.Intn(21))
			imaging.FillCircle(img, dot, 1+rng.Intn(3), color.Gray{Y: uint8(darker)})
		}
	}
}

func clampLevel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// RandomMarks generates one random single-choice mark per question, leaving
// each question blank with probability skip. Deterministic for a given seed.
func RandomMarks(tpl *template.Sheet, skip float64, seed int64) map[int][]int {
	rng := rand.New(rand.NewSource(seed))
	marks := make(map[int][]int, tpl.Questions)
	for q := 0; q < tpl.Questions; q++ {
		if rng.Float64() < skip {
			continue
		}
		marks[q] = []int{rng.Intn(tpl.Options)}
	}
	return marks
}
