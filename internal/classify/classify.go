// Package classify measures how filled each answer bubble is in a canonical
// sheet image and turns the measurement into a marked/unmarked decision with
// a confidence score.
//
// Classification is a pure read of the canonical pixels: each bubble is
// evaluated independently against the shared binarization threshold, so the
// full grid is classified concurrently without any locking. Results are
// indexed by (question, option) and completion order is irrelevant.
package classify

import (
	"image"
	"runtime"
	"sync"

	"github.com/omr-tools/mcq-scan/internal/config"
	"github.com/omr-tools/mcq-scan/internal/imaging"
	"github.com/omr-tools/mcq-scan/internal/template"
)

// innerRadiusFactor shrinks the measured disc relative to the printed
// circle so the outline ring and the option letter's ink at the rim do not
// count toward the fill ratio.
const innerRadiusFactor = 0.75

// BubbleState is the classification of one answer bubble.
type BubbleState struct {
	// Question and Option identify the bubble (0-based).
	Question int `json:"question"`
	Option   int `json:"option"`

	// FillRatio is the fraction of dark pixels inside the measured disc,
	// in [0, 1].
	FillRatio float64 `json:"fill_ratio"`

	// Marked is true when the fill ratio reaches the configured low
	// threshold.
	Marked bool `json:"marked"`

	// LowConfidence flags marked bubbles whose ratio sits between the low
	// and mark thresholds: counted as marks, but worth a human look.
	LowConfidence bool `json:"low_confidence"`

	// Confidence grows with the ratio's distance from the decision
	// boundary, clamped to [0, 1].
	Confidence float64 `json:"confidence"`
}

// ClassifyAll classifies every bubble region of a canonical image.
//
// The image is grayscaled once, a single global dark-pixel threshold is
// fixed (configured, or Otsu-estimated when cfg.BinarizeThreshold is zero),
// and the regions are then classified in parallel across the available CPUs.
// The returned slice is ordered exactly like regions.
func ClassifyAll(canonical image.Image, regions []template.BubbleRegion, cfg config.Config) []BubbleState {
	gray := imaging.ToGray(canonical)

	threshold := uint8(cfg.BinarizeThreshold)
	if cfg.BinarizeThreshold == 0 {
		threshold = imaging.OtsuThreshold(gray)
	}

	states := make([]BubbleState, len(regions))

	workers := runtime.GOMAXPROCS(0)
	if workers > len(regions) {
		workers = len(regions)
	}
	if workers < 1 {
		workers = 1
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				states[i] = Classify(gray, regions[i], threshold, cfg)
			}
		}()
	}
	for i := range regions {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return states
}

// Classify measures one bubble region against the given dark-pixel
// threshold.
//
// The fill ratio is the dark fraction of the disc inscribed in the region
// (shrunk by innerRadiusFactor). A ratio at or above cfg.LowThreshold
// classifies as marked; below it, unmarked; marked ratios still under
// cfg.MarkThreshold carry the low-confidence flag. The decision is a pure
// function of the pixels and the thresholds, so repeated runs are
// bit-identical.
func Classify(gray *image.Gray, region template.BubbleRegion, threshold uint8, cfg config.Config) BubbleState {
	radius := int(float64(region.Radius) * innerRadiusFactor)
	if radius < 1 {
		radius = 1
	}

	bounds := gray.Bounds()
	dark, total := 0, 0
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			x, y := region.Center.X+dx, region.Center.Y+dy
			if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
				continue
			}
			total++
			if gray.GrayAt(x, y).Y < threshold {
				dark++
			}
		}
	}

	state := BubbleState{Question: region.Question, Option: region.Option}
	if total == 0 {
		return state
	}

	state.FillRatio = float64(dark) / float64(total)
	state.Marked = state.FillRatio >= cfg.LowThreshold
	state.LowConfidence = state.Marked && state.FillRatio < cfg.MarkThreshold
	state.Confidence = confidence(state.FillRatio, cfg)
	return state
}

// confidence maps a fill ratio to [0, 1] by its distance from the
// marked/unmarked boundary (the low threshold), scaled so that reaching the
// mark threshold means full confidence.
func confidence(ratio float64, cfg config.Config) float64 {
	span := cfg.MarkThreshold - cfg.LowThreshold
	if span <= 0 {
		span = 1
	}
	c := (ratio - cfg.LowThreshold) / span
	if c < 0 {
		c = -c
	}
	if c > 1 {
		c = 1
	}
	return c
}
