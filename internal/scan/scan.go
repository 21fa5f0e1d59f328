// Package scan wires the detection pipeline together: rectification, grid
// location, bubble classification, and answer resolution for one sheet
// image.
//
// Each call to Run is a fully independent run: all state is local, the
// template is shared read-only, and multiple images may be scanned
// concurrently with different configurations.
package scan

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/omr-tools/mcq-scan/internal/classify"
	"github.com/omr-tools/mcq-scan/internal/config"
	"github.com/omr-tools/mcq-scan/internal/imaging"
	"github.com/omr-tools/mcq-scan/internal/rectify"
	"github.com/omr-tools/mcq-scan/internal/resolve"
	"github.com/omr-tools/mcq-scan/internal/template"
)

// Result is the outcome of scanning one sheet image.
type Result struct {
	// RunID uniquely identifies this run; debug artifact filenames embed
	// it so concurrent runs never clobber each other's outputs.
	RunID string `json:"run_id"`

	// Answers holds exactly one entry per question, ordered by question
	// index.
	Answers []resolve.QuestionAnswer `json:"answers"`

	// States are the raw per-bubble classifications, ordered by question
	// then option.
	States []classify.BubbleState `json:"states,omitempty"`

	// Markers are the detected fiducial centers in raw image coordinates.
	// Empty when rectification was skipped.
	Markers []image.Point `json:"markers,omitempty"`

	// LowConfidence counts bubbles flagged low-confidence across the
	// sheet; it is a warning signal, not an error.
	LowConfidence int `json:"low_confidence"`
}

// Run executes the full pipeline on a raw sheet photograph.
//
// Template and configuration problems surface before any pixel is touched.
// Geometric failures from rectification abort the run with no partial
// result. Once alignment succeeds the run always produces a full answer
// map; ambiguous or blank questions are data, not errors.
func Run(raw image.Image, tpl *template.Sheet, cfg config.Config) (*Result, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rectified, err := rectify.Rectify(raw, tpl)
	if err != nil {
		return nil, err
	}

	result, err := runCanonical(rectified.Canonical, tpl, cfg)
	if err != nil {
		return nil, err
	}
	result.Markers = rectified.Markers
	return result, nil
}

// RunCanonical executes the pipeline on an already-rectified canonical
// image, skipping marker detection and warping. The image dimensions must
// match the template's page size.
func RunCanonical(canonical image.Image, tpl *template.Sheet, cfg config.Config) (*Result, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bounds := canonical.Bounds()
	if bounds.Dx() != tpl.Width || bounds.Dy() != tpl.Height {
		return nil, fmt.Errorf("scan: canonical image is %dx%d, template expects %dx%d",
			bounds.Dx(), bounds.Dy(), tpl.Width, tpl.Height)
	}
	return runCanonical(canonical, tpl, cfg)
}

func runCanonical(canonical image.Image, tpl *template.Sheet, cfg config.Config) (*Result, error) {
	regions := tpl.BubbleRegions()
	states := classify.ClassifyAll(canonical, regions, cfg)
	answers := resolve.ResolveAll(states, tpl, cfg)

	result := &Result{
		RunID:   uuid.NewString(),
		Answers: answers,
		States:  states,
	}
	for _, st := range states {
		if st.LowConfidence {
			result.LowConfidence++
		}
	}

	if cfg.Debug {
		if err := writeArtifacts(canonical, regions, states, cfg, result.RunID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// writeArtifacts saves the canonical image and the classification overlay
// for human audit. These are side outputs only; the grading contract is the
// answer map.
func writeArtifacts(canonical image.Image, regions []template.BubbleRegion, states []classify.BubbleState, cfg config.Config, runID string) error {
	canonicalPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("canonical_%s.png", runID))
	if err := imaging.Save(canonical, canonicalPath); err != nil {
		return err
	}

	overlayPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("overlay_%s.png", runID))
	return imaging.Save(Overlay(canonical, regions, states), overlayPath)
}
