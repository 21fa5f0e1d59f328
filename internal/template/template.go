package template

import (
	"fmt"
	"image"
)

// OptionLetters are the printed labels for answer options, in option-index order.
// A template may use at most len(OptionLetters) options per question.
const OptionLetters = "ABCDE"

// Fiducial describes one printed reference marker on the sheet.
//
// Markers are solid black squares. Their canonical centers are what the
// rectifier aligns detected markers against, so positions are given in
// template (canonical) pixel coordinates.
type Fiducial struct {
	// Center is the marker center in canonical pixel coordinates.
	Center image.Point `json:"center"`

	// Size is the side length of the square marker in pixels.
	Size int `json:"size"`
}

// Bounds returns the pixel bounding box of the marker in canonical space.
func (f Fiducial) Bounds() image.Rectangle {
	half := f.Size / 2
	return image.Rect(f.Center.X-half, f.Center.Y-half, f.Center.X+half, f.Center.Y+half)
}

// Sheet is the immutable geometric description of an MCQ answer sheet.
//
// All coordinates are canonical pixel coordinates: the rectifier warps raw
// photographs into a frame of exactly Width x Height pixels, after which
// every position computed from the template maps directly onto the image.
//
// A Sheet is shared read-only between the rectifier, the grid locator, and
// the renderer. Construct one, Validate it once, and never mutate it.
type Sheet struct {
	// Width and Height are the canonical page dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Fiducials are the reference markers used for perspective correction.
	// At least three non-collinear markers are required. When the marker
	// positions are mirror-symmetric, at least one marker must differ in
	// size so orientation stays detectable; the default layout places one
	// in each page corner with an oversized top-left marker.
	Fiducials []Fiducial `json:"fiducials"`

	// Questions is the number of questions on the sheet.
	Questions int `json:"questions"`

	// Options is the number of answer choices per question (2..5).
	Options int `json:"options"`

	// Columns is the number of vertical question columns on the page.
	Columns int `json:"columns"`

	// GridOriginX and GridOriginY locate the top-left question row of the
	// first column. Bubble centers derive from this origin plus the pitches.
	GridOriginX int `json:"grid_origin_x"`
	GridOriginY int `json:"grid_origin_y"`

	// RowPitch is the vertical distance between successive question rows.
	RowPitch int `json:"row_pitch"`

	// OptionPitch is the horizontal distance between option bubbles within
	// one question.
	OptionPitch int `json:"option_pitch"`

	// ColumnStride is the horizontal distance between question columns.
	ColumnStride int `json:"column_stride"`

	// OptionOffset is the horizontal gap between a column's origin (where
	// the question number prints) and the first option bubble.
	OptionOffset int `json:"option_offset"`

	// BubbleRadius is the radius of each printed answer circle in pixels.
	BubbleRadius int `json:"bubble_radius"`
}

// Default returns the stock sheet layout: A4 at 300 DPI with four corner
// markers, 50 questions in two columns of 25, and 4 options per question.
// The geometry matches the sheets produced by the renderer.
//
// The top-left marker is oversized. Corner positions alone are mirror- and
// 180-degree-symmetric, so the odd size is what lets the rectifier tell a
// correctly oriented sheet from a flipped or upside-down one.
func Default() *Sheet {
	const (
		width  = 2480
		height = 3508
		inset  = 90 // marker center distance from each page edge
		size   = 80
		anchor = 140 // top-left orientation marker
	)
	return &Sheet{
		Width:  width,
		Height: height,
		Fiducials: []Fiducial{
			{Center: image.Pt(inset, inset), Size: anchor},
			{Center: image.Pt(width-inset, inset), Size: size},
			{Center: image.Pt(width-inset, height-inset), Size: size},
			{Center: image.Pt(inset, height-inset), Size: size},
		},
		Questions:    50,
		Options:      4,
		Columns:      2,
		GridOriginX:  200,
		GridOriginY:  450,
		RowPitch:     90,
		OptionPitch:  120,
		ColumnStride: 1040,
		OptionOffset: 60,
		BubbleRadius: 38,
	}
}

// RowsPerColumn returns how many question rows each column holds.
func (s *Sheet) RowsPerColumn() int {
	return (s.Questions + s.Columns - 1) / s.Columns
}

// ConfigError reports a malformed template. It is a configuration error
// caught before any image processing starts, never a runtime outcome.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("template: invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the template for internal consistency.
//
// It verifies positive dimensions and pitches, a sane option count, and that
// the fiducial set can fix a unique orientation (at least three markers, not
// all on one line). Returns a *ConfigError describing the first problem found.
func (s *Sheet) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return &ConfigError{Field: "dimensions", Reason: fmt.Sprintf("page must be positive, got %dx%d", s.Width, s.Height)}
	}
	if s.Questions <= 0 {
		return &ConfigError{Field: "questions", Reason: fmt.Sprintf("must be positive, got %d", s.Questions)}
	}
	if s.Options < 2 || s.Options > len(OptionLetters) {
		return &ConfigError{Field: "options", Reason: fmt.Sprintf("must be 2..%d, got %d", len(OptionLetters), s.Options)}
	}
	if s.Columns <= 0 {
		return &ConfigError{Field: "columns", Reason: fmt.Sprintf("must be positive, got %d", s.Columns)}
	}
	if s.RowPitch <= 0 || s.OptionPitch <= 0 {
		return &ConfigError{Field: "pitch", Reason: fmt.Sprintf("row and option pitch must be positive, got %d and %d", s.RowPitch, s.OptionPitch)}
	}
	if s.Columns > 1 && s.ColumnStride <= 0 {
		return &ConfigError{Field: "column_stride", Reason: fmt.Sprintf("must be positive with %d columns, got %d", s.Columns, s.ColumnStride)}
	}
	if s.BubbleRadius <= 0 {
		return &ConfigError{Field: "bubble_radius", Reason: fmt.Sprintf("must be positive, got %d", s.BubbleRadius)}
	}
	if 2*s.BubbleRadius >= s.OptionPitch {
		return &ConfigError{Field: "bubble_radius", Reason: "bubbles overlap: diameter exceeds option pitch"}
	}
	if len(s.Fiducials) < 3 {
		return &ConfigError{Field: "fiducials", Reason: fmt.Sprintf("need at least 3 markers, got %d", len(s.Fiducials))}
	}
	for i, f := range s.Fiducials {
		if f.Size <= 0 {
			return &ConfigError{Field: "fiducials", Reason: fmt.Sprintf("marker %d has non-positive size %d", i, f.Size)}
		}
		if !f.Bounds().In(image.Rect(0, 0, s.Width, s.Height)) {
			return &ConfigError{Field: "fiducials", Reason: fmt.Sprintf("marker %d extends outside the page", i)}
		}
	}
	if collinear(s.Fiducials) {
		return &ConfigError{Field: "fiducials", Reason: "markers are collinear and cannot fix orientation"}
	}
	return nil
}

// collinear reports whether all marker centers lie on a single line.
func collinear(fs []Fiducial) bool {
	if len(fs) < 3 {
		return true
	}
	a, b := fs[0].Center, fs[1].Center
	for _, f := range fs[2:] {
		// Cross product of (b-a) and (f-a); zero means on the a-b line.
		cross := (b.X-a.X)*(f.Center.Y-a.Y) - (b.Y-a.Y)*(f.Center.X-a.X)
		if cross != 0 {
			return false
		}
	}
	return true
}
