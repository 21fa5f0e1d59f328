package template

import "image"

// BubbleRegion is the canonical-space location of one answer bubble.
//
// Regions are derived purely from the template geometry: no image access is
// involved, so the same template always produces the same regions. Question
// and Option are 0-based indices.
type BubbleRegion struct {
	// Question index in [0, Questions).
	Question int `json:"question"`

	// Option index in [0, Options).
	Option int `json:"option"`

	// Center of the bubble in canonical pixel coordinates.
	Center image.Point `json:"center"`

	// Radius of the printed circle in pixels.
	Radius int `json:"radius"`

	// Bounds is the square bounding box enclosing the bubble.
	Bounds image.Rectangle `json:"bounds"`
}

// BubbleCenter returns the canonical center of the bubble for (question, option).
//
// Questions fill columns top to bottom, left to right: with two columns of 25,
// question 0 is the top of the left column and question 25 tops the right one.
func (s *Sheet) BubbleCenter(question, option int) image.Point {
	col := question / s.RowsPerColumn()
	row := question % s.RowsPerColumn()

	x := s.GridOriginX + col*s.ColumnStride + s.OptionOffset + option*s.OptionPitch + s.BubbleRadius
	y := s.GridOriginY + row*s.RowPitch + s.BubbleRadius
	return image.Pt(x, y)
}

// BubbleRegions produces the full ordered set of bubble regions for the sheet,
// ordered by question index, then option index.
//
// This is the grid locator: a pure function of the template, deterministic and
// cacheable. Callers should Validate the template first; BubbleRegions does
// not re-check it.
func (s *Sheet) BubbleRegions() []BubbleRegion {
	regions := make([]BubbleRegion, 0, s.Questions*s.Options)
	for q := 0; q < s.Questions; q++ {
		for k := 0; k < s.Options; k++ {
			c := s.BubbleCenter(q, k)
			r := s.BubbleRadius
			regions = append(regions, BubbleRegion{
				Question: q,
				Option:   k,
				Center:   c,
				Radius:   r,
				Bounds:   image.Rect(c.X-r, c.Y-r, c.X+r, c.Y+r),
			})
		}
	}
	return regions
}
