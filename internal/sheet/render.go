// Package sheet generates answer-sheet images: a printable blank template
// matching a sheet layout, and simulated filled sheets for exercising the
// detection pipeline.
package sheet

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/omr-tools/mcq-scan/internal/imaging"
	"github.com/omr-tools/mcq-scan/internal/template"
)

const (
	outlineThickness = 3
	headerTitle      = "MULTIPLE CHOICE ANSWER SHEET"
)

// Render draws a blank answer sheet for the template: white page, solid
// square fiducial markers, a header with student info lines, and the full
// question grid with lettered option circles. The output geometry matches
// the template exactly, so a rendered sheet round-trips through detection.
func Render(tpl *template.Sheet) (*image.RGBA, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, tpl.Width, tpl.Height))
	imaging.FillRect(img, img.Bounds(), color.White)

	for _, f := range tpl.Fiducials {
		imaging.FillRect(img, f.Bounds(), color.Black)
	}

	drawHeader(img, tpl)
	drawGrid(img, tpl)
	return img, nil
}

func drawHeader(img *image.RGBA, tpl *template.Sheet) {
	titleWidth := font.MeasureString(basicfont.Face7x13, headerTitle).Ceil()
	drawText(img, (tpl.Width-titleWidth)/2, tpl.GridOriginY/3, headerTitle)

	fields := []string{"Name:", "Student ID:", "Date:"}
	y := tpl.GridOriginY / 2
	for i, field := range fields {
		drawText(img, tpl.GridOriginX, y+i*40, field)
	}
}

func drawGrid(img *image.RGBA, tpl *template.Sheet) {
	for q := 0; q < tpl.Questions; q++ {
		first := tpl.BubbleCenter(q, 0)
		numberX := tpl.GridOriginX + (q/tpl.RowsPerColumn())*tpl.ColumnStride
		drawText(img, numberX, first.Y+4, fmt.Sprintf("%02d.", q+1))

		for k := 0; k < tpl.Options; k++ {
			center := tpl.BubbleCenter(q, k)
			imaging.DrawCircle(img, center, tpl.BubbleRadius, color.Black, outlineThickness)
			drawText(img, center.X-3, center.Y+4, string(template.OptionLetters[k]))
		}
	}
}

// drawText renders a string with the fixed 7x13 bitmap face. Text on the
// sheet is decoration for humans; detection only reads markers and bubbles.
func drawText(img *image.RGBA, x, y int, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
