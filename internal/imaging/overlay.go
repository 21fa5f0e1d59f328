package imaging

import (
	"image"
	"image/color"
	"image/draw"
)

// CloneRGBA copies an image into a fresh, mutable RGBA buffer. Overlay
// drawing always works on a clone so source images stay immutable.
func CloneRGBA(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}

// FillRect fills an axis-aligned rectangle, clipped to the image bounds.
func FillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

// DrawBox draws a rectangle outline of the given thickness (in pixels,
// growing inward), clipped to the image bounds.
func DrawBox(img *image.RGBA, r image.Rectangle, c color.Color, thickness int) {
	for t := 0; t < thickness; t++ {
		inset := r.Inset(t)
		if inset.Empty() {
			return
		}
		for x := inset.Min.X; x < inset.Max.X; x++ {
			setClipped(img, x, inset.Min.Y, c)
			setClipped(img, x, inset.Max.Y-1, c)
		}
		for y := inset.Min.Y; y < inset.Max.Y; y++ {
			setClipped(img, inset.Min.X, y, c)
			setClipped(img, inset.Max.X-1, y, c)
		}
	}
}

// DrawCircle draws a circle outline using the midpoint algorithm, thickened
// by drawing concentric rings.
func DrawCircle(img *image.RGBA, center image.Point, radius int, c color.Color, thickness int) {
	for t := 0; t < thickness; t++ {
		drawRing(img, center.X, center.Y, radius-t, c)
	}
}

// FillCircle fills a solid disc of the given radius.
func FillCircle(img *image.RGBA, center image.Point, radius int, c color.Color) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				setClipped(img, center.X+dx, center.Y+dy, c)
			}
		}
	}
}

func drawRing(img *image.RGBA, cx, cy, radius int, c color.Color) {
	if radius <= 0 {
		return
	}
	x := radius
	y := 0
	err := 0

	for x >= y {
		setClipped(img, cx+x, cy+y, c)
		setClipped(img, cx+y, cy+x, c)
		setClipped(img, cx-y, cy+x, c)
		setClipped(img, cx-x, cy+y, c)
		setClipped(img, cx-x, cy-y, c)
		setClipped(img, cx-y, cy-x, c)
		setClipped(img, cx+y, cy-x, c)
		setClipped(img, cx+x, cy-y, c)

		if err <= 0 {
			y++
			err += 2*y + 1
		}
		if err > 0 {
			x--
			err -= 2*x + 1
		}
	}
}

func setClipped(img *image.RGBA, x, y int, c color.Color) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

// glyphs is a 3x5 pixel font covering what diagnostic labels need: digits,
// decimal point, comma, and a question mark.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	'.': {"000", "000", "000", "000", "010"},
	',': {"000", "000", "000", "010", "010"},
	'?': {"111", "001", "011", "000", "010"},
}

// DrawLabel renders a small text label with a background box at (x, y) using
// the built-in 3x5 pixel font. Unknown characters advance the cursor without
// drawing. Intended for per-bubble diagnostics on debug overlays, where a
// real font dependency would be overkill.
func DrawLabel(img *image.RGBA, x, y int, text string, fg, bg color.Color) {
	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			px, py := x+dx, y+dy
			if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
				img.Set(px, py, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setClipped(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
