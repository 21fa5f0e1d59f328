package imaging

import (
	"image"
	"image/color"
	"testing"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
)

func TestCloneRGBA_Independent(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	FillRect(src, src.Bounds(), white)

	clone := CloneRGBA(src)
	clone.Set(5, 5, red)

	if got := src.RGBAAt(5, 5); got != white {
		t.Errorf("mutating the clone changed the source: got %v", got)
	}
	if got := clone.RGBAAt(5, 5); got != red {
		t.Errorf("clone pixel: got %v, want %v", got, red)
	}
}

func TestFillRect_Clipped(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))

	// Extends past every edge; must not panic and must fill what is inside.
	FillRect(img, image.Rect(-5, -5, 15, 15), red)

	if got := img.RGBAAt(0, 0); got != red {
		t.Errorf("corner pixel: got %v, want %v", got, red)
	}
	if got := img.RGBAAt(9, 9); got != red {
		t.Errorf("corner pixel: got %v, want %v", got, red)
	}
}

func TestDrawBox(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	DrawBox(img, image.Rect(5, 5, 15, 15), red, 1)

	if got := img.RGBAAt(5, 5); got != red {
		t.Errorf("box corner: got %v, want %v", got, red)
	}
	if got := img.RGBAAt(10, 5); got != red {
		t.Errorf("box top edge: got %v, want %v", got, red)
	}
	if got := img.RGBAAt(14, 14); got != red {
		t.Errorf("box bottom-right (exclusive max): got %v, want %v", got, red)
	}
	if got := img.RGBAAt(10, 10); (got != color.RGBA{}) {
		t.Errorf("box interior should be untouched, got %v", got)
	}
}

func TestDrawCircle_RadiusHit(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	DrawCircle(img, image.Pt(20, 20), 10, red, 1)

	// Axis-aligned ring points.
	for _, p := range []image.Point{{30, 20}, {10, 20}, {20, 30}, {20, 10}} {
		if got := img.RGBAAt(p.X, p.Y); got != red {
			t.Errorf("ring pixel %v: got %v, want %v", p, got, red)
		}
	}
	if got := img.RGBAAt(20, 20); (got != color.RGBA{}) {
		t.Errorf("circle center should be untouched, got %v", got)
	}
}

func TestFillCircle(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	FillCircle(img, image.Pt(20, 20), 10, red)

	if got := img.RGBAAt(20, 20); got != red {
		t.Errorf("disc center: got %v, want %v", got, red)
	}
	if got := img.RGBAAt(20, 29); got != red {
		t.Errorf("pixel inside radius: got %v, want %v", got, red)
	}
	if got := img.RGBAAt(29, 29); (got != color.RGBA{}) {
		t.Errorf("pixel outside disc should be untouched, got %v", got)
	}
}

func TestDrawLabel(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	fg := color.RGBA{255, 255, 255, 255}
	bg := color.RGBA{0, 0, 0, 255}
	DrawLabel(img, 10, 10, "0.42", fg, bg)

	hasText, hasBg := false, false
	for y := 8; y < 20; y++ {
		for x := 8; x < 30; x++ {
			switch img.RGBAAt(x, y) {
			case fg:
				hasText = true
			case bg:
				hasBg = true
			}
		}
	}
	if !hasText {
		t.Error("label should contain foreground text pixels")
	}
	if !hasBg {
		t.Error("label should contain background box pixels")
	}
}

func TestDrawLabel_BoundsCheck(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	fg := color.RGBA{255, 255, 255, 255}
	bg := color.RGBA{0, 0, 0, 255}

	// Must not panic when the label extends past any edge.
	DrawLabel(img, 18, 18, "0.99", fg, bg)
	DrawLabel(img, -5, -5, "0.00", fg, bg)
	DrawLabel(img, 0, 0, "", fg, bg)
}
