package scan

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dimaging "github.com/disintegration/imaging"

	"github.com/omr-tools/mcq-scan/internal/config"
	"github.com/omr-tools/mcq-scan/internal/rectify"
	"github.com/omr-tools/mcq-scan/internal/resolve"
	"github.com/omr-tools/mcq-scan/internal/sheet"
	"github.com/omr-tools/mcq-scan/internal/template"
)

func testSheet() *template.Sheet {
	return &template.Sheet{
		Width:  600,
		Height: 800,
		Fiducials: []template.Fiducial{
			{Center: image.Pt(45, 45), Size: 60},
			{Center: image.Pt(555, 45), Size: 36},
			{Center: image.Pt(555, 755), Size: 36},
			{Center: image.Pt(45, 755), Size: 36},
		},
		Questions:    6,
		Options:      4,
		Columns:      2,
		GridOriginX:  60,
		GridOriginY:  150,
		RowPitch:     80,
		OptionPitch:  70,
		ColumnStride: 260,
		OptionOffset: 30,
		BubbleRadius: 24,
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.BinarizeThreshold = 128
	return cfg
}

// filledSheet renders the template and simulates the given marks on it.
func filledSheet(t *testing.T, tpl *template.Sheet, marks map[int][]int) *image.RGBA {
	t.Helper()
	blank, err := sheet.Render(tpl)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return sheet.Fill(blank, tpl, marks, sheet.DefaultFillOptions())
}

func TestRunCanonical_RoundTrip(t *testing.T) {
	tpl := testSheet()
	marks := map[int][]int{
		0: {1},    // single choice
		2: {2, 3}, // double mark
		4: {0},
		5: {3},
		// questions 1 and 3 left blank
	}
	img := filledSheet(t, tpl, marks)

	result, err := RunCanonical(img, tpl, testConfig())
	if err != nil {
		t.Fatalf("RunCanonical failed: %v", err)
	}

	if len(result.Answers) != tpl.Questions {
		t.Fatalf("answer count: got %d, want %d", len(result.Answers), tpl.Questions)
	}
	if result.RunID == "" {
		t.Error("run ID should be set")
	}
	if len(result.States) != tpl.Questions*tpl.Options {
		t.Errorf("state count: got %d, want %d", len(result.States), tpl.Questions*tpl.Options)
	}

	wantLetters := []string{"B", "NA", "C|D", "NA", "A", "D"}
	for q, want := range wantLetters {
		if got := result.Answers[q].Letter(); got != want {
			t.Errorf("question %d: got %q, want %q (state %v)", q, got, want, result.Answers[q].State)
		}
	}
	if result.Answers[0].State != resolve.Single {
		t.Errorf("question 0 state: got %v, want SINGLE", result.Answers[0].State)
	}
	if result.Answers[2].State != resolve.Ambiguous {
		t.Errorf("question 2 state: got %v, want AMBIGUOUS", result.Answers[2].State)
	}
}

func TestRunCanonical_BlankSheet(t *testing.T) {
	tpl := testSheet()
	img := filledSheet(t, tpl, nil)

	result, err := RunCanonical(img, tpl, testConfig())
	if err != nil {
		t.Fatalf("RunCanonical failed: %v", err)
	}
	for q, qa := range result.Answers {
		if qa.State != resolve.Blank {
			t.Errorf("question %d: got %v (ratio-marked options %v), want BLANK", q, qa.State, qa.Options)
		}
	}
}

func TestRunCanonical_Deterministic(t *testing.T) {
	tpl := testSheet()
	img := filledSheet(t, tpl, map[int][]int{0: {0}, 3: {2}})
	cfg := testConfig()

	a, err := RunCanonical(img, tpl, cfg)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	b, err := RunCanonical(img, tpl, cfg)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	// Identical input must give identical classifications and answers; only
	// the run ID differs.
	if a.RunID == b.RunID {
		t.Error("run IDs should be unique per run")
	}
	for i := range a.States {
		if a.States[i] != b.States[i] {
			t.Fatalf("state %d differs between runs: %+v vs %+v", i, a.States[i], b.States[i])
		}
	}
	for q := range a.Answers {
		if a.Answers[q].State != b.Answers[q].State || a.Answers[q].Option != b.Answers[q].Option {
			t.Fatalf("answer %d differs between runs", q)
		}
	}
}

func TestRunCanonical_SizeMismatch(t *testing.T) {
	tpl := testSheet()
	img := image.NewRGBA(image.Rect(0, 0, 300, 400))

	if _, err := RunCanonical(img, tpl, testConfig()); err == nil {
		t.Fatal("expected size mismatch error, got nil")
	}
}

func TestRun_FullPipeline(t *testing.T) {
	tpl := testSheet()
	marks := map[int][]int{1: {2}, 4: {1}}
	img := filledSheet(t, tpl, marks)

	// A slight camera tilt; rectification has to undo it.
	rotated := dimaging.Rotate(img, 2, color.White)

	result, err := Run(rotated, tpl, testConfig())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Markers) != len(tpl.Fiducials) {
		t.Fatalf("marker count: got %d, want %d", len(result.Markers), len(tpl.Fiducials))
	}
	wantLetters := []string{"NA", "C", "NA", "NA", "B", "NA"}
	for q, want := range wantLetters {
		if got := result.Answers[q].Letter(); got != want {
			t.Errorf("question %d: got %q, want %q", q, got, want)
		}
	}
}

func TestRun_MirroredSheet(t *testing.T) {
	tpl := testSheet()
	img := filledSheet(t, tpl, map[int][]int{0: {0}, 1: {2}})

	// A sheet photographed through its back still shows four corner markers,
	// and every answer would be read against the wrong column. The run has to
	// abort instead of grading it.
	flipped := dimaging.FlipH(img)

	_, err := Run(flipped, tpl, testConfig())
	if err == nil {
		t.Fatal("expected geometry error for a mirrored sheet, got nil")
	}
	var ge *rectify.GeometryError
	if !errors.As(err, &ge) {
		t.Fatalf("expected *rectify.GeometryError, got %T: %v", err, err)
	}
}

func TestRun_MissingMarkers(t *testing.T) {
	tpl := testSheet()
	img := image.NewRGBA(image.Rect(0, 0, 600, 800))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	_, err := Run(img, tpl, testConfig())
	var ge *rectify.GeometryError
	if !errors.As(err, &ge) {
		t.Fatalf("expected *rectify.GeometryError, got %T: %v", err, err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	tpl := testSheet()
	img := filledSheet(t, tpl, nil)

	cfg := testConfig()
	cfg.MarkThreshold = 0

	if _, err := Run(img, tpl, cfg); err == nil {
		t.Fatal("expected config validation error, got nil")
	}
}

func TestRunCanonical_DebugArtifacts(t *testing.T) {
	tpl := testSheet()
	img := filledSheet(t, tpl, map[int][]int{0: {0}})

	cfg := testConfig()
	cfg.Debug = true
	cfg.OutputDir = t.TempDir()

	result, err := RunCanonical(img, tpl, cfg)
	if err != nil {
		t.Fatalf("RunCanonical failed: %v", err)
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	if err != nil {
		t.Fatal(err)
	}

	var haveCanonical, haveOverlay bool
	for _, e := range entries {
		name := e.Name()
		if !strings.Contains(name, result.RunID) {
			t.Errorf("artifact %s does not embed the run ID", name)
		}
		if strings.HasPrefix(name, "canonical_") {
			haveCanonical = true
		}
		if strings.HasPrefix(name, "overlay_") {
			haveOverlay = true
		}
	}
	if !haveCanonical {
		t.Error("canonical debug artifact missing")
	}
	if !haveOverlay {
		t.Error("overlay debug artifact missing")
	}

	// Artifacts must be real images.
	for _, prefix := range []string{"canonical_", "overlay_"} {
		path := filepath.Join(cfg.OutputDir, prefix+result.RunID+".png")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("artifact %s: %v", path, err)
		}
	}
}

func TestOverlay_DoesNotMutateSource(t *testing.T) {
	tpl := testSheet()
	img := filledSheet(t, tpl, map[int][]int{0: {0}})

	regions := tpl.BubbleRegions()
	result, err := RunCanonical(img, tpl, testConfig())
	if err != nil {
		t.Fatalf("RunCanonical failed: %v", err)
	}

	before := make([]uint8, len(img.Pix))
	copy(before, img.Pix)

	overlay := Overlay(img, regions, result.States)
	if overlay == nil {
		t.Fatal("overlay is nil")
	}
	for i := range img.Pix {
		if img.Pix[i] != before[i] {
			t.Fatal("Overlay mutated the source image")
		}
	}

	// The overlay itself must differ from the source where boxes were drawn.
	same := true
	for i := range overlay.Pix {
		if overlay.Pix[i] != before[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("overlay is pixel-identical to the source, nothing was drawn")
	}
}
