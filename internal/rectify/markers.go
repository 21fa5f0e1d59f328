package rectify

import (
	"image"
	"math"
	"sort"

	"github.com/omr-tools/mcq-scan/internal/template"
)

// Candidate filtering bounds. Printed fiducials are solid squares, so a
// candidate blob must be roughly square, mostly filled, and close to the
// expected printed size once the image scale is accounted for.
const (
	minAreaFactor = 0.2 // accept blobs down to 20% of expected marker area
	maxAreaFactor = 5.0 // and up to 5x (shadows and bleed grow blobs)
	minAspect     = 0.5
	maxAspect     = 2.0
	minSolidity   = 0.6 // a square rotated 45 degrees still scores ~0.5

	// cornerZone is the maximum normalized distance between a candidate and
	// the fiducial position it may be matched to.
	cornerZone = 0.22

	// maxDistortion bounds how far the matched quad's pairwise distance
	// ratios may spread before the configuration is rejected.
	maxDistortion = 0.25

	// ambiguityEpsilon is the distortion margin below which two candidate
	// configurations are considered indistinguishable.
	ambiguityEpsilon = 0.01

	// groupLimit caps how many candidates per fiducial enter the
	// configuration search, bounding its cost.
	groupLimit = 3

	// minAreaMatch and maxAreaMatch bound a candidate's area against the
	// specific fiducial it is grouped under. Tighter than the global
	// detection band: with markers of differing printed sizes, this is
	// what pins each candidate to its own marker and exposes mirrored or
	// upside-down sheets, where the oversized marker lands in the wrong
	// corner.
	minAreaMatch = 0.5
	maxAreaMatch = 2.0
)

// Candidate is a connected dark blob that passed the marker shape filters.
type Candidate struct {
	// Center is the blob's bounding-box center in image coordinates.
	Center image.Point `json:"center"`

	// Area is the number of foreground pixels in the blob.
	Area int `json:"area"`

	// Bounds is the blob's bounding box.
	Bounds image.Rectangle `json:"bounds"`

	// Solidity is Area divided by the bounding-box area (0..1).
	Solidity float64 `json:"solidity"`
}

// DetectCandidates finds fiducial marker candidates in a binary foreground
// mask. expectedArea is the anticipated marker pixel area at the image's
// scale; blobs far outside it, or with non-square proportions, or with low
// fill solidity are discarded.
func DetectCandidates(mask [][]bool, expectedArea float64) []Candidate {
	height := len(mask)
	if height == 0 {
		return nil
	}
	width := len(mask[0])

	visited := make([][]bool, height)
	for y := range visited {
		visited[y] = make([]bool, width)
	}

	var candidates []Candidate
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !mask[y][x] || visited[y][x] {
				continue
			}
			area, bounds := fillBlob(mask, visited, x, y, width, height)

			if float64(area) < minAreaFactor*expectedArea || float64(area) > maxAreaFactor*expectedArea {
				continue
			}
			w, h := bounds.Dx(), bounds.Dy()
			if w == 0 || h == 0 {
				continue
			}
			aspect := float64(w) / float64(h)
			if aspect < minAspect || aspect > maxAspect {
				continue
			}
			solidity := float64(area) / float64(w*h)
			if solidity < minSolidity {
				continue
			}

			candidates = append(candidates, Candidate{
				Center:   image.Pt(bounds.Min.X+w/2, bounds.Min.Y+h/2),
				Area:     area,
				Bounds:   bounds,
				Solidity: solidity,
			})
		}
	}
	return candidates
}

// fillBlob flood-fills the 8-connected foreground component containing
// (startX, startY), returning its pixel count and bounding box. Iterative
// (stack-based) so large components cannot overflow the call stack.
func fillBlob(mask, visited [][]bool, startX, startY, width, height int) (int, image.Rectangle) {
	stack := []image.Point{{X: startX, Y: startY}}
	area := 0
	bounds := image.Rect(startX, startY, startX+1, startY+1)

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !mask[p.Y][p.X] {
			continue
		}
		visited[p.Y][p.X] = true
		area++
		bounds = bounds.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Pt(p.X+dx, p.Y+dy))
			}
		}
	}
	return area, bounds
}

// MatchOutcome tags the result of matching marker candidates to a template.
type MatchOutcome int

const (
	// MatchFound means a unique, well-formed configuration was selected and
	// the transform is valid.
	MatchFound MatchOutcome = iota

	// MatchInsufficient means one or more fiducial positions had no
	// candidate nearby.
	MatchInsufficient

	// MatchDistorted means candidates were present at every position but no
	// configuration's geometry stayed within tolerance.
	MatchDistorted

	// MatchMirrored means the marker layout only fits an inverted
	// orientation: either every within-tolerance configuration has a
	// flipped winding order, or candidates sit at every fiducial position
	// but their sizes match the wrong markers, which is how a mirrored or
	// 180-degree-rotated sheet presents when the positions alone are
	// symmetric.
	MatchMirrored

	// MatchAmbiguous means two configurations aligned about equally well.
	MatchAmbiguous
)

// MarkerMatch is the tagged result of marker matching. Only a MatchFound
// outcome carries a usable Transform; the other outcomes carry the context
// needed for a precise error report.
type MarkerMatch struct {
	Outcome MatchOutcome

	// Transform maps canonical template coordinates to raw image
	// coordinates. Valid only when Outcome is MatchFound.
	Transform Homography

	// Markers are the selected candidate centers, in template fiducial
	// order. Valid only when Outcome is MatchFound.
	Markers []image.Point

	// Found is the number of fiducial positions with at least one
	// candidate; Required is the template's fiducial count.
	Found    int
	Required int

	// Distortion is the winning configuration's geometry score (lower is
	// better); RunnerUp is the score of the next-best configuration, or
	// +Inf when there was only one.
	Distortion float64
	RunnerUp   float64

	// Candidates is the number of configurations evaluated.
	Candidates int
}

// MatchMarkers assigns detected candidates to the template's fiducial layout
// and selects the configuration with the least geometric distortion.
//
// Candidates are grouped by the fiducial position they sit nearest to in
// normalized page coordinates, and must also match that fiducial's printed
// size. Every fiducial must attract at least one candidate; when every
// position has a candidate but the sizes pin them to the wrong markers, the
// sheet is mirrored or upside down. All cross-group combinations (capped per
// group) are scored by how uniformly the pairwise distances between chosen
// centers scale relative to the template; configurations with a flipped
// winding order are also rejected as mirrored. A clear winner yields
// MatchFound with the homography mapping canonical fiducial centers onto the
// chosen candidates.
func MatchMarkers(candidates []Candidate, tpl *template.Sheet, rawW, rawH int) MarkerMatch {
	required := len(tpl.Fiducials)
	match := MarkerMatch{Required: required, RunnerUp: math.Inf(1)}

	groups, positioned := groupByFiducial(candidates, tpl, rawW, rawH)
	for _, g := range groups {
		if len(g) > 0 {
			match.Found++
		}
	}
	if match.Found < required {
		// A candidate near every fiducial position but none surviving the
		// size match means the oversized marker is in the wrong corner.
		for _, p := range positioned {
			if !p {
				match.Outcome = MatchInsufficient
				return match
			}
		}
		match.Outcome = MatchMirrored
		return match
	}

	canonical := make([]pointf, required)
	for i, f := range tpl.Fiducials {
		canonical[i] = pointf{X: float64(f.Center.X), Y: float64(f.Center.Y)}
	}
	wantSign := signedArea(canonical) > 0

	best := math.Inf(1)
	runnerUp := math.Inf(1)
	var bestCombo []Candidate
	mirrored := 0

	for _, combo := range combinations(groups) {
		match.Candidates++
		detected := make([]pointf, required)
		for i, c := range combo {
			detected[i] = pointf{X: float64(c.Center.X), Y: float64(c.Center.Y)}
		}

		d := quadDistortion(canonical, detected)
		if d > maxDistortion {
			continue
		}
		if (signedArea(detected) > 0) != wantSign {
			mirrored++
			continue
		}

		if d < best {
			runnerUp = best
			best = d
			bestCombo = combo
		} else if d < runnerUp {
			runnerUp = d
		}
	}

	match.Distortion = best
	match.RunnerUp = runnerUp

	switch {
	case bestCombo == nil && mirrored > 0:
		match.Outcome = MatchMirrored
		return match
	case bestCombo == nil:
		match.Outcome = MatchDistorted
		return match
	case runnerUp-best < ambiguityEpsilon:
		match.Outcome = MatchAmbiguous
		return match
	}

	src := canonical
	dst := make([]pointf, required)
	for i, c := range bestCombo {
		dst[i] = pointf{X: float64(c.Center.X), Y: float64(c.Center.Y)}
	}
	if required > 4 {
		src = src[:4]
		dst = dst[:4]
	}
	transform, ok := solveHomography(src, dst)
	if !ok {
		match.Outcome = MatchDistorted
		return match
	}

	match.Outcome = MatchFound
	match.Transform = transform
	match.Markers = make([]image.Point, required)
	for i, c := range bestCombo {
		match.Markers[i] = c.Center
	}
	return match
}

// groupByFiducial buckets candidates by the nearest template fiducial in
// normalized [0,1] page coordinates, discarding candidates outside the
// corner zone or outside the size band of that particular fiducial. Each
// bucket keeps at most groupLimit members, preferring the most solid blobs.
//
// The second return value records, per fiducial, whether any candidate sat
// in its corner zone before the size match. A position that attracted a
// candidate of the wrong size is evidence of a mirrored or rotated sheet
// rather than a missing marker.
func groupByFiducial(candidates []Candidate, tpl *template.Sheet, rawW, rawH int) ([][]Candidate, []bool) {
	groups := make([][]Candidate, len(tpl.Fiducials))
	positioned := make([]bool, len(tpl.Fiducials))
	scale := (float64(rawW)/float64(tpl.Width) + float64(rawH)/float64(tpl.Height)) / 2

	for _, c := range candidates {
		nx := float64(c.Center.X) / float64(rawW)
		ny := float64(c.Center.Y) / float64(rawH)

		bestIdx := -1
		bestDist := cornerZone
		for i, f := range tpl.Fiducials {
			fx := float64(f.Center.X) / float64(tpl.Width)
			fy := float64(f.Center.Y) / float64(tpl.Height)
			d := math.Hypot(nx-fx, ny-fy)
			if d < bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			continue
		}
		positioned[bestIdx] = true

		side := float64(tpl.Fiducials[bestIdx].Size) * scale
		ratio := float64(c.Area) / (side * side)
		if ratio < minAreaMatch || ratio > maxAreaMatch {
			continue
		}
		groups[bestIdx] = append(groups[bestIdx], c)
	}

	for i := range groups {
		sort.Slice(groups[i], func(a, b int) bool {
			return groups[i][a].Solidity > groups[i][b].Solidity
		})
		if len(groups[i]) > groupLimit {
			groups[i] = groups[i][:groupLimit]
		}
	}
	return groups, positioned
}

// combinations expands the cross product of the candidate groups: one
// candidate per fiducial position. Group sizes are capped upstream, so the
// product stays small.
func combinations(groups [][]Candidate) [][]Candidate {
	result := [][]Candidate{nil}
	for _, g := range groups {
		var next [][]Candidate
		for _, partial := range result {
			for _, c := range g {
				combo := make([]Candidate, len(partial), len(partial)+1)
				copy(combo, partial)
				next = append(next, append(combo, c))
			}
		}
		result = next
	}
	return result
}

// quadDistortion scores how far the detected point set deviates from a
// uniformly scaled copy of the canonical layout. For every point pair the
// detected/canonical distance ratio is computed; the score is the relative
// spread of those ratios around their mean. A perfect similarity transform
// scores 0; perspective tilt raises it gradually; a wrong candidate jumps it.
func quadDistortion(canonical, detected []pointf) float64 {
	var ratios []float64
	for i := 0; i < len(canonical); i++ {
		for j := i + 1; j < len(canonical); j++ {
			dc := math.Hypot(canonical[i].X-canonical[j].X, canonical[i].Y-canonical[j].Y)
			dd := math.Hypot(detected[i].X-detected[j].X, detected[i].Y-detected[j].Y)
			if dc == 0 || dd == 0 {
				return math.Inf(1)
			}
			ratios = append(ratios, dd/dc)
		}
	}

	var mean float64
	for _, r := range ratios {
		mean += r
	}
	mean /= float64(len(ratios))
	if mean == 0 {
		return math.Inf(1)
	}

	var spread float64
	for _, r := range ratios {
		d := r/mean - 1
		spread += d * d
	}
	return math.Sqrt(spread / float64(len(ratios)))
}

// signedArea computes twice the signed polygon area via the shoelace
// formula. The sign encodes winding order, which flips under mirroring.
func signedArea(pts []pointf) float64 {
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return sum
}
