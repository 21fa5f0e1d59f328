package rectify

import "fmt"

// GeometryError reports a fatal failure to locate the sheet's fiducial
// markers. It aborts the run: a guessed alignment would silently corrupt
// every downstream answer, so no partial result is ever produced.
type GeometryError struct {
	// Reason describes what went wrong ("insufficient markers",
	// "mirrored or upside-down marker layout", ...).
	Reason string

	// Found and Required count fiducial markers when the failure is a
	// detection shortfall; both are zero otherwise.
	Found    int
	Required int
}

func (e *GeometryError) Error() string {
	if e.Required > 0 {
		return fmt.Sprintf("rectify: %s: %d of %d required fiducials detected", e.Reason, e.Found, e.Required)
	}
	return fmt.Sprintf("rectify: %s", e.Reason)
}

// GeometryAmbiguousError reports that more than one marker configuration
// aligned the sheet about equally well. Like GeometryError it is fatal:
// picking one arbitrarily could flip the sheet or shift the grid.
type GeometryAmbiguousError struct {
	// Best and RunnerUp are the distortion scores of the two closest
	// configurations (lower is better).
	Best     float64
	RunnerUp float64

	// Candidates is the number of configurations that were considered.
	Candidates int
}

func (e *GeometryAmbiguousError) Error() string {
	return fmt.Sprintf("rectify: ambiguous marker layout: %d candidate configurations, best distortion %.4f vs runner-up %.4f",
		e.Candidates, e.Best, e.RunnerUp)
}
