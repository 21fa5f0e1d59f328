// Package resolve reduces per-bubble classifications into one answer per
// question: the chosen option, BLANK, or AMBIGUOUS.
//
// Resolution is a pure, deterministic reduction over already-computed bubble
// states. Ambiguity is a data outcome, never an error: once alignment
// succeeded, a full answer map is always produced.
package resolve

import (
	"sort"
	"strings"

	"github.com/omr-tools/mcq-scan/internal/classify"
	"github.com/omr-tools/mcq-scan/internal/config"
	"github.com/omr-tools/mcq-scan/internal/template"
)

// AnswerState is the terminal state of one question after resolution.
type AnswerState int

const (
	// Blank means no bubble was marked.
	Blank AnswerState = iota

	// Single means exactly one bubble was marked.
	Single

	// Ambiguous means two or more bubbles were marked, or two fill ratios
	// tied at the threshold. The grading layer decides how to score it.
	Ambiguous
)

func (s AnswerState) String() string {
	switch s {
	case Blank:
		return "BLANK"
	case Single:
		return "SINGLE"
	case Ambiguous:
		return "AMBIGUOUS"
	default:
		return "UNKNOWN"
	}
}

// QuestionAnswer is the resolved outcome for one question, retaining the
// contributing bubble states for audit.
type QuestionAnswer struct {
	// Question is the 0-based question index.
	Question int `json:"question"`

	// State is the resolution outcome.
	State AnswerState `json:"state"`

	// Option is the chosen 0-based option index when State is Single,
	// and -1 otherwise.
	Option int `json:"option"`

	// Options lists all marked option indices (ascending) when State is
	// Ambiguous; nil otherwise.
	Options []int `json:"options,omitempty"`

	// Confidence is the chosen bubble's confidence when State is Single,
	// zero otherwise.
	Confidence float64 `json:"confidence"`

	// Bubbles are the per-option states this answer was derived from.
	Bubbles []classify.BubbleState `json:"bubbles,omitempty"`
}

// Letter renders the answer the way it appears in exported files: the
// option letter for a single choice, "NA" for blank, and the marked letters
// joined with "|" for an ambiguous answer.
func (qa QuestionAnswer) Letter() string {
	switch qa.State {
	case Single:
		return string(template.OptionLetters[qa.Option])
	case Ambiguous:
		letters := make([]string, len(qa.Options))
		for i, opt := range qa.Options {
			letters[i] = string(template.OptionLetters[opt])
		}
		return strings.Join(letters, "|")
	default:
		return "NA"
	}
}

// Resolve reduces the bubble states of one question to its final answer.
//
// Exactly one marked bubble resolves to that option with the bubble's
// confidence. Zero marked bubbles resolve to Blank. Two or more marked
// bubbles resolve to Ambiguous, listing every marked option. A single
// marked bubble is additionally demoted to Ambiguous when another bubble's
// fill ratio reaches the mark threshold within cfg.TieEpsilon of it: a
// near-tie must never be silently resolved to one option.
func Resolve(question int, states []classify.BubbleState, cfg config.Config) QuestionAnswer {
	qa := QuestionAnswer{Question: question, Option: -1, Bubbles: states}

	var marked []classify.BubbleState
	for _, st := range states {
		if st.Marked {
			marked = append(marked, st)
		}
	}

	switch len(marked) {
	case 0:
		qa.State = Blank
	case 1:
		winner := marked[0]
		// Classifier output cannot reach this branch with a true tie: any
		// other bubble at or above the mark threshold would itself be
		// marked, landing the question in the multi-marked case below. The
		// check still matters for states assembled by other callers, where
		// the Marked flag and FillRatio need not be coupled.
		if tied(winner, states, cfg) {
			qa.State = Ambiguous
			qa.Options = []int{winner.Option}
			for _, st := range states {
				if st.Option != winner.Option && st.FillRatio >= cfg.MarkThreshold {
					qa.Options = append(qa.Options, st.Option)
				}
			}
			sort.Ints(qa.Options)
			break
		}
		qa.State = Single
		qa.Option = winner.Option
		qa.Confidence = winner.Confidence
	default:
		qa.State = Ambiguous
		qa.Options = make([]int, len(marked))
		for i, st := range marked {
			qa.Options[i] = st.Option
		}
		sort.Ints(qa.Options)
	}
	return qa
}

// tied reports whether some other bubble both clears the mark threshold and
// sits within the tie epsilon of the winner's fill ratio.
func tied(winner classify.BubbleState, states []classify.BubbleState, cfg config.Config) bool {
	for _, st := range states {
		if st.Option == winner.Option {
			continue
		}
		diff := winner.FillRatio - st.FillRatio
		if diff < 0 {
			diff = -diff
		}
		if st.FillRatio >= cfg.MarkThreshold && winner.FillRatio >= cfg.MarkThreshold && diff <= cfg.TieEpsilon {
			return true
		}
	}
	return false
}

// ResolveAll groups the flat, (question, option)-ordered state slice
// produced by the classifier and resolves every question, returning exactly
// tpl.Questions answers ordered by question index.
func ResolveAll(states []classify.BubbleState, tpl *template.Sheet, cfg config.Config) []QuestionAnswer {
	perQuestion := make(map[int][]classify.BubbleState, tpl.Questions)
	for _, st := range states {
		perQuestion[st.Question] = append(perQuestion[st.Question], st)
	}

	answers := make([]QuestionAnswer, tpl.Questions)
	for q := 0; q < tpl.Questions; q++ {
		answers[q] = Resolve(q, perQuestion[q], cfg)
	}
	return answers
}
