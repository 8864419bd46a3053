package element

import (
	"fmt"
	"math"
	"strings"
)

// Selection is the execution a viewer colours elements by.
type Selection int

const (
	SelectSingle Selection = iota
	SelectA
	SelectB
	SelectBoth
)

var selectionNames = [...]string{
	SelectSingle: "single",
	SelectA:      "A",
	SelectB:      "B",
	SelectBoth:   "both",
}

func (s Selection) String() string {
	if s < 0 || int(s) >= len(selectionNames) {
		return "unknown"
	}
	return selectionNames[s]
}

// ParseSelection parses "single", "A", "B" or "both".
func ParseSelection(s string) (Selection, error) {
	switch strings.ToLower(s) {
	case "single", "":
		return SelectSingle, nil
	case "a":
		return SelectA, nil
	case "b":
		return SelectB, nil
	case "both", "difference":
		return SelectBoth, nil
	}
	return SelectSingle, fmt.Errorf("unknown selection %q", s)
}

// Aggregates are the per-graph maxima used to normalize counts.
type Aggregates struct {
	HighestCount       int `json:"highest_count,omitempty" bson:"highest_count,omitempty"`
	HighestCountA      int `json:"highest_count_a,omitempty" bson:"highest_count_a,omitempty"`
	HighestCountB      int `json:"highest_count_b,omitempty" bson:"highest_count_b,omitempty"`
	MaxCountDifference int `json:"max_count_difference,omitempty" bson:"max_count_difference,omitempty"`
	MinCountDifference int `json:"min_count_difference,omitempty" bson:"min_count_difference,omitempty"`
}

// DisplayCount is the value shown for an element together with the range
// it is coloured against.
type DisplayCount struct {
	Count int
	Min   int
	Max   int
}

// ResolveDisplayCount picks the count an element shows for a selection.
// Single, A and B use [1, highest count]; Both shows the count difference
// against a range that always spans at least [-1, 1].
func ResolveDisplayCount(el *Element, agg Aggregates, sel Selection) DisplayCount {
	switch sel {
	case SelectA:
		return DisplayCount{Count: el.Counts.A, Min: 1, Max: agg.HighestCountA}
	case SelectB:
		return DisplayCount{Count: el.Counts.B, Min: 1, Max: agg.HighestCountB}
	case SelectBoth:
		return DisplayCount{
			Count: el.CountDifference(),
			Min:   min(agg.MinCountDifference, -1),
			Max:   max(agg.MaxCountDifference, 1),
		}
	}
	return DisplayCount{Count: el.Count, Min: 1, Max: agg.HighestCount}
}

// GradientSteps is the number of colour buckets in a count gradient.
const GradientSteps = 10

// GradientStep quantizes count into one of steps equal buckets over
// [lo, hi]. Values outside the range clamp to the first or last bucket.
func GradientStep(count, lo, hi, steps int) int {
	if steps <= 1 || hi <= lo {
		return 0
	}
	i := int(math.Floor(float64(count-lo) / float64(hi-lo) * float64(steps)))
	return max(0, min(steps-1, i))
}

// Colour keys returned by ResolveDisplayColorKey.
const (
	ColorUntraversed = "untraversed"
	ColorOnlyA       = "only-a"
	ColorOnlyB       = "only-b"
	ColorAbsent      = "absent"
)

// ResolveDisplayColorKey returns a presentation-neutral colour key for an
// element. Untraversed elements of a Single view get ColorUntraversed.
// When structure is set on a Contrast view, elements missing from one
// execution get ColorOnlyA or ColorOnlyB. Everything else gets a gradient
// key "count-N" or, for Both, "diff-N".
func ResolveDisplayColorKey(el *Element, agg Aggregates, sel Selection, structure bool) string {
	if structure && el.View == Contrast {
		switch {
		case el.Membership.A && !el.Membership.B:
			return ColorOnlyA
		case el.Membership.B && !el.Membership.A:
			return ColorOnlyB
		case !el.Membership.A && !el.Membership.B:
			return ColorAbsent
		}
	}

	dc := ResolveDisplayCount(el, agg, sel)
	if sel == SelectSingle && dc.Count == 0 {
		return ColorUntraversed
	}
	palette := "count"
	if sel == SelectBoth {
		palette = "diff"
	}
	return fmt.Sprintf("%s-%d", palette, GradientStep(dc.Count, dc.Min, dc.Max, GradientSteps))
}

// Log levels recognised on task nodes, most verbose first.
var Levels = []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// NormalizeLevel upper-cases a level and folds common aliases onto Levels.
// Unknown levels are returned upper-cased.
func NormalizeLevel(level string) string {
	l := strings.ToUpper(strings.TrimSpace(level))
	switch l {
	case "WARNING":
		return "WARN"
	case "CRITICAL":
		return "FATAL"
	case "TRACE":
		return "DEBUG"
	}
	return l
}
