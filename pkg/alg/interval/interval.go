// Package interval provides the time-interval index behind graph snapshots.
//
// Facts such as "node N exists" or "edge E has weight 3" are stored as
// half-open ranges [Start, End) on a real-valued time axis. The Tree type is
// a red-black tree keyed by (Start, End) where each node also stores the
// maximum End in its subtree (maxEnd), enabling subtree pruning during
// overlap queries: O(log N) insert/delete and O(log N + k) search, where k is
// the number of overlapping records.
//
// Nodes live in an arena and link to each other through integer handles;
// handle zero is the shared black sentinel.
package interval

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidInterval is returned when an interval has Start > End or a NaN bound.
var ErrInvalidInterval = errors.New("invalid interval")

// Interval is a half-open range [Start, End) on the time axis.
//
// Start == End denotes the single instant Start. Start == -Inf and
// End == +Inf mean the range is unbounded in that direction.
type Interval struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end"   yaml:"end"`
}

// Relation classifies how two intervals relate.
type Relation int

// Relation values returned by Interval.Compare.
const (
	// Disjoint means the two intervals share no instant.
	Disjoint Relation = iota
	// Overlap means the two intervals share at least one instant.
	Overlap
)

// String returns the relation name.
func (r Relation) String() string {
	if r == Overlap {
		return "overlap"
	}

	return "disjoint"
}

// New validates and returns the interval [start, end).
func New(start, end float64) (Interval, error) {
	iv := Interval{Start: start, End: end}

	err := iv.Validate()
	if err != nil {
		return Interval{}, err
	}

	return iv, nil
}

// Instant returns the degenerate interval [t, t).
func Instant(t float64) Interval {
	return Interval{Start: t, End: t}
}

// Unbounded returns (-Inf, +Inf).
func Unbounded() Interval {
	return Interval{Start: math.Inf(-1), End: math.Inf(1)}
}

// Validate reports ErrInvalidInterval for NaN bounds, Start > End, a +Inf
// start or a -Inf end.
func (iv Interval) Validate() error {
	if math.IsNaN(iv.Start) || math.IsNaN(iv.End) {
		return fmt.Errorf("%w: NaN bound in %s", ErrInvalidInterval, iv)
	}

	if iv.Start > iv.End {
		return fmt.Errorf("%w: start %g after end %g", ErrInvalidInterval, iv.Start, iv.End)
	}

	// [+inf, +inf) and [-inf, -inf) cover no finite instant.
	if math.IsInf(iv.Start, 1) || math.IsInf(iv.End, -1) {
		return fmt.Errorf("%w: %s covers no finite time", ErrInvalidInterval, iv)
	}

	return nil
}

// IsInstant reports whether the interval is the degenerate [t, t).
func (iv Interval) IsInstant() bool {
	return iv.Start == iv.End
}

// Contains reports whether instant t lies inside the interval.
func (iv Interval) Contains(t float64) bool {
	if iv.IsInstant() {
		return iv.Start == t
	}

	return iv.Start <= t && t < iv.End
}

// Overlaps reports whether the two intervals share an instant.
//
// A range [s, e) covers s <= t < e; an instant [t, t) covers only t. So an
// instant at a range's start overlaps it, an instant at its end does not, and
// two ranges that merely touch ([0,5) and [5,9)) are disjoint.
func (iv Interval) Overlaps(other Interval) bool {
	switch {
	case iv.IsInstant() && other.IsInstant():
		return iv.Start == other.Start
	case iv.IsInstant():
		return other.Start <= iv.Start && iv.Start < other.End
	case other.IsInstant():
		return iv.Start <= other.Start && other.Start < iv.End
	default:
		return iv.Start < other.End && other.Start < iv.End
	}
}

// Compare returns Overlap or Disjoint.
func (iv Interval) Compare(other Interval) Relation {
	if iv.Overlaps(other) {
		return Overlap
	}

	return Disjoint
}

// Touches reports whether the intervals overlap or are adjacent
// (one ends exactly where the other starts).
func (iv Interval) Touches(other Interval) bool {
	return iv.Start <= other.End && other.Start <= iv.End
}

// String formats the interval as [start, end).
func (iv Interval) String() string {
	return "[" + formatBound(iv.Start) + ", " + formatBound(iv.End) + ")"
}

func formatBound(v float64) string {
	switch {
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsInf(v, 1):
		return "+inf"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

// compareKey orders (start, end) keys lexicographically.
func compareKey(startA, endA, startB, endB float64) int {
	switch {
	case startA < startB:
		return -1
	case startA > startB:
		return 1
	case endA < endB:
		return -1
	case endA > endB:
		return 1
	default:
		return 0
	}
}

// isFinite reports whether v is neither infinite nor NaN.
func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
