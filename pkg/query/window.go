// Package query answers snapshot questions over a loaded network: what
// exists during a window, who is adjacent to a node, and how nodes connect.
//
// A Service owns one snapshot engine and serializes every
// move-then-read sequence on it, so concurrent callers always read the
// snapshot they asked for.
package query

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/Sumatoshi-tech/timegraph/pkg/alg/interval"
)

// Sentinel errors.
var (
	// ErrEmptyQuery is returned when a window names neither an instant nor a bound.
	ErrEmptyQuery = errors.New("query needs at, start or end")
	// ErrAmbiguousQuery is returned when a window mixes an instant with bounds.
	ErrAmbiguousQuery = errors.New("at cannot be combined with start or end")
	// ErrBadTime is returned for a time that does not parse as a number.
	ErrBadTime = errors.New("invalid time")
)

// Window selects the query interval of a request. Either At is set, or at
// least one of Start and End; a missing bound is unbounded.
type Window struct {
	At    *float64 `json:"at,omitempty"`
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
}

// At returns a window for the single time t.
func At(t float64) Window {
	return Window{At: &t}
}

// Between returns a window for [start, end).
func Between(start, end float64) Window {
	return Window{Start: &start, End: &end}
}

// ParseWindow builds a window from textual times. Empty strings are absent;
// "inf" and "-inf" are accepted.
func ParseWindow(at, start, end string) (Window, error) {
	var w Window

	for _, field := range []struct {
		name string
		text string
		dst  **float64
	}{
		{"at", at, &w.At},
		{"start", start, &w.Start},
		{"end", end, &w.End},
	} {
		if field.text == "" {
			continue
		}

		v, err := strconv.ParseFloat(field.text, 64)
		if err != nil || math.IsNaN(v) {
			return Window{}, fmt.Errorf("%w: %s=%q", ErrBadTime, field.name, field.text)
		}

		*field.dst = &v
	}

	return w, nil
}

// Resolve turns the window into a query interval. With At set, width > 0
// gives [at, at+width) and width 0 gives the instant at.
func (w Window) Resolve(width float64) (interval.Interval, error) {
	if w.At != nil {
		if w.Start != nil || w.End != nil {
			return interval.Interval{}, ErrAmbiguousQuery
		}

		if width > 0 {
			return interval.New(*w.At, *w.At+width)
		}

		return interval.New(*w.At, *w.At)
	}

	if w.Start == nil && w.End == nil {
		return interval.Interval{}, ErrEmptyQuery
	}

	iv := interval.Unbounded()

	if w.Start != nil {
		iv.Start = *w.Start
	}

	if w.End != nil {
		iv.End = *w.End
	}

	return interval.New(iv.Start, iv.End)
}
