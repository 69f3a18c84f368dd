package interval

import (
	"image/color"
	"math"
)

// Record is one fact stored in a Tree: while the query window overlaps
// [Start, End) the owning attribute has OnValue; outside it, OffValue applies
// when HasOff is set.
//
// Records are shared by pointer between the tree, its Index and the owning
// Attribute; identity (not value) is what the snapshot engine diffs on.
type Record[V any] struct {
	Interval

	OnValue  V
	OffValue V
	HasOff   bool

	// Attribute is the logical attribute this record belongs to. It may be
	// nil for records inserted directly into a tree.
	Attribute *Attribute[V]

	// IsOn is set by the last snapshot diff that saw this record. It is not
	// part of the record's identity.
	IsOn bool
}

// NewRecord validates [start, end) and returns a record carrying on.
func NewRecord[V any](start, end float64, on V) (*Record[V], error) {
	iv, err := New(start, end)
	if err != nil {
		return nil, err
	}

	return &Record[V]{Interval: iv, OnValue: on}, nil
}

// WithOff sets the value revealed outside the record's range.
func (r *Record[V]) WithOff(off V) *Record[V] {
	r.OffValue = off
	r.HasOff = true

	return r
}

// GetOnValue returns the value asserted while the record is active.
func (r *Record[V]) GetOnValue() V {
	return r.OnValue
}

// GetOffValue returns the value revealed when the record is inactive.
func (r *Record[V]) GetOffValue() (V, bool) {
	return r.OffValue, r.HasOff
}

// Overlaps reports whether the record's range overlaps other's.
func (r *Record[V]) Overlaps(other *Record[V]) bool {
	return r.Interval.Overlaps(other.Interval)
}

// CompareOverlap returns Overlap or Disjoint for the two records' ranges.
func (r *Record[V]) CompareOverlap(other *Record[V]) Relation {
	return r.Compare(other.Interval)
}

// Interpolate blends OnValue towards other by alpha in [0, 1].
//
// Integers, floats and RGBA colors are interpolated linearly; any other value
// type is returned unchanged.
func (r *Record[V]) Interpolate(other V, alpha float64) V {
	alpha = math.Max(0, math.Min(1, alpha))

	var out any

	switch from := any(r.OnValue).(type) {
	case float64:
		to, _ := any(other).(float64)
		out = lerp(from, to, alpha)
	case float32:
		to, _ := any(other).(float32)
		out = float32(lerp(float64(from), float64(to), alpha))
	case int:
		to, _ := any(other).(int)
		out = int(math.Round(lerp(float64(from), float64(to), alpha)))
	case int32:
		to, _ := any(other).(int32)
		out = int32(math.Round(lerp(float64(from), float64(to), alpha)))
	case int64:
		to, _ := any(other).(int64)
		out = int64(math.Round(lerp(float64(from), float64(to), alpha)))
	case color.RGBA:
		to, _ := any(other).(color.RGBA)
		out = color.RGBA{
			R: lerpByte(from.R, to.R, alpha),
			G: lerpByte(from.G, to.G, alpha),
			B: lerpByte(from.B, to.B, alpha),
			A: lerpByte(from.A, to.A, alpha),
		}
	case color.NRGBA:
		to, _ := any(other).(color.NRGBA)
		out = color.NRGBA{
			R: lerpByte(from.R, to.R, alpha),
			G: lerpByte(from.G, to.G, alpha),
			B: lerpByte(from.B, to.B, alpha),
			A: lerpByte(from.A, to.A, alpha),
		}
	default:
		return r.OnValue
	}

	result, ok := out.(V)
	if !ok {
		return r.OnValue
	}

	return result
}

func lerp(from, to, alpha float64) float64 {
	return from + (to-from)*alpha
}

func lerpByte(from, to uint8, alpha float64) uint8 {
	return uint8(math.Round(lerp(float64(from), float64(to), alpha)))
}
